// Package events defines the service's outbound event contract and the
// Kafka producer that publishes it.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topics published by this service.
const (
	TopicBookingEvents = "stays.booking.events"
	TopicListingEvents = "stays.listing.events"
)

// Event types.
const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
	ListingCreated   = "listing.created"
	ListingDeleted   = "listing.deleted"
)

// CloudEvent is the envelope every published message is wrapped in.
type CloudEvent struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	SpecVersion string          `json:"specversion"`
	Type        string          `json:"type"`
	Time        time.Time       `json:"time"`
	Data        json.RawMessage `json:"data"`
}

// NewCloudEvent wraps data in a CloudEvent envelope.
func NewCloudEvent(source, eventType string, data interface{}) (CloudEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, fmt.Errorf("events: marshal %s data: %w", eventType, err)
	}
	return CloudEvent{
		ID:          uuid.NewString(),
		Source:      source,
		SpecVersion: "1.0",
		Type:        eventType,
		Time:        time.Now().UTC(),
		Data:        payload,
	}, nil
}

// ParseCloudEvent decodes a raw message into a CloudEvent envelope.
func ParseCloudEvent(raw []byte) (CloudEvent, error) {
	var ce CloudEvent
	if err := json.Unmarshal(raw, &ce); err != nil {
		return CloudEvent{}, fmt.Errorf("events: parse cloud event: %w", err)
	}
	return ce, nil
}

// ParseData decodes the envelope payload into out.
func (e CloudEvent) ParseData(out interface{}) error {
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("events: parse %s data: %w", e.Type, err)
	}
	return nil
}

// BookingCreatedEvent is published after a booking commits.
type BookingCreatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ListingID  uuid.UUID `json:"listing_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published after a guest cancels a booking.
type BookingCancelledEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ListingID  uuid.UUID `json:"listing_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ListingCreatedEvent is published after a host creates a listing.
type ListingCreatedEvent struct {
	ListingID  uuid.UUID `json:"listing_id"`
	HostID     uuid.UUID `json:"host_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Capacity   int       `json:"capacity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ListingDeletedEvent is published after a host deletes a listing.
type ListingDeletedEvent struct {
	ListingID  uuid.UUID `json:"listing_id"`
	HostID     uuid.UUID `json:"host_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
