package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/staybook/service-stays/internal/domain"
)

// Booking is the aggregate root for a committed stay reservation.
// A booking is immutable once committed: there are no in-place date edits,
// only creation through the booking lifecycle and deletion through an
// explicit cancel by the owning guest.
type Booking struct {
	id        uuid.UUID
	guestID   uuid.UUID
	listingID uuid.UUID
	dates     DateRange
	createdAt time.Time
}

// NewBooking creates a Booking aggregate for the commit step of the
// lifecycle. Date-range ordering is assumed to have been validated when the
// DateRange was built; identity fields are checked here.
func NewBooking(guestID, listingID uuid.UUID, dates DateRange, now time.Time) (*Booking, error) {
	if guestID == uuid.Nil {
		return nil, domain.NewValidationError(domain.CodeValidation, "guest ID is required")
	}
	if listingID == uuid.Nil {
		return nil, domain.NewValidationError(domain.CodeValidation, "listing ID is required")
	}
	return &Booking{
		id:        uuid.New(),
		guestID:   guestID,
		listingID: listingID,
		dates:     dates,
		createdAt: now.UTC(),
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(id, guestID, listingID uuid.UUID, dates DateRange, createdAt time.Time) *Booking {
	return &Booking{
		id:        id,
		guestID:   guestID,
		listingID: listingID,
		dates:     dates,
		createdAt: createdAt,
	}
}

// ID returns the booking's unique identifier, assigned on commit.
func (b *Booking) ID() uuid.UUID { return b.id }

// GuestID returns the booking guest's user ID.
func (b *Booking) GuestID() uuid.UUID { return b.guestID }

// ListingID returns the booked listing's ID.
func (b *Booking) ListingID() uuid.UUID { return b.listingID }

// Dates returns the booked date range.
func (b *Booking) Dates() DateRange { return b.dates }

// CreatedAt returns the commit timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// OwnedBy reports whether the given guest owns this booking. Cancellation
// is only allowed for the owning guest.
func (b *Booking) OwnedBy(guestID uuid.UUID) bool {
	return b.guestID == guestID
}
