// Package listing holds the rentable-unit aggregate and its search
// contract. Listings are read-mostly reference data for the booking
// lifecycle: creation re-reads them under lock only to confirm existence.
package listing

import (
	"time"

	"github.com/google/uuid"

	"github.com/staybook/service-stays/internal/domain"
	"github.com/staybook/service-stays/internal/domain/booking"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Listing is the aggregate root for a rentable stay unit.
type Listing struct {
	id          uuid.UUID
	hostID      uuid.UUID
	name        string
	address     string
	description string
	capacity    int
	location    GeoPoint
	photoURLs   []string
	createdAt   time.Time
}

// NewListing creates a Listing aggregate.
func NewListing(
	hostID uuid.UUID,
	name string,
	address string,
	description string,
	capacity int,
	location GeoPoint,
	photoURLs []string,
	now time.Time,
) (*Listing, error) {
	if hostID == uuid.Nil {
		return nil, domain.NewValidationError(domain.CodeValidation, "host ID is required")
	}
	if name == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "listing name is required")
	}
	if address == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "listing address is required")
	}
	if capacity <= 0 {
		return nil, domain.NewValidationError(domain.CodeValidation, "capacity must be positive")
	}
	if err := validateCoordinates(location.Lat, location.Lon); err != nil {
		return nil, err
	}
	return &Listing{
		id:          uuid.New(),
		hostID:      hostID,
		name:        name,
		address:     address,
		description: description,
		capacity:    capacity,
		location:    location,
		photoURLs:   photoURLs,
		createdAt:   now.UTC(),
	}, nil
}

// ReconstructListing rebuilds a Listing from persistence data (no validation).
func ReconstructListing(
	id, hostID uuid.UUID,
	name, address, description string,
	capacity int,
	location GeoPoint,
	photoURLs []string,
	createdAt time.Time,
) *Listing {
	return &Listing{
		id:          id,
		hostID:      hostID,
		name:        name,
		address:     address,
		description: description,
		capacity:    capacity,
		location:    location,
		photoURLs:   photoURLs,
		createdAt:   createdAt,
	}
}

// ID returns the listing's unique identifier.
func (l *Listing) ID() uuid.UUID { return l.id }

// HostID returns the owning host's user ID.
func (l *Listing) HostID() uuid.UUID { return l.hostID }

// Name returns the listing's display name.
func (l *Listing) Name() string { return l.name }

// Address returns the listing's street address.
func (l *Listing) Address() string { return l.address }

// Description returns the listing's description.
func (l *Listing) Description() string { return l.description }

// Capacity returns the maximum guest count.
func (l *Listing) Capacity() int { return l.capacity }

// Location returns the geocoded coordinates.
func (l *Listing) Location() GeoPoint { return l.location }

// PhotoURLs returns the uploaded photo URLs.
func (l *Listing) PhotoURLs() []string { return l.photoURLs }

// CreatedAt returns the creation timestamp.
func (l *Listing) CreatedAt() time.Time { return l.createdAt }

// OwnedBy reports whether the given host owns this listing.
func (l *Listing) OwnedBy(hostID uuid.UUID) bool {
	return l.hostID == hostID
}

// SearchParams describes an availability search: listings within
// RadiusMeters of the point, with capacity >= MinCapacity, and no
// committed booking overlapping Dates.
type SearchParams struct {
	Lat          float64
	Lon          float64
	RadiusMeters float64
	Dates        booking.DateRange
	MinCapacity  int
}

// NewSearchParams validates search input before any query is issued.
// Validation order follows the write path: coordinates, radius, date range.
func NewSearchParams(
	lat, lon, radiusMeters float64,
	checkIn, checkOut time.Time,
	minCapacity int,
	now time.Time,
) (SearchParams, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return SearchParams{}, err
	}
	if radiusMeters <= 0 {
		return SearchParams{}, domain.NewValidationError(
			domain.CodeInvalidRadius,
			"search radius must be positive",
		)
	}
	dates, err := booking.NewDateRange(checkIn, checkOut)
	if err != nil {
		return SearchParams{}, err
	}
	if err := booking.ValidateCheckIn(dates, now); err != nil {
		return SearchParams{}, err
	}
	if minCapacity < 1 {
		minCapacity = 1
	}
	return SearchParams{
		Lat:          lat,
		Lon:          lon,
		RadiusMeters: radiusMeters,
		Dates:        dates,
		MinCapacity:  minCapacity,
	}, nil
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.NewValidationError(
			domain.CodeInvalidCoordinates,
			"latitude must be in [-90, 90] and longitude in [-180, 180]",
		)
	}
	return nil
}
