// Package place holds curated hot places: named points of interest tagged
// with a district code, shown to guests alongside listings.
package place

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/staybook/service-stays/internal/domain"
	"github.com/staybook/service-stays/internal/domain/listing"
)

// Place is a geocoded point of interest within a district.
type Place struct {
	id           uuid.UUID
	name         string
	address      string
	districtCode int64
	location     listing.GeoPoint
	createdAt    time.Time
}

// NewPlace creates a Place aggregate.
func NewPlace(name, address string, districtCode int64, location listing.GeoPoint, now time.Time) (*Place, error) {
	if name == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "place name is required")
	}
	if address == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "place address is required")
	}
	if districtCode <= 0 {
		return nil, domain.NewValidationError(domain.CodeValidation, "district code must be positive")
	}
	return &Place{
		id:           uuid.New(),
		name:         name,
		address:      address,
		districtCode: districtCode,
		location:     location,
		createdAt:    now.UTC(),
	}, nil
}

// ReconstructPlace rebuilds a Place from persistence data (no validation).
func ReconstructPlace(id uuid.UUID, name, address string, districtCode int64, location listing.GeoPoint, createdAt time.Time) *Place {
	return &Place{
		id:           id,
		name:         name,
		address:      address,
		districtCode: districtCode,
		location:     location,
		createdAt:    createdAt,
	}
}

// ID returns the place's unique identifier.
func (p *Place) ID() uuid.UUID { return p.id }

// Name returns the place's display name.
func (p *Place) Name() string { return p.name }

// Address returns the place's street address.
func (p *Place) Address() string { return p.address }

// DistrictCode returns the administrative district the place belongs to.
func (p *Place) DistrictCode() int64 { return p.districtCode }

// Location returns the geocoded coordinates.
func (p *Place) Location() listing.GeoPoint { return p.location }

// CreatedAt returns the creation timestamp.
func (p *Place) CreatedAt() time.Time { return p.createdAt }

// Repository defines the persistence contract for hot places.
type Repository interface {
	// FindByDistrict retrieves all places in a district.
	FindByDistrict(ctx context.Context, districtCode int64) ([]*Place, error)

	// Save persists a new place.
	Save(ctx context.Context, place *Place) error
}
