package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/staybook/service-stays/internal/domain"
	listingDomain "github.com/staybook/service-stays/internal/domain/listing"
	placeDomain "github.com/staybook/service-stays/internal/domain/place"
)

// PlaceModel is the GORM model for the hot-places table.
type PlaceModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null;size:200"`
	Address      string    `gorm:"not null;size:500"`
	DistrictCode int64     `gorm:"index;not null"`
	Lat          float64   `gorm:"not null"`
	Lon          float64   `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PlaceModel) TableName() string {
	return "places"
}

// GormPlaceRepository is the GORM-based implementation of the place
// repository contract.
type GormPlaceRepository struct {
	db *gorm.DB
}

// NewGormPlaceRepository creates a new GormPlaceRepository.
func NewGormPlaceRepository(db *gorm.DB) *GormPlaceRepository {
	return &GormPlaceRepository{db: db}
}

// FindByDistrict retrieves all places in a district.
func (r *GormPlaceRepository) FindByDistrict(ctx context.Context, districtCode int64) ([]*placeDomain.Place, error) {
	var models []PlaceModel
	if err := r.db.WithContext(ctx).
		Where("district_code = ?", districtCode).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, domain.NewUnavailableError("failed to find district places", err)
	}

	places := make([]*placeDomain.Place, len(models))
	for i, m := range models {
		places[i] = placeDomain.ReconstructPlace(
			m.ID, m.Name, m.Address, m.DistrictCode,
			listingDomain.GeoPoint{Lat: m.Lat, Lon: m.Lon},
			m.CreatedAt,
		)
	}
	return places, nil
}

// Save persists a new place.
func (r *GormPlaceRepository) Save(ctx context.Context, p *placeDomain.Place) error {
	model := &PlaceModel{
		ID:           p.ID(),
		Name:         p.Name(),
		Address:      p.Address(),
		DistrictCode: p.DistrictCode(),
		Lat:          p.Location().Lat,
		Lon:          p.Location().Lon,
		CreatedAt:    p.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domain.NewUnavailableError("failed to save place", err)
	}
	return nil
}
