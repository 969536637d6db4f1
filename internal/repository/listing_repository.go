package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/staybook/service-stays/internal/domain"
	listingDomain "github.com/staybook/service-stays/internal/domain/listing"
)

// ListingModel is the GORM model for the listings table.
type ListingModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	HostID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	Name        string          `gorm:"not null;size:200"`
	Address     string          `gorm:"not null;size:500"`
	Description string          `gorm:"size:2000"`
	Capacity    int             `gorm:"not null"`
	Lat         float64         `gorm:"not null"`
	Lon         float64         `gorm:"not null"`
	PhotoURLs   json.RawMessage `gorm:"type:jsonb"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ListingModel) TableName() string {
	return "listings"
}

// GormListingRepository is the GORM-based implementation of the listing
// repository contract.
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository.
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID retrieves a listing by its unique identifier.
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	var model ListingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("listing", id.String())
		}
		return nil, domain.NewUnavailableError("failed to find listing", err)
	}
	return toDomainListing(&model)
}

// FindByHostID retrieves all listings owned by a host.
func (r *GormListingRepository) FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*listingDomain.Listing, error) {
	var models []ListingModel
	if err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, domain.NewUnavailableError("failed to find host listings", err)
	}
	return toDomainListings(models)
}

// SearchAvailable returns listings within the radius whose capacity covers
// the requested guest count and that have no committed booking overlapping
// the requested window. The spatial predicate runs on PostGIS geography;
// the availability predicate is a NOT EXISTS anti-join sharing
// OverlapPredicate with FindOverlapping so the two paths cannot diverge.
func (r *GormListingRepository) SearchAvailable(ctx context.Context, params listingDomain.SearchParams) ([]*listingDomain.Listing, error) {
	query := fmt.Sprintf(`
		SELECT l.* FROM listings l
		WHERE ST_DWithin(
			CAST(ST_MakePoint(l.lon, l.lat) AS geography),
			CAST(ST_MakePoint(?, ?) AS geography),
			?)
		AND l.capacity >= ?
		AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.listing_id = l.id AND %s)
		ORDER BY l.created_at DESC`,
		OverlapPredicate("b"),
	)

	var models []ListingModel
	if err := r.db.WithContext(ctx).
		Raw(query,
			params.Lon, params.Lat, params.RadiusMeters,
			params.MinCapacity,
			params.Dates.CheckOut, params.Dates.CheckIn,
		).
		Scan(&models).Error; err != nil {
		return nil, domain.NewUnavailableError("failed to search listings", err)
	}
	return toDomainListings(models)
}

// Save persists a new listing.
func (r *GormListingRepository) Save(ctx context.Context, lst *listingDomain.Listing) error {
	model, err := toListingModel(lst)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domain.NewUnavailableError("failed to save listing", err)
	}
	return nil
}

// Delete removes a listing by ID.
func (r *GormListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ListingModel{}, "id = ?", id)
	if result.Error != nil {
		return domain.NewUnavailableError("failed to delete listing", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("listing", id.String())
	}
	return nil
}

// --- Conversion helpers ---

func toListingModel(lst *listingDomain.Listing) (*ListingModel, error) {
	photoURLs, err := json.Marshal(lst.PhotoURLs())
	if err != nil {
		return nil, fmt.Errorf("repository: marshal photo URLs: %w", err)
	}
	return &ListingModel{
		ID:          lst.ID(),
		HostID:      lst.HostID(),
		Name:        lst.Name(),
		Address:     lst.Address(),
		Description: lst.Description(),
		Capacity:    lst.Capacity(),
		Lat:         lst.Location().Lat,
		Lon:         lst.Location().Lon,
		PhotoURLs:   photoURLs,
		CreatedAt:   lst.CreatedAt(),
	}, nil
}

func toDomainListing(m *ListingModel) (*listingDomain.Listing, error) {
	var photoURLs []string
	if len(m.PhotoURLs) > 0 {
		if err := json.Unmarshal(m.PhotoURLs, &photoURLs); err != nil {
			return nil, fmt.Errorf("repository: unmarshal photo URLs for listing %s: %w", m.ID, err)
		}
	}
	return listingDomain.ReconstructListing(
		m.ID,
		m.HostID,
		m.Name,
		m.Address,
		m.Description,
		m.Capacity,
		listingDomain.GeoPoint{Lat: m.Lat, Lon: m.Lon},
		photoURLs,
		m.CreatedAt,
	), nil
}

func toDomainListings(models []ListingModel) ([]*listingDomain.Listing, error) {
	listings := make([]*listingDomain.Listing, len(models))
	for i, m := range models {
		lst, err := toDomainListing(&m)
		if err != nil {
			return nil, err
		}
		listings[i] = lst
	}
	return listings, nil
}
