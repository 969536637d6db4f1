package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staybook/service-stays/internal/domain"
	listingDomain "github.com/staybook/service-stays/internal/domain/listing"
	placeDomain "github.com/staybook/service-stays/internal/domain/place"
	"github.com/staybook/service-stays/internal/geocoding"
)

// CreatePlaceRequest holds the data needed to create a hot place.
type CreatePlaceRequest struct {
	Name         string
	Address      string
	DistrictCode int64
}

// PlaceDTO is the response representation of a hot place.
type PlaceDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	DistrictCode int64     `json:"district_code"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	CreatedAt    time.Time `json:"created_at"`
}

// PlaceService manages curated hot places.
type PlaceService struct {
	places   placeDomain.Repository
	geocoder geocoding.Geocoder
	logger   *zap.Logger
	now      func() time.Time
}

// NewPlaceService creates a PlaceService.
func NewPlaceService(places placeDomain.Repository, geocoder geocoding.Geocoder, logger *zap.Logger) *PlaceService {
	return &PlaceService{places: places, geocoder: geocoder, logger: logger, now: time.Now}
}

// CreatePlace geocodes the address and persists the place.
func (s *PlaceService) CreatePlace(ctx context.Context, req CreatePlaceRequest) (*PlaceDTO, error) {
	point, err := s.geocoder.Geocode(ctx, req.Address)
	if err != nil {
		if errors.Is(err, geocoding.ErrNoResult) {
			return nil, domain.NewValidationError(domain.CodeValidation, "address could not be resolved to coordinates")
		}
		return nil, domain.NewUnavailableError("geocoding service unavailable", err)
	}

	p, err := placeDomain.NewPlace(
		req.Name,
		req.Address,
		req.DistrictCode,
		listingDomain.GeoPoint{Lat: point.Lat, Lon: point.Lon},
		s.now(),
	)
	if err != nil {
		return nil, err
	}
	if err := s.places.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("place created",
		zap.String("place_id", p.ID().String()),
		zap.Int64("district_code", p.DistrictCode()),
	)

	result := toPlaceDTO(p)
	return &result, nil
}

// GetPlacesByDistrict lists the hot places in a district.
func (s *PlaceService) GetPlacesByDistrict(ctx context.Context, districtCode int64) ([]PlaceDTO, error) {
	if districtCode <= 0 {
		return nil, domain.NewValidationError(domain.CodeValidation, "district code must be positive")
	}

	places, err := s.places.FindByDistrict(ctx, districtCode)
	if err != nil {
		return nil, err
	}

	dtos := make([]PlaceDTO, len(places))
	for i, p := range places {
		dtos[i] = toPlaceDTO(p)
	}
	return dtos, nil
}

func toPlaceDTO(p *placeDomain.Place) PlaceDTO {
	return PlaceDTO{
		ID:           p.ID(),
		Name:         p.Name(),
		Address:      p.Address(),
		DistrictCode: p.DistrictCode(),
		Lat:          p.Location().Lat,
		Lon:          p.Location().Lon,
		CreatedAt:    p.CreatedAt(),
	}
}
