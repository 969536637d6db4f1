package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staybook/service-stays/internal/domain"
	bookingDomain "github.com/staybook/service-stays/internal/domain/booking"
	listingDomain "github.com/staybook/service-stays/internal/domain/listing"
	"github.com/staybook/service-stays/internal/events"
	"github.com/staybook/service-stays/internal/geocoding"
	"github.com/staybook/service-stays/internal/storage"
)

// PhotoUpload is one photo attached to a listing creation request.
type PhotoUpload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// CreateListingRequest holds the data needed to create a listing.
type CreateListingRequest struct {
	Name        string
	Address     string
	Description string
	Capacity    int
	Photos      []PhotoUpload
}

// SearchRequest holds raw availability-search input, validated before any
// query is issued.
type SearchRequest struct {
	Lat          float64
	Lon          float64
	RadiusMeters float64
	CheckIn      time.Time
	CheckOut     time.Time
	MinCapacity  int
}

// ListingDTO is the response representation of a listing.
type ListingDTO struct {
	ID          uuid.UUID `json:"id"`
	HostID      uuid.UUID `json:"host_id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	PhotoURLs   []string  `json:"photo_urls"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListingService handles listing management and availability search.
// Search is read-only and lock-free: it runs against a snapshot and may
// race with a concurrently committing booking; the write path resolves
// that race under the listing lock.
type ListingService struct {
	listings listingDomain.Repository
	bookings bookingDomain.Repository
	geocoder geocoding.Geocoder
	photos   storage.Uploader
	producer EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewListingService creates a ListingService.
func NewListingService(
	listings listingDomain.Repository,
	bookings bookingDomain.Repository,
	geocoder geocoding.Geocoder,
	photos storage.Uploader,
	producer EventPublisher,
	logger *zap.Logger,
) *ListingService {
	return &ListingService{
		listings: listings,
		bookings: bookings,
		geocoder: geocoder,
		photos:   photos,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateListing geocodes the address, uploads photos and persists the
// listing.
func (s *ListingService) CreateListing(ctx context.Context, hostID uuid.UUID, req CreateListingRequest) (*ListingDTO, error) {
	point, err := s.geocoder.Geocode(ctx, req.Address)
	if err != nil {
		if errors.Is(err, geocoding.ErrNoResult) {
			return nil, domain.NewValidationError(domain.CodeValidation, "address could not be resolved to coordinates")
		}
		return nil, domain.NewUnavailableError("geocoding service unavailable", err)
	}

	photoURLs := make([]string, 0, len(req.Photos))
	for i, photo := range req.Photos {
		key := fmt.Sprintf("listings/%s/%d-%s", hostID, i, photo.Name)
		photoURL, err := s.photos.Upload(ctx, key, photo.Reader, photo.Size, photo.ContentType)
		if err != nil {
			return nil, domain.NewUnavailableError("photo storage unavailable", err)
		}
		photoURLs = append(photoURLs, photoURL)
	}

	lst, err := listingDomain.NewListing(
		hostID,
		req.Name,
		req.Address,
		req.Description,
		req.Capacity,
		listingDomain.GeoPoint{Lat: point.Lat, Lon: point.Lon},
		photoURLs,
		s.now(),
	)
	if err != nil {
		return nil, err
	}
	if err := s.listings.Save(ctx, lst); err != nil {
		return nil, err
	}

	s.publishListingCreated(ctx, lst)

	result := toListingDTO(lst)
	return &result, nil
}

// DeleteListing removes a listing owned by the calling host. Listings with
// active bookings (check-out after today) cannot be deleted.
func (s *ListingService) DeleteListing(ctx context.Context, hostID, listingID uuid.UUID) error {
	lst, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if !lst.OwnedBy(hostID) {
		return domain.NewForbiddenError("listing does not belong to this host")
	}

	active, err := s.bookings.ExistsActive(ctx, listingID, s.now())
	if err != nil {
		return err
	}
	if active {
		return domain.NewConflictError(domain.CodeConflict, "listing has active bookings and cannot be deleted")
	}

	if err := s.listings.Delete(ctx, listingID); err != nil {
		return err
	}

	s.publishListingDeleted(ctx, lst)
	return nil
}

// GetHostListings lists the calling host's listings.
func (s *ListingService) GetHostListings(ctx context.Context, hostID uuid.UUID) ([]ListingDTO, error) {
	listings, err := s.listings.FindByHostID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	return toListingDTOs(listings), nil
}

// SearchAvailability returns listings within the radius, with sufficient
// capacity, and with no committed booking overlapping the requested window.
func (s *ListingService) SearchAvailability(ctx context.Context, req SearchRequest) ([]ListingDTO, error) {
	params, err := listingDomain.NewSearchParams(
		req.Lat, req.Lon, req.RadiusMeters,
		req.CheckIn, req.CheckOut,
		req.MinCapacity,
		s.now(),
	)
	if err != nil {
		return nil, err
	}

	listings, err := s.listings.SearchAvailable(ctx, params)
	if err != nil {
		return nil, err
	}
	return toListingDTOs(listings), nil
}

func (s *ListingService) publishListingCreated(ctx context.Context, lst *listingDomain.Listing) {
	evt := events.ListingCreatedEvent{
		ListingID:  lst.ID(),
		HostID:     lst.HostID(),
		Lat:        lst.Location().Lat,
		Lon:        lst.Location().Lon,
		Capacity:   lst.Capacity(),
		OccurredAt: s.now().UTC(),
	}
	s.publishListingEvent(ctx, events.ListingCreated, lst.ID().String(), evt)
}

func (s *ListingService) publishListingDeleted(ctx context.Context, lst *listingDomain.Listing) {
	evt := events.ListingDeletedEvent{
		ListingID:  lst.ID(),
		HostID:     lst.HostID(),
		OccurredAt: s.now().UTC(),
	}
	s.publishListingEvent(ctx, events.ListingDeleted, lst.ID().String(), evt)
}

func (s *ListingService) publishListingEvent(ctx context.Context, eventType, key string, data interface{}) {
	cloudEvent, err := events.NewCloudEvent("service-stays", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicListingEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicListingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toListingDTO(lst *listingDomain.Listing) ListingDTO {
	return ListingDTO{
		ID:          lst.ID(),
		HostID:      lst.HostID(),
		Name:        lst.Name(),
		Address:     lst.Address(),
		Description: lst.Description(),
		Capacity:    lst.Capacity(),
		Lat:         lst.Location().Lat,
		Lon:         lst.Location().Lon,
		PhotoURLs:   lst.PhotoURLs(),
		CreatedAt:   lst.CreatedAt(),
	}
}

func toListingDTOs(listings []*listingDomain.Listing) []ListingDTO {
	dtos := make([]ListingDTO, len(listings))
	for i, lst := range listings {
		dtos[i] = toListingDTO(lst)
	}
	return dtos
}
