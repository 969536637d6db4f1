package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staybook/service-stays/internal/domain"
	bookingDomain "github.com/staybook/service-stays/internal/domain/booking"
	listingDomain "github.com/staybook/service-stays/internal/domain/listing"
	"github.com/staybook/service-stays/internal/events"
	"github.com/staybook/service-stays/internal/lock"
)

// Lock bounds for one booking attempt: block at most lockWaitTimeout
// waiting for the listing lock, and let the coordination service
// auto-release after lockHoldTimeout if this process dies mid-flow.
const (
	lockWaitTimeout = 10 * time.Second
	lockHoldTimeout = 30 * time.Second

	// releaseTimeout bounds the detached lock release after the request
	// context is no longer usable.
	releaseTimeout = 3 * time.Second
)

// EventPublisher is the outbound event port.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event events.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ListingID uuid.UUID
	CheckIn   time.Time
	CheckOut  time.Time
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listing_id"`
	GuestID   uuid.UUID `json:"guest_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Nights    int       `json:"nights"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingService orchestrates the booking lifecycle: acquire the listing
// lock, re-validate against the store, persist, release. The listing-scoped
// lock totally orders concurrent creation attempts per listing; the loser
// of a race observes the winner's committed booking during the post-lock
// overlap re-check and aborts.
type BookingService struct {
	bookings bookingDomain.Repository
	listings listingDomain.Repository
	locks    lock.Coordinator
	producer EventPublisher
	logger   *zap.Logger

	lockWait time.Duration
	lockHold time.Duration
	now      func() time.Time
}

// NewBookingService creates a BookingService.
func NewBookingService(
	bookings bookingDomain.Repository,
	listings listingDomain.Repository,
	locks lock.Coordinator,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		listings: listings,
		locks:    locks,
		producer: producer,
		logger:   logger,
		lockWait: lockWaitTimeout,
		lockHold: lockHoldTimeout,
		now:      time.Now,
	}
}

// CreateBooking runs one booking attempt end to end.
//
// Date validation happens before any lock is taken. The overlap re-check
// happens strictly after lock acquisition: the lock alone does not inspect
// booking state, so re-reading the listing and the overlap set under the
// lock is what makes concurrent attempts serializable. The lock is held
// for the whole interval between acquisition and release, never dropped
// and re-taken mid-flow, and released on every exit path.
func (s *BookingService) CreateBooking(ctx context.Context, guestID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	dates, err := bookingDomain.NewDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if err := bookingDomain.ValidateCheckIn(dates, s.now()); err != nil {
		return nil, err
	}

	key := lock.ListingKey(req.ListingID.String())
	handle, err := s.locks.Acquire(ctx, key, s.lockWait, s.lockHold)
	if err != nil {
		if errors.Is(err, lock.ErrAcquireTimeout) {
			return nil, domain.NewLockTimeoutError(key, err)
		}
		return nil, domain.NewUnavailableError("lock coordination unavailable", err)
	}
	// Safety net: Release is idempotent, so the explicit release on the
	// happy path and this deferred one never double-free.
	defer s.release(ctx, handle)

	// Re-validate under the lock. Another request may have deleted the
	// listing or committed an overlapping booking while we waited.
	if _, err := s.listings.FindByID(ctx, req.ListingID); err != nil {
		return nil, err
	}
	overlapping, err := s.bookings.FindOverlapping(ctx, req.ListingID, dates)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, domain.NewConflictError(
			domain.CodeBookingConflict,
			"requested dates conflict with an existing booking",
		)
	}

	bk, err := bookingDomain.NewBooking(guestID, req.ListingID, dates, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, err
	}

	s.release(ctx, handle)

	s.logger.Info("booking committed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("listing_id", bk.ListingID().String()),
		zap.String("dates", bk.Dates().String()),
	)
	s.publishBookingCreated(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking deletes a booking owned by the calling guest. No listing
// lock is needed: removal only shrinks the committed set, so it cannot
// create an overlap.
func (s *BookingService) CancelBooking(ctx context.Context, guestID, bookingID uuid.UUID) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !bk.OwnedBy(guestID) {
		return domain.NewForbiddenError("booking does not belong to this guest")
	}
	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		return err
	}

	s.publishBookingCancelled(ctx, bk)
	return nil
}

// GetGuestBookings lists all bookings made by the calling guest.
func (s *BookingService) GetGuestBookings(ctx context.Context, guestID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.bookings.FindByGuestID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// GetListingBookings lists all bookings on a listing, for its host only.
func (s *BookingService) GetListingBookings(ctx context.Context, requesterID, listingID uuid.UUID) ([]BookingDTO, error) {
	lst, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !lst.OwnedBy(requesterID) {
		return nil, domain.NewForbiddenError("only the listing host may view its bookings")
	}

	bookings, err := s.bookings.FindByListingID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings), nil
}

// release runs detached from the request context: a client disconnect
// cancels ctx mid-flow, and the listing lock must still be given back
// rather than stall other attempts until the hold timeout.
func (s *BookingService) release(ctx context.Context, handle lock.Handle) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := handle.Release(ctx); err != nil {
		// The hold timeout still auto-releases; log and move on.
		s.logger.Error("failed to release listing lock",
			zap.String("key", handle.Key()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) publishBookingCreated(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingCreatedEvent{
		BookingID:  bk.ID(),
		ListingID:  bk.ListingID(),
		GuestID:    bk.GuestID(),
		CheckIn:    bk.Dates().CheckIn,
		CheckOut:   bk.Dates().CheckOut,
		OccurredAt: s.now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), evt)
}

func (s *BookingService) publishBookingCancelled(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingCancelledEvent{
		BookingID:  bk.ID(),
		ListingID:  bk.ListingID(),
		GuestID:    bk.GuestID(),
		OccurredAt: s.now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	cloudEvent, err := events.NewCloudEvent("service-stays", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:        bk.ID(),
		ListingID: bk.ListingID(),
		GuestID:   bk.GuestID(),
		CheckIn:   bk.Dates().CheckIn,
		CheckOut:  bk.Dates().CheckOut,
		Nights:    bk.Dates().Nights(),
		CreatedAt: bk.CreatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
