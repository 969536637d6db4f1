package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/staybook/service-stays/internal/domain"
	bookingDomain "github.com/staybook/service-stays/internal/domain/booking"
	listingDomain "github.com/staybook/service-stays/internal/domain/listing"
	"github.com/staybook/service-stays/internal/events"
	"github.com/staybook/service-stays/internal/lock"
)

var testNow = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

type bookingFixture struct {
	svc       *BookingService
	bookings  *fakeBookingRepo
	listings  *fakeListingRepo
	locks     *countingCoordinator
	publisher *recordingPublisher
	listingID uuid.UUID
	hostID    uuid.UUID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	bookings := newFakeBookingRepo()
	listings := newFakeListingRepo()
	locks := &countingCoordinator{inner: lock.NewMemoryCoordinator()}
	publisher := &recordingPublisher{}

	hostID := uuid.New()
	lst, err := listingDomain.NewListing(
		hostID, "Sea Cabin", "1 Shore Rd", "cabin by the water", 4,
		listingDomain.GeoPoint{Lat: 37.77, Lon: -122.42}, nil, testNow,
	)
	require.NoError(t, err)
	require.NoError(t, listings.Save(context.Background(), lst))

	svc := NewBookingService(bookings, listings, locks, publisher, zap.NewNop())
	svc.now = func() time.Time { return testNow }

	return &bookingFixture{
		svc:       svc,
		bookings:  bookings,
		listings:  listings,
		locks:     locks,
		publisher: publisher,
		listingID: lst.ID(),
		hostID:    hostID,
	}
}

func (f *bookingFixture) request(checkIn, checkOut time.Time) CreateBookingRequest {
	return CreateBookingRequest{ListingID: f.listingID, CheckIn: checkIn, CheckOut: checkOut}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateBooking_Success(t *testing.T) {
	f := newBookingFixture(t)

	dto, err := f.svc.CreateBooking(context.Background(), uuid.New(), f.request(day(1), day(5)))
	require.NoError(t, err)

	assert.Equal(t, f.listingID, dto.ListingID)
	assert.Equal(t, 4, dto.Nights)
	assert.Equal(t, 1, f.bookings.count())
	assert.Equal(t, 1, f.locks.acquireCount())
	assert.Equal(t, []string{events.BookingCreated}, f.publisher.typesSeen())
}

func TestCreateBooking_InvalidRangeNeverAcquiresLock(t *testing.T) {
	f := newBookingFixture(t)

	cases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		code     string
	}{
		{"reversed", day(5), day(1), domain.CodeInvalidDateRange},
		{"zero-length", day(5), day(5), domain.CodeInvalidDateRange},
		{"past check-in", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), day(1), domain.CodePastCheckIn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateBooking(context.Background(), uuid.New(), f.request(tc.checkIn, tc.checkOut))
			requireCode(t, err, tc.code)
		})
	}

	assert.Zero(t, f.locks.acquireCount())
	assert.Zero(t, f.bookings.count())
}

func TestCreateBooking_SameDayCheckInAllowed(t *testing.T) {
	f := newBookingFixture(t)

	today := bookingDomain.ToDate(testNow)
	_, err := f.svc.CreateBooking(context.Background(), uuid.New(), f.request(today, today.AddDate(0, 0, 2)))
	require.NoError(t, err)
}

func TestCreateBooking_OverlapConflict(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
	require.NoError(t, err)

	// 2025-03-03..07 intersects the committed 03-01..05 stay.
	_, err = f.svc.CreateBooking(ctx, uuid.New(), f.request(day(3), day(7)))
	requireCode(t, err, domain.CodeBookingConflict)
	assert.Equal(t, 1, f.bookings.count())

	// 2025-03-05..08 only touches it: check-out day is free for check-in.
	_, err = f.svc.CreateBooking(ctx, uuid.New(), f.request(day(5), day(8)))
	require.NoError(t, err)
	assert.Equal(t, 2, f.bookings.count())
}

func TestCreateBooking_TouchingBeforeAllowed(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, uuid.New(), f.request(day(5), day(8)))
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
	require.NoError(t, err)
	assert.Equal(t, 2, f.bookings.count())
}

func TestCreateBooking_ListingGoneUnderLock(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	require.NoError(t, f.listings.Delete(ctx, f.listingID))

	_, err := f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
	requireCode(t, err, domain.CodeNotFound)
}

func TestCreateBooking_LockReleasedOnEveryPath(t *testing.T) {
	ctx := context.Background()
	key := func(f *bookingFixture) string { return lock.ListingKey(f.listingID.String()) }

	// After each outcome the key must be immediately acquirable again.
	assertFree := func(t *testing.T, f *bookingFixture) {
		t.Helper()
		h, err := f.locks.inner.Acquire(ctx, key(f), 10*time.Millisecond, time.Second)
		require.NoError(t, err, "listing lock still held after request finished")
		require.NoError(t, h.Release(ctx))
	}

	t.Run("success", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
		require.NoError(t, err)
		assertFree(t, f)
	})

	t.Run("conflict", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
		require.NoError(t, err)
		_, err = f.svc.CreateBooking(ctx, uuid.New(), f.request(day(3), day(7)))
		requireCode(t, err, domain.CodeBookingConflict)
		assertFree(t, f)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newBookingFixture(t)
		f.bookings.saveErr = errors.New("connection reset")
		_, err := f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
		require.Error(t, err)
		assertFree(t, f)
	})
}

// ctxCheckedCoordinator hands out handles that behave like a network
// client: Release fails when the context it is given is already dead.
type ctxCheckedCoordinator struct {
	inner lock.Coordinator
}

func (c *ctxCheckedCoordinator) Acquire(ctx context.Context, key string, waitTimeout, holdTimeout time.Duration) (lock.Handle, error) {
	h, err := c.inner.Acquire(ctx, key, waitTimeout, holdTimeout)
	if err != nil {
		return nil, err
	}
	return &ctxCheckedHandle{inner: h}, nil
}

type ctxCheckedHandle struct {
	inner lock.Handle
}

func (h *ctxCheckedHandle) Key() string { return h.inner.Key() }

func (h *ctxCheckedHandle) Release(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.inner.Release(ctx)
}

// cancellingListingRepo cancels the request context during the post-lock
// listing re-fetch, simulating a client disconnect mid-flow.
type cancellingListingRepo struct {
	listingDomain.Repository
	cancel context.CancelFunc
}

func (r *cancellingListingRepo) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	r.cancel()
	return nil, domain.NewUnavailableError("failed to find listing", ctx.Err())
}

func TestCreateBooking_ReleasesLockWhenRequestCancelled(t *testing.T) {
	f := newBookingFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.svc.locks = &ctxCheckedCoordinator{inner: f.locks}
	f.svc.listings = &cancellingListingRepo{Repository: f.listings, cancel: cancel}

	_, err := f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
	require.Error(t, err)

	// The deferred release must survive the dead request context: the
	// key has to be free long before the 30s hold timeout would expire.
	h, err := f.locks.inner.Acquire(context.Background(), lock.ListingKey(f.listingID.String()), 10*time.Millisecond, time.Second)
	require.NoError(t, err, "listing lock leaked after caller interruption")
	require.NoError(t, h.Release(context.Background()))
}

func TestCreateBooking_LockTimeout(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	// Hold the listing lock from outside so the attempt cannot get it.
	h, err := f.locks.inner.Acquire(ctx, lock.ListingKey(f.listingID.String()), time.Second, time.Minute)
	require.NoError(t, err)
	defer func() { _ = h.Release(ctx) }()

	f.svc.lockWait = 20 * time.Millisecond
	_, err = f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
	requireCode(t, err, domain.CodeLockTimeout)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.Retryable())
	assert.Zero(t, f.bookings.count())
}

func TestCreateBooking_ConcurrentOverlapSingleWinner(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			requireCode(t, err, domain.CodeBookingConflict)
			conflicts++
		}
	}

	assert.Equal(t, 1, successes, "exactly one concurrent attempt may win")
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, f.bookings.count())
}

func TestCreateBooking_ConcurrentDisjointAllWin(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Back-to-back stays: 1..3, 3..5, 5..7, 7..9.
			_, errs[i] = f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1+2*i), day(3+2*i)))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "disjoint attempt %d", i)
	}
	assert.Equal(t, 4, f.bookings.count())
}

func TestCancelBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	guestID := uuid.New()

	dto, err := f.svc.CreateBooking(ctx, guestID, f.request(day(1), day(5)))
	require.NoError(t, err)

	t.Run("stranger cannot cancel", func(t *testing.T) {
		err := f.svc.CancelBooking(ctx, uuid.New(), dto.ID)
		requireCode(t, err, domain.CodeForbidden)
		assert.Equal(t, 1, f.bookings.count())
	})

	t.Run("owner cancel frees the dates", func(t *testing.T) {
		require.NoError(t, f.svc.CancelBooking(ctx, guestID, dto.ID))
		assert.Zero(t, f.bookings.count())

		// The window is bookable again.
		_, err := f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
		require.NoError(t, err)
	})

	t.Run("unknown booking", func(t *testing.T) {
		err := f.svc.CancelBooking(ctx, guestID, uuid.New())
		requireCode(t, err, domain.CodeNotFound)
	})
}

func TestGetListingBookings_HostOnly(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, uuid.New(), f.request(day(1), day(5)))
	require.NoError(t, err)

	_, err = f.svc.GetListingBookings(ctx, uuid.New(), f.listingID)
	requireCode(t, err, domain.CodeForbidden)

	got, err := f.svc.GetListingBookings(ctx, f.hostID, f.listingID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetGuestBookings(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	guestID := uuid.New()

	_, err := f.svc.CreateBooking(ctx, guestID, f.request(day(1), day(3)))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, guestID, f.request(day(10), day(12)))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, uuid.New(), f.request(day(20), day(22)))
	require.NoError(t, err)

	got, err := f.svc.GetGuestBookings(ctx, guestID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
