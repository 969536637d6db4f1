package application

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/staybook/service-stays/internal/domain"
	bookingDomain "github.com/staybook/service-stays/internal/domain/booking"
	listingDomain "github.com/staybook/service-stays/internal/domain/listing"
	"github.com/staybook/service-stays/internal/events"
	"github.com/staybook/service-stays/internal/geocoding"
	"github.com/staybook/service-stays/internal/lock"
)

// fakeBookingRepo is an in-memory booking store safe for concurrent use.
type fakeBookingRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*bookingDomain.Booking
	saveErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{byID: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByGuestID(ctx context.Context, guestID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.byID {
		if bk.GuestID() == guestID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindByListingID(ctx context.Context, listingID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.byID {
		if bk.ListingID() == listingID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindOverlapping(ctx context.Context, listingID uuid.UUID, dates bookingDomain.DateRange) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.byID {
		if bk.ListingID() == listingID && bk.Dates().Overlaps(dates) {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.byID[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.NewNotFoundError("booking", id.String())
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeBookingRepo) ExistsActive(ctx context.Context, listingID uuid.UUID, day time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := bookingDomain.ToDate(day)
	for _, bk := range r.byID {
		if bk.ListingID() == listingID && bk.Dates().CheckOut.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// fakeListingRepo is an in-memory listing store.
type fakeListingRepo struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*listingDomain.Listing
	lastSearch *listingDomain.SearchParams
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{byID: make(map[uuid.UUID]*listingDomain.Listing)}
}

func (r *fakeListingRepo) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lst, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("listing", id.String())
	}
	return lst, nil
}

func (r *fakeListingRepo) FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*listingDomain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*listingDomain.Listing
	for _, lst := range r.byID {
		if lst.HostID() == hostID {
			out = append(out, lst)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) SearchAvailable(ctx context.Context, params listingDomain.SearchParams) ([]*listingDomain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSearch = &params
	var out []*listingDomain.Listing
	for _, lst := range r.byID {
		if lst.Capacity() >= params.MinCapacity {
			out = append(out, lst)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) Save(ctx context.Context, lst *listingDomain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[lst.ID()] = lst
	return nil
}

func (r *fakeListingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.NewNotFoundError("listing", id.String())
	}
	delete(r.byID, id)
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.CloudEvent
	topics []string
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic, key string, event events.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) typesSeen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// countingCoordinator wraps a real coordinator and counts acquire attempts.
type countingCoordinator struct {
	inner    lock.Coordinator
	mu       sync.Mutex
	acquires int
}

func (c *countingCoordinator) Acquire(ctx context.Context, key string, waitTimeout, holdTimeout time.Duration) (lock.Handle, error) {
	c.mu.Lock()
	c.acquires++
	c.mu.Unlock()
	return c.inner.Acquire(ctx, key, waitTimeout, holdTimeout)
}

func (c *countingCoordinator) acquireCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquires
}

// stubGeocoder returns a fixed point or error.
type stubGeocoder struct {
	point geocoding.Point
	err   error
}

func (g *stubGeocoder) Geocode(ctx context.Context, address string) (geocoding.Point, error) {
	if g.err != nil {
		return geocoding.Point{}, g.err
	}
	return g.point, nil
}

// stubUploader returns deterministic URLs.
type stubUploader struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (u *stubUploader) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	return "https://storage.local/" + key, nil
}
