package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
// Writes for a given listing must only happen while that listing's
// coordination lock is held; reads are unguarded snapshot reads.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByGuestID retrieves all bookings made by a guest.
	FindByGuestID(ctx context.Context, guestID uuid.UUID) ([]*Booking, error)

	// FindByListingID retrieves all bookings on a listing.
	FindByListingID(ctx context.Context, listingID uuid.UUID) ([]*Booking, error)

	// FindOverlapping retrieves committed bookings on the listing whose
	// range intersects dates under the half-open overlap rule. The result
	// is transient: it is used only to admit or reject a candidate booking.
	FindOverlapping(ctx context.Context, listingID uuid.UUID, dates DateRange) ([]*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Delete removes a booking by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsActive reports whether the listing has any booking whose
	// check-out falls after the given day.
	ExistsActive(ctx context.Context, listingID uuid.UUID, day time.Time) (bool, error)
}
