package listing

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for listing aggregates.
type Repository interface {
	// FindByID retrieves a listing by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByHostID retrieves all listings owned by a host.
	FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*Listing, error)

	// SearchAvailable returns listings matching the spatial, capacity and
	// availability predicates. Read-only and lock-free: results reflect a
	// snapshot and may race with concurrently committing bookings.
	SearchAvailable(ctx context.Context, params SearchParams) ([]*Listing, error)

	// Save persists a new listing.
	Save(ctx context.Context, listing *Listing) error

	// Delete removes a listing by ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
