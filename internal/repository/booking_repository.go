// Package repository implements the persistence contracts on PostgreSQL
// through GORM. The raw-SQL fragments here are the only place the overlap
// rule appears outside the domain package; OverlapPredicate keeps the
// booking-creation query and the availability anti-join on the same text.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/staybook/service-stays/internal/domain"
	bookingDomain "github.com/staybook/service-stays/internal/domain/booking"
)

// OverlapPredicate returns the SQL condition matching bookings whose
// half-open [check_in_date, check_out_date) range intersects a candidate
// range. Bind order: checkOut first, then checkIn. It must stay equivalent
// to booking.DateRange.Overlaps: rows where the ranges merely touch do not
// match.
func OverlapPredicate(alias string) string {
	if alias != "" {
		alias += "."
	}
	return fmt.Sprintf("%[1]scheck_in_date < ? AND %[1]scheck_out_date > ?", alias)
}

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	GuestID      uuid.UUID `gorm:"type:uuid;index;not null"`
	ListingID    uuid.UUID `gorm:"type:uuid;index;not null"`
	CheckInDate  time.Time `gorm:"type:date;not null"`
	CheckOutDate time.Time `gorm:"type:date;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of the booking
// repository contract.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, domain.NewUnavailableError("failed to find booking", err)
	}
	return toDomainBooking(&model)
}

// FindByGuestID retrieves all bookings made by a guest, newest first.
func (r *GormBookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("guest_id = ?", guestID).
		Order("check_in_date ASC").
		Find(&models).Error; err != nil {
		return nil, domain.NewUnavailableError("failed to find guest bookings", err)
	}
	return toDomainBookings(models)
}

// FindByListingID retrieves all bookings on a listing.
func (r *GormBookingRepository) FindByListingID(ctx context.Context, listingID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("check_in_date ASC").
		Find(&models).Error; err != nil {
		return nil, domain.NewUnavailableError("failed to find listing bookings", err)
	}
	return toDomainBookings(models)
}

// FindOverlapping retrieves committed bookings on the listing whose range
// intersects the candidate range.
func (r *GormBookingRepository) FindOverlapping(ctx context.Context, listingID uuid.UUID, dates bookingDomain.DateRange) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Where(OverlapPredicate(""), dates.CheckOut, dates.CheckIn).
		Find(&models).Error; err != nil {
		return nil, domain.NewUnavailableError("failed to query overlapping bookings", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domain.NewUnavailableError("failed to save booking", err)
	}
	return nil
}

// Delete removes a booking by ID.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&BookingModel{}, "id = ?", id)
	if result.Error != nil {
		return domain.NewUnavailableError("failed to delete booking", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("booking", id.String())
	}
	return nil
}

// ExistsActive reports whether the listing has any booking whose check-out
// falls after the given day.
func (r *GormBookingRepository) ExistsActive(ctx context.Context, listingID uuid.UUID, day time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("listing_id = ? AND check_out_date > ?", listingID, bookingDomain.ToDate(day)).
		Count(&count).Error; err != nil {
		return false, domain.NewUnavailableError("failed to check active bookings", err)
	}
	return count > 0, nil
}

// --- Conversion helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:           bk.ID(),
		GuestID:      bk.GuestID(),
		ListingID:    bk.ListingID(),
		CheckInDate:  bk.Dates().CheckIn,
		CheckOutDate: bk.Dates().CheckOut,
		CreatedAt:    bk.CreatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	dates, err := bookingDomain.NewDateRange(m.CheckInDate, m.CheckOutDate)
	if err != nil {
		return nil, fmt.Errorf("repository: booking %s has corrupt date range: %w", m.ID, err)
	}
	return bookingDomain.ReconstructBooking(m.ID, m.GuestID, m.ListingID, dates, m.CreatedAt), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
