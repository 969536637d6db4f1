package booking

import (
	"fmt"
	"time"

	"github.com/staybook/service-stays/internal/domain"
)

// DateRange is a half-open calendar interval [CheckIn, CheckOut).
// The check-out day is not occupied, so one guest's check-out day may be
// the next guest's check-in day. Both endpoints are UTC midnights.
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// NewDateRange builds a DateRange from calendar dates, normalizing both to
// UTC midnight. Returns an INVALID_DATE_RANGE validation error unless
// checkIn < checkOut.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	in := ToDate(checkIn)
	out := ToDate(checkOut)
	if !in.Before(out) {
		return DateRange{}, domain.NewValidationError(
			domain.CodeInvalidDateRange,
			"check-in date must be before check-out date",
		)
	}
	return DateRange{CheckIn: in, CheckOut: out}, nil
}

// Overlaps reports whether two half-open ranges intersect.
// Ranges that merely touch (r.CheckOut == other.CheckIn) do not overlap.
// This is the single source of truth for the conflict rule; the SQL
// predicate used by the repositories must stay equivalent to it
// (see repository.OverlapPredicate).
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// StartsBefore reports whether check-in falls before the given calendar day.
func (r DateRange) StartsBefore(day time.Time) bool {
	return r.CheckIn.Before(ToDate(day))
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.CheckIn.Format("2006-01-02"), r.CheckOut.Format("2006-01-02"))
}

// ToDate truncates a timestamp to its UTC calendar date (midnight UTC).
func ToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateCheckIn rejects ranges whose check-in day has already passed.
// Same-day check-in is allowed.
func ValidateCheckIn(r DateRange, now time.Time) error {
	if r.StartsBefore(now) {
		return domain.NewValidationError(
			domain.CodePastCheckIn,
			"check-in date must not be in the past",
		)
	}
	return nil
}
