package bookingRepo

import (
	"context"
	"errors"

	"taskora/models"
)

// ErrIntervalTaken is returned when a booking insert loses to an existing
// booking occupying an overlapping interval, whether detected by the
// in-transaction scan or by the unique index at commit. Both cases mean the
// same thing to the caller: the interval is gone.
var ErrIntervalTaken = errors.New("booking interval already taken")

// ErrStatusChanged is returned by CompareAndSwapStatus when the booking's
// status no longer matches the expected prior status at commit time.
var ErrStatusChanged = errors.New("booking status changed concurrently")

// ErrNotFound is returned when no booking matches the given id.
var ErrNotFound = errors.New("booking not found")

// StatusFields carries optional field updates applied together with a status
// swap.
type StatusFields struct {
	PaymentStatus *models.PaymentStatus
	RefundDue     *float64
	Reviewed      *bool
}

// BookingRepository is the booking store consumed by the engine.
type BookingRepository interface {
	GetByID(id string) (*models.Booking, error)

	// ActiveByProviderDate returns the provider's bookings on the given date
	// whose status still occupies the schedule.
	ActiveByProviderDate(providerID, date string) ([]models.Booking, error)

	// InsertIfFree atomically re-checks the provider's schedule for the
	// booking's date and inserts the booking only when its interval overlaps
	// no active booking. Returns ErrIntervalTaken on any overlap or
	// commit-time uniqueness race.
	InsertIfFree(ctx context.Context, b *models.Booking) error

	// CompareAndSwapStatus moves a booking from an expected prior status to a
	// new one, optionally setting extra fields, failing with ErrStatusChanged
	// if the prior status no longer holds.
	CompareAndSwapStatus(ctx context.Context, id string, from, to models.BookingStatus, fields StatusFields) error

	// FindStale returns bookings in any of the given statuses whose date is
	// strictly before the cutoff date ("2006-01-02").
	FindStale(statuses []models.BookingStatus, beforeDate string) ([]models.Booking, error)

	// FindUnrefunded returns terminal bookings whose refund was recorded as
	// owed but whose payment status is still Paid, meaning the wallet credit
	// never landed.
	FindUnrefunded() ([]models.Booking, error)

	// SetSettlement stores the precomputed commission split on the booking.
	SetSettlement(ctx context.Context, id string, commission, providerAmount float64) error

	// MarkRefunded flips paymentStatus from Paid to Refunded; a booking no
	// longer Paid returns ErrStatusChanged.
	MarkRefunded(ctx context.Context, id string) error

	// MarkReviewed flips the reviewed flag exactly once; a second call
	// returns ErrStatusChanged.
	MarkReviewed(ctx context.Context, id string) error
}
