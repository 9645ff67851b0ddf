package booking

import (
	"context"
	"errors"

	bookingRepo "taskora/database/repository/booking"
	"taskora/models"
)

// SubmitReview records a customer's post-completion rating, once. The
// reviewed flag flips under a guarded write, so a second submission is
// rejected rather than counted twice.
func (e *DefaultBookingEngine) SubmitReview(ctx context.Context, bookingID string, rating float64, comment string) error {
	if rating < 1 || rating > 5 {
		return NewValidationError("rating must be between 1 and 5, got %.1f", rating)
	}

	b, err := e.BookingRepo.GetByID(bookingID)
	if err != nil {
		return NewNotFoundError("booking %s not found", bookingID)
	}
	if b.Status != models.BookingCompleted {
		return NewStateError("only completed bookings can be reviewed; booking is %s", b.Status)
	}
	if b.Reviewed {
		return NewStateError("booking %s has already been reviewed", bookingID)
	}

	if err := e.BookingRepo.MarkReviewed(ctx, bookingID); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusChanged) {
			return NewStateError("booking %s has already been reviewed", bookingID)
		}
		return err
	}

	return e.ProviderRepo.ApplyReview(ctx, b.ProviderID, rating)
}
