package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	bookingRepo "taskora/database/repository/booking"
	"taskora/models"
	"taskora/utils"
)

// ratingFloor and ratingCeil bound a provider's rating.
const (
	ratingFloor = 1.0
	ratingCeil  = 5.0
	// expiryPenalty is how much an expired booking costs the provider.
	expiryPenalty = -1.0
)

// SweepReport summarizes one expiry pass.
type SweepReport struct {
	Scanned  int `json:"scanned"`
	Expired  int `json:"expired"`
	Refunded int `json:"refunded"`
	Failed   int `json:"failed"`
}

// RunExpirySweep finds Pending and Confirmed bookings dated strictly before
// yesterday and resolves them: full refund when paid, a rating penalty for the
// provider, status Expired. Each booking is processed independently; one
// failure never halts the pass. Already-expired bookings lose the
// compare-and-swap and are skipped, which is what makes a repeated run a
// no-op. Refunds that an earlier pass recorded but could not credit are
// recovered first.
func (e *DefaultBookingEngine) RunExpirySweep(ctx context.Context) (*SweepReport, error) {
	logger := utils.GetLogger()

	// One-day grace: a booking dated yesterday is left alone until tomorrow.
	cutoff := e.now().AddDate(0, 0, -1).Format(dateLayout)

	report := &SweepReport{}
	e.recoverRefunds(ctx, report)

	stale, err := e.BookingRepo.FindStale(
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed}, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expiry sweep query failed: %w", err)
	}

	report.Scanned = len(stale)
	for _, b := range stale {
		refunded, err := e.expireOne(ctx, b)
		if err != nil {
			report.Failed++
			logger.Error("failed to expire booking",
				zap.String("bookingID", b.ID), zap.String("date", b.Date), zap.Error(err))
			continue
		}
		report.Expired++
		if refunded {
			report.Refunded++
		}
	}

	logger.Info("expiry sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("expired", report.Expired),
		zap.Int("refunded", report.Refunded),
		zap.Int("failed", report.Failed))
	return report, nil
}

// expireOne applies the cancellation compensations to a single stale booking.
// The owed refund is pinned on the booking by the status swap itself; the
// wallet credit runs afterward, so a credit failure leaves a Paid booking the
// recovery pass will pick up instead of a refund marked done that never was.
func (e *DefaultBookingEngine) expireOne(ctx context.Context, b models.Booking) (refunded bool, err error) {
	fields := bookingRepo.StatusFields{}
	var owed float64
	if b.PaymentStatus == models.PaymentPaid && b.Amount > 0 {
		owed = b.Amount
		fields.RefundDue = &owed
	}

	err = e.BookingRepo.CompareAndSwapStatus(ctx, b.ID, b.Status, models.BookingExpired, fields)
	if errors.Is(err, bookingRepo.ErrStatusChanged) {
		// Resolved by someone else between the scan and now; nothing to do.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := e.ProviderRepo.AdjustRating(ctx, b.ProviderID, expiryPenalty, ratingFloor, ratingCeil); err != nil {
		utils.GetLogger().Error("failed to apply rating penalty",
			zap.String("providerID", b.ProviderID), zap.Error(err))
	}
	e.notifyProvider(b.ProviderID, "Booking expired",
		fmt.Sprintf("Your booking on %s at %s was never resolved and has expired. Your rating was reduced.", b.Date, b.Time))

	if owed > 0 {
		if err := e.settleRefund(ctx, &b, owed, "booking expired unresolved"); err != nil {
			return false, err
		}
		e.notifyUser(b.UserID, "Booking expired",
			fmt.Sprintf("Your booking on %s at %s expired and your payment was refunded to your wallet.", b.Date, b.Time))
	}

	return owed > 0, nil
}

// recoverRefunds retries wallet credits owed by bookings that were resolved
// on an earlier pass but never refunded.
func (e *DefaultBookingEngine) recoverRefunds(ctx context.Context, report *SweepReport) {
	logger := utils.GetLogger()

	owed, err := e.BookingRepo.FindUnrefunded()
	if err != nil {
		logger.Error("failed to query unrefunded bookings", zap.Error(err))
		return
	}
	for _, b := range owed {
		if err := e.settleRefund(ctx, &b, b.RefundDue, "refund recovered after failed credit"); err != nil {
			report.Failed++
			logger.Error("refund recovery failed",
				zap.String("bookingID", b.ID), zap.String("userID", b.UserID), zap.Error(err))
			continue
		}
		report.Refunded++
		e.notifyUser(b.UserID, "Refund issued",
			fmt.Sprintf("Your payment for the booking on %s at %s was refunded to your wallet.", b.Date, b.Time))
	}
}

// CleanupAvailability prunes date overrides and leave periods that ended in
// the past. Housekeeping only: the resolver ignores past dates on its own.
func (e *DefaultBookingEngine) CleanupAvailability(ctx context.Context) (int64, error) {
	today := e.now().Format(dateLayout)
	n, err := e.ProviderRepo.PruneExpiredAvailability(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("availability cleanup failed: %w", err)
	}
	utils.GetLogger().Info("availability cleanup finished", zap.Int64("providersTouched", n))
	return n, nil
}
