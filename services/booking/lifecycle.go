package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "taskora/database/repository/booking"
	walletRepo "taskora/database/repository/wallet"
	"taskora/models"
	"taskora/utils"
)

const (
	// startGraceWindow is how early a provider may move a booking to
	// InProgress before its scheduled start.
	startGraceWindow = 5 * time.Minute
	// completionTokenTTL bounds the life of a completion code.
	completionTokenTTL = 10 * time.Minute
	// completionCodeLength is the length of the one-time completion code.
	completionCodeLength = 6
)

// TransitionRequest is one lifecycle action against a booking.
type TransitionRequest struct {
	BookingID string                  `json:"bookingId"`
	Action    models.TransitionAction `json:"action" binding:"required"`
	Actor     models.TransitionActor  `json:"actor" binding:"required"`
	Token     string                  `json:"token,omitempty"` // confirmCompletion
	Code      string                  `json:"code,omitempty"`  // confirmCompletion
}

// TransitionResult reports the booking's status after the action.
// CompletionToken is set only by requestCompletion; AlreadyCancelled marks the
// idempotent cancel no-op.
type TransitionResult struct {
	Status           models.BookingStatus `json:"status"`
	AlreadyCancelled bool                 `json:"alreadyCancelled,omitempty"`
	CompletionToken  string               `json:"completionToken,omitempty"`
}

// Transition drives the booking state machine. Every status write is a
// compare-and-swap on the expected prior status, so a racing transition loses
// with a StateError instead of silently overwriting.
func (e *DefaultBookingEngine) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	b, err := e.BookingRepo.GetByID(req.BookingID)
	if err != nil {
		return nil, NewNotFoundError("booking %s not found", req.BookingID)
	}

	switch req.Action {
	case models.ActionConfirm:
		return e.confirm(ctx, b)
	case models.ActionStart:
		return e.start(ctx, b)
	case models.ActionCancel:
		return e.cancel(ctx, b, req.Actor)
	case models.ActionRequestCompletion:
		return e.requestCompletion(ctx, b)
	case models.ActionConfirmCompletion:
		return e.confirmCompletion(ctx, b, req.Token, req.Code)
	default:
		return nil, NewValidationError("unknown action %q", req.Action)
	}
}

// confirm marks payment received and pins the commission split computed at
// confirmation time onto the booking.
func (e *DefaultBookingEngine) confirm(ctx context.Context, b *models.Booking) (*TransitionResult, error) {
	if !b.Status.CanTransitionTo(models.BookingConfirmed) {
		return nil, NewStateError("cannot confirm a booking in status %s", b.Status)
	}

	var settlement *models.Settlement
	if b.Amount > 0 {
		svc, err := e.CatalogRepo.GetService(b.ServiceID)
		if err != nil {
			return nil, NewNotFoundError("service %s not found", b.ServiceID)
		}
		settlement, err = e.Settle(ctx, b.Amount, svc.CategoryID, b.ProviderID)
		if err != nil {
			return nil, err
		}
	}

	paid := models.PaymentPaid
	err := e.BookingRepo.CompareAndSwapStatus(ctx, b.ID, models.BookingPending, models.BookingConfirmed,
		bookingRepo.StatusFields{PaymentStatus: &paid})
	if err != nil {
		return nil, casError(err, "confirm")
	}

	if settlement != nil {
		if err := e.BookingRepo.SetSettlement(ctx, b.ID, settlement.Commission, settlement.ProviderAmount); err != nil {
			utils.GetLogger().Error("failed to store settlement", zap.String("bookingID", b.ID), zap.Error(err))
		}
	}

	e.notifyUser(b.UserID, "Booking confirmed",
		fmt.Sprintf("Your booking on %s at %s is confirmed.", b.Date, b.Time))
	e.notifyProvider(b.ProviderID, "New confirmed booking",
		fmt.Sprintf("You have a confirmed booking on %s at %s.", b.Date, b.Time))

	return &TransitionResult{Status: models.BookingConfirmed}, nil
}

// start moves a confirmed booking to InProgress, allowed from 5 minutes before
// the scheduled start onward.
func (e *DefaultBookingEngine) start(ctx context.Context, b *models.Booking) (*TransitionResult, error) {
	if !b.Status.CanTransitionTo(models.BookingInProgress) {
		return nil, NewStateError("cannot start a booking in status %s", b.Status)
	}

	day, err := parseDate(b.Date)
	if err != nil {
		return nil, NewValidationError("%v", err)
	}
	scheduledStart := day.Add(time.Duration(b.Start) * time.Minute)
	if e.now().Before(scheduledStart.Add(-startGraceWindow)) {
		return nil, NewStateError("booking starts at %s; it can only begin within %s of that time",
			b.Time, startGraceWindow)
	}

	err = e.BookingRepo.CompareAndSwapStatus(ctx, b.ID, models.BookingConfirmed, models.BookingInProgress,
		bookingRepo.StatusFields{})
	if err != nil {
		return nil, casError(err, "start")
	}
	return &TransitionResult{Status: models.BookingInProgress}, nil
}

// cancel resolves a live booking and refunds the customer's wallet: half the
// amount when the customer backs out of a confirmed booking, the full amount
// in every other case. Cancelling twice is a no-op, except that a cancel
// whose wallet credit failed retries the credit before reporting the no-op.
func (e *DefaultBookingEngine) cancel(ctx context.Context, b *models.Booking, actor models.TransitionActor) (*TransitionResult, error) {
	if b.Status == models.BookingCancelled {
		if b.PaymentStatus == models.PaymentPaid && b.RefundDue > 0 {
			if err := e.settleRefund(ctx, b, b.RefundDue, fmt.Sprintf("cancellation by %s", actor)); err != nil {
				return nil, err
			}
		}
		return &TransitionResult{Status: models.BookingCancelled, AlreadyCancelled: true}, nil
	}
	if !b.Status.CanTransitionTo(models.BookingCancelled) {
		return nil, NewStateError("cannot cancel a booking in status %s", b.Status)
	}

	refundPct := 1.0
	if actor == models.ActorCustomer && b.Status == models.BookingConfirmed {
		refundPct = 0.5
	}

	// The owed amount is pinned on the booking before any wallet write, so a
	// credit that fails below leaves a Paid booking the retry paths can find.
	fields := bookingRepo.StatusFields{}
	var owed float64
	if b.PaymentStatus == models.PaymentPaid && b.Amount > 0 {
		owed = b.Amount * refundPct
		fields.RefundDue = &owed
	}

	if err := e.BookingRepo.CompareAndSwapStatus(ctx, b.ID, b.Status, models.BookingCancelled, fields); err != nil {
		return nil, casError(err, "cancel")
	}

	if owed > 0 {
		if err := e.settleRefund(ctx, b, owed, fmt.Sprintf("cancellation by %s", actor)); err != nil {
			return nil, err
		}
	}

	e.notifyUser(b.UserID, "Booking cancelled",
		fmt.Sprintf("Your booking on %s at %s was cancelled.", b.Date, b.Time))
	e.notifyProvider(b.ProviderID, "Booking cancelled",
		fmt.Sprintf("The booking on %s at %s was cancelled.", b.Date, b.Time))

	return &TransitionResult{Status: models.BookingCancelled}, nil
}

// requestCompletion issues a fresh one-time code to the customer and hands the
// caller a signed token binding that code to the booking. No booking state
// changes; an expired token is simply re-requested.
func (e *DefaultBookingEngine) requestCompletion(ctx context.Context, b *models.Booking) (*TransitionResult, error) {
	if b.Status != models.BookingInProgress {
		return nil, NewStateError("cannot request completion for a booking in status %s", b.Status)
	}

	code, err := utils.GenerateSecureOTP(completionCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate completion code: %w", err)
	}
	token, err := utils.GenerateCompletionToken(b.ID, utils.HashCode(code), completionTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign completion token: %w", err)
	}

	e.notifyUser(b.UserID, "Your completion code",
		fmt.Sprintf("Your completion code is %s. It expires in %d minutes.",
			code, int(completionTokenTTL.Minutes())))

	return &TransitionResult{Status: b.Status, CompletionToken: token}, nil
}

// confirmCompletion finalizes a booking once the customer's code matches the
// signed token, then pays the provider: wallet credit, ledger entry, earnings
// and completed-bookings counters.
func (e *DefaultBookingEngine) confirmCompletion(ctx context.Context, b *models.Booking, token, code string) (*TransitionResult, error) {
	bookingID, codeHash, err := utils.ParseCompletionToken(token)
	if err != nil {
		return nil, NewVerificationError("completion token is invalid or expired")
	}
	if bookingID != b.ID {
		return nil, NewVerificationError("completion token does not match this booking")
	}
	if utils.HashCode(code) != codeHash {
		return nil, NewVerificationError("completion code does not match")
	}

	if !b.Status.CanTransitionTo(models.BookingCompleted) {
		return nil, NewStateError("cannot complete a booking in status %s", b.Status)
	}

	payout := b.ProviderAmount
	if payout == 0 && b.Amount > 0 {
		svc, err := e.CatalogRepo.GetService(b.ServiceID)
		if err != nil {
			return nil, NewNotFoundError("service %s not found", b.ServiceID)
		}
		settlement, err := e.Settle(ctx, b.Amount, svc.CategoryID, b.ProviderID)
		if err != nil {
			return nil, err
		}
		payout = settlement.ProviderAmount
	}

	err = e.BookingRepo.CompareAndSwapStatus(ctx, b.ID, models.BookingInProgress, models.BookingCompleted,
		bookingRepo.StatusFields{})
	if err != nil {
		return nil, casError(err, "complete")
	}

	if payout > 0 {
		txn := models.WalletTransaction{
			ID:        uuid.New().String(),
			OwnerID:   b.ProviderID,
			BookingID: b.ID,
			Amount:    payout,
			Kind:      models.TxnCredit,
			Source:    models.SourcePayment,
			Note:      fmt.Sprintf("payout for booking %s", b.ID),
			CreatedAt: e.now(),
		}
		if err := e.WalletRepo.ApplyTransaction(ctx, txn); err != nil {
			utils.GetLogger().Error("provider payout failed",
				zap.String("bookingID", b.ID), zap.String("providerID", b.ProviderID), zap.Error(err))
			return nil, fmt.Errorf("provider payout failed: %w", err)
		}
		if err := e.ProviderRepo.CreditEarnings(ctx, b.ProviderID, payout); err != nil {
			utils.GetLogger().Error("failed to update provider aggregates",
				zap.String("providerID", b.ProviderID), zap.Error(err))
		}
	}

	e.notifyProvider(b.ProviderID, "Booking completed",
		fmt.Sprintf("The booking on %s at %s is complete. %.2f was credited to your wallet.", b.Date, b.Time, payout))

	return &TransitionResult{Status: models.BookingCompleted}, nil
}

// settleRefund credits the customer's wallet and only then flips the payment
// status to Refunded. A failed credit leaves the booking marked Paid with
// refundDue set, so the idempotent cancel path and the sweep's recovery pass
// can finish the compensation later. The ledger entry id is derived from the
// booking id; a replay after a partial failure dedupes at the store instead
// of crediting twice.
func (e *DefaultBookingEngine) settleRefund(ctx context.Context, b *models.Booking, amount float64, note string) error {
	txn := models.WalletTransaction{
		ID:        "refund-" + b.ID,
		OwnerID:   b.UserID,
		BookingID: b.ID,
		Amount:    amount,
		Kind:      models.TxnCredit,
		Source:    models.SourceRefund,
		Note:      note,
		CreatedAt: e.now(),
	}
	err := e.WalletRepo.ApplyTransaction(ctx, txn)
	if err != nil && !errors.Is(err, walletRepo.ErrDuplicateTransaction) {
		utils.GetLogger().Error("refund failed",
			zap.String("bookingID", b.ID), zap.String("userID", b.UserID), zap.Error(err))
		return fmt.Errorf("refund failed: %w", err)
	}
	if err := e.BookingRepo.MarkRefunded(ctx, b.ID); err != nil && !errors.Is(err, bookingRepo.ErrStatusChanged) {
		utils.GetLogger().Error("failed to mark booking refunded",
			zap.String("bookingID", b.ID), zap.Error(err))
		return fmt.Errorf("failed to mark booking refunded: %w", err)
	}
	return nil
}

// casError maps a lost compare-and-swap to the engine's error taxonomy.
func casError(err error, action string) error {
	if errors.Is(err, bookingRepo.ErrStatusChanged) {
		return NewStateError("booking changed concurrently; %s no longer applies", action)
	}
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return NewNotFoundError("booking not found")
	}
	return err
}

// notifyUser sends a fire-and-forget email; failure is logged, never
// propagated to the transition that triggered it.
func (e *DefaultBookingEngine) notifyUser(userID, subject, body string) {
	if e.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Notifier.SendUserEmail(ctx, userID, subject, body); err != nil {
		utils.GetLogger().Warn("user notification failed", zap.String("userID", userID), zap.Error(err))
	}
}

func (e *DefaultBookingEngine) notifyProvider(providerID, subject, body string) {
	if e.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Notifier.SendProviderEmail(ctx, providerID, subject, body); err != nil {
		utils.GetLogger().Warn("provider notification failed", zap.String("providerID", providerID), zap.Error(err))
	}
}
