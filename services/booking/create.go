package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "taskora/database/repository/booking"
	"taskora/models"
	"taskora/utils"
)

// CreateBooking is the conflict guard: it recomputes the requested interval
// server-side, then hands the insert to the store's transaction, which
// re-scans the provider's date under the session and rejects any overlap. The
// caller owns reversing an externally captured payment when a conflict comes
// back.
func (e *DefaultBookingEngine) CreateBooking(ctx context.Context, req models.BookingRequest) (string, error) {
	logger := utils.GetLogger()

	if _, err := parseDate(req.Date); err != nil {
		return "", NewValidationError("%v", err)
	}
	start, err := parseClock12(req.Time)
	if err != nil {
		return "", NewValidationError("%v", err)
	}

	svc, err := e.CatalogRepo.GetService(req.ServiceID)
	if err != nil {
		return "", NewNotFoundError("service %s not found", req.ServiceID)
	}
	if svc.ProviderID != req.ProviderID {
		return "", NewNotFoundError("service %s is not offered by provider %s", req.ServiceID, req.ProviderID)
	}
	if svc.Duration <= 0 {
		return "", NewValidationError("service %s has no duration", req.ServiceID)
	}
	if _, err := e.ProviderRepo.GetByID(req.ProviderID); err != nil {
		return "", NewNotFoundError("provider %s not found", req.ProviderID)
	}

	now := e.now()
	b := &models.Booking{
		ID:            uuid.New().String(),
		ProviderID:    req.ProviderID,
		UserID:        req.UserID,
		ServiceID:     req.ServiceID,
		AddressID:     req.AddressID,
		PaymentRef:    req.PaymentRef,
		Date:          req.Date,
		Time:          req.Time,
		Duration:      svc.Duration,
		Start:         start,
		End:           start + svc.Duration,
		Amount:        svc.Price,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := e.BookingRepo.InsertIfFree(ctx, b); err != nil {
		if errors.Is(err, bookingRepo.ErrIntervalTaken) {
			logger.Info("booking conflict",
				zap.String("providerID", req.ProviderID),
				zap.String("date", req.Date),
				zap.String("time", req.Time))
			return "", NewConflictError("provider %s is already booked at %s on %s", req.ProviderID, req.Time, req.Date)
		}
		return "", err
	}

	logger.Info("booking created",
		zap.String("bookingID", b.ID),
		zap.String("providerID", b.ProviderID),
		zap.String("date", b.Date),
		zap.String("time", b.Time))
	return b.ID, nil
}
