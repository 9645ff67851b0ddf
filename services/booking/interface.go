package booking

import (
	"context"
	"time"

	bookingRepo "taskora/database/repository/booking"
	catalogRepo "taskora/database/repository/catalog"
	providerRepo "taskora/database/repository/provider"
	walletRepo "taskora/database/repository/wallet"
	"taskora/models"
	"taskora/services/notification"
)

// defaultSlotStep is the discretization step for slot generation, in minutes.
const defaultSlotStep = 60

// BookingEngine is the availability and conflict-resolution engine exposed to
// the request handlers and the background jobs.
type BookingEngine interface {
	ResolveAvailability(ctx context.Context, providerID, date string) (*models.DayAvailability, error)
	GenerateSlots(ctx context.Context, q models.SlotQuery) ([]models.ProviderDaySlots, error)
	CreateBooking(ctx context.Context, req models.BookingRequest) (string, error)
	Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)
	Settle(ctx context.Context, amount float64, categoryID, providerID string) (*models.Settlement, error)
	UpdateAvailability(ctx context.Context, providerID string, av models.Availability) error
	SubmitReview(ctx context.Context, bookingID string, rating float64, comment string) error
	RunExpirySweep(ctx context.Context) (*SweepReport, error)
	CleanupAvailability(ctx context.Context) (int64, error)
}

// DefaultBookingEngine is the production implementation. All collaborators
// arrive through this struct; the engine holds no process-wide state.
type DefaultBookingEngine struct {
	BookingRepo  bookingRepo.BookingRepository
	ProviderRepo providerRepo.ProviderRepository
	WalletRepo   walletRepo.WalletRepository
	CatalogRepo  catalogRepo.CatalogRepository
	Notifier     notification.NotificationService

	// Clock is injectable for tests; nil means time.Now.
	Clock func() time.Time
	// SlotStep overrides the slot discretization step; zero means the
	// 60-minute default.
	SlotStep int
}

func (e *DefaultBookingEngine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *DefaultBookingEngine) slotStep() int {
	if e.SlotStep > 0 {
		return e.SlotStep
	}
	return defaultSlotStep
}
