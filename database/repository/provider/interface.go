package providerRepo

import (
	"context"
	"errors"

	"taskora/models"
)

// ErrNotFound is returned when no provider matches the given id.
var ErrNotFound = errors.New("provider not found")

// ProviderRepository is the provider store consumed by the engine.
type ProviderRepository interface {
	GetByID(id string) (*models.Provider, error)

	// SearchNearby returns providers whose fixed location falls inside the
	// radius, as a coarse prefilter; the in-process distance predicate
	// remains the authoritative check.
	SearchNearby(lng, lat, radiusKm float64) ([]models.Provider, error)

	// UpdateAvailability replaces the provider's published calendar.
	UpdateAvailability(ctx context.Context, providerID string, av models.Availability) error

	// AdjustRating shifts the provider's rating by delta, clamped to
	// [floor, ceil].
	AdjustRating(ctx context.Context, providerID string, delta, floor, ceil float64) error

	// CreditEarnings adds a completed payout to the provider's aggregates:
	// total earnings plus the completed-bookings counter.
	CreditEarnings(ctx context.Context, providerID string, amount float64) error

	// ApplyReview folds one review rating into the provider's aggregate
	// rating and review count.
	ApplyReview(ctx context.Context, providerID string, rating float64) error

	// PruneExpiredAvailability removes date overrides and leave periods whose
	// end date is strictly before the given date, across all providers.
	// Housekeeping only; the resolver ignores past dates regardless.
	PruneExpiredAvailability(ctx context.Context, beforeDate string) (int64, error)
}
