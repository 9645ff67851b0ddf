package booking

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"taskora/models"
)

// Settle computes the commission split for a charged amount: the service
// category's rule, plus its parent category's rule on top, adjusted by the
// provider's active subscription. Lookups are plain fetch-by-id calls; there
// is no object graph walk.
func (e *DefaultBookingEngine) Settle(ctx context.Context, amount float64, categoryID, providerID string) (*models.Settlement, error) {
	if amount < 0 {
		return nil, NewValidationError("amount must not be negative, got %.2f", amount)
	}

	category, err := e.CatalogRepo.GetCategory(categoryID)
	if err != nil {
		return nil, NewNotFoundError("category %s not found", categoryID)
	}

	var parentRule *models.CommissionRule
	if category.ParentID != "" {
		parent, err := e.CatalogRepo.GetCategory(category.ParentID)
		if err != nil {
			return nil, NewNotFoundError("parent category %s not found", category.ParentID)
		}
		parentRule = &parent.Commission
	}

	var sub *models.Subscription
	if provider, err := e.ProviderRepo.GetByID(providerID); err == nil {
		sub = provider.Subscription
	}

	s := ComputeSettlement(amount, category.Commission, parentRule, sub, e.now())
	return &s, nil
}

// ComputeSettlement is the pure commission calculation. The result's
// commission always lands in [0, amount].
func ComputeSettlement(amount float64, rule models.CommissionRule, parent *models.CommissionRule, sub *models.Subscription, now time.Time) models.Settlement {
	commission := applyRule(amount, rule)
	if parent != nil {
		commission += applyRule(amount, *parent)
	}

	if sub.Active(now) {
		if subscriptionWaivesCommission(sub.Features) {
			commission = 0
		} else if reduction, ok := subscriptionReductionPct(sub.Features); ok {
			if rule.Type == models.CommissionPercentage && reduction >= rule.Value {
				commission = 0
			} else {
				commission -= amount * reduction / 100
			}
		}
	}

	if commission < 0 {
		commission = 0
	}
	if commission > amount {
		commission = amount
	}
	return models.Settlement{Commission: commission, ProviderAmount: amount - commission}
}

func applyRule(amount float64, rule models.CommissionRule) float64 {
	switch rule.Type {
	case models.CommissionPercentage:
		return amount * rule.Value / 100
	case models.CommissionFlat:
		return rule.Value
	default:
		return 0
	}
}

// subscriptionWaivesCommission reports whether any plan feature declares a
// full commission waiver.
func subscriptionWaivesCommission(features []string) bool {
	for _, f := range features {
		lower := strings.ToLower(f)
		if strings.Contains(lower, "no commission") || strings.Contains(lower, "zero commission") {
			return true
		}
	}
	return false
}

var reductionPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// subscriptionReductionPct extracts a numeric commission reduction from the
// plan's feature text, e.g. "5% commission reduction".
func subscriptionReductionPct(features []string) (float64, bool) {
	for _, f := range features {
		lower := strings.ToLower(f)
		if !strings.Contains(lower, "commission") {
			continue
		}
		m := reductionPattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return pct, true
	}
	return 0, false
}
