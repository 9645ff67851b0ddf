package booking

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"taskora/models"
	"taskora/utils"
)

// GenerateSlots computes bookable slots for every provider offering the
// queried service's category within the radius, per date in the range. It is
// recomputed from live data on every call; the conflict guard re-validates at
// creation time regardless, so a slightly stale read here is acceptable.
func (e *DefaultBookingEngine) GenerateSlots(ctx context.Context, q models.SlotQuery) ([]models.ProviderDaySlots, error) {
	logger := utils.GetLogger()

	from, err := parseDate(q.FromDate)
	if err != nil {
		return nil, NewValidationError("%v", err)
	}
	to, err := parseDate(q.ToDate)
	if err != nil {
		return nil, NewValidationError("%v", err)
	}
	if to.Before(from) {
		return nil, NewValidationError("date range ends %s before it starts %s", q.ToDate, q.FromDate)
	}

	svc, err := e.CatalogRepo.GetService(q.ServiceID)
	if err != nil {
		return nil, NewNotFoundError("service %s not found", q.ServiceID)
	}

	candidates, err := e.ProviderRepo.SearchNearby(q.Lng, q.Lat, q.RadiusKm)
	if err != nil {
		return nil, err
	}

	// One catalog read covers every candidate; the queried service wins when
	// its provider offers siblings in the same category.
	siblings, err := e.CatalogRepo.ActiveServicesByCategory(svc.CategoryID)
	if err != nil {
		return nil, err
	}
	byProvider := map[string]models.Service{}
	for _, s := range siblings {
		if _, ok := byProvider[s.ProviderID]; !ok || s.ID == q.ServiceID {
			byProvider[s.ProviderID] = s
		}
	}

	type ranked struct {
		provider models.Provider
		service  models.Service
		distance float64
	}
	var within []ranked
	for _, p := range candidates {
		// The store's geo query is a prefilter; the haversine predicate is
		// the authoritative radius check.
		if !WithinRadius(q.Lat, q.Lng, p.Profile.LocationGeo, q.RadiusKm) {
			continue
		}
		offering, ok := byProvider[p.ID]
		if !ok {
			continue
		}
		d := DistanceKm(q.Lat, q.Lng, p.Profile.LocationGeo)
		within = append(within, ranked{provider: p, service: offering, distance: d})
	}
	sort.Slice(within, func(i, j int) bool { return within[i].distance < within[j].distance })

	now := e.now()
	today := now.Format(dateLayout)
	nowMinutes := now.Hour()*60 + now.Minute()
	step := e.slotStep()

	var results []models.ProviderDaySlots
	// Across providers, the same time-of-day is offered once per date,
	// nearest provider first.
	seen := map[string]map[string]bool{}

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(dateLayout)
		if dateStr < today {
			continue
		}
		if seen[dateStr] == nil {
			seen[dateStr] = map[string]bool{}
		}

		for _, r := range within {
			day, err := ResolveDay(r.provider.Availability, dateStr)
			if err != nil {
				logger.Warn("availability resolution failed",
					zap.String("providerID", r.provider.ID), zap.String("date", dateStr), zap.Error(err))
				continue
			}
			if len(day.Open) == 0 {
				continue
			}

			active, err := e.BookingRepo.ActiveByProviderDate(r.provider.ID, dateStr)
			if err != nil {
				logger.Error("error fetching active bookings",
					zap.String("providerID", r.provider.ID), zap.String("date", dateStr), zap.Error(err))
				continue
			}

			minStart := -1
			if dateStr == today {
				minStart = nowMinutes
			}
			slots := buildDaySlots(day, r.service.Duration, step, active, minStart)

			var kept []models.Slot
			for _, s := range slots {
				if seen[dateStr][s.Label] {
					continue
				}
				seen[dateStr][s.Label] = true
				kept = append(kept, s)
			}
			if len(kept) == 0 {
				continue
			}
			results = append(results, models.ProviderDaySlots{
				ProviderID: r.provider.ID,
				Date:       dateStr,
				DistanceKm: r.distance,
				Slots:      kept,
			})
		}
	}
	return results, nil
}

// buildDaySlots slides a cursor across each open window in step increments and
// keeps every candidate [cursor, cursor+duration) that clears the blocked
// sub-windows and the provider's active bookings. Candidates starting before
// minStart are dropped (pass -1 to keep everything).
func buildDaySlots(day *models.DayAvailability, duration, step int, active []models.Booking, minStart int) []models.Slot {
	if duration <= 0 || step <= 0 {
		return nil
	}

	type span struct{ start, end int }
	var blocked []span
	for _, w := range day.Blocked {
		start, end, err := windowRange(w)
		if err != nil {
			continue
		}
		blocked = append(blocked, span{start, end})
	}

	var slots []models.Slot
	for _, w := range day.Open {
		wStart, wEnd, err := windowRange(w)
		if err != nil {
			continue
		}
		for cursor := wStart; cursor+duration <= wEnd; cursor += step {
			start, end := cursor, cursor+duration
			if start < minStart {
				continue
			}
			clear := true
			for _, b := range blocked {
				if intervalsOverlap(start, end, b.start, b.end) {
					clear = false
					break
				}
			}
			if clear {
				for _, b := range active {
					if b.Overlaps(start, end) {
						clear = false
						break
					}
				}
			}
			if clear {
				slots = append(slots, models.Slot{Start: start, End: end, Label: slotLabel(start, end)})
			}
		}
	}
	return slots
}
