package booking

import (
	"context"
	"time"

	"taskora/models"
)

// ResolveDay answers whether and when a provider works on one calendar date.
// Precedence: leave periods block everything; a full-day override blocks
// everything; otherwise the weekday's windows are open and a non-blocking
// override's busy slots layer on as blocked sub-windows. Empty Open means the
// provider does not work that date.
func ResolveDay(av models.Availability, date string) (*models.DayAvailability, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, NewValidationError("%v", err)
	}

	result := &models.DayAvailability{Date: date, Open: []models.TimeWindow{}, Blocked: []models.TimeWindow{}}

	// Leave periods win over everything. Bounds are inclusive; date strings
	// compare chronologically.
	for _, lp := range av.LeavePeriods {
		if lp.From <= date && date <= lp.To {
			return result, nil
		}
	}

	var override *models.DateOverride
	for i := range av.DateOverrides {
		if av.DateOverrides[i].Date == date {
			override = &av.DateOverrides[i]
			break
		}
	}
	if override != nil && override.Unavailable {
		return result, nil
	}

	var schedule *models.DaySchedule
	for i := range av.WeeklySchedule {
		if av.WeeklySchedule[i].Day == day.Weekday() {
			schedule = &av.WeeklySchedule[i]
			break
		}
	}
	if schedule == nil || !schedule.Active || len(schedule.Windows) == 0 {
		return result, nil
	}

	open := make([]models.TimeWindow, len(schedule.Windows))
	copy(open, schedule.Windows)
	sortWindows(open)
	result.Open = open

	if override != nil {
		result.Blocked = append(result.Blocked, override.BusySlots...)
	}
	return result, nil
}

// ResolveAvailability resolves one provider's open and blocked windows for a
// date.
func (e *DefaultBookingEngine) ResolveAvailability(ctx context.Context, providerID, date string) (*models.DayAvailability, error) {
	provider, err := e.ProviderRepo.GetByID(providerID)
	if err != nil {
		return nil, NewNotFoundError("provider %s not found", providerID)
	}
	return ResolveDay(provider.Availability, date)
}

// UpdateAvailability validates and stores a provider's calendar: weekly
// windows must be well-formed and non-overlapping within a weekday, and
// overrides and leave periods must not be past-dated.
func (e *DefaultBookingEngine) UpdateAvailability(ctx context.Context, providerID string, av models.Availability) error {
	if len(av.WeeklySchedule) != 7 {
		return NewValidationError("weekly schedule must have exactly 7 entries, got %d", len(av.WeeklySchedule))
	}
	seen := map[time.Weekday]bool{}
	for _, day := range av.WeeklySchedule {
		if seen[day.Day] {
			return NewValidationError("duplicate weekly entry for %s", day.Day)
		}
		seen[day.Day] = true
		if err := validateWindows(day.Windows, day.Day.String()); err != nil {
			return err
		}
	}

	today := e.now().Format(dateLayout)
	for _, ov := range av.DateOverrides {
		if _, err := parseDate(ov.Date); err != nil {
			return NewValidationError("%v", err)
		}
		if ov.Date < today {
			return NewValidationError("override for %s is in the past", ov.Date)
		}
		for _, w := range ov.BusySlots {
			if _, _, err := windowRange(w); err != nil {
				return NewValidationError("override %s: %v", ov.Date, err)
			}
		}
	}
	for _, lp := range av.LeavePeriods {
		if _, err := parseDate(lp.From); err != nil {
			return NewValidationError("%v", err)
		}
		if _, err := parseDate(lp.To); err != nil {
			return NewValidationError("%v", err)
		}
		if lp.To < lp.From {
			return NewValidationError("leave period ends %s before it starts %s", lp.To, lp.From)
		}
		if lp.To < today {
			return NewValidationError("leave period ending %s is in the past", lp.To)
		}
	}

	if err := e.ProviderRepo.UpdateAvailability(ctx, providerID, av); err != nil {
		return NewNotFoundError("provider %s not found", providerID)
	}
	return nil
}

// validateWindows rejects malformed or mutually overlapping windows within one
// weekday.
func validateWindows(windows []models.TimeWindow, day string) error {
	type span struct{ start, end int }
	spans := make([]span, 0, len(windows))
	for _, w := range windows {
		start, end, err := windowRange(w)
		if err != nil {
			return NewValidationError("%s: %v", day, err)
		}
		spans = append(spans, span{start, end})
	}
	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			if intervalsOverlap(spans[i].start, spans[i].end, spans[j].start, spans[j].end) {
				return NewValidationError("%s: windows %s-%s and %s-%s overlap",
					day, windows[i].Start, windows[i].End, windows[j].Start, windows[j].End)
			}
		}
	}
	return nil
}
