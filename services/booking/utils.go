package booking

import (
	"fmt"
	"sort"
	"time"

	"taskora/models"
)

const (
	dateLayout    = "2006-01-02"
	clock12Layout = "03:04 PM"
	clock24Layout = "15:04"
)

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// parseClock24 converts "HH:MM" to minutes from midnight.
func parseClock24(s string) (int, error) {
	t, err := time.Parse(clock24Layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (want HH:MM): %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// parseClock12 converts "hh:mm AM/PM" to minutes from midnight.
func parseClock12(s string) (int, error) {
	t, err := time.Parse(clock12Layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (want hh:mm AM/PM): %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatClock12 renders minutes from midnight as "3:04 PM".
func formatClock12(minutes int) string {
	t := time.Date(2000, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}

// slotLabel builds the human label for a [start, end) interval.
func slotLabel(start, end int) string {
	return fmt.Sprintf("%s - %s", formatClock12(start), formatClock12(end))
}

// windowRange parses a window's bounds into minutes from midnight.
func windowRange(w models.TimeWindow) (int, int, error) {
	start, err := parseClock24(w.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock24(w.End)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("window end %q not after start %q", w.End, w.Start)
	}
	return start, end, nil
}

// intervalsOverlap is the open-interval overlap test for two half-open
// minute ranges.
func intervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// sortWindows orders windows by start time; unparsable windows sink to the end.
func sortWindows(windows []models.TimeWindow) {
	sort.SliceStable(windows, func(i, j int) bool {
		si, _, erri := windowRange(windows[i])
		sj, _, errj := windowRange(windows[j])
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return si < sj
	})
}
