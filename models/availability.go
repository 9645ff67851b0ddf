package models

import "time"

// TimeWindow is one contiguous working span within a day, bounds in "HH:MM"
// 24-hour clock. End is exclusive.
type TimeWindow struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// DaySchedule is the recurring pattern for one weekday.
type DaySchedule struct {
	Day     time.Weekday `bson:"day" json:"day"`
	Active  bool         `bson:"active" json:"active"`
	Windows []TimeWindow `bson:"windows,omitempty" json:"windows,omitempty"`
}

// DateOverride adjusts a single calendar date: either the whole day is off,
// or parts of it are blocked out as busy.
type DateOverride struct {
	Date        string       `bson:"date" json:"date"` // "2006-01-02"
	Unavailable bool         `bson:"unavailable" json:"unavailable"`
	BusySlots   []TimeWindow `bson:"busySlots,omitempty" json:"busySlots,omitempty"`
	Reason      string       `bson:"reason,omitempty" json:"reason,omitempty"`
}

// LeavePeriod blocks an inclusive date range entirely.
type LeavePeriod struct {
	From   string `bson:"from" json:"from"` // "2006-01-02"
	To     string `bson:"to" json:"to"`     // "2006-01-02"
	Reason string `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Availability is a provider's published calendar: the weekly recurring
// pattern plus date-level exceptions layered on top.
type Availability struct {
	WeeklySchedule []DaySchedule  `bson:"weeklySchedule" json:"weeklySchedule"`
	DateOverrides  []DateOverride `bson:"dateOverrides,omitempty" json:"dateOverrides,omitempty"`
	LeavePeriods   []LeavePeriod  `bson:"leavePeriods,omitempty" json:"leavePeriods,omitempty"`
	UpdatedAt      time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// DefaultAvailability returns a calendar with all seven weekdays present and
// inactive; a new provider accepts no bookings until they publish windows.
func DefaultAvailability() Availability {
	schedule := make([]DaySchedule, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		schedule = append(schedule, DaySchedule{Day: d})
	}
	return Availability{WeeklySchedule: schedule}
}

// DayAvailability is the resolved answer for one provider on one date: the
// open windows after applying leave and overrides, plus any busy sub-windows
// still to be carved out of them.
type DayAvailability struct {
	Date    string       `json:"date"`
	Open    []TimeWindow `json:"open"`
	Blocked []TimeWindow `json:"blocked"`
}
