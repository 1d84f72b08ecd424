// Package schedule holds the peak-time slot table and the time math that
// turns a time-of-day into an absolute next occurrence.
package schedule

import (
	"fmt"
	"time"
)

// Slot is one fixed publish time of day with its period label.
type Slot struct {
	TimeOfDay string `mapstructure:"time" json:"time"`
	Period    string `mapstructure:"period" json:"period"`
}

// Table is an ordered list of daily publish slots.
type Table []Slot

// DefaultTable spreads ten posts a day across peak hours:
// three in the morning, three at noon, four in the evening.
func DefaultTable() Table {
	return Table{
		{TimeOfDay: "07:00", Period: "morning"},
		{TimeOfDay: "08:00", Period: "morning"},
		{TimeOfDay: "09:00", Period: "morning"},
		{TimeOfDay: "12:00", Period: "noon"},
		{TimeOfDay: "12:30", Period: "noon"},
		{TimeOfDay: "13:00", Period: "noon"},
		{TimeOfDay: "20:00", Period: "evening"},
		{TimeOfDay: "21:00", Period: "evening"},
		{TimeOfDay: "22:00", Period: "evening"},
		{TimeOfDay: "23:00", Period: "evening"},
	}
}

// First returns the first n slots, clamped to the table length. Records
// submitted beyond the table's capacity get no slot this pass.
func (t Table) First(n int) Table {
	if n < 0 {
		n = 0
	}
	if n > len(t) {
		n = len(t)
	}
	return t[:n]
}

// Validate checks every slot parses as HH:MM and carries a period label.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("slot table is empty")
	}
	for i, s := range t {
		if _, _, err := parseTimeOfDay(s.TimeOfDay); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		if s.Period == "" {
			return fmt.Errorf("slot %d (%s): missing period", i, s.TimeOfDay)
		}
	}
	return nil
}

// NextOccurrence returns the next absolute moment at or after ref whose wall
// clock matches timeOfDay, in ref's location. A time-of-day exactly equal to
// ref counts as already passed and rolls to the next day, so a record
// assigned and checked in the same instant is neither skipped nor
// double-counted.
func NextOccurrence(timeOfDay string, ref time.Time) (time.Time, error) {
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}

	next := time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location())
	if !next.After(ref) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

func parseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
