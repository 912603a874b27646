package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FrequencyNone, nil
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	default:
		return "", fmt.Errorf("unknown recurrence frequency %q", s)
	}
}

// RecurrenceRule is treated as a value: edits replace the whole rule.
// Weekdays use 1 = Sunday through 7 = Saturday.
type RecurrenceRule struct {
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`
	Weekdays  []int     `json:"weekdays,omitempty"`
}

func (r RecurrenceRule) Validate() error {
	switch r.Frequency {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("unknown recurrence frequency %q", r.Frequency)
	}
	if r.Frequency != FrequencyNone && r.Interval < 1 {
		return fmt.Errorf("recurrence interval must be at least 1")
	}
	for _, wd := range r.Weekdays {
		if wd < 1 || wd > 7 {
			return fmt.Errorf("weekday %d out of range (1-7)", wd)
		}
	}
	return nil
}

func (r RecurrenceRule) Clone() RecurrenceRule {
	c := r
	c.Weekdays = slices.Clone(r.Weekdays)
	return c
}

func (r RecurrenceRule) Equal(o RecurrenceRule) bool {
	return r.Frequency == o.Frequency && r.Interval == o.Interval && slices.Equal(r.Weekdays, o.Weekdays)
}

// GoWeekdays converts the 1-7 weekday numbers to time.Weekday values.
func (r RecurrenceRule) GoWeekdays() []time.Weekday {
	out := make([]time.Weekday, 0, len(r.Weekdays))
	for _, wd := range r.Weekdays {
		out = append(out, time.Weekday(wd-1))
	}
	return out
}

func (r RecurrenceRule) String() string {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return "none"
	}
	s := string(r.Frequency)
	if r.Interval > 1 {
		unit := map[Frequency]string{FrequencyDaily: "days", FrequencyWeekly: "weeks", FrequencyMonthly: "months"}[r.Frequency]
		s = fmt.Sprintf("every %d %s", r.Interval, unit)
	}
	if len(r.Weekdays) > 0 {
		days := make([]string, 0, len(r.Weekdays))
		for _, wd := range r.GoWeekdays() {
			days = append(days, wd.String()[:3])
		}
		s += " on " + strings.Join(days, ",")
	}
	return s
}
