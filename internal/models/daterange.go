package models

import (
	"fmt"
	"time"
)

// DateRange is a closed interval: both Start and End are inside it.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("range end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return DateRange{Start: start, End: end}, nil
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// MonthRange covers the calendar month containing t in loc.
func MonthRange(t time.Time, loc *time.Location) DateRange {
	t = t.In(loc)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return DateRange{Start: first, End: first.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// WindowAround covers the given number of years on either side of t.
func WindowAround(t time.Time, years int) DateRange {
	return DateRange{Start: t.AddDate(-years, 0, 0), End: t.AddDate(years, 0, 0)}
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
