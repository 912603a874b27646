package agenda

import (
	"sort"
	"time"

	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/utils"
)

// DayIndex maps the start of a day to the visits starting that day, each
// bucket sorted by start.
type DayIndex map[time.Time][]models.Visit

// GroupByDay builds a DayIndex from scratch.
func GroupByDay(visits []models.Visit, loc *time.Location) DayIndex {
	index := make(DayIndex)
	for _, v := range visits {
		day := utils.StartOfDay(v.Start, loc)
		index[day] = append(index[day], v.Clone())
	}
	for _, bucket := range index {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Start.Before(bucket[j].Start)
		})
	}
	return index
}

// Days returns the index keys in ascending order.
func (idx DayIndex) Days() []time.Time {
	days := make([]time.Time, 0, len(idx))
	for d := range idx {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Flatten concatenates the buckets in ascending day order.
func (idx DayIndex) Flatten() []models.Visit {
	var out []models.Visit
	for _, d := range idx.Days() {
		for _, v := range idx[d] {
			out = append(out, v.Clone())
		}
	}
	return out
}

// Clone deep-copies the index.
func (idx DayIndex) Clone() DayIndex {
	out := make(DayIndex, len(idx))
	for d, bucket := range idx {
		c := make([]models.Visit, len(bucket))
		for i, v := range bucket {
			c[i] = v.Clone()
		}
		out[d] = c
	}
	return out
}
