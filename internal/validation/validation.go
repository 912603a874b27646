package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/models"
)

// Conflict represents a detected problem in a set of visits
type Conflict struct {
	Type        constants.ConflictType
	Description string
	Date        string   // YYYY-MM-DD format (if applicable)
	Items       []string // Visit titles involved
	TimeRange   string   // Human-readable time range (if applicable)
	VisitIDs    []string // IDs of visits involved (for auto-fixing)
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Count returns the number of conflicts of the given type.
func (vr *ValidationResult) Count(t constants.ConflictType) int {
	n := 0
	for _, c := range vr.Conflicts {
		if c.Type == t {
			n++
		}
	}
	return n
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks visit collections for conflicts
type Validator struct {
	loc *time.Location
	now func() time.Time
}

// New creates a new Validator
func New(loc *time.Location) *Validator {
	if loc == nil {
		loc = time.Local
	}
	return &Validator{loc: loc, now: time.Now}
}

// ValidateVisits runs every check over visits. Conflicts are ordered by
// check, then by visit start.
func (v *Validator) ValidateVisits(visits []models.Visit) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	sorted := make([]models.Visit, len(visits))
	copy(sorted, visits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	result.Conflicts = append(result.Conflicts, v.checkTitles(sorted)...)
	result.Conflicts = append(result.Conflicts, v.checkTimeRanges(sorted)...)
	result.Conflicts = append(result.Conflicts, v.checkDuplicateIDs(sorted)...)
	result.Conflicts = append(result.Conflicts, v.checkOverlaps(sorted)...)
	result.Conflicts = append(result.Conflicts, v.checkReminders(sorted)...)
	return result
}

func (v *Validator) date(t time.Time) string {
	return t.In(v.loc).Format(constants.DateFormat)
}

func (v *Validator) timeRange(visit models.Visit) string {
	return fmt.Sprintf("%s-%s",
		visit.Start.In(v.loc).Format(constants.TimeFormat),
		visit.End.In(v.loc).Format(constants.TimeFormat))
}

func (v *Validator) checkTitles(visits []models.Visit) []Conflict {
	var out []Conflict
	for _, visit := range visits {
		if strings.TrimSpace(visit.Title) != "" {
			continue
		}
		out = append(out, Conflict{
			Type:        constants.ConflictEmptyTitle,
			Description: fmt.Sprintf("Visit %s on %s has no title", visit.ID, v.date(visit.Start)),
			Date:        v.date(visit.Start),
			VisitIDs:    []string{visit.ID},
		})
	}
	return out
}

func (v *Validator) checkTimeRanges(visits []models.Visit) []Conflict {
	var out []Conflict
	for _, visit := range visits {
		if visit.End.After(visit.Start) {
			continue
		}
		out = append(out, Conflict{
			Type:        constants.ConflictInvalidTimeRange,
			Description: fmt.Sprintf("Visit \"%s\" ends before it starts (%s)", visit.Title, v.timeRange(visit)),
			Date:        v.date(visit.Start),
			Items:       []string{visit.Title},
			TimeRange:   v.timeRange(visit),
			VisitIDs:    []string{visit.ID},
		})
	}
	return out
}

func (v *Validator) checkDuplicateIDs(visits []models.Visit) []Conflict {
	seen := make(map[string][]models.Visit)
	var order []string
	for _, visit := range visits {
		if _, ok := seen[visit.ID]; !ok {
			order = append(order, visit.ID)
		}
		seen[visit.ID] = append(seen[visit.ID], visit)
	}

	var out []Conflict
	for _, id := range order {
		dupes := seen[id]
		if len(dupes) < 2 {
			continue
		}
		titles := make([]string, len(dupes))
		for i, d := range dupes {
			titles[i] = d.Title
		}
		out = append(out, Conflict{
			Type:        constants.ConflictDuplicateVisitID,
			Description: fmt.Sprintf("Visit ID %s is stored %d times", id, len(dupes)),
			Items:       titles,
			VisitIDs:    []string{id},
		})
	}
	return out
}

// checkOverlaps reports pairs of distinct visits that start on the same day
// and overlap in time.
func (v *Validator) checkOverlaps(visits []models.Visit) []Conflict {
	byDay := make(map[string][]models.Visit)
	var days []string
	for _, visit := range visits {
		if !visit.End.After(visit.Start) {
			continue
		}
		d := v.date(visit.Start)
		if _, ok := byDay[d]; !ok {
			days = append(days, d)
		}
		byDay[d] = append(byDay[d], visit)
	}

	var out []Conflict
	for _, day := range days {
		group := byDay[day]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.ID == b.ID {
					continue
				}
				if !(a.Start.Before(b.End) && b.Start.Before(a.End)) {
					continue
				}
				out = append(out, Conflict{
					Type: constants.ConflictOverlappingVisits,
					Description: fmt.Sprintf("On %s: \"%s\" (%s) overlaps \"%s\" (%s)",
						day, a.Title, v.timeRange(a), b.Title, v.timeRange(b)),
					Date:      day,
					Items:     []string{a.Title, b.Title},
					TimeRange: v.timeRange(a),
					VisitIDs:  []string{a.ID, b.ID},
				})
			}
		}
	}
	return out
}

// checkReminders flags upcoming visits whose reminder time has already passed.
func (v *Validator) checkReminders(visits []models.Visit) []Conflict {
	now := v.now()
	var out []Conflict
	for _, visit := range visits {
		fire, ok := visit.ReminderTime()
		if !ok || !visit.Start.After(now) || fire.After(now) {
			continue
		}
		out = append(out, Conflict{
			Type: constants.ConflictReminderInPast,
			Description: fmt.Sprintf("Reminder for \"%s\" was due at %s and will not fire",
				visit.Title, fire.In(v.loc).Format(constants.DateTimeFormat)),
			Date:     v.date(visit.Start),
			Items:    []string{visit.Title},
			VisitIDs: []string{visit.ID},
		})
	}
	return out
}

// DuplicatesToRemove returns, for each duplicated ID, how many extra copies
// exist beyond the first, along with the actions describing the fix.
func DuplicatesToRemove(result ValidationResult) (map[string]int, []FixAction) {
	extra := make(map[string]int)
	var actions []FixAction
	for _, c := range result.Conflicts {
		if c.Type != constants.ConflictDuplicateVisitID || len(c.VisitIDs) == 0 {
			continue
		}
		id := c.VisitIDs[0]
		n := len(c.Items) - 1
		if n < 1 {
			continue
		}
		extra[id] = n
		actions = append(actions, FixAction{
			Action:         fmt.Sprintf("Collapse %d duplicate copies of visit %s", n, id),
			SourceConflict: c,
		})
	}
	return extra, actions
}
