package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type VisitType string

const (
	VisitTypeWeekend   VisitType = "weekend"
	VisitTypeDinner    VisitType = "dinner"
	VisitTypeActivity  VisitType = "activity"
	VisitTypeSchool    VisitType = "school"
	VisitTypeMedical   VisitType = "medical"
	VisitTypeEmergency VisitType = "emergency"
	VisitTypeGeneral   VisitType = "general"
)

// AllVisitTypes returns every visit type in display order.
func AllVisitTypes() []VisitType {
	return []VisitType{
		VisitTypeWeekend,
		VisitTypeDinner,
		VisitTypeActivity,
		VisitTypeSchool,
		VisitTypeMedical,
		VisitTypeEmergency,
		VisitTypeGeneral,
	}
}

func (t VisitType) Valid() bool {
	for _, known := range AllVisitTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseVisitType parses a visit type name, case-insensitively.
func ParseVisitType(s string) (VisitType, error) {
	t := VisitType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return VisitTypeGeneral, nil
	}
	if !t.Valid() {
		return "", fmt.Errorf("unknown visit type %q", s)
	}
	return t, nil
}

type Visit struct {
	ID string `json:"id"`
	// RecordKey identifies the persisted row. It equals ID unless another
	// row already holds that ID.
	RecordKey          string          `json:"record_key,omitempty"`
	Title              string          `json:"title"`
	Start              time.Time       `json:"start"`
	End                time.Time       `json:"end"`
	Location           string          `json:"location,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	ReminderMinutes    *int            `json:"reminder_minutes,omitempty"`
	IsRecurring        bool            `json:"is_recurring"`
	Recurrence         *RecurrenceRule `json:"recurrence,omitempty"`
	Type               VisitType       `json:"type"`
	ExternalCalendarID string          `json:"external_calendar_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewVisit returns a visit with a freshly generated ID.
func NewVisit(title string, start, end time.Time, visitType VisitType) Visit {
	now := time.Now()
	return Visit{
		ID:        uuid.New().String(),
		Title:     title,
		Start:     start,
		End:       end,
		Type:      visitType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (v *Visit) Validate() error {
	if strings.TrimSpace(v.Title) == "" {
		return fmt.Errorf("visit title cannot be empty")
	}
	if v.Start.IsZero() || v.End.IsZero() {
		return fmt.Errorf("visit start and end are required")
	}
	if !v.End.After(v.Start) {
		return fmt.Errorf("visit end (%s) must be after start (%s)", v.End.Format(time.RFC3339), v.Start.Format(time.RFC3339))
	}
	if v.Type != "" && !v.Type.Valid() {
		return fmt.Errorf("unknown visit type %q", v.Type)
	}
	if v.ReminderMinutes != nil && *v.ReminderMinutes < 0 {
		return fmt.Errorf("reminder lead time cannot be negative")
	}
	if v.Recurrence != nil {
		if err := v.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy so stores never share pointer fields with callers.
// StorageKey returns the key a record store files v under.
func (v Visit) StorageKey() string {
	if v.RecordKey != "" {
		return v.RecordKey
	}
	return v.ID
}

func (v Visit) Clone() Visit {
	c := v
	if v.ReminderMinutes != nil {
		m := *v.ReminderMinutes
		c.ReminderMinutes = &m
	}
	if v.Recurrence != nil {
		r := v.Recurrence.Clone()
		c.Recurrence = &r
	}
	return c
}

// Overlaps reports whether the visit starts or ends inside r, or spans all of it.
func (v Visit) Overlaps(r DateRange) bool {
	if r.Contains(v.Start) || r.Contains(v.End) {
		return true
	}
	return !v.Start.After(r.Start) && !v.End.Before(r.End)
}

// ReminderTime returns when a reminder for the visit should fire.
func (v Visit) ReminderTime() (time.Time, bool) {
	if v.ReminderMinutes == nil {
		return time.Time{}, false
	}
	return v.Start.Add(-time.Duration(*v.ReminderMinutes) * time.Minute), true
}

func (v Visit) Duration() time.Duration {
	return v.End.Sub(v.Start)
}

// Minutes is a convenience for building optional reminder lead times.
func Minutes(n int) *int {
	return &n
}
