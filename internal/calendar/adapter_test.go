package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/storage"
)

func sampleVisit(start time.Time) models.Visit {
	return models.Visit{
		ID:              "visit-1",
		Title:           "Weekend with Sam",
		Start:           start,
		End:             start.Add(48 * time.Hour),
		Location:        "Home",
		Notes:           "Pick up Friday",
		ReminderMinutes: models.Minutes(15),
		Type:            models.VisitTypeSchool,
	}
}

func TestAdapter_CreateAndList(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(authorizedCalendar(t), time.UTC)
	start := time.Date(2026, 5, 8, 17, 0, 0, 0, time.UTC)

	created, err := a.Create(ctx, sampleVisit(start))
	require.NoError(t, err)
	assert.Equal(t, "visit-1", created.ID)
	assert.NotEmpty(t, created.ExternalCalendarID)

	visits, err := a.List(ctx, models.MonthRange(start, time.UTC))
	require.NoError(t, err)
	require.Len(t, visits, 1)

	got := visits[0]
	assert.Equal(t, "visit-1", got.ID)
	assert.Equal(t, created.ExternalCalendarID, got.ExternalCalendarID)
	assert.Equal(t, "Weekend with Sam", got.Title)
	assert.Equal(t, "Home", got.Location)
	assert.Equal(t, "Pick up Friday", got.Notes)
	assert.True(t, got.Start.Equal(start))
	assert.True(t, got.End.Equal(start.Add(48*time.Hour)))
	require.NotNil(t, got.ReminderMinutes)
	assert.Equal(t, 15, *got.ReminderMinutes)
	// The type is inferred from notes, not stored.
	assert.Equal(t, models.VisitTypeGeneral, got.Type)
}

func TestAdapter_WritesSingleAlarm(t *testing.T) {
	ctx := context.Background()
	cal := authorizedCalendar(t)
	a := NewAdapter(cal, time.UTC)
	start := time.Date(2026, 5, 8, 17, 0, 0, 0, time.UTC)

	created, err := a.Create(ctx, sampleVisit(start))
	require.NoError(t, err)

	created.ReminderMinutes = models.Minutes(60)
	_, err = a.Update(ctx, created)
	require.NoError(t, err)

	ev, err := cal.EventWithIdentifier(ctx, created.ExternalCalendarID)
	require.NoError(t, err)
	alarms := ev.Alarms()
	require.Len(t, alarms, 1)
	assert.Equal(t, "-PT3600S", alarms[0].GetProperty(ical.ComponentPropertyTrigger).Value)
	assert.Equal(t, string(ical.ActionDisplay), alarms[0].GetProperty(ical.ComponentPropertyAction).Value)

	created.ReminderMinutes = nil
	_, err = a.Update(ctx, created)
	require.NoError(t, err)
	ev, err = cal.EventWithIdentifier(ctx, created.ExternalCalendarID)
	require.NoError(t, err)
	assert.Empty(t, ev.Alarms())
}

func TestAdapter_RecurrenceIsLossy(t *testing.T) {
	ctx := context.Background()
	cal := authorizedCalendar(t)
	a := NewAdapter(cal, time.UTC)
	start := time.Date(2026, 5, 8, 17, 0, 0, 0, time.UTC)

	v := sampleVisit(start)
	v.IsRecurring = true
	v.Recurrence = &models.RecurrenceRule{Frequency: models.FrequencyWeekly, Interval: 2, Weekdays: []int{6}}
	created, err := a.Create(ctx, v)
	require.NoError(t, err)

	ev, err := cal.EventWithIdentifier(ctx, created.ExternalCalendarID)
	require.NoError(t, err)
	rule := ev.GetProperty(ical.ComponentPropertyRrule)
	require.NotNil(t, rule)
	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=2", rule.Value)

	visits, err := a.List(ctx, models.MonthRange(start, time.UTC))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.True(t, visits[0].IsRecurring)
	assert.Nil(t, visits[0].Recurrence)

	// Frequency none clears the rule.
	created.Recurrence = &models.RecurrenceRule{Frequency: models.FrequencyNone}
	_, err = a.Update(ctx, created)
	require.NoError(t, err)
	ev, err = cal.EventWithIdentifier(ctx, created.ExternalCalendarID)
	require.NoError(t, err)
	assert.False(t, ev.HasProperty(ical.ComponentPropertyRrule))
}

func TestAdapter_TypeRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(authorizedCalendar(t), time.UTC)
	start := time.Date(2026, 5, 8, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		notes string
		want  models.VisitType
	}{
		{"weekend keyword", "long weekend at the lake", models.VisitTypeWeekend},
		{"spanish dinner", "Cena con los abuelos", models.VisitTypeDinner},
		{"plain notes", "bring the bike", models.VisitTypeGeneral},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := sampleVisit(start.AddDate(0, 0, i*3))
			v.ID = tt.name
			v.Notes = tt.notes
			v.Type = tt.want
			created, err := a.Create(ctx, v)
			require.NoError(t, err)

			visits, err := a.List(ctx, models.DateRange{Start: created.Start, End: created.Start})
			require.NoError(t, err)
			var found bool
			for _, got := range visits {
				if got.ID == tt.name {
					found = true
					assert.Equal(t, tt.want, got.Type)
				}
			}
			assert.True(t, found)
		})
	}
}

func TestAdapter_UpdateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(authorizedCalendar(t), time.UTC)
	v := sampleVisit(time.Date(2026, 5, 8, 17, 0, 0, 0, time.UTC))

	_, err := a.Update(ctx, v)
	assert.ErrorIs(t, err, storage.ErrVisitNotFound)
	assert.ErrorIs(t, a.Delete(ctx, "nope"), storage.ErrVisitNotFound)
}

func TestAdapter_UpdateFindsByVisitID(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(authorizedCalendar(t), time.UTC)
	start := time.Now().Truncate(time.Hour).UTC()

	created, err := a.Create(ctx, sampleVisit(start))
	require.NoError(t, err)

	stale := created
	stale.ExternalCalendarID = ""
	stale.Title = "Renamed"
	updated, err := a.Update(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, created.ExternalCalendarID, updated.ExternalCalendarID)

	require.NoError(t, a.Delete(ctx, created.ID))
	visits, err := a.List(ctx, models.WindowAround(start, 1))
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestAdapter_CreatedAtSurvivesUpdate(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(authorizedCalendar(t), time.UTC)
	start := time.Date(2026, 5, 8, 17, 0, 0, 0, time.UTC)
	createdAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	editedAt := createdAt.Add(72 * time.Hour)

	a.now = func() time.Time { return createdAt }
	created, err := a.Create(ctx, sampleVisit(start))
	require.NoError(t, err)

	a.now = func() time.Time { return editedAt }
	created.Title = "Long weekend"
	_, err = a.Update(ctx, created)
	require.NoError(t, err)

	visits, err := a.List(ctx, models.MonthRange(start, time.UTC))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.True(t, visits[0].CreatedAt.Equal(createdAt), "created at %v, want %v", visits[0].CreatedAt, createdAt)
	assert.True(t, visits[0].UpdatedAt.Equal(editedAt), "updated at %v, want %v", visits[0].UpdatedAt, editedAt)
}

func TestAdapter_Validation(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(authorizedCalendar(t), time.UTC)
	start := time.Date(2026, 5, 8, 17, 0, 0, 0, time.UTC)
	v := sampleVisit(start)
	v.End = start

	_, err := a.Create(ctx, v)
	assert.ErrorIs(t, err, storage.ErrInvalidVisit)
}

func TestAdapter_SkipsBrokenEvents(t *testing.T) {
	ctx := context.Background()
	cal := authorizedCalendar(t)
	a := NewAdapter(cal, time.UTC)
	start := time.Date(2026, 5, 8, 17, 0, 0, 0, time.UTC)

	backwards := ical.NewEvent("backwards")
	backwards.SetStartAt(start)
	backwards.SetEndAt(start.Add(-time.Hour))
	require.NoError(t, cal.Save(ctx, backwards))

	_, err := a.Create(ctx, sampleVisit(start))
	require.NoError(t, err)

	visits, err := a.List(ctx, models.MonthRange(start, time.UTC))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "visit-1", visits[0].ID)
}

type deniedAPI struct{ API }

func (deniedAPI) EventsMatching(context.Context, models.DateRange) ([]*ical.VEvent, error) {
	return nil, storage.ErrPermissionDenied
}

func (deniedAPI) Save(context.Context, *ical.VEvent) error {
	return errors.Join(storage.ErrPermissionDenied, errors.New("revoked"))
}

func TestAdapter_SurfacesAPIErrors(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(deniedAPI{}, time.UTC)

	_, err := a.List(ctx, models.WindowAround(time.Now(), 1))
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)

	_, err = a.Create(ctx, sampleVisit(time.Date(2026, 5, 8, 17, 0, 0, 0, time.UTC)))
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)
}

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"-PT900S", 15, true},
		{"-PT15M", 15, true},
		{"-PT1H30M", 90, true},
		{"-PT0S", 0, true},
		{"PT10M", 0, false},
		{"-P1D", 0, false},
		{"garbage", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseTrigger(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferVisitType(t *testing.T) {
	tests := []struct {
		notes string
		want  models.VisitType
	}{
		{"", models.VisitTypeGeneral},
		{"Weekend at grandma's", models.VisitTypeWeekend},
		{"fin de semana en la playa", models.VisitTypeWeekend},
		{"Dinner downtown", models.VisitTypeDinner},
		{"cena", models.VisitTypeDinner},
		{"school event", models.VisitTypeActivity},
		{"Evento deportivo", models.VisitTypeActivity},
		{"EMERGENCY pickup", models.VisitTypeEmergency},
		{"emergencia", models.VisitTypeEmergency},
		{"weekend dinner", models.VisitTypeWeekend},
		{"doctor appointment", models.VisitTypeGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.notes, func(t *testing.T) {
			assert.Equal(t, tt.want, InferVisitType(tt.notes))
		})
	}
}
