package calendar

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/storage"
)

func newTestCalendar(t *testing.T, prompter AccessPrompter) *ICSCalendar {
	t.Helper()
	return NewICSCalendar(filepath.Join(t.TempDir(), "calendar.ics"), prompter)
}

func authorizedCalendar(t *testing.T) *ICSCalendar {
	t.Helper()
	c := newTestCalendar(t, AlwaysGrant)
	granted, err := c.RequestAccess(context.Background())
	require.NoError(t, err)
	require.True(t, granted)
	return c
}

func testEvent(uid string, start, end time.Time) *ical.VEvent {
	ev := ical.NewEvent(uid)
	ev.SetSummary("Event " + uid)
	ev.SetStartAt(start)
	ev.SetEndAt(end)
	return ev
}

func TestICSCalendar_Authorization(t *testing.T) {
	ctx := context.Background()

	t.Run("not determined until asked", func(t *testing.T) {
		c := newTestCalendar(t, AlwaysGrant)
		assert.Equal(t, NotDetermined, c.AuthorizationStatus())
	})

	t.Run("grant is persisted", func(t *testing.T) {
		c := newTestCalendar(t, AlwaysGrant)
		granted, err := c.RequestAccess(ctx)
		require.NoError(t, err)
		assert.True(t, granted)

		reopened := NewICSCalendar(c.Path(), nil)
		assert.Equal(t, Authorized, reopened.AuthorizationStatus())
	})

	t.Run("denial is persisted", func(t *testing.T) {
		c := newTestCalendar(t, AlwaysDeny)
		granted, err := c.RequestAccess(ctx)
		require.NoError(t, err)
		assert.False(t, granted)
		assert.Equal(t, Denied, c.AuthorizationStatus())
	})

	t.Run("prompt error", func(t *testing.T) {
		c := newTestCalendar(t, PrompterFunc(func(context.Context) (bool, error) {
			return false, errors.New("no tty")
		}))
		_, err := c.RequestAccess(ctx)
		assert.Error(t, err)
		assert.Equal(t, NotDetermined, c.AuthorizationStatus())
	})

	t.Run("revoke", func(t *testing.T) {
		c := authorizedCalendar(t)
		require.NoError(t, c.Revoke())
		assert.Equal(t, Denied, c.AuthorizationStatus())

		_, err := c.EventsMatching(ctx, models.WindowAround(time.Now(), 1))
		assert.ErrorIs(t, err, storage.ErrPermissionDenied)
	})
}

func TestICSCalendar_RequiresAccess(t *testing.T) {
	ctx := context.Background()
	c := newTestCalendar(t, AlwaysDeny)
	now := time.Now().Truncate(time.Second)
	ev := testEvent("a", now, now.Add(time.Hour))

	_, err := c.EventsMatching(ctx, models.WindowAround(now, 1))
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)
	_, err = c.EventWithIdentifier(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)
	assert.ErrorIs(t, c.Save(ctx, ev), storage.ErrPermissionDenied)
	assert.ErrorIs(t, c.Remove(ctx, ev), storage.ErrPermissionDenied)

	_, statErr := os.Stat(c.Path())
	assert.True(t, os.IsNotExist(statErr), "calendar file must not be created without access")
}

func TestICSCalendar_SaveAndQuery(t *testing.T) {
	ctx := context.Background()
	c := authorizedCalendar(t)
	base := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	require.NoError(t, c.Save(ctx, testEvent("in", base, base.Add(2*time.Hour))))
	require.NoError(t, c.Save(ctx, testEvent("out", base.AddDate(0, 2, 0), base.AddDate(0, 2, 0).Add(time.Hour))))

	march := models.MonthRange(base, time.UTC)
	events, err := c.EventsMatching(ctx, march)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "in", events[0].Id())

	info, err := os.Stat(c.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Saving the same UID replaces rather than duplicates.
	replacement := testEvent("in", base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, c.Save(ctx, replacement))
	events, err = c.EventsMatching(ctx, march)
	require.NoError(t, err)
	require.Len(t, events, 1)
	start, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(base.Add(time.Hour)))
}

func TestICSCalendar_SaveAssignsUID(t *testing.T) {
	ctx := context.Background()
	c := authorizedCalendar(t)
	base := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	ev := testEvent("", base, base.Add(time.Hour))
	require.NoError(t, c.Save(ctx, ev))
	assert.NotEmpty(t, ev.Id())

	got, err := c.EventWithIdentifier(ctx, ev.Id())
	require.NoError(t, err)
	assert.Equal(t, ev.Id(), got.Id())
}

func TestICSCalendar_RecurringEventsMatch(t *testing.T) {
	ctx := context.Background()
	c := authorizedCalendar(t)
	base := time.Date(2026, 1, 3, 10, 0, 0, 0, time.UTC)

	ev := testEvent("weekly", base, base.Add(2*time.Hour))
	ev.AddRrule("FREQ=WEEKLY;INTERVAL=1")
	require.NoError(t, c.Save(ctx, ev))

	june := models.MonthRange(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	events, err := c.EventsMatching(ctx, june)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "weekly", events[0].Id())

	before := models.MonthRange(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	events, err = c.EventsMatching(ctx, before)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestICSCalendar_Remove(t *testing.T) {
	ctx := context.Background()
	c := authorizedCalendar(t)
	base := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	ev := testEvent("gone", base, base.Add(time.Hour))
	require.NoError(t, c.Save(ctx, ev))

	require.NoError(t, c.Remove(ctx, ev))
	_, err := c.EventWithIdentifier(ctx, "gone")
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.ErrorIs(t, c.Remove(ctx, ev), ErrEventNotFound)
}
