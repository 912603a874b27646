package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/logger"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/storage"
)

var visitIDProperty = ical.ComponentProperty(constants.VisitIDProperty)

// icalUTCLayout matches the UTC form golang-ical writes for CREATED.
const icalUTCLayout = "20060102T150405Z"

// Adapter exposes a device calendar as a storage.VisitStore. It never
// retries; failures go straight back to the caller.
type Adapter struct {
	api API
	loc *time.Location
	now func() time.Time
}

var _ storage.VisitStore = (*Adapter)(nil)

func NewAdapter(api API, loc *time.Location) *Adapter {
	if loc == nil {
		loc = time.Local
	}
	return &Adapter{api: api, loc: loc, now: time.Now}
}

func (a *Adapter) API() API {
	return a.api
}

func (a *Adapter) List(ctx context.Context, r models.DateRange) ([]models.Visit, error) {
	events, err := a.api.EventsMatching(ctx, r)
	if err != nil {
		return nil, err
	}
	visits := make([]models.Visit, 0, len(events))
	for _, ev := range events {
		v, err := a.toVisit(ev)
		if err != nil {
			logger.Warn("Skipping calendar event", "uid", ev.Id(), "error", err)
			continue
		}
		visits = append(visits, v)
	}
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].Start.Before(visits[j].Start)
	})
	return visits, nil
}

func (a *Adapter) Create(ctx context.Context, v models.Visit) (models.Visit, error) {
	if err := v.Validate(); err != nil {
		return models.Visit{}, fmt.Errorf("%w: %v", storage.ErrInvalidVisit, err)
	}
	v = v.Clone()
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.Type == "" {
		v.Type = models.VisitTypeGeneral
	}
	now := a.now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	ev := ical.NewEvent(uuid.New().String())
	ev.SetCreatedTime(v.CreatedAt)
	if err := applyVisit(ev, v, now); err != nil {
		return models.Visit{}, err
	}
	if err := a.api.Save(ctx, ev); err != nil {
		return models.Visit{}, fmt.Errorf("save calendar event: %w", err)
	}
	v.ExternalCalendarID = ev.Id()
	return v, nil
}

func (a *Adapter) Update(ctx context.Context, v models.Visit) (models.Visit, error) {
	if err := v.Validate(); err != nil {
		return models.Visit{}, fmt.Errorf("%w: %v", storage.ErrInvalidVisit, err)
	}
	ev, err := a.find(ctx, v.ID, v.ExternalCalendarID, v.Start)
	if err != nil {
		return models.Visit{}, err
	}
	v = v.Clone()
	now := a.now()
	v.UpdatedAt = now
	if err := applyVisit(ev, v, now); err != nil {
		return models.Visit{}, err
	}
	if err := a.api.Save(ctx, ev); err != nil {
		return models.Visit{}, fmt.Errorf("save calendar event: %w", err)
	}
	v.ExternalCalendarID = ev.Id()
	return v, nil
}

func (a *Adapter) Delete(ctx context.Context, id string) error {
	ev, err := a.find(ctx, id, "", a.now())
	if err != nil {
		return err
	}
	if err := a.api.Remove(ctx, ev); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return fmt.Errorf("%w: %s", storage.ErrVisitNotFound, id)
		}
		return fmt.Errorf("remove calendar event: %w", err)
	}
	return nil
}

// find locates the event for a visit, first by calendar identifier and then
// by the visit ID stamped on the event.
func (a *Adapter) find(ctx context.Context, id, external string, hint time.Time) (*ical.VEvent, error) {
	for _, uid := range []string{external, id} {
		if uid == "" {
			continue
		}
		ev, err := a.api.EventWithIdentifier(ctx, uid)
		if err == nil {
			return ev, nil
		}
		if !errors.Is(err, ErrEventNotFound) {
			return nil, err
		}
	}

	windows := []models.DateRange{models.WindowAround(a.now(), constants.LoadWindowYears)}
	if !hint.IsZero() {
		windows = append(windows, models.WindowAround(hint, constants.LoadWindowYears))
	}
	for _, w := range windows {
		events, err := a.api.EventsMatching(ctx, w)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			if p := ev.GetProperty(visitIDProperty); p != nil && p.Value == id {
				return ev, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrVisitNotFound, id)
}

// applyVisit writes the visit onto ev, replacing any previous mapping.
func applyVisit(ev *ical.VEvent, v models.Visit, now time.Time) error {
	if !v.End.After(v.Start) {
		return fmt.Errorf("%w: end must be after start", storage.ErrConversionFailed)
	}
	ev.SetSummary(ical.ToText(v.Title))
	ev.SetStartAt(v.Start)
	ev.SetEndAt(v.End)
	ev.SetDtStampTime(now)
	ev.SetLastModifiedAt(now)
	ev.SetProperty(visitIDProperty, v.ID)

	setOrRemove(ev, ical.ComponentPropertyLocation, v.Location)
	setOrRemove(ev, ical.ComponentPropertyDescription, v.Notes)

	setAlarm(ev, v.ReminderMinutes)

	ev.RemoveProperty(ical.ComponentPropertyRrule)
	if v.Recurrence != nil && v.Recurrence.Frequency != models.FrequencyNone {
		rule, err := recurrenceToRRule(*v.Recurrence)
		if err != nil {
			return err
		}
		ev.AddRrule(rule)
	}
	return nil
}

func setOrRemove(ev *ical.VEvent, prop ical.ComponentProperty, value string) {
	if value == "" {
		ev.RemoveProperty(prop)
		return
	}
	ev.SetProperty(prop, ical.ToText(value))
}

// setAlarm keeps at most one VALARM on the event.
func setAlarm(ev *ical.VEvent, minutes *int) {
	kept := ev.Components[:0]
	for _, c := range ev.Components {
		if _, ok := c.(*ical.VAlarm); ok {
			continue
		}
		kept = append(kept, c)
	}
	ev.Components = kept

	if minutes == nil {
		return
	}
	alarm := ev.AddAlarm()
	alarm.SetAction(ical.ActionDisplay)
	alarm.SetTrigger(fmt.Sprintf("-PT%dS", *minutes*60))
}

func recurrenceToRRule(r models.RecurrenceRule) (string, error) {
	opt := rrule.ROption{Interval: r.Interval}
	switch r.Frequency {
	case models.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case models.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case models.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return "", fmt.Errorf("%w: unsupported frequency %q", storage.ErrConversionFailed, r.Frequency)
	}
	if opt.Interval < 1 {
		opt.Interval = 1
	}
	return opt.RRuleString(), nil
}

func (a *Adapter) toVisit(ev *ical.VEvent) (models.Visit, error) {
	start, err := ev.GetStartAt()
	if err != nil {
		return models.Visit{}, fmt.Errorf("%w: start: %v", storage.ErrConversionFailed, err)
	}
	end, err := ev.GetEndAt()
	if err != nil {
		return models.Visit{}, fmt.Errorf("%w: end: %v", storage.ErrConversionFailed, err)
	}
	if !end.After(start) {
		return models.Visit{}, fmt.Errorf("%w: end must be after start", storage.ErrConversionFailed)
	}

	v := models.Visit{
		ID:                 ev.Id(),
		Title:              textProperty(ev, ical.ComponentPropertySummary),
		Start:              start.In(a.loc),
		End:                end.In(a.loc),
		Location:           textProperty(ev, ical.ComponentPropertyLocation),
		Notes:              textProperty(ev, ical.ComponentPropertyDescription),
		ExternalCalendarID: ev.Id(),
	}
	if p := ev.GetProperty(visitIDProperty); p != nil && p.Value != "" {
		v.ID = p.Value
	}
	v.Type = InferVisitType(v.Notes)

	// The rule itself is not read back; only the fact that one exists.
	v.IsRecurring = ev.HasProperty(ical.ComponentPropertyRrule)

	for _, alarm := range ev.Alarms() {
		p := alarm.GetProperty(ical.ComponentPropertyTrigger)
		if p == nil {
			continue
		}
		if m, ok := parseTrigger(p.Value); ok {
			v.ReminderMinutes = models.Minutes(m)
			break
		}
	}

	if t, ok := createdTime(ev); ok {
		v.CreatedAt = t.In(a.loc)
	}
	if t, err := ev.GetLastModifiedAt(); err == nil {
		v.UpdatedAt = t.In(a.loc)
	}
	return v, nil
}

// createdTime reads CREATED, falling back to DTSTAMP for events written by
// other applications. DTSTAMP is rewritten on every save.
func createdTime(ev *ical.VEvent) (time.Time, bool) {
	if p := ev.GetProperty(ical.ComponentPropertyCreated); p != nil {
		if t, err := time.Parse(icalUTCLayout, p.Value); err == nil {
			return t, true
		}
	}
	if t, err := ev.GetDtStampTime(); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func textProperty(ev *ical.VEvent, prop ical.ComponentProperty) string {
	p := ev.GetProperty(prop)
	if p == nil {
		return ""
	}
	return ical.FromText(p.Value)
}

// parseTrigger reads a relative "before start" trigger such as -PT900S,
// -PT15M or -PT1H30M and returns the lead time in whole minutes.
func parseTrigger(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "-PT") {
		if s == "PT0S" || s == "-PT0S" {
			return 0, true
		}
		return 0, false
	}
	rest := strings.TrimPrefix(s, "-PT")
	var seconds int
	for rest != "" {
		i := strings.IndexAny(rest, "HMS")
		if i <= 0 {
			return 0, false
		}
		n, err := strconv.Atoi(rest[:i])
		if err != nil {
			return 0, false
		}
		switch rest[i] {
		case 'H':
			seconds += n * 3600
		case 'M':
			seconds += n * 60
		case 'S':
			seconds += n
		}
		rest = rest[i+1:]
	}
	return seconds / 60, true
}
