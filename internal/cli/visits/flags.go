package visits

import (
	"fmt"
	"strconv"
	"time"

	"github.com/julianstephens/justdad/internal/agenda"
	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/tui"
)

// VisitFlags are the visit fields shared by add and edit. Empty values leave
// the form field untouched.
type VisitFlags struct {
	Start     string `short:"s" help:"Start time (YYYY-MM-DD HH:MM)."`
	Duration  int    `short:"d" help:"Duration in minutes."`
	Type      string `short:"t" help:"Visit type (weekend|dinner|activity|school|medical|emergency|general)."`
	Location  string `short:"l" help:"Where the visit takes place."`
	Notes     string `short:"n" help:"Free-form notes."`
	Remind    string `short:"r" help:"Reminder lead time in minutes. Use 'none' to clear."`
	Frequency string `short:"f" help:"Recurrence (none|daily|weekly|monthly)."`
	Interval  int    `short:"i" help:"Recurrence interval."`
	Weekdays  string `short:"w" help:"Comma-separated weekdays for weekly recurrence."`
}

func (f *VisitFlags) empty() bool {
	return *f == VisitFlags{}
}

func (f *VisitFlags) overlay(fm *tui.VisitFormModel) error {
	if f.Start != "" {
		fm.Start = f.Start
	}
	if f.Duration != 0 {
		fm.Duration = strconv.Itoa(f.Duration)
	}
	if f.Type != "" {
		t, err := models.ParseVisitType(f.Type)
		if err != nil {
			return err
		}
		fm.Type = t
	}
	if f.Location != "" {
		fm.Location = f.Location
	}
	if f.Notes != "" {
		fm.Notes = f.Notes
	}
	switch f.Remind {
	case "":
	case "none":
		fm.Remind = ""
	default:
		fm.Remind = f.Remind
	}
	if f.Frequency != "" {
		freq, err := models.ParseFrequency(f.Frequency)
		if err != nil {
			return err
		}
		fm.Frequency = freq
	}
	if f.Interval != 0 {
		fm.Interval = strconv.Itoa(f.Interval)
	}
	if f.Weekdays != "" {
		fm.Weekdays = f.Weekdays
	}
	return nil
}

// runForm lets tests replace the interactive form.
var runForm = func(fm *tui.VisitFormModel, loc *time.Location) error {
	return tui.NewVisitForm(fm, loc).Run()
}

// findVisit loads the agenda window and returns the visit carrying id.
func findVisit(ctx *cli.Context, coord *agenda.Coordinator, id string) (models.Visit, error) {
	if snap := coord.Load(ctx.Context()); !snap.OK() {
		return models.Visit{}, fmt.Errorf("%s", snap.Message)
	}
	for _, v := range coord.AllVisits() {
		if v.ID == id {
			return v, nil
		}
	}
	return models.Visit{}, fmt.Errorf("no visit with ID %s", id)
}
