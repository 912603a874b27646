package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/utils"
)

// VisitFormModel holds the raw strings the visit form edits.
type VisitFormModel struct {
	Title     string
	Start     string
	Duration  string
	Type      models.VisitType
	Location  string
	Notes     string
	Remind    string
	Frequency models.Frequency
	Interval  string
	Weekdays  string
}

// NewVisitFormModel prefills the form from v, or from defaults when v is nil.
func NewVisitFormModel(v *models.Visit, loc *time.Location, now time.Time, defaultLead int) *VisitFormModel {
	if v == nil {
		start := now.In(loc).Truncate(time.Hour).Add(time.Hour)
		fm := &VisitFormModel{
			Start:     start.Format(constants.DateTimeFormat),
			Duration:  "60",
			Type:      models.VisitTypeGeneral,
			Frequency: models.FrequencyNone,
			Interval:  "1",
		}
		if defaultLead > 0 {
			fm.Remind = strconv.Itoa(defaultLead)
		}
		return fm
	}

	fm := &VisitFormModel{
		Title:     v.Title,
		Start:     v.Start.In(loc).Format(constants.DateTimeFormat),
		Duration:  strconv.Itoa(int(v.Duration().Minutes())),
		Type:      v.Type,
		Location:  v.Location,
		Notes:     v.Notes,
		Frequency: models.FrequencyNone,
		Interval:  "1",
	}
	if fm.Type == "" {
		fm.Type = models.VisitTypeGeneral
	}
	if v.ReminderMinutes != nil {
		fm.Remind = strconv.Itoa(*v.ReminderMinutes)
	}
	if v.Recurrence != nil {
		fm.Frequency = v.Recurrence.Frequency
		fm.Interval = strconv.Itoa(v.Recurrence.Interval)
		days := make([]string, 0, len(v.Recurrence.Weekdays))
		for _, wd := range v.Recurrence.Weekdays {
			days = append(days, strconv.Itoa(wd))
		}
		fm.Weekdays = strings.Join(days, ",")
	}
	return fm
}

// Apply writes the form values onto v.
func (fm *VisitFormModel) Apply(v *models.Visit, loc *time.Location) error {
	start, err := utils.ParseDateTime(fm.Start, loc)
	if err != nil {
		return err
	}
	minutes, err := positiveInt(fm.Duration)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	interval := 1
	if strings.TrimSpace(fm.Interval) != "" {
		if interval, err = positiveInt(fm.Interval); err != nil {
			return fmt.Errorf("interval: %w", err)
		}
	}
	rule, err := cli.ParseRecurrence(string(fm.Frequency), interval, fm.Weekdays)
	if err != nil {
		return err
	}

	v.Title = strings.TrimSpace(fm.Title)
	v.Start = start
	v.End = start.Add(time.Duration(minutes) * time.Minute)
	v.Type = fm.Type
	v.Location = strings.TrimSpace(fm.Location)
	v.Notes = strings.TrimSpace(fm.Notes)
	v.Recurrence = rule
	v.IsRecurring = rule != nil
	v.ReminderMinutes = nil
	if s := strings.TrimSpace(fm.Remind); s != "" {
		lead, err := strconv.Atoi(s)
		if err != nil || lead < 0 {
			return fmt.Errorf("reminder must be a non-negative number of minutes")
		}
		v.ReminderMinutes = models.Minutes(lead)
	}
	return nil
}

func positiveInt(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if i <= 0 {
		return 0, fmt.Errorf("must be a positive number")
	}
	return i, nil
}

// NewVisitForm builds the add/edit visit form bound to fm.
func NewVisitForm(fm *VisitFormModel, loc *time.Location) *huh.Form {
	typeOptions := make([]huh.Option[models.VisitType], 0, len(models.AllVisitTypes()))
	for _, t := range models.AllVisitTypes() {
		typeOptions = append(typeOptions, huh.NewOption(strings.ToUpper(string(t[:1]))+string(t[1:]), t))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Start").
				Description(constants.DateTimeFormat).
				Value(&fm.Start).
				Validate(func(s string) error {
					_, err := utils.ParseDateTime(s, loc)
					return err
				}),
			huh.NewInput().
				Title("Duration (min)").
				Value(&fm.Duration).
				Validate(func(s string) error {
					_, err := positiveInt(s)
					return err
				}),
			huh.NewSelect[models.VisitType]().
				Title("Type").
				Options(typeOptions...).
				Value(&fm.Type),
			huh.NewInput().
				Title("Location").
				Value(&fm.Location),
			huh.NewText().
				Title("Notes").
				Value(&fm.Notes),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Reminder (min before)").
				Description("Leave empty for no reminder").
				Value(&fm.Remind).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					i, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return err
					}
					if i < 0 {
						return fmt.Errorf("reminder cannot be negative")
					}
					return nil
				}),
			huh.NewSelect[models.Frequency]().
				Title("Repeats").
				Options(
					huh.NewOption("Never", models.FrequencyNone),
					huh.NewOption("Daily", models.FrequencyDaily),
					huh.NewOption("Weekly", models.FrequencyWeekly),
					huh.NewOption("Monthly", models.FrequencyMonthly),
				).
				Value(&fm.Frequency),
			huh.NewInput().
				Title("Interval").
				Description("Repeat every N days, weeks or months").
				Value(&fm.Interval),
			huh.NewInput().
				Title("Weekdays").
				Description("For weekly visits, e.g. sat,sun").
				Value(&fm.Weekdays).
				Validate(func(s string) error {
					_, err := cli.ParseWeekdays(s)
					return err
				}),
		),
	)
}
