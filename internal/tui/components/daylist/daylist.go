package daylist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/justdad/internal/agenda"
	"github.com/julianstephens/justdad/internal/constants"
	"github.com/julianstephens/justdad/internal/models"
)

type AddVisitMsg struct{}

type EditVisitMsg struct {
	Visit models.Visit
}

type DeleteVisitMsg struct {
	ID    string
	Title string
}

type Item struct {
	Visit models.Visit
	loc   *time.Location
}

func (i Item) Title() string {
	start := i.Visit.Start.In(i.loc)
	title := fmt.Sprintf("%s  %s", start.Format("Mon 02 15:04"), i.Visit.Title)
	if i.Visit.IsRecurring {
		title += " ↻"
	}
	return title
}

func (i Item) Description() string {
	parts := []string{
		fmt.Sprintf("until %s", i.Visit.End.In(i.loc).Format(constants.TimeFormat)),
		string(i.Visit.Type),
	}
	if i.Visit.Location != "" {
		parts = append(parts, i.Visit.Location)
	}
	if i.Visit.ReminderMinutes != nil {
		parts = append(parts, fmt.Sprintf("remind %dm", *i.Visit.ReminderMinutes))
	}
	return strings.Join(parts, " | ")
}

func (i Item) FilterValue() string { return i.Visit.Title }

type KeyMap struct {
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
	loc  *time.Location
}

func New(loc *time.Location, width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false) // help is rendered by the parent model
	l.SetFilteringEnabled(false)
	// h/l and d belong to month navigation and delete.
	l.KeyMap.PrevPage.SetKeys("pgup")
	l.KeyMap.NextPage.SetKeys("pgdown")

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Edit, keys.Delete}
	}
	return Model{list: l, keys: keys, loc: loc}
}

// SetMonth shows the visits of idx whose day falls in month, earliest first.
func (m *Model) SetMonth(idx agenda.DayIndex, month time.Time) {
	var items []list.Item
	for _, day := range idx.Days() {
		if day.Year() != month.Year() || day.Month() != month.Month() {
			continue
		}
		for _, v := range idx[day] {
			items = append(items, Item{Visit: v, loc: m.loc})
		}
	}
	m.list.SetItems(items)
}

// Len returns the number of visits shown.
func (m Model) Len() int {
	return len(m.list.Items())
}

// Selected returns the highlighted visit.
func (m Model) Selected() (models.Visit, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return models.Visit{}, false
	}
	return i.Visit, true
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddVisitMsg{} }
		case key.Matches(msg, m.keys.Edit):
			if v, ok := m.Selected(); ok {
				return m, func() tea.Msg { return EditVisitMsg{Visit: v} }
			}
		case key.Matches(msg, m.keys.Delete):
			if v, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteVisitMsg{ID: v.ID, Title: v.Title} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  No visits this month.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
