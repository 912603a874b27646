package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/justdad/internal/agenda"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/tui/components/daylist"
)

type SessionState int

const (
	StateAgenda SessionState = iota
	StateForm
	StateConfirmDelete
)

// SnapshotMsg carries a coordinator state transition into the program.
type SnapshotMsg agenda.Snapshot

// opDoneMsg is returned when a coordinator operation finishes.
type opDoneMsg struct {
	snap agenda.Snapshot
}

type Options struct {
	DefaultLeadMinutes int
	Now                func() time.Time
}

type Model struct {
	ctx         context.Context
	coord       *agenda.Coordinator
	loc         *time.Location
	now         func() time.Time
	defaultLead int

	state       SessionState
	keys        KeyMap
	help        help.Model
	days        daylist.Model
	form        *huh.Form
	visitForm   *VisitFormModel
	editing     *models.Visit
	deleteID    string
	deleteTitle string
	snapshot    agenda.Snapshot
	pending     int
	formError   string
	quitting    bool
	width       int
	height      int
}

func NewModel(ctx context.Context, coord *agenda.Coordinator, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := coord.Location()
	return Model{
		ctx:         ctx,
		coord:       coord,
		loc:         loc,
		now:         now,
		defaultLead: opts.DefaultLeadMinutes,
		state:       StateAgenda,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		days:        daylist.New(loc, 0, 0),
		snapshot:    coord.Snapshot(),
		// Init's load
		pending: 1,
	}
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.PrevMonth, m.keys.NextMonth, m.keys.Add, m.keys.Delete, m.keys.Retry, m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.PrevMonth, m.keys.NextMonth, m.keys.Up, m.keys.Down},
		{m.keys.Add, m.keys.Edit, m.keys.Delete},
		{m.keys.Retry, m.keys.Sync, m.keys.Help, m.keys.Quit},
	}
}

func (m Model) Init() tea.Cmd {
	ctx, coord := m.ctx, m.coord
	return func() tea.Msg {
		return opDoneMsg{snap: coord.Load(ctx)}
	}
}

// run executes op off the event loop. The coordinator queues overlapping
// calls, so several may be in flight.
func (m *Model) run(op func(ctx context.Context) agenda.Snapshot) tea.Cmd {
	m.pending++
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{snap: op(ctx)}
	}
}

func (m *Model) refresh() {
	m.days.SetMonth(m.coord.DayIndex(), m.coord.CurrentMonth())
}

// Busy reports whether an operation is still running.
func (m Model) Busy() bool {
	return m.pending > 0
}
