package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/justdad/internal/agenda"
	"github.com/julianstephens/justdad/internal/models"
	"github.com/julianstephens/justdad/internal/tui/components/daylist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// Header, status line, help and padding.
		m.days.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case SnapshotMsg:
		m.snapshot = agenda.Snapshot(msg)
		return m, nil

	case opDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		m.snapshot = msg.snap
		m.refresh()
		return m, nil
	}

	switch m.state {
	case StateForm:
		return m.updateForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m.updateAgenda(msg)
}

func (m Model) updateAgenda(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.PrevMonth):
			return m, m.run(m.coord.GoToPreviousMonth)
		case key.Matches(msg, m.keys.NextMonth):
			return m, m.run(m.coord.GoToNextMonth)
		case key.Matches(msg, m.keys.Retry):
			return m, m.run(m.coord.RetryLastOperation)
		case key.Matches(msg, m.keys.Sync):
			return m, m.run(m.coord.Sync)
		}

	case daylist.AddVisitMsg:
		m.editing = nil
		m.visitForm = NewVisitFormModel(nil, m.loc, m.now(), m.defaultLead)
		return m.openForm()

	case daylist.EditVisitMsg:
		v := msg.Visit.Clone()
		m.editing = &v
		m.visitForm = NewVisitFormModel(&v, m.loc, m.now(), m.defaultLead)
		return m.openForm()

	case daylist.DeleteVisitMsg:
		m.deleteID = msg.ID
		m.deleteTitle = msg.Title
		m.state = StateConfirmDelete
		return m, nil
	}

	var cmd tea.Cmd
	m.days, cmd = m.days.Update(msg)
	return m, cmd
}

func (m Model) openForm() (tea.Model, tea.Cmd) {
	m.formError = ""
	m.form = NewVisitForm(m.visitForm, m.loc)
	m.state = StateForm
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.formError = ""
		m.state = StateAgenda
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		var v models.Visit
		if m.editing != nil {
			v = m.editing.Clone()
		} else {
			v = models.NewVisit("", m.now(), m.now(), models.VisitTypeGeneral)
		}
		if err := m.visitForm.Apply(&v, m.loc); err != nil {
			// Keep the user in the form to correct the value
			m.formError = err.Error()
			m.form.State = huh.StateNormal
			return m, tea.Batch(cmds...)
		}

		m.formError = ""
		m.state = StateAgenda
		if m.editing != nil {
			cmds = append(cmds, m.run(func(ctx context.Context) agenda.Snapshot { return m.coord.Update(ctx, v) }))
		} else {
			cmds = append(cmds, m.run(func(ctx context.Context) agenda.Snapshot { return m.coord.Create(ctx, v) }))
		}
		m.editing = nil
	case huh.StateAborted:
		m.state = StateAgenda
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		id := m.deleteID
		m.deleteID, m.deleteTitle = "", ""
		m.state = StateAgenda
		return m, m.run(func(ctx context.Context) agenda.Snapshot { return m.coord.Delete(ctx, id) })
	case "n", "N", "esc":
		m.deleteID, m.deleteTitle = "", ""
		m.state = StateAgenda
	}
	return m, nil
}
