package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/justdad/internal/agenda"
	"github.com/julianstephens/justdad/internal/constants"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateForm:
		content = m.viewForm()
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = docStyle.Render(m.days.View())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		m.viewStatus(),
		content,
		m.help.View(m),
	)
}

func (m Model) viewHeader() string {
	month := m.coord.CurrentMonth().Format(constants.MonthFormat)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		arrowStyle.Render("‹"),
		monthStyle.Render(month),
		arrowStyle.Render("›"),
	)
}

func (m Model) viewStatus() string {
	s := m.snapshot
	switch {
	case s.Phase == agenda.PhaseError && m.Busy():
		return warningStyle.Render(fmt.Sprintf("⚠ %s (retry %d)", s.Message, s.RetryCount))
	case s.Phase == agenda.PhaseError:
		return dangerStyle.Render(fmt.Sprintf("⚠ %s (press r to retry)", s.Message))
	case s.Loading || m.Busy():
		return statusStyle.Render("Loading…")
	default:
		return statusStyle.Render(fmt.Sprintf("%d visits this month", m.days.Len()))
	}
}

func (m Model) viewForm() string {
	title := "New visit"
	if m.editing != nil {
		title = "Edit visit"
	}
	parts := []string{monthStyle.Render(title), m.form.View()}
	if m.formError != "" {
		parts = append(parts, dangerStyle.Render(m.formError))
	}
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %q?", m.deleteTitle)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
