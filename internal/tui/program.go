package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/justdad/internal/agenda"
)

// Run builds the coordinator through newCoordinator, forwarding every state
// transition into the program, and blocks until the user quits.
func Run(ctx context.Context, newCoordinator func(opts ...agenda.Option) *agenda.Coordinator, opts Options) error {
	var p *tea.Program
	coord := newCoordinator(agenda.WithObserver(func(s agenda.Snapshot) {
		// The first job is submitted from Init, after p is assigned.
		if p != nil {
			p.Send(SnapshotMsg(s))
		}
	}))
	defer coord.Close()

	p = tea.NewProgram(NewModel(ctx, coord, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
