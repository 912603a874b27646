package system

import (
	"fmt"

	"github.com/julianstephens/justdad/internal/cli"
)

// SyncCmd reloads the agenda through the repository with the automatic
// retry policy and reports the outcome.
type SyncCmd struct{}

func (cmd *SyncCmd) Run(ctx *cli.Context) error {
	coord := ctx.NewCoordinator()
	defer coord.Close()

	snap := coord.Sync(ctx.Context())
	if !snap.OK() {
		return fmt.Errorf("%s", snap.Message)
	}

	fmt.Printf("✓ Synced %d visits (calendar %s)\n", len(coord.AllVisits()), ctx.Repository.AuthorizationStatus())
	return nil
}
