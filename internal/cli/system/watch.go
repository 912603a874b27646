package system

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/justdad/internal/cli"
	"github.com/julianstephens/justdad/internal/logger"
)

// WatchCmd keeps reminders scheduled for upcoming visits until interrupted.
// The configured sync cron reloads the store and reschedules.
type WatchCmd struct{}

func (cmd *WatchCmd) Run(ctx *cli.Context) error {
	if !ctx.Config.Notifications.Enabled {
		return fmt.Errorf("notifications are disabled in %s", ctx.ConfigPath)
	}

	base := ctx.Context()
	sync := func() {
		if err := ctx.Durable.Load(base); err != nil {
			logger.Warn("Failed to reload store", "error", err)
		}
		n, err := ctx.ScheduleUpcoming(base, time.Now())
		if err != nil {
			logger.Error("Failed to schedule reminders", "error", err)
			return
		}
		logger.Info("Reminders scheduled", "pending", n)
	}

	sync()

	syncer := cron.New(cron.WithLocation(ctx.Location))
	if _, err := syncer.AddFunc(ctx.Config.Sync.Cron, sync); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", ctx.Config.Sync.Cron, err)
	}

	syncer.Start()
	ctx.Reminders.Start()
	fmt.Printf("Watching for reminders (sync %s). Press Ctrl+C to stop.\n", ctx.Config.Sync.Cron)

	<-base.Done()

	fmt.Println("Stopping...")
	<-syncer.Stop().Done()
	<-ctx.Reminders.Stop().Done()
	return nil
}
