package calendars

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/justdad/internal/calendar"
	"github.com/julianstephens/justdad/internal/cli"
)

// Prompter asks on the terminal before the calendar file is used.
var Prompter = calendar.PrompterFunc(func(ctx context.Context) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Allow justdad to read and write your calendar?").
			Description("Visits are stored locally when access is denied.").
			Affirmative("Allow").
			Negative("Don't allow").
			Value(&ok),
	)).RunWithContext(ctx)
	return ok, err
})

func requireCalendar(ctx *cli.Context) error {
	if ctx.Calendar == nil {
		return fmt.Errorf("calendar integration is disabled in %s", ctx.ConfigPath)
	}
	return nil
}

type CalendarAuthorizeCmd struct{}

func (c *CalendarAuthorizeCmd) Run(ctx *cli.Context) error {
	if err := requireCalendar(ctx); err != nil {
		return err
	}
	granted, err := ctx.Repository.RequestAuthorization(ctx.Context())
	if err != nil {
		return err
	}
	if !granted {
		fmt.Println("Calendar access denied. Visits will be stored locally.")
		return nil
	}
	fmt.Printf("✓ Calendar access granted: %s\n", ctx.Calendar.Path())
	return nil
}

type CalendarRevokeCmd struct{}

func (c *CalendarRevokeCmd) Run(ctx *cli.Context) error {
	if err := requireCalendar(ctx); err != nil {
		return err
	}
	if err := ctx.Calendar.Revoke(); err != nil {
		return err
	}
	fmt.Println("✓ Calendar access revoked. Visits will be stored locally.")
	return nil
}

type CalendarStatusCmd struct{}

func (c *CalendarStatusCmd) Run(ctx *cli.Context) error {
	if ctx.Calendar == nil {
		fmt.Println("Calendar: disabled")
		return nil
	}
	fmt.Printf("Calendar: %s\n", ctx.Calendar.Path())
	fmt.Printf("Access:   %s\n", ctx.Calendar.AuthorizationStatus())
	return nil
}
