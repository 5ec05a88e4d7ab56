package cfg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mirrarr/internal/app"
	"mirrarr/internal/domain/keys"
	"mirrarr/internal/schedule"
	"mirrarr/internal/utils/logging"

	"github.com/spf13/cobra"
)

// withApp builds the application, runs fn, and tears everything down.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.Sched.Shutdown()
	return fn(a)
}

// initSweepCmd runs one full sweep immediately.
func initSweepCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one download sweep over all enabled channels now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, func(a *app.App) error {
				a.Orch.RunSweep(ctx)
				return nil
			})
		},
	}
}

// initDownloadCmd triggers a single channel download, queueing it when a
// sweep is already in progress.
func initDownloadCmd(ctx context.Context) *cobra.Command {
	var (
		channelID string
		user      string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a single channel's recent videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			if channelID == "" {
				return errors.New("--" + keys.ChannelID + " is required")
			}
			return withApp(ctx, func(a *app.App) error {
				queued, position, err := a.Orch.TriggerChannel(ctx, channelID, user)
				if err != nil {
					return err
				}
				if queued {
					logging.I("Sweep in progress: request queued at position %d", position)
				} else {
					logging.S("Channel %q processed", channelID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channelID, keys.ChannelID, "", "Provider channel id to download")
	cmd.Flags().StringVar(&user, keys.User, "cli", "Requesting user recorded with the trigger")
	return cmd
}

// initScheduleCmds manages the sweep cron schedule.
func initScheduleCmds(ctx context.Context) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect or change the sweep schedule",
	}

	var setExpr string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Validate and persist a new cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if setExpr == "" {
				return errors.New("--" + keys.CronExpr + " is required")
			}
			return withApp(ctx, func(a *app.App) error {
				return a.Sched.UpdateDownloadSchedule(setExpr)
			})
		},
	}
	setCmd.Flags().StringVar(&setExpr, keys.CronExpr, "", "5-field cron expression")

	var validateExpr string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a cron expression without persisting it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := schedule.Validate(validateExpr); err != nil {
				return err
			}
			logging.S("Valid: %s", schedule.Describe(validateExpr))
			return nil
		},
	}
	validateCmd.Flags().StringVar(&validateExpr, keys.CronExpr, "", "5-field cron expression")

	var (
		nextExpr  string
		nextCount int
	)
	nextCmd := &cobra.Command{
		Use:   "next",
		Short: "Show the upcoming fire times of a cron expression",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := schedule.NextRuns(nextExpr, time.Now().UTC(), nextCount)
			if err != nil {
				return err
			}
			for i, t := range runs {
				logging.P("%d. %s", i+1, t.Format(time.RFC3339))
			}
			return nil
		},
	}
	nextCmd.Flags().StringVar(&nextExpr, keys.CronExpr, "", "5-field cron expression")
	nextCmd.Flags().IntVarP(&nextCount, "count", "n", 5, "Number of fire times to show")

	scheduleCmd.AddCommand(setCmd, validateCmd, nextCmd)
	return scheduleCmd
}

// initStatusCmd prints the scheduler status as JSON.
func initStatusCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduler and sweep status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, func(a *app.App) error {
				st, err := a.Sched.GetStatus()
				if err != nil {
					return err
				}
				b, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			})
		},
	}
}
