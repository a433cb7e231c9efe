package cli

import (
	"fmt"

	"github.com/coder/quartz"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/writewithwrabit/streaks/streak"
)

// NewRecordCommand records a qualifying action for a user directly against
// the store, for support and scripted checks.
func NewRecordCommand(root *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record activity for a user and print the resulting streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := root.load(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			clock := quartz.NewReal()
			store, closeStore, err := openStore(ctx, cfg, logger, clock)
			if err != nil {
				return err
			}
			defer closeStore()

			notifier, flush := newNotifier(cfg, logger, nil)
			defer flush()

			engine := streak.New(streak.Options{
				Store:    store,
				Notifier: notifier,
				Logger:   logger.Named("engine"),
				Clock:    clock,
				Location: cfg.Location,
			})
			engine.Initialize(ctx, userID)
			if snap := engine.Snapshot(); snap.Status == streak.StatusError {
				return xerrors.Errorf("load streak for %q: %s", userID, snap.Error)
			}

			current, ok := engine.RecordActivity(ctx)
			if !ok {
				return xerrors.Errorf("streak for %q was not updated", userID)
			}

			snap := engine.Snapshot()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: current streak %d, max streak %d\n", userID, current, snap.Record.MaxStreak)
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID to record activity for")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
