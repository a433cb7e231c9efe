package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/writewithwrabit/streaks/db"
)

func NewMigrateCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the streak table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := root.load(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			conn, err := openDB(ctx, cfg, logger)
			if err != nil {
				return xerrors.Errorf("migrate: %w", err)
			}
			defer conn.Close()

			if err := db.Migrate(ctx, logger, conn); err != nil {
				return err
			}
			logger.Info(ctx, "schema is up to date")
			return nil
		},
	}
}
