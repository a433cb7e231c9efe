// Package cli implements the streaks command.
package cli

import (
	"context"
	"io"
	"strings"

	"cdr.dev/slog"
	"cdr.dev/slog/sloggers/sloghuman"
	"cdr.dev/slog/sloggers/slogjson"
	"github.com/spf13/cobra"

	"github.com/writewithwrabit/streaks/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFiles []string
}

// NewRootCommand creates the root command for the streaks CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "streaks",
		Short:        "Daily activity streaks",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "files to load environment variables from (default .env)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))

	return cmd
}

// load reads the env files and the configuration, and builds the logger
// every command logs through.
func (o *RootOptions) load(ctx context.Context, stderr io.Writer) (config.Config, slog.Logger, error) {
	found, err := config.LoadEnv(o.EnvFiles...)
	if err != nil {
		return config.Config{}, slog.Logger{}, err
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, slog.Logger{}, err
	}

	logger := newLogger(cfg, stderr)
	if !found {
		logger.Debug(ctx, "no env file found, using environment only")
	}
	return cfg, logger, nil
}

func newLogger(cfg config.Config, w io.Writer) slog.Logger {
	var logger slog.Logger
	if strings.EqualFold(cfg.LogFormat, "json") {
		logger = slog.Make(slogjson.Sink(w))
	} else {
		logger = slog.Make(sloghuman.Sink(w))
	}
	if strings.EqualFold(cfg.LogLevel, "debug") {
		logger = logger.Leveled(slog.LevelDebug)
	}
	return logger
}
