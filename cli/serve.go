package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cdr.dev/slog"
	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/writewithwrabit/streaks/api"
	"github.com/writewithwrabit/streaks/streak"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the streaks HTTP API",
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

			verifier, users, err := newIdentity(ctx, cfg, logger)
			if err != nil {
				return err
			}
			notifier, flush := newNotifier(cfg, logger, users)
			defer flush()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := streak.NewMetrics(reg)
			if err != nil {
				return xerrors.Errorf("register metrics: %w", err)
			}

			sessions := streak.NewSessions(streak.Options{
				Store:    store,
				Notifier: notifier,
				Logger:   logger.Named("engine"),
				Clock:    clock,
				Location: cfg.Location,
				Metrics:  metrics,
			})
			go func() {
				if err := sessions.Run(ctx, cfg.SessionIdleTimeout/2, cfg.SessionIdleTimeout); err != nil {
					logger.Error(ctx, "session pruning stopped", slog.Error(err))
				}
			}()

			srv := &http.Server{
				Addr: ":" + cfg.Port,
				Handler: api.New(api.Options{
					Sessions:       sessions,
					Verifier:       verifier,
					Logger:         logger,
					AllowedOrigins: cfg.AllowedOrigins,
					Gatherer:       reg,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				errc <- srv.ListenAndServe()
			}()
			logger.Info(ctx, "listening", slog.F("addr", srv.Addr), slog.F("store", cfg.Store), slog.F("timezone", cfg.Location.String()))

			select {
			case err := <-errc:
				return xerrors.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			logger.Info(context.Background(), "shutdown signal received, draining requests")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return xerrors.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}
