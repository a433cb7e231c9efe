package cli

import (
	"context"
	"database/sql"

	"cdr.dev/slog"
	"github.com/coder/quartz"
	"github.com/mailgun/mailgun-go/v3"
	"golang.org/x/xerrors"

	"github.com/writewithwrabit/streaks/auth"
	"github.com/writewithwrabit/streaks/config"
	"github.com/writewithwrabit/streaks/db"
	"github.com/writewithwrabit/streaks/notify"
	"github.com/writewithwrabit/streaks/streak"
)

// openStore returns the configured streak store and a function that releases
// it.
func openStore(ctx context.Context, cfg config.Config, logger slog.Logger, clock quartz.Clock) (streak.Store, func() error, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn(ctx, "using in-memory store, streaks are lost on exit")
		return db.NewMemory(clock), func() error { return nil }, nil
	}

	conn, err := db.Open(ctx, logger, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db.NewStreaks(conn, logger.Named("db")), conn.Close, nil
}

func openDB(ctx context.Context, cfg config.Config, logger slog.Logger) (*sql.DB, error) {
	if cfg.Store != config.StorePostgres {
		return nil, xerrors.Errorf("store %q has no database", cfg.Store)
	}
	return db.Open(ctx, logger, cfg.Database)
}

// newIdentity returns the token verifier and, when Firebase is in use, the
// user lookup for notification emails.
func newIdentity(ctx context.Context, cfg config.Config, logger slog.Logger) (auth.TokenVerifier, auth.UserGetter, error) {
	if cfg.AuthDisabled {
		logger.Warn(ctx, "authentication is disabled, bearer tokens are trusted as user ids")
		return auth.Insecure{}, nil, nil
	}

	client, err := auth.NewClient(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

// newNotifier always logs failures and also emails them when Mailgun and a
// user directory are available. The returned function flushes pending
// emails.
func newNotifier(cfg config.Config, logger slog.Logger, users auth.UserGetter) (notify.Notifier, func()) {
	notifiers := notify.Multi{notify.NewLog(logger.Named("notify"))}
	if !cfg.MailgunEnabled() || users == nil {
		return notifiers, func() {}
	}

	mg := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunKey)
	mailer := notify.NewMailgun(mg, cfg.MailgunSender, auth.EmailLookup(users), logger.Named("mailgun"))
	return append(notifiers, mailer), mailer.Wait
}
