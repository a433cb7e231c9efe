package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"cdr.dev/slog"
	"golang.org/x/xerrors"

	// Registers the "cloudsqlpostgres" driver.
	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/postgres"
	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// Options selects the database to connect to. When CloudSQLConnection is set
// the connection goes through the Cloud SQL proxy dialer, otherwise URL is
// handed to lib/pq.
type Options struct {
	URL string

	CloudSQLConnection string
	User               string
	Name               string
	Password           string
}

func (o Options) driver() (string, string, error) {
	if o.CloudSQLConnection != "" {
		if o.User == "" {
			return "", "", xerrors.New("cloud sql user is required")
		}
		dsn := fmt.Sprintf("host=%s dbname=%s user=%s password=%s sslmode=disable", o.CloudSQLConnection, o.Name, o.User, o.Password)
		return "cloudsqlpostgres", dsn, nil
	}
	if o.URL == "" {
		return "", "", xerrors.New("database url is required")
	}
	return "postgres", o.URL, nil
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, logger slog.Logger, opts Options) (*sql.DB, error) {
	driver, dsn, err := opts.driver()
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, xerrors.Errorf("open %s: %w", driver, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, xerrors.Errorf("ping %s: %w", driver, err)
	}

	logger.Info(ctx, "connected to database", slog.F("driver", driver))
	return conn, nil
}

// Migrate creates the streak table if it does not exist. It is safe to run
// on every start.
func Migrate(ctx context.Context, logger slog.Logger, db Querier) error {
	if _, err := LogAndExec(ctx, logger, db, schemaSQL); err != nil {
		return xerrors.Errorf("apply schema: %w", err)
	}
	return nil
}
