// Package notify delivers user-facing failure notices. Delivery is fire and
// forget: Notify never reports an error to the caller.
package notify

import (
	"context"

	"cdr.dev/slog"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Notification struct {
	UserID      string
	Title       string
	Description string
	Severity    Severity
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) {}

// Log writes notifications to a logger.
type Log struct {
	logger slog.Logger
}

func NewLog(logger slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n Notification) {
	fields := []slog.Field{
		slog.F("user_id", n.UserID),
		slog.F("title", n.Title),
		slog.F("description", n.Description),
	}
	switch n.Severity {
	case SeverityError:
		l.logger.Error(ctx, "notify user", fields...)
	case SeverityWarning:
		l.logger.Warn(ctx, "notify user", fields...)
	default:
		l.logger.Info(ctx, "notify user", fields...)
	}
}

// Multi fans a notification out to every notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
