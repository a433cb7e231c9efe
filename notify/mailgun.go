package notify

import (
	"context"
	"sync"
	"time"

	"cdr.dev/slog"
	"github.com/mailgun/mailgun-go/v3"
)

const sendTimeout = 10 * time.Second

// EmailLookup resolves the address notifications for a user are sent to.
type EmailLookup func(ctx context.Context, userID string) (string, error)

// Mailgun emails notifications to the user. Sending happens in the
// background; call Wait before shutdown to flush pending sends.
type Mailgun struct {
	mg     mailgun.Mailgun
	sender string
	lookup EmailLookup
	logger slog.Logger
	wg     sync.WaitGroup
}

func NewMailgun(mg mailgun.Mailgun, sender string, lookup EmailLookup, logger slog.Logger) *Mailgun {
	return &Mailgun{
		mg:     mg,
		sender: sender,
		lookup: lookup,
		logger: logger,
	}
}

func (m *Mailgun) Notify(ctx context.Context, n Notification) {
	if n.UserID == "" {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()

		recipient, err := m.lookup(ctx, n.UserID)
		if err != nil {
			m.logger.Warn(ctx, "look up notification recipient", slog.F("user_id", n.UserID), slog.Error(err))
			return
		}
		if recipient == "" {
			return
		}

		message := m.mg.NewMessage(m.sender, n.Title, n.Description, recipient)
		if _, _, err := m.mg.Send(ctx, message); err != nil {
			m.logger.Warn(ctx, "send notification email", slog.F("user_id", n.UserID), slog.Error(err))
		}
	}()
}

// Wait blocks until every pending send has finished.
func (m *Mailgun) Wait() {
	m.wg.Wait()
}
