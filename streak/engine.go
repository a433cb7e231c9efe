// Package streak tracks daily activity streaks.
//
// An Engine holds the streak of the current user, loads it from a Store when
// the identity changes and applies activity to it. All operations on one
// engine are serialized: RecordActivity issued while Initialize is running
// waits for it and then sees its result. Snapshot never waits for the store,
// so readers observe StatusLoading while a load is in flight.
package streak

import (
	"context"
	"errors"
	"sync"
	"time"

	"cdr.dev/slog"
	"github.com/coder/quartz"
	"golang.org/x/xerrors"

	"github.com/writewithwrabit/streaks/db"
	"github.com/writewithwrabit/streaks/models"
	"github.com/writewithwrabit/streaks/notify"
)

// Store persists streaks. GetStreakByUserID and UpdateStreakByUserID must
// return db.ErrNotFound when the user has no row; InsertStreak returns
// db.ErrAlreadyExists when it does.
type Store interface {
	GetStreakByUserID(ctx context.Context, userID string) (models.Streak, error)
	InsertStreak(ctx context.Context, streak models.Streak) error
	UpdateStreakByUserID(ctx context.Context, userID string, update models.StreakUpdate) (models.Streak, error)
}

type Options struct {
	Store    Store
	Notifier notify.Notifier
	Logger   slog.Logger
	Clock    quartz.Clock
	// Location decides where calendar days start. Defaults to UTC.
	Location *time.Location
	Metrics  *Metrics
}

type Engine struct {
	store    Store
	notifier notify.Notifier
	logger   slog.Logger
	clock    quartz.Clock
	location *time.Location
	metrics  *Metrics

	// opMu serializes Initialize and RecordActivity, store calls included.
	opMu sync.Mutex

	// mu guards the fields below. They are written only while opMu is held,
	// so operations may read them without mu.
	mu     sync.Mutex
	userID string
	record *models.Streak
	status Status
	err    string
}

func New(opts Options) *Engine {
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Engine{
		store:    opts.Store,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		clock:    opts.Clock,
		location: opts.Location,
		metrics:  opts.Metrics,
		status:   StatusLoading,
	}
}

// Snapshot returns a copy of the current record and status.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{Status: e.status, Error: e.err}
	if e.record != nil {
		record := *e.record
		if record.LastActivityDate != nil {
			last := *record.LastActivityDate
			record.LastActivityDate = &last
		}
		snap.Record = &record
	}
	return snap
}

// UserID returns the identity the engine was last initialized for.
func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// Initialize points the engine at userID and loads its streak, creating one
// when the user has none. An empty userID means nobody is signed in. Calling
// it again for the user that is already loaded does nothing. Failures are
// reported through the Error status.
func (e *Engine) Initialize(ctx context.Context, userID string) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	switch {
	case userID == "":
		e.userID = ""
		e.record = nil
		e.status, e.err = StatusReady, ""
		e.mu.Unlock()
		return
	case userID == e.userID && e.record != nil:
		e.mu.Unlock()
		return
	case userID != e.userID:
		// Never carry one user's counters over to another.
		e.record = nil
		e.userID = userID
	}
	e.status, e.err = StatusLoading, ""
	e.mu.Unlock()

	e.load(ctx)
}

// RecordActivity counts a qualifying action for today and returns the
// resulting streak. ok is false when nobody is signed in or the streak could
// not be saved; in the latter case the user is notified and the in-memory
// record is left as it was.
func (e *Engine) RecordActivity(ctx context.Context) (streak int, ok bool) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if e.userID == "" {
		e.metrics.recordActivity(resultAnonymous)
		return 0, false
	}

	logger := e.logger.With(slog.F("user_id", e.userID))

	if e.record == nil {
		// The first action can arrive before the load finished or after it
		// failed. Provision the row, then count the action against it.
		if !e.create(ctx) {
			e.notifyFailure(ctx)
			e.metrics.recordActivity(resultFailed)
			return 0, false
		}
	}

	now := e.clock.Now("engine", "record_activity")
	next := Next(*e.record, now, e.location)
	if next.Outcome == OutcomeUnchanged {
		e.metrics.recordActivity(string(next.Outcome))
		return next.Streak, true
	}

	updated, err := e.store.UpdateStreakByUserID(ctx, e.userID, models.StreakUpdate{
		CurrentStreak:    next.Streak,
		MaxStreak:        next.Max,
		LastActivityDate: now,
	})
	if err != nil {
		logger.Error(ctx, "update streak", slog.Error(err))
		e.notifyFailure(ctx)
		e.metrics.recordActivity(resultFailed)
		return 0, false
	}

	e.setRecord(&updated)
	e.metrics.recordActivity(string(next.Outcome))
	logger.Debug(ctx, "recorded activity",
		slog.F("outcome", next.Outcome),
		slog.F("current_streak", updated.CurrentStreak),
		slog.F("max_streak", updated.MaxStreak),
	)
	return next.Streak, true
}

// load reads the streak for e.userID, provisioning it on a miss. e.opMu must
// be held.
func (e *Engine) load(ctx context.Context) bool {
	streak, err := e.store.GetStreakByUserID(ctx, e.userID)
	if errors.Is(err, db.ErrNotFound) {
		return e.create(ctx)
	}
	if err != nil {
		e.fail(ctx, xerrors.Errorf("load streak: %w", err))
		return false
	}

	e.setRecord(&streak)
	return true
}

// create inserts a zeroed streak for e.userID and reads it back. Losing an
// insert race to another writer is fine since the row exists either way.
// e.opMu must be held.
func (e *Engine) create(ctx context.Context) bool {
	err := e.store.InsertStreak(ctx, models.Streak{UserID: e.userID})
	if err != nil && !errors.Is(err, db.ErrAlreadyExists) {
		e.fail(ctx, xerrors.Errorf("create streak: %w", err))
		return false
	}

	streak, err := e.store.GetStreakByUserID(ctx, e.userID)
	if err != nil {
		e.fail(ctx, xerrors.Errorf("read created streak: %w", err))
		return false
	}

	e.logger.Info(ctx, "created streak", slog.F("user_id", e.userID))
	e.setRecord(&streak)
	return true
}

func (e *Engine) fail(ctx context.Context, err error) {
	e.logger.Error(ctx, "streak unavailable", slog.F("user_id", e.userID), slog.Error(err))
	e.setStatus(StatusError, err.Error())
}

func (e *Engine) setStatus(status Status, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = status
	e.err = msg
}

// setRecord stores a row confirmed by the store and marks the engine ready.
func (e *Engine) setRecord(record *models.Streak) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record = record
	e.status, e.err = StatusReady, ""
}

func (e *Engine) notifyFailure(ctx context.Context) {
	e.notifier.Notify(ctx, notify.Notification{
		UserID:      e.userID,
		Title:       "Streak Error",
		Description: "Failed to update streak. Please try again.",
		Severity:    notify.SeverityError,
	})
}
