package streak

import (
	"context"
	"errors"
	"sync"
	"time"

	"cdr.dev/slog"
	"github.com/coder/quartz"
)

// Sessions keeps one engine per user so that every operation for a user goes
// through the same engine and is serialized by it.
type Sessions struct {
	opts Options

	mu      sync.Mutex
	engines map[string]*session
}

type session struct {
	engine   *Engine
	inUse    int
	lastUsed time.Time
}

func NewSessions(opts Options) *Sessions {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	return &Sessions{
		opts:    opts,
		engines: make(map[string]*session),
	}
}

// Get returns the initialized engine for userID and a release function the
// caller must call once it is done with the engine. Engines are not pruned
// while held. Anonymous callers get a fresh engine that is not kept.
func (s *Sessions) Get(ctx context.Context, userID string) (*Engine, func()) {
	if userID == "" {
		e := New(s.opts)
		e.Initialize(ctx, "")
		return e, func() {}
	}

	s.mu.Lock()
	sess, ok := s.engines[userID]
	if !ok {
		sess = &session{engine: New(s.opts)}
		s.engines[userID] = sess
		s.opts.Metrics.setSessions(len(s.engines))
	}
	sess.inUse++
	sess.lastUsed = s.opts.Clock.Now("sessions", "get")
	s.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			sess.inUse--
			sess.lastUsed = s.opts.Clock.Now("sessions", "release")
		})
	}

	sess.engine.Initialize(ctx, userID)
	return sess.engine, release
}

// Len returns the number of engines held.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.engines)
}

// Prune drops engines that nobody holds and that have not been used for longer
// than maxIdle, and returns how many were dropped.
func (s *Sessions) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Clock.Now("sessions", "prune")
	pruned := 0
	for userID, sess := range s.engines {
		if sess.inUse == 0 && now.Sub(sess.lastUsed) > maxIdle {
			delete(s.engines, userID)
			pruned++
		}
	}
	s.opts.Metrics.setSessions(len(s.engines))
	return pruned
}

// Run prunes idle engines every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval, maxIdle time.Duration) error {
	w := s.opts.Clock.TickerFunc(ctx, interval, func() error {
		if n := s.Prune(maxIdle); n > 0 {
			s.opts.Logger.Debug(ctx, "pruned idle sessions", slog.F("count", n))
		}
		return nil
	}, "sessions", "prune")

	err := w.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
