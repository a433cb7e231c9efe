package db

import (
	"context"
	"sync"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/writewithwrabit/streaks/models"
)

// Memory is an in-memory replacement for Streaks, used for local development
// and tests. It enforces the same one-row-per-user rule as the table.
type Memory struct {
	mu      sync.Mutex
	clock   quartz.Clock
	streaks map[string]models.Streak
}

func NewMemory(clock quartz.Clock) *Memory {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Memory{
		clock:   clock,
		streaks: make(map[string]models.Streak),
	}
}

func (m *Memory) GetStreakByUserID(_ context.Context, userID string) (models.Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	streak, ok := m.streaks[userID]
	if !ok {
		return models.Streak{}, ErrNotFound
	}
	return copyStreak(streak), nil
}

func (m *Memory) InsertStreak(_ context.Context, streak models.Streak) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.streaks[streak.UserID]; ok {
		return ErrAlreadyExists
	}
	if streak.ID == "" {
		streak.ID = uuid.NewString()
	}
	now := m.clock.Now("memory", "insert")
	streak.CreatedAt = now
	streak.UpdatedAt = now
	m.streaks[streak.UserID] = copyStreak(streak)
	return nil
}

func (m *Memory) UpdateStreakByUserID(_ context.Context, userID string, update models.StreakUpdate) (models.Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	streak, ok := m.streaks[userID]
	if !ok {
		return models.Streak{}, ErrNotFound
	}
	last := update.LastActivityDate
	streak.CurrentStreak = update.CurrentStreak
	streak.MaxStreak = update.MaxStreak
	streak.LastActivityDate = &last
	streak.UpdatedAt = m.clock.Now("memory", "update")
	m.streaks[userID] = streak
	return copyStreak(streak), nil
}

// copyStreak detaches the LastActivityDate pointer from the stored row.
func copyStreak(s models.Streak) models.Streak {
	if s.LastActivityDate != nil {
		t := *s.LastActivityDate
		s.LastActivityDate = &t
	}
	return s
}
