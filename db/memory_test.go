package db

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/writewithwrabit/streaks/models"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mem := NewMemory(clock)

	_, err := mem.GetStreakByUserID(ctx, "abcdefg")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = mem.UpdateStreakByUserID(ctx, "abcdefg", models.StreakUpdate{CurrentStreak: 1, MaxStreak: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mem.InsertStreak(ctx, models.Streak{UserID: "abcdefg"}))
	assert.ErrorIs(t, mem.InsertStreak(ctx, models.Streak{UserID: "abcdefg"}), ErrAlreadyExists)

	streak, err := mem.GetStreakByUserID(ctx, "abcdefg")
	require.NoError(t, err)
	assert.NotEmpty(t, streak.ID)
	assert.Zero(t, streak.CurrentStreak)
	assert.Nil(t, streak.LastActivityDate)

	last := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	updated, err := mem.UpdateStreakByUserID(ctx, "abcdefg", models.StreakUpdate{CurrentStreak: 1, MaxStreak: 1, LastActivityDate: last})
	require.NoError(t, err)
	assert.Equal(t, streak.ID, updated.ID)
	assert.Equal(t, 1, updated.CurrentStreak)
	require.NotNil(t, updated.LastActivityDate)

	// Mutating a returned row must not leak into the store.
	*updated.LastActivityDate = last.AddDate(0, 0, 5)
	again, err := mem.GetStreakByUserID(ctx, "abcdefg")
	require.NoError(t, err)
	assert.True(t, last.Equal(*again.LastActivityDate))
}
