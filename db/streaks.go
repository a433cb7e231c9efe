package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cdr.dev/slog"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/xerrors"

	"github.com/writewithwrabit/streaks/models"
)

const streakColumns = "id, user_id, current_streak, max_streak, last_activity_date, created_at, updated_at"

// Streaks reads and writes the user_streaks table.
type Streaks struct {
	db     Querier
	logger slog.Logger
}

func NewStreaks(db Querier, logger slog.Logger) *Streaks {
	return &Streaks{db: db, logger: logger}
}

func (s *Streaks) GetStreakByUserID(ctx context.Context, userID string) (models.Streak, error) {
	row := LogAndQueryRow(ctx, s.logger, s.db, "SELECT "+streakColumns+" FROM user_streaks WHERE user_id = $1", userID)

	streak, err := scanStreak(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Streak{}, ErrNotFound
	}
	if err != nil {
		return models.Streak{}, xerrors.Errorf("get streak for user %q: %w", userID, err)
	}
	return streak, nil
}

// InsertStreak creates the row for streak.UserID. An ID is generated when
// the streak does not carry one.
func (s *Streaks) InsertStreak(ctx context.Context, streak models.Streak) error {
	if streak.ID == "" {
		streak.ID = uuid.NewString()
	}

	_, err := LogAndExec(ctx, s.logger, s.db,
		"INSERT INTO user_streaks (id, user_id, current_streak, max_streak, last_activity_date) VALUES ($1, $2, $3, $4, $5)",
		streak.ID, streak.UserID, streak.CurrentStreak, streak.MaxStreak, nullTime(streak.LastActivityDate))
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return xerrors.Errorf("insert streak for user %q: %w", streak.UserID, err)
	}
	return nil
}

// UpdateStreakByUserID writes the update and returns the row as stored.
func (s *Streaks) UpdateStreakByUserID(ctx context.Context, userID string, update models.StreakUpdate) (models.Streak, error) {
	row := LogAndQueryRow(ctx, s.logger, s.db,
		"UPDATE user_streaks SET current_streak = $1, max_streak = $2, last_activity_date = $3, updated_at = now() WHERE user_id = $4 RETURNING "+streakColumns,
		update.CurrentStreak, update.MaxStreak, update.LastActivityDate, userID)

	streak, err := scanStreak(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Streak{}, ErrNotFound
	}
	if err != nil {
		return models.Streak{}, xerrors.Errorf("update streak for user %q: %w", userID, err)
	}
	return streak, nil
}

func scanStreak(row *sql.Row) (models.Streak, error) {
	var (
		streak models.Streak
		last   pq.NullTime
	)
	err := row.Scan(&streak.ID, &streak.UserID, &streak.CurrentStreak, &streak.MaxStreak, &last, &streak.CreatedAt, &streak.UpdatedAt)
	if err != nil {
		return models.Streak{}, err
	}
	if last.Valid {
		t := last.Time
		streak.LastActivityDate = &t
	}
	return streak, nil
}

func nullTime(t *time.Time) pq.NullTime {
	if t == nil {
		return pq.NullTime{}
	}
	return pq.NullTime{Time: *t, Valid: true}
}
