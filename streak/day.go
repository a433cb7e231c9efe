package streak

import (
	"time"

	"github.com/writewithwrabit/streaks/models"
)

// Outcome describes what recording activity did to a streak.
type Outcome string

const (
	// OutcomeUnchanged means activity was already recorded on the same day.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeContinued means the previous activity was yesterday.
	OutcomeContinued Outcome = "continued"
	// OutcomeReset means a day or more was skipped, or there was no
	// previous activity.
	OutcomeReset Outcome = "reset"
)

// Advance is the result of applying one day of activity to a streak.
type Advance struct {
	Streak  int
	Max     int
	Outcome Outcome
}

// CalendarDay returns midnight of the day t falls on in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Next applies activity at now to streak. Days are compared in loc.
// There is no grace day: a gap of two or more days always resets to 1.
func Next(streak models.Streak, now time.Time, loc *time.Location) Advance {
	today := CalendarDay(now, loc)

	if streak.LastActivityDate != nil {
		lastDay := CalendarDay(*streak.LastActivityDate, loc)
		if lastDay.Equal(today) {
			return Advance{Streak: streak.CurrentStreak, Max: streak.MaxStreak, Outcome: OutcomeUnchanged}
		}
		if lastDay.Equal(today.AddDate(0, 0, -1)) {
			next := streak.CurrentStreak + 1
			return Advance{Streak: next, Max: max(next, streak.MaxStreak), Outcome: OutcomeContinued}
		}
	}

	return Advance{Streak: 1, Max: max(1, streak.MaxStreak), Outcome: OutcomeReset}
}
