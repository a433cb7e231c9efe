package models

import "time"

// Streak is the daily activity streak of a single user. There is exactly one
// per user; it is created with zeroed counters the first time the user is seen.
type Streak struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	CurrentStreak    int        `json:"currentStreak"`
	MaxStreak        int        `json:"maxStreak"`
	LastActivityDate *time.Time `json:"lastActivityDate"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// StreakUpdate holds the fields written when activity is recorded.
type StreakUpdate struct {
	CurrentStreak    int       `json:"currentStreak"`
	MaxStreak        int       `json:"maxStreak"`
	LastActivityDate time.Time `json:"lastActivityDate"`
}
