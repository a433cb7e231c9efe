package streak

import "github.com/writewithwrabit/streaks/models"

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Snapshot is a copy of the engine state that is safe to hand to callers.
type Snapshot struct {
	Record *models.Streak
	Status Status
	// Error is set when Status is StatusError.
	Error string
}
