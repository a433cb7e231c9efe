package db

import (
	"errors"

	"github.com/lib/pq"
	"golang.org/x/xerrors"
)

var (
	// ErrNotFound is returned when no streak row matches the user.
	ErrNotFound = xerrors.New("streak not found")
	// ErrAlreadyExists is returned when inserting a streak for a user that
	// already has one.
	ErrAlreadyExists = xerrors.New("streak already exists")
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}
