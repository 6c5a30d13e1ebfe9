package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate signals a unique constraint violation.
var ErrDuplicate = errors.New("repository: duplicate record")

// ErrStaleState is returned when a guarded update matched no row because the
// record left the expected state.
var ErrStaleState = errors.New("repository: record is not in the expected state")

// ErrCapacity signals that a bounded collection is already full.
var ErrCapacity = errors.New("repository: capacity reached")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Draft pick outcomes decided under the draft row lock.
var (
	ErrNotYourTurn    = errors.New("repository: team is not on the clock")
	ErrDraftComplete  = errors.New("repository: draft is complete")
	ErrAlreadyDrafted = errors.New("repository: contestant unavailable to team")
)
