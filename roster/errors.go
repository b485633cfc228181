package roster

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by store lookups when the requested row does not
// exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateRating is returned when a rating already exists for the same
// player, team, and rating date. Ratings are one-per-day; the caller updates
// the existing row instead.
var ErrDuplicateRating = errors.New("rating already exists for this date")

// ValidationError reports a field that failed domain validation before it
// reached a store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
