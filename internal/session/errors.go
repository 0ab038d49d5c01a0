package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidState is returned when an operation targets a workout that is
// terminal or does not exist. It is safe to surface to the user and must
// not be retried automatically.
var ErrInvalidState = errors.New("workout is no longer available")

// ErrWorkoutExists is returned by a Store when inserting a second
// in_progress workout for a user. The manager converts it into a
// ConflictError or an idempotent resume; callers never see it.
var ErrWorkoutExists = errors.New("user already has a workout in progress")

// ErrUnknownDay is returned by Start for a day number the plan does not define.
var ErrUnknownDay = errors.New("no such plan day")

// ErrNoTrainingMax is returned by Start when a plan exercise has no current
// TM to prescribe weights from.
var ErrNoTrainingMax = errors.New("no training max recorded for exercise")

// ErrValidation wraps malformed input (negative reps, missing AMRAP reps).
var ErrValidation = errors.New("invalid input")

// ConflictError signals that Start collided with an in-progress workout for
// a different day. It is a structured response, not a fatal error: the
// client resolves it by resuming the existing workout or cancelling it and
// retrying Start.
type ConflictError struct {
	WorkoutID uuid.UUID `json:"workoutId"`
	DayNumber int       `json:"dayNumber"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("workout %s for day %d is already in progress", e.WorkoutID, e.DayNumber)
}
