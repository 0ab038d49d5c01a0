package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutStatus is the lifecycle state of a workout session.
type WorkoutStatus string

const (
	StatusInProgress WorkoutStatus = "in_progress"
	StatusCompleted  WorkoutStatus = "completed"
	StatusDiscarded  WorkoutStatus = "discarded"
)

// Terminal reports whether the status permits no further transitions.
func (s WorkoutStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusDiscarded
}

// Workout is one training session. At most one workout per user may be
// in_progress at any time; completed and discarded are terminal.
type Workout struct {
	ID          uuid.UUID     `json:"id"`
	UserID      int           `json:"user_id"`
	DayNumber   int           `json:"day_number"`
	Status      WorkoutStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// WorkoutSet is one prescribed set within a workout. The prescription
// (weight, reps, flags) is frozen at workout creation; only ActualReps and
// Completed change afterwards, and only while the workout is in_progress.
type WorkoutSet struct {
	ID                 uuid.UUID `json:"id"`
	WorkoutID          uuid.UUID `json:"workout_id"`
	ExerciseID         int       `json:"exercise_id"`
	ExerciseName       string    `json:"exercise_name"`
	Tier               int       `json:"tier"`
	SetOrder           int       `json:"set_order"`
	PrescribedWeightKg float64   `json:"prescribed_weight_kg"`
	PrescribedReps     int       `json:"prescribed_reps"`
	IsAmrap            bool      `json:"is_amrap"`
	IsProgression      bool      `json:"is_progression"`
	ActualReps         *int      `json:"actual_reps"`
	Completed          bool      `json:"completed"`
}

// Pending reports whether the set still has no recorded performance.
// Pending progression sets are skipped by the rule engine.
func (s WorkoutSet) Pending() bool {
	return s.ActualReps == nil
}
