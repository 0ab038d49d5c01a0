package models

import "time"

// TrainingMax is one append-only row of a user's TM history for an exercise.
// The current TM is the row with the latest effective date; rows are never
// mutated in place.
type TrainingMax struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	ExerciseID    int       `json:"exercise_id"`
	WeightKg      float64   `json:"weight_kg"`
	EffectiveDate time.Time `json:"effective_date"`
}

// ProgressionRule maps an AMRAP rep band to a TM increase. Scope is either
// a specific exercise or a body-region category, never both. Position is
// the definition order, which breaks ties deterministically.
type ProgressionRule struct {
	ID         int         `json:"id"`
	ExerciseID *int        `json:"exercise_id,omitempty"`
	Category   *BodyRegion `json:"category,omitempty"`
	MinReps    int         `json:"min_reps"`
	MaxReps    int         `json:"max_reps"`
	IncreaseKg float64     `json:"increase_kg"`
	Position   int         `json:"position"`
}

// ProgressionResult records one TM change produced by completing a workout.
type ProgressionResult struct {
	ExerciseID   int     `json:"exercise_id"`
	ExerciseName string  `json:"exercise_name"`
	PreviousTMKg float64 `json:"previous_tm_kg"`
	NewTMKg      float64 `json:"new_tm_kg"`
	IncreaseKg   float64 `json:"increase_kg"`
}
