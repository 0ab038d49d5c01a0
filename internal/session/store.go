package session

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// Store is the persistence surface the session manager drives. *storage.DB
// implements it against Postgres; tests use an in-memory fake.
//
// Lookup methods return (nil, nil) when the row does not exist. CreateWorkout
// must fail with ErrWorkoutExists when the user already has an in_progress
// workout, enforced by the database so two racing Start calls cannot both
// succeed. CompleteWorkout and DiscardWorkout are conditional on the workout
// still being in_progress and must return ErrInvalidState otherwise;
// CompleteWorkout applies the status change, TM inserts, and stored results
// in one transaction.
type Store interface {
	CurrentWorkout(ctx context.Context, userID int) (*models.Workout, error)
	GetWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error)
	GetWorkoutSets(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutSet, error)
	GetWorkoutSet(ctx context.Context, workoutID, setID uuid.UUID) (*models.WorkoutSet, error)
	CreateWorkout(ctx context.Context, w models.Workout, sets []models.WorkoutSet) error
	UpdateWorkoutSet(ctx context.Context, set models.WorkoutSet) error
	CompleteWorkout(ctx context.Context, workoutID uuid.UUID, completedAt time.Time, maxes []models.TrainingMax, results []models.ProgressionResult) error
	DiscardWorkout(ctx context.Context, workoutID uuid.UUID) error
	StoredProgressionResults(ctx context.Context, workoutID uuid.UUID) ([]models.ProgressionResult, error)

	PlanDay(ctx context.Context, dayNumber int) (*models.PlanDay, error)
	Exercises(ctx context.Context) (map[int]models.Exercise, error)
	CurrentTrainingMaxes(ctx context.Context, userID int) (map[int]float64, error)
	ProgressionRules(ctx context.Context) ([]models.ProgressionRule, error)
}
