// Package mcp exposes the training data over the Model Context Protocol.
// All tools and resources are read-only: session mutations go through the
// REST API where the state machine is enforced.
package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	CurrentWorkout(ctx context.Context, userID int) (*models.Workout, error)
	GetWorkoutSets(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutSet, error)
	ListWorkouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error)
	CurrentTrainingMaxes(ctx context.Context, userID int) (map[int]float64, error)
	TrainingMaxHistory(ctx context.Context, userID, exerciseID int) ([]models.TrainingMax, error)
	ProgressionRules(ctx context.Context) ([]models.ProgressionRule, error)
	PlanDays(ctx context.Context) ([]models.PlanDay, error)
	Exercises(ctx context.Context) (map[int]models.Exercise, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
