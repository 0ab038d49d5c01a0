package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workoutSetColumns = `id, workout_id, exercise_id, exercise_name, tier, set_order,
	prescribed_weight_kg, prescribed_reps, is_amrap, is_progression, actual_reps, completed`

// GetWorkoutSets returns all sets of a workout in prescription order.
func (db *DB) GetWorkoutSets(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutSetColumns+` FROM workout_sets
		 WHERE workout_id = $1
		 ORDER BY tier ASC, set_order ASC`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutSet
	for rows.Next() {
		s, err := scanWorkoutSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// GetWorkoutSet returns one set scoped to its workout, or nil.
func (db *DB) GetWorkoutSet(ctx context.Context, workoutID, setID uuid.UUID) (*models.WorkoutSet, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutSetColumns+` FROM workout_sets
		 WHERE id = $1 AND workout_id = $2`,
		setID, workoutID)
	s, err := scanWorkoutSet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout set: %w", err)
	}
	return s, nil
}

// UpdateWorkoutSet overwrites the performed state of a set. The prescription
// columns are never touched after creation; writes are last-write-wins.
func (db *DB) UpdateWorkoutSet(ctx context.Context, set models.WorkoutSet) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_sets SET actual_reps = $3, completed = $4
		 WHERE id = $1 AND workout_id = $2`,
		set.ID, set.WorkoutID, set.ActualReps, set.Completed)
	if err != nil {
		return fmt.Errorf("updating workout set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout set %s not found", set.ID)
	}
	return nil
}

func scanWorkoutSet(row pgx.Row) (*models.WorkoutSet, error) {
	var s models.WorkoutSet
	if err := row.Scan(&s.ID, &s.WorkoutID, &s.ExerciseID, &s.ExerciseName, &s.Tier, &s.SetOrder,
		&s.PrescribedWeightKg, &s.PrescribedReps, &s.IsAmrap, &s.IsProgression, &s.ActualReps, &s.Completed); err != nil {
		return nil, err
	}
	return &s, nil
}
