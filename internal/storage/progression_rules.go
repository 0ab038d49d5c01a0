package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProgressionRules returns the rule table in definition order.
func (db *DB) ProgressionRules(ctx context.Context) ([]models.ProgressionRule, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercise_id, category, min_reps, max_reps, increase_kg, position
		 FROM progression_rules
		 ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying progression rules: %w", err)
	}
	defer rows.Close()

	var result []models.ProgressionRule
	for rows.Next() {
		var r models.ProgressionRule
		if err := rows.Scan(&r.ID, &r.ExerciseID, &r.Category, &r.MinReps, &r.MaxReps, &r.IncreaseKg, &r.Position); err != nil {
			return nil, fmt.Errorf("scanning progression rule: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// ReplaceProgressionRules swaps the whole rule table in one transaction.
// Rules are configuration: the importer owns them, the engine only reads.
func (db *DB) ReplaceProgressionRules(ctx context.Context, rules []models.ProgressionRule) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM progression_rules`); err != nil {
			return fmt.Errorf("clearing progression rules: %w", err)
		}

		for _, r := range rules {
			_, err := tx.Exec(ctx,
				`INSERT INTO progression_rules (exercise_id, category, min_reps, max_reps, increase_kg, position)
				 VALUES ($1,$2,$3,$4,$5,$6)`,
				r.ExerciseID, r.Category, r.MinReps, r.MaxReps, r.IncreaseKg, r.Position)
			if err != nil {
				return fmt.Errorf("inserting progression rule: %w", err)
			}
		}
		return nil
	})
}

// StoredProgressionResults replays the results recorded when a workout was
// completed, so retried Complete calls return identical payloads.
func (db *DB) StoredProgressionResults(ctx context.Context, workoutID uuid.UUID) ([]models.ProgressionResult, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, exercise_name, previous_tm_kg, new_tm_kg, increase_kg
		 FROM workout_progressions
		 WHERE workout_id = $1
		 ORDER BY id ASC`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying stored progressions: %w", err)
	}
	defer rows.Close()

	var result []models.ProgressionResult
	for rows.Next() {
		var r models.ProgressionResult
		if err := rows.Scan(&r.ExerciseID, &r.ExerciseName, &r.PreviousTMKg, &r.NewTMKg, &r.IncreaseKg); err != nil {
			return nil, fmt.Errorf("scanning stored progression: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
