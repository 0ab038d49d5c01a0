package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// CurrentTrainingMaxes returns each exercise's current TM for a user: the
// latest row by effective date, with the insert id breaking same-instant ties.
func (db *DB) CurrentTrainingMaxes(ctx context.Context, userID int) (map[int]float64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ON (exercise_id) exercise_id, weight_kg
		 FROM training_maxes
		 WHERE user_id = $1
		 ORDER BY exercise_id, effective_date DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying current training maxes: %w", err)
	}
	defer rows.Close()

	result := make(map[int]float64)
	for rows.Next() {
		var exerciseID int
		var weightKg float64
		if err := rows.Scan(&exerciseID, &weightKg); err != nil {
			return nil, fmt.Errorf("scanning training max: %w", err)
		}
		result[exerciseID] = weightKg
	}
	return result, rows.Err()
}

// TrainingMaxHistory returns the append-only TM history for one exercise,
// oldest first.
func (db *DB) TrainingMaxHistory(ctx context.Context, userID, exerciseID int) ([]models.TrainingMax, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, exercise_id, weight_kg, effective_date
		 FROM training_maxes
		 WHERE user_id = $1 AND exercise_id = $2
		 ORDER BY effective_date ASC, id ASC`,
		userID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying training max history: %w", err)
	}
	defer rows.Close()

	var result []models.TrainingMax
	for rows.Next() {
		var tm models.TrainingMax
		if err := rows.Scan(&tm.ID, &tm.UserID, &tm.ExerciseID, &tm.WeightKg, &tm.EffectiveDate); err != nil {
			return nil, fmt.Errorf("scanning training max: %w", err)
		}
		result = append(result, tm)
	}
	return result, rows.Err()
}

// InsertTrainingMax appends one TM row. Used at setup time and for manual
// edits; progression inserts go through CompleteWorkout's transaction.
func (db *DB) InsertTrainingMax(ctx context.Context, userID, exerciseID int, weightKg float64, effective time.Time) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO training_maxes (user_id, exercise_id, weight_kg, effective_date)
		 VALUES ($1,$2,$3,$4)`,
		userID, exerciseID, weightKg, effective)
	if err != nil {
		return fmt.Errorf("inserting training max: %w", err)
	}
	return nil
}

// HasTrainingMax reports whether any TM row exists for the user and exercise.
// The importer uses it to seed starting TMs without clobbering history.
func (db *DB) HasTrainingMax(ctx context.Context, userID, exerciseID int) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM training_maxes WHERE user_id = $1 AND exercise_id = $2)`,
		userID, exerciseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking training max: %w", err)
	}
	return exists, nil
}
