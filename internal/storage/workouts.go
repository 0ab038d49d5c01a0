package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Compile-time check: *DB satisfies the session manager's store contract.
var _ session.Store = (*DB)(nil)

const workoutColumns = `id, user_id, day_number, status, created_at, completed_at`

// CurrentWorkout returns the user's in_progress workout, or nil.
func (db *DB) CurrentWorkout(ctx context.Context, userID int) (*models.Workout, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $1 AND status = 'in_progress'`,
		userID)
	w, err := scanWorkout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying current workout: %w", err)
	}
	return w, nil
}

// GetWorkout returns one workout by id, or nil when it does not exist.
func (db *DB) GetWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id)
	w, err := scanWorkout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	return w, nil
}

// CreateWorkout inserts a workout and its set snapshot in one transaction.
// The partial unique index on (user_id) WHERE status='in_progress' makes
// two racing starts impossible; the loser gets session.ErrWorkoutExists.
func (db *DB) CreateWorkout(ctx context.Context, w models.Workout, sets []models.WorkoutSet) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO workouts (id, user_id, day_number, status, created_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			w.ID, w.UserID, w.DayNumber, w.Status, w.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return session.ErrWorkoutExists
			}
			return fmt.Errorf("inserting workout: %w", err)
		}

		if len(sets) == 0 {
			return nil
		}

		query := `INSERT INTO workout_sets (id, workout_id, exercise_id, exercise_name, tier,
			set_order, prescribed_weight_kg, prescribed_reps, is_amrap, is_progression) VALUES `
		args := make([]any, 0, len(sets)*10)
		valueStrings := make([]string, 0, len(sets))

		for i, s := range sets {
			base := i * 10
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
			))
			args = append(args, s.ID, s.WorkoutID, s.ExerciseID, s.ExerciseName, s.Tier,
				s.SetOrder, s.PrescribedWeightKg, s.PrescribedReps, s.IsAmrap, s.IsProgression)
		}

		if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
			return fmt.Errorf("inserting workout sets: %w", err)
		}
		return nil
	})
}

// CompleteWorkout finalizes a workout in one transaction: the status flips
// only if still in_progress, new TM rows are appended, and the progression
// results are stored so retried completions can replay them.
func (db *DB) CompleteWorkout(ctx context.Context, workoutID uuid.UUID, completedAt time.Time, maxes []models.TrainingMax, results []models.ProgressionResult) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE workouts SET status = 'completed', completed_at = $2
			 WHERE id = $1 AND status = 'in_progress'`,
			workoutID, completedAt)
		if err != nil {
			return fmt.Errorf("updating workout status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return session.ErrInvalidState
		}

		for _, tm := range maxes {
			_, err := tx.Exec(ctx,
				`INSERT INTO training_maxes (user_id, exercise_id, weight_kg, effective_date)
				 VALUES ($1,$2,$3,$4)`,
				tm.UserID, tm.ExerciseID, tm.WeightKg, tm.EffectiveDate)
			if err != nil {
				return fmt.Errorf("inserting training max: %w", err)
			}
		}

		for _, r := range results {
			_, err := tx.Exec(ctx,
				`INSERT INTO workout_progressions (workout_id, exercise_id, exercise_name, previous_tm_kg, new_tm_kg, increase_kg)
				 VALUES ($1,$2,$3,$4,$5,$6)`,
				workoutID, r.ExerciseID, r.ExerciseName, r.PreviousTMKg, r.NewTMKg, r.IncreaseKg)
			if err != nil {
				return fmt.Errorf("inserting progression result: %w", err)
			}
		}
		return nil
	})
}

// DiscardWorkout transitions an in_progress workout to discarded. A workout
// in any other state yields session.ErrInvalidState.
func (db *DB) DiscardWorkout(ctx context.Context, workoutID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE workouts SET status = 'discarded'
		 WHERE id = $1 AND status = 'in_progress'`,
		workoutID)
	if err != nil {
		return fmt.Errorf("discarding workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrInvalidState
	}
	return nil
}

// ListWorkouts returns a user's workout history in a time range, newest first.
func (db *DB) ListWorkouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at DESC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

func scanWorkout(row pgx.Row) (*models.Workout, error) {
	var w models.Workout
	if err := row.Scan(&w.ID, &w.UserID, &w.DayNumber, &w.Status, &w.CreatedAt, &w.CompletedAt); err != nil {
		return nil, err
	}
	return &w, nil
}
