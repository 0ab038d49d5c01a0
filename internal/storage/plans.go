package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/jackc/pgx/v5"
)

// PlanDay returns one plan day with its exercises and set templates, or nil
// when the day is not defined.
func (db *DB) PlanDay(ctx context.Context, dayNumber int) (*models.PlanDay, error) {
	var day models.PlanDay
	err := db.Pool.QueryRow(ctx,
		`SELECT day_number, name FROM plan_days WHERE day_number = $1`,
		dayNumber).Scan(&day.DayNumber, &day.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan day: %w", err)
	}

	exercises, err := db.planDayExercises(ctx, dayNumber)
	if err != nil {
		return nil, err
	}
	day.Exercises = exercises
	return &day, nil
}

// PlanDays returns the whole weekly plan ordered by day number.
func (db *DB) PlanDays(ctx context.Context) ([]models.PlanDay, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT day_number, name FROM plan_days ORDER BY day_number`)
	if err != nil {
		return nil, fmt.Errorf("querying plan days: %w", err)
	}
	defer rows.Close()

	var days []models.PlanDay
	for rows.Next() {
		var day models.PlanDay
		if err := rows.Scan(&day.DayNumber, &day.Name); err != nil {
			return nil, fmt.Errorf("scanning plan day: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range days {
		exercises, err := db.planDayExercises(ctx, days[i].DayNumber)
		if err != nil {
			return nil, err
		}
		days[i].Exercises = exercises
	}
	return days, nil
}

func (db *DB) planDayExercises(ctx context.Context, dayNumber int) ([]models.PlanDayExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, day_number, exercise_id, tm_exercise_id, tier
		 FROM plan_day_exercises
		 WHERE day_number = $1
		 ORDER BY tier ASC, id ASC`,
		dayNumber)
	if err != nil {
		return nil, fmt.Errorf("querying plan day exercises: %w", err)
	}
	defer rows.Close()

	var result []models.PlanDayExercise
	for rows.Next() {
		var pde models.PlanDayExercise
		if err := rows.Scan(&pde.ID, &pde.DayNumber, &pde.ExerciseID, &pde.TMExerciseID, &pde.Tier); err != nil {
			return nil, fmt.Errorf("scanning plan day exercise: %w", err)
		}
		result = append(result, pde)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		sets, err := db.planSets(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Sets = sets
	}
	return result, nil
}

func (db *DB) planSets(ctx context.Context, planDayExerciseID int) ([]models.PlanSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, set_order, percentage, target_reps, is_amrap, is_progression
		 FROM plan_sets
		 WHERE plan_day_exercise_id = $1
		 ORDER BY set_order ASC`,
		planDayExerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying plan sets: %w", err)
	}
	defer rows.Close()

	var result []models.PlanSet
	for rows.Next() {
		var ps models.PlanSet
		if err := rows.Scan(&ps.ID, &ps.SetOrder, &ps.Percentage, &ps.TargetReps, &ps.IsAmrap, &ps.IsProgression); err != nil {
			return nil, fmt.Errorf("scanning plan set: %w", err)
		}
		result = append(result, ps)
	}
	return result, rows.Err()
}

// UpsertPlanDay inserts or renames a plan day.
func (db *DB) UpsertPlanDay(ctx context.Context, dayNumber int, name string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO plan_days (day_number, name) VALUES ($1, $2)
		ON CONFLICT (day_number) DO UPDATE SET name = EXCLUDED.name
	`, dayNumber, name)
	if err != nil {
		return fmt.Errorf("upserting plan day %d: %w", dayNumber, err)
	}
	return nil
}

// ReplacePlanDayExercises swaps a day's exercise bindings and set templates
// in one transaction. Plan sets cascade with their parent rows.
func (db *DB) ReplacePlanDayExercises(ctx context.Context, dayNumber int, exercises []models.PlanDayExercise) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM plan_day_exercises WHERE day_number = $1`, dayNumber); err != nil {
			return fmt.Errorf("clearing plan day %d: %w", dayNumber, err)
		}

		for _, pde := range exercises {
			var pdeID int
			err := tx.QueryRow(ctx,
				`INSERT INTO plan_day_exercises (day_number, exercise_id, tm_exercise_id, tier)
				 VALUES ($1,$2,$3,$4) RETURNING id`,
				dayNumber, pde.ExerciseID, pde.TMExerciseID, pde.Tier).Scan(&pdeID)
			if err != nil {
				return fmt.Errorf("inserting plan day exercise: %w", err)
			}
			for _, ps := range pde.Sets {
				_, err := tx.Exec(ctx,
					`INSERT INTO plan_sets (plan_day_exercise_id, set_order, percentage, target_reps, is_amrap, is_progression)
					 VALUES ($1,$2,$3,$4,$5,$6)`,
					pdeID, ps.SetOrder, ps.Percentage, ps.TargetReps, ps.IsAmrap, ps.IsProgression)
				if err != nil {
					return fmt.Errorf("inserting plan set: %w", err)
				}
			}
		}
		return nil
	})
}
