package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

// Exercises returns the full catalog keyed by id.
func (db *DB) Exercises(ctx context.Context) (map[int]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, slug, name, category, region, muscle_group FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	result := make(map[int]models.Exercise)
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.Slug, &e.Name, &e.Category, &e.Region, &e.MuscleGroup); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result[e.ID] = e
	}
	return result, rows.Err()
}

// UpsertExercise inserts a catalog entry or refreshes its display fields,
// keyed by slug. Returns the exercise id.
func (db *DB) UpsertExercise(ctx context.Context, e models.Exercise) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO exercises (slug, name, category, region, muscle_group)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE
			SET name = EXCLUDED.name, category = EXCLUDED.category,
			    region = EXCLUDED.region, muscle_group = EXCLUDED.muscle_group
		RETURNING id
	`, e.Slug, e.Name, e.Category, e.Region, e.MuscleGroup).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting exercise %q: %w", e.Slug, err)
	}
	return id, nil
}
