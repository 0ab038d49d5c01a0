package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	ExercisesUpserted int
	DaysUpserted      int
	RulesReplaced     int
	MaxesInserted     int
	MaxesSkipped      int
}

// Importer loads a plan file into the database.
type Importer struct {
	db     *storage.DB
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer. In dry-run mode the plan is parsed and
// validated but nothing is written.
func New(db *storage.DB, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{db: db, log: log, dryRun: dryRun}
}

// Import reads, validates, and applies the plan file at path. Re-running
// against the same file is idempotent: exercises and days are upserted,
// rules are replaced wholesale, and a training max is only inserted for
// exercises that have none yet.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &imp.stats, fmt.Errorf("reading plan file: %w", err)
	}
	plan, err := ParsePlan(data)
	if err != nil {
		return &imp.stats, err
	}

	if imp.dryRun {
		imp.log.Info("dry run: plan is valid",
			"exercises", len(plan.Exercises),
			"days", len(plan.Days),
			"rules", len(plan.Rules),
			"training_maxes", len(plan.Maxes),
		)
		return &imp.stats, nil
	}

	userID, err := imp.db.GetOrCreateUser(ctx, plan.User.Login, plan.User.DisplayName)
	if err != nil {
		return &imp.stats, fmt.Errorf("resolving user %q: %w", plan.User.Login, err)
	}

	ids, err := imp.applyExercises(ctx, plan.Exercises)
	if err != nil {
		return &imp.stats, err
	}
	if err := imp.applyDays(ctx, plan.Days, ids); err != nil {
		return &imp.stats, err
	}
	if err := imp.applyRules(ctx, plan, ids); err != nil {
		return &imp.stats, err
	}
	if err := imp.applyMaxes(ctx, plan.Maxes, ids, userID); err != nil {
		return &imp.stats, err
	}

	return &imp.stats, nil
}

func (imp *Importer) applyExercises(ctx context.Context, defs []ExerciseDef) (map[string]int, error) {
	ids := make(map[string]int, len(defs))
	for _, e := range defs {
		id, err := imp.db.UpsertExercise(ctx, models.Exercise{
			Slug:        e.Slug,
			Name:        e.Name,
			Category:    models.ExerciseCategory(e.Category),
			Region:      models.BodyRegion(e.Region),
			MuscleGroup: e.MuscleGroup,
		})
		if err != nil {
			return nil, fmt.Errorf("upserting exercise %q: %w", e.Slug, err)
		}
		ids[e.Slug] = id
		imp.stats.ExercisesUpserted++
	}
	return ids, nil
}

func (imp *Importer) applyDays(ctx context.Context, days []DayDef, ids map[string]int) error {
	for _, d := range days {
		if err := imp.db.UpsertPlanDay(ctx, d.Day, d.Name); err != nil {
			return fmt.Errorf("upserting day %d: %w", d.Day, err)
		}

		exercises := make([]models.PlanDayExercise, 0, len(d.Exercises))
		for _, de := range d.Exercises {
			tmSlug := de.TMExercise
			if tmSlug == "" {
				tmSlug = de.Exercise
			}
			pde := models.PlanDayExercise{
				DayNumber:    d.Day,
				ExerciseID:   ids[de.Exercise],
				TMExerciseID: ids[tmSlug],
				Tier:         de.Tier,
			}
			for i, s := range de.Sets {
				pde.Sets = append(pde.Sets, models.PlanSet{
					SetOrder:      i + 1,
					Percentage:    s.Percentage,
					TargetReps:    s.Reps,
					IsAmrap:       s.Amrap,
					IsProgression: s.Progression,
				})
			}
			exercises = append(exercises, pde)
		}

		if err := imp.db.ReplacePlanDayExercises(ctx, d.Day, exercises); err != nil {
			return fmt.Errorf("replacing day %d exercises: %w", d.Day, err)
		}
		imp.stats.DaysUpserted++
	}
	return nil
}

func (imp *Importer) applyRules(ctx context.Context, plan *PlanFile, ids map[string]int) error {
	rules, err := plan.ruleModels(ids)
	if err != nil {
		return err
	}
	if err := imp.db.ReplaceProgressionRules(ctx, rules); err != nil {
		return fmt.Errorf("replacing progression rules: %w", err)
	}
	imp.stats.RulesReplaced = len(rules)
	return nil
}

// applyMaxes seeds starting TMs. An exercise that already has TM history
// is left alone so re-importing a plan never rewinds progression.
func (imp *Importer) applyMaxes(ctx context.Context, maxes []MaxDef, ids map[string]int, userID int) error {
	for _, m := range maxes {
		exerciseID := ids[m.Exercise]
		has, err := imp.db.HasTrainingMax(ctx, userID, exerciseID)
		if err != nil {
			return fmt.Errorf("checking training max for %q: %w", m.Exercise, err)
		}
		if has {
			imp.stats.MaxesSkipped++
			imp.log.Info("keeping existing training max", "exercise", m.Exercise)
			continue
		}

		weightKg, err := m.WeightKg()
		if err != nil {
			return err
		}
		if err := imp.db.InsertTrainingMax(ctx, userID, exerciseID, weightKg, time.Now()); err != nil {
			return fmt.Errorf("inserting training max for %q: %w", m.Exercise, err)
		}
		imp.stats.MaxesInserted++
	}
	return nil
}
