// Package session owns the workout lifecycle state machine: start/resume,
// set recording, completion with TM progression, and cancellation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progression"
	"github.com/claude/liftlog/internal/units"
	"github.com/google/uuid"
)

// Detail is a workout together with its sets, the shape every read and
// mutation returns to the client.
type Detail struct {
	Workout models.Workout      `json:"workout"`
	Sets    []models.WorkoutSet `json:"sets"`
}

// Completion is the result of finalizing a workout.
type Completion struct {
	Workout      models.Workout             `json:"workout"`
	Progressions []models.ProgressionResult `json:"progressions"`
	Skipped      []progression.SkippedSet   `json:"skipped,omitempty"`
}

// SetPatch is a partial update to one set. Nil fields are left untouched;
// writes are last-write-wins overwrites, never appends.
type SetPatch struct {
	ActualReps *int  `json:"actualReps,omitempty"`
	Completed  *bool `json:"completed,omitempty"`
}

// Manager enforces the workout state machine over a Store.
type Manager struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// New creates a Manager.
func New(store Store, log *slog.Logger) *Manager {
	return &Manager{store: store, log: log, now: time.Now}
}

// Start begins a workout for the given plan day, or resumes the existing
// in-progress one when it is for the same day. A different in-progress day
// yields a *ConflictError and creates no row; the client resolves it by
// resuming or by Cancel followed by a fresh Start.
func (m *Manager) Start(ctx context.Context, userID, dayNumber int) (*Detail, error) {
	cur, err := m.store.CurrentWorkout(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("checking current workout: %w", err)
	}
	if cur != nil {
		return m.resumeOrConflict(ctx, cur, dayNumber)
	}

	detail, err := m.buildWorkout(ctx, userID, dayNumber)
	if err != nil {
		return nil, err
	}

	if err := m.store.CreateWorkout(ctx, detail.Workout, detail.Sets); err != nil {
		if errors.Is(err, ErrWorkoutExists) {
			// Lost a race with a concurrent Start. The winner's row is the
			// session now; report it the same way the fast path would have.
			cur, err := m.store.CurrentWorkout(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("re-reading current workout: %w", err)
			}
			if cur == nil {
				return nil, ErrInvalidState
			}
			return m.resumeOrConflict(ctx, cur, dayNumber)
		}
		return nil, fmt.Errorf("creating workout: %w", err)
	}

	m.log.Info("workout started", "workout_id", detail.Workout.ID, "user_id", userID, "day", dayNumber)
	return detail, nil
}

// Current returns the user's in-progress workout with sets, or nil.
func (m *Manager) Current(ctx context.Context, userID int) (*Detail, error) {
	cur, err := m.store.CurrentWorkout(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("checking current workout: %w", err)
	}
	if cur == nil {
		return nil, nil
	}
	return m.detail(ctx, *cur)
}

// RecordSet applies a partial update to one set of an in-progress workout.
//
// Confirming a fixed-rep set fills actualReps with the prescription and
// marks it completed in one write. An AMRAP set accepts any non-negative
// rep count, zero included, and is completed once a value is recorded.
func (m *Manager) RecordSet(ctx context.Context, workoutID, setID uuid.UUID, patch SetPatch) (*models.WorkoutSet, error) {
	w, err := m.store.GetWorkout(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("loading workout: %w", err)
	}
	if w == nil || w.Status != models.StatusInProgress {
		return nil, ErrInvalidState
	}

	set, err := m.store.GetWorkoutSet(ctx, workoutID, setID)
	if err != nil {
		return nil, fmt.Errorf("loading set: %w", err)
	}
	if set == nil {
		return nil, ErrInvalidState
	}

	if patch.ActualReps != nil && *patch.ActualReps < 0 {
		return nil, fmt.Errorf("%w: reps must be non-negative", ErrValidation)
	}

	if set.IsAmrap {
		if patch.ActualReps == nil && set.ActualReps == nil {
			return nil, fmt.Errorf("%w: an AMRAP set needs a rep count", ErrValidation)
		}
		if patch.ActualReps != nil {
			set.ActualReps = patch.ActualReps
		}
		set.Completed = true
	} else {
		switch {
		case patch.ActualReps != nil:
			set.ActualReps = patch.ActualReps
		case set.ActualReps == nil:
			// Tap to confirm: take the prescription as performed.
			reps := set.PrescribedReps
			set.ActualReps = &reps
		}
		// actualReps recorded implies completed for fixed-rep sets.
		set.Completed = true
	}
	if patch.Completed != nil && !*patch.Completed {
		set.Completed = false
		set.ActualReps = nil
	}

	if err := m.store.UpdateWorkoutSet(ctx, *set); err != nil {
		return nil, fmt.Errorf("updating set: %w", err)
	}
	return set, nil
}

// Complete finalizes an in-progress workout: the rule engine runs once, TM
// rows are written for every exercise that changed, and the workout becomes
// terminal. Retrying is safe: a workout already completed returns the stored
// progression results without recomputation or duplicate TM rows.
func (m *Manager) Complete(ctx context.Context, workoutID uuid.UUID) (*Completion, error) {
	w, err := m.store.GetWorkout(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("loading workout: %w", err)
	}
	if w == nil || w.Status == models.StatusDiscarded {
		return nil, ErrInvalidState
	}
	if w.Status == models.StatusCompleted {
		return m.storedCompletion(ctx, *w)
	}

	sets, err := m.store.GetWorkoutSets(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}
	rules, err := m.store.ProgressionRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	tms, err := m.store.CurrentTrainingMaxes(ctx, w.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading training maxes: %w", err)
	}
	exercises, err := m.store.Exercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading exercises: %w", err)
	}

	report := progression.Evaluate(progression.Input{
		Sets:       sets,
		Rules:      rules,
		CurrentTMs: tms,
		Exercises:  exercises,
	})

	now := m.now()
	maxes := collapseToTrainingMaxes(report.Results, w.UserID, now)

	if err := m.store.CompleteWorkout(ctx, workoutID, now, maxes, report.Results); err != nil {
		if errors.Is(err, ErrInvalidState) {
			// Concurrent Complete won; serve its stored outcome.
			w, reloadErr := m.store.GetWorkout(ctx, workoutID)
			if reloadErr == nil && w != nil && w.Status == models.StatusCompleted {
				return m.storedCompletion(ctx, *w)
			}
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("completing workout: %w", err)
	}

	w.Status = models.StatusCompleted
	w.CompletedAt = &now
	m.log.Info("workout completed", "workout_id", workoutID,
		"progressions", len(report.Results), "skipped", len(report.Skipped))

	return &Completion{Workout: *w, Progressions: report.Results, Skipped: report.Skipped}, nil
}

// Cancel discards an in-progress workout. No TM changes, no side effects;
// a later Start for the same day creates a brand-new workout.
func (m *Manager) Cancel(ctx context.Context, workoutID uuid.UUID) error {
	if err := m.store.DiscardWorkout(ctx, workoutID); err != nil {
		if errors.Is(err, ErrInvalidState) {
			return ErrInvalidState
		}
		return fmt.Errorf("discarding workout: %w", err)
	}
	m.log.Info("workout discarded", "workout_id", workoutID)
	return nil
}

func (m *Manager) resumeOrConflict(ctx context.Context, cur *models.Workout, dayNumber int) (*Detail, error) {
	if cur.DayNumber == dayNumber {
		return m.detail(ctx, *cur)
	}
	return nil, &ConflictError{WorkoutID: cur.ID, DayNumber: cur.DayNumber}
}

func (m *Manager) detail(ctx context.Context, w models.Workout) (*Detail, error) {
	sets, err := m.store.GetWorkoutSets(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}
	return &Detail{Workout: w, Sets: sets}, nil
}

func (m *Manager) storedCompletion(ctx context.Context, w models.Workout) (*Completion, error) {
	results, err := m.store.StoredProgressionResults(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("loading stored progressions: %w", err)
	}
	return &Completion{Workout: w, Progressions: results}, nil
}

// buildWorkout snapshots the plan day and current TMs into a new workout.
// Prescribed weights are computed and rounded in canonical kg at creation
// time; later TM changes never touch an open session.
func (m *Manager) buildWorkout(ctx context.Context, userID, dayNumber int) (*Detail, error) {
	day, err := m.store.PlanDay(ctx, dayNumber)
	if err != nil {
		return nil, fmt.Errorf("loading plan day: %w", err)
	}
	if day == nil {
		return nil, fmt.Errorf("%w: day %d", ErrUnknownDay, dayNumber)
	}

	tms, err := m.store.CurrentTrainingMaxes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading training maxes: %w", err)
	}
	exercises, err := m.store.Exercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading exercises: %w", err)
	}

	w := models.Workout{
		ID:        uuid.New(),
		UserID:    userID,
		DayNumber: dayNumber,
		Status:    models.StatusInProgress,
		CreatedAt: m.now(),
	}

	var sets []models.WorkoutSet
	for _, pde := range day.Exercises {
		tm, ok := tms[pde.TMExerciseID]
		if !ok {
			return nil, fmt.Errorf("%w: exercise %d", ErrNoTrainingMax, pde.TMExerciseID)
		}
		name := ""
		if ex, ok := exercises[pde.ExerciseID]; ok {
			name = ex.Name
		}
		for _, ps := range pde.Sets {
			sets = append(sets, models.WorkoutSet{
				ID:                 uuid.New(),
				WorkoutID:          w.ID,
				ExerciseID:         pde.ExerciseID,
				ExerciseName:       name,
				Tier:               pde.Tier,
				SetOrder:           ps.SetOrder,
				PrescribedWeightKg: units.Round(tm*ps.Percentage, units.Kilograms),
				PrescribedReps:     ps.TargetReps,
				IsAmrap:            ps.IsAmrap,
				IsProgression:      ps.IsProgression,
			})
		}
	}

	return &Detail{Workout: w, Sets: sets}, nil
}

// collapseToTrainingMaxes folds per-set results into one TM row per
// exercise. Multiple results for one exercise are sequential deltas against
// the shared pre-workout baseline, so the new TM is the baseline plus the
// sum of increases, inserted exactly once.
func collapseToTrainingMaxes(results []models.ProgressionResult, userID int, effective time.Time) []models.TrainingMax {
	type acc struct {
		baseline float64
		increase float64
	}
	byExercise := make(map[int]*acc)
	var order []int
	for _, r := range results {
		a, ok := byExercise[r.ExerciseID]
		if !ok {
			a = &acc{baseline: r.PreviousTMKg}
			byExercise[r.ExerciseID] = a
			order = append(order, r.ExerciseID)
		}
		a.increase += r.IncreaseKg
	}

	var maxes []models.TrainingMax
	for _, id := range order {
		a := byExercise[id]
		if a.increase == 0 {
			continue
		}
		maxes = append(maxes, models.TrainingMax{
			UserID:        userID,
			ExerciseID:    id,
			WeightKg:      a.baseline + a.increase,
			EffectiveDate: effective,
		})
	}
	return maxes
}
