package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

const (
	benchID = 1
	squatID = 2
)

// fakeStore is an in-memory Store that mirrors the database contract:
// one in_progress workout per user, conditional terminal transitions,
// stored progression results for idempotent Complete.
type fakeStore struct {
	mu       sync.Mutex
	workouts map[uuid.UUID]models.Workout
	sets     map[uuid.UUID][]models.WorkoutSet
	maxes    []models.TrainingMax
	results  map[uuid.UUID][]models.ProgressionResult

	plan      map[int]models.PlanDay
	exercises map[int]models.Exercise
	rules     []models.ProgressionRule

	createHook func() error
}

func newFakeStore() *fakeStore {
	bench := benchID
	amrapPct := 0.85
	return &fakeStore{
		workouts: make(map[uuid.UUID]models.Workout),
		sets:     make(map[uuid.UUID][]models.WorkoutSet),
		results:  make(map[uuid.UUID][]models.ProgressionResult),
		plan: map[int]models.PlanDay{
			1: {DayNumber: 1, Name: "Bench Day", Exercises: []models.PlanDayExercise{
				{ID: 1, DayNumber: 1, ExerciseID: benchID, TMExerciseID: benchID, Tier: 1, Sets: []models.PlanSet{
					{ID: 1, SetOrder: 1, Percentage: 0.65, TargetReps: 8},
					{ID: 2, SetOrder: 2, Percentage: 0.75, TargetReps: 8},
					{ID: 3, SetOrder: 3, Percentage: amrapPct, TargetReps: 8, IsAmrap: true, IsProgression: true},
				}},
			}},
			2: {DayNumber: 2, Name: "Squat Day", Exercises: []models.PlanDayExercise{
				{ID: 2, DayNumber: 2, ExerciseID: squatID, TMExerciseID: squatID, Tier: 1, Sets: []models.PlanSet{
					{ID: 4, SetOrder: 1, Percentage: 0.7, TargetReps: 5},
					{ID: 5, SetOrder: 2, Percentage: 0.8, TargetReps: 5, IsAmrap: true, IsProgression: true},
				}},
			}},
		},
		exercises: map[int]models.Exercise{
			benchID: {ID: benchID, Slug: "bench-press", Name: "bench", Category: models.CategoryCompound, Region: models.RegionUpper},
			squatID: {ID: squatID, Slug: "squat", Name: "squat", Category: models.CategoryCompound, Region: models.RegionLower},
		},
		rules: []models.ProgressionRule{
			{ID: 1, ExerciseID: &bench, MinReps: 13, MaxReps: 999, IncreaseKg: 5, Position: 1},
			{ID: 2, Category: regionPtr(models.RegionUpper), MinReps: 8, MaxReps: 12, IncreaseKg: 2.5, Position: 2},
			{ID: 3, Category: regionPtr(models.RegionLower), MinReps: 8, MaxReps: 999, IncreaseKg: 5, Position: 3},
		},
	}
}

func regionPtr(r models.BodyRegion) *models.BodyRegion { return &r }

func (f *fakeStore) CurrentWorkout(_ context.Context, userID int) (*models.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.workouts {
		if w.UserID == userID && w.Status == models.StatusInProgress {
			cp := w
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetWorkout(_ context.Context, id uuid.UUID) (*models.Workout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workouts[id]
	if !ok {
		return nil, nil
	}
	cp := w
	return &cp, nil
}

func (f *fakeStore) GetWorkoutSets(_ context.Context, workoutID uuid.UUID) ([]models.WorkoutSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.WorkoutSet(nil), f.sets[workoutID]...), nil
}

func (f *fakeStore) GetWorkoutSet(_ context.Context, workoutID, setID uuid.UUID) (*models.WorkoutSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sets[workoutID] {
		if s.ID == setID {
			cp := s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateWorkout(_ context.Context, w models.Workout, sets []models.WorkoutSet) error {
	if f.createHook != nil {
		if err := f.createHook(); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.workouts {
		if existing.UserID == w.UserID && existing.Status == models.StatusInProgress {
			return ErrWorkoutExists
		}
	}
	f.workouts[w.ID] = w
	f.sets[w.ID] = append([]models.WorkoutSet(nil), sets...)
	return nil
}

func (f *fakeStore) UpdateWorkoutSet(_ context.Context, set models.WorkoutSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sets := f.sets[set.WorkoutID]
	for i := range sets {
		if sets[i].ID == set.ID {
			sets[i] = set
			return nil
		}
	}
	return errors.New("set not found")
}

func (f *fakeStore) CompleteWorkout(_ context.Context, workoutID uuid.UUID, completedAt time.Time, maxes []models.TrainingMax, results []models.ProgressionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workouts[workoutID]
	if !ok || w.Status != models.StatusInProgress {
		return ErrInvalidState
	}
	w.Status = models.StatusCompleted
	w.CompletedAt = &completedAt
	f.workouts[workoutID] = w
	f.maxes = append(f.maxes, maxes...)
	f.results[workoutID] = append([]models.ProgressionResult(nil), results...)
	return nil
}

func (f *fakeStore) DiscardWorkout(_ context.Context, workoutID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workouts[workoutID]
	if !ok || w.Status != models.StatusInProgress {
		return ErrInvalidState
	}
	w.Status = models.StatusDiscarded
	f.workouts[workoutID] = w
	return nil
}

func (f *fakeStore) StoredProgressionResults(_ context.Context, workoutID uuid.UUID) ([]models.ProgressionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ProgressionResult(nil), f.results[workoutID]...), nil
}

func (f *fakeStore) PlanDay(_ context.Context, dayNumber int) (*models.PlanDay, error) {
	day, ok := f.plan[dayNumber]
	if !ok {
		return nil, nil
	}
	return &day, nil
}

func (f *fakeStore) Exercises(_ context.Context) (map[int]models.Exercise, error) {
	return f.exercises, nil
}

func (f *fakeStore) CurrentTrainingMaxes(_ context.Context, userID int) (map[int]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tms := map[int]float64{benchID: 90, squatID: 140}
	// Later rows supersede the seed values.
	for _, tm := range f.maxes {
		if tm.UserID == userID {
			tms[tm.ExerciseID] = tm.WeightKg
		}
	}
	return tms, nil
}

func (f *fakeStore) ProgressionRules(_ context.Context) ([]models.ProgressionRule, error) {
	return f.rules, nil
}

func newTestManager(store Store) *Manager {
	return New(store, slog.New(slog.DiscardHandler))
}

// TestStartSnapshotsPlan verifies that starting a workout freezes prescribed
// weights from the current TM, rounded to 2.5 kg in canonical units.
func TestStartSnapshotsPlan(t *testing.T) {
	m := newTestManager(newFakeStore())
	detail, err := m.Start(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if detail.Workout.Status != models.StatusInProgress {
		t.Errorf("status = %s, want in_progress", detail.Workout.Status)
	}
	if len(detail.Sets) != 3 {
		t.Fatalf("sets = %d, want 3", len(detail.Sets))
	}
	// TM 90: 65% → 58.5 → 57.5; 75% → 67.5; 85% → 76.5 → 77.5.
	wantWeights := []float64{57.5, 67.5, 77.5}
	for i, s := range detail.Sets {
		if s.PrescribedWeightKg != wantWeights[i] {
			t.Errorf("set %d weight = %v, want %v", i+1, s.PrescribedWeightKg, wantWeights[i])
		}
		if s.ActualReps != nil || s.Completed {
			t.Errorf("set %d should start unrecorded", i+1)
		}
	}
	if !detail.Sets[2].IsAmrap || !detail.Sets[2].IsProgression {
		t.Errorf("final set should carry the AMRAP and progression flags")
	}
}

// TestStartIdempotentResume verifies that Start for the same day returns the
// same workout id instead of creating a second row.
func TestStartIdempotentResume(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	first, err := m.Start(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.Start(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Workout.ID != second.Workout.ID {
		t.Errorf("resume returned %s, want %s", second.Workout.ID, first.Workout.ID)
	}
	if len(store.workouts) != 1 {
		t.Errorf("workout rows = %d, want 1", len(store.workouts))
	}
}

// TestStartConflictDifferentDay verifies the structured conflict: a second
// Start for a different day reports the existing session and creates no row.
func TestStartConflictDifferentDay(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	first, err := m.Start(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = m.Start(context.Background(), 1, 2)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
	if conflict.WorkoutID != first.Workout.ID || conflict.DayNumber != 1 {
		t.Errorf("conflict = %+v, want existing workout %s day 1", conflict, first.Workout.ID)
	}
	if len(store.workouts) != 1 {
		t.Errorf("workout rows = %d, want 1", len(store.workouts))
	}
}

// TestStartLosingRace verifies that a Start losing the insert race resolves
// against the winner's row instead of failing.
func TestStartLosingRace(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	var winner *Detail
	store.createHook = func() error {
		if winner == nil {
			// Another Start slips in between the existence check and insert.
			store.createHook = nil
			var err error
			winner, err = m.Start(context.Background(), 1, 1)
			if err != nil {
				t.Fatalf("winner start failed: %v", err)
			}
			return ErrWorkoutExists
		}
		return nil
	}

	got, err := m.Start(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Workout.ID != winner.Workout.ID {
		t.Errorf("loser resolved to %s, want winner %s", got.Workout.ID, winner.Workout.ID)
	}
}

// TestStartUnknownDay verifies a day the plan does not define is rejected.
func TestStartUnknownDay(t *testing.T) {
	m := newTestManager(newFakeStore())
	_, err := m.Start(context.Background(), 1, 9)
	if !errors.Is(err, ErrUnknownDay) {
		t.Errorf("error = %v, want ErrUnknownDay", err)
	}
}

// TestRecordSetConfirmFixedRep verifies the tap-to-confirm path: one write
// fills actualReps with the prescription and marks the set completed.
func TestRecordSetConfirmFixedRep(t *testing.T) {
	m := newTestManager(newFakeStore())
	detail, _ := m.Start(context.Background(), 1, 1)
	set := detail.Sets[0]

	confirmed := true
	got, err := m.RecordSet(context.Background(), detail.Workout.ID, set.ID, SetPatch{Completed: &confirmed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ActualReps == nil || *got.ActualReps != set.PrescribedReps {
		t.Errorf("actualReps = %v, want prescription %d", got.ActualReps, set.PrescribedReps)
	}
	if !got.Completed {
		t.Error("confirming must also mark the set completed")
	}
}

// TestRecordSetAdjustFixedRep verifies the +/- adjust after confirming: a
// later write overwrites the reps and keeps the set completed.
func TestRecordSetAdjustFixedRep(t *testing.T) {
	m := newTestManager(newFakeStore())
	detail, _ := m.Start(context.Background(), 1, 1)
	set := detail.Sets[0]

	confirmed := true
	if _, err := m.RecordSet(context.Background(), detail.Workout.ID, set.ID, SetPatch{Completed: &confirmed}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	reps := 6
	got, err := m.RecordSet(context.Background(), detail.Workout.ID, set.ID, SetPatch{ActualReps: &reps})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if got.ActualReps == nil || *got.ActualReps != 6 || !got.Completed {
		t.Errorf("set = %+v, want 6 reps and completed after adjust", got)
	}
}

// TestRecordSetAmrapZero verifies an explicitly recorded zero-rep AMRAP set
// still counts as completed.
func TestRecordSetAmrapZero(t *testing.T) {
	m := newTestManager(newFakeStore())
	detail, _ := m.Start(context.Background(), 1, 1)
	amrap := detail.Sets[2]

	zero := 0
	got, err := m.RecordSet(context.Background(), detail.Workout.ID, amrap.ID, SetPatch{ActualReps: &zero})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ActualReps == nil || *got.ActualReps != 0 || !got.Completed {
		t.Errorf("set = %+v, want 0 reps recorded and completed", got)
	}
}

// TestRecordSetValidation verifies negative reps and a rep-less AMRAP
// confirm are rejected before any write.
func TestRecordSetValidation(t *testing.T) {
	m := newTestManager(newFakeStore())
	detail, _ := m.Start(context.Background(), 1, 1)
	amrap := detail.Sets[2]

	neg := -1
	if _, err := m.RecordSet(context.Background(), detail.Workout.ID, amrap.ID, SetPatch{ActualReps: &neg}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative reps error = %v, want ErrValidation", err)
	}
	confirmed := true
	if _, err := m.RecordSet(context.Background(), detail.Workout.ID, amrap.ID, SetPatch{Completed: &confirmed}); !errors.Is(err, ErrValidation) {
		t.Errorf("rep-less AMRAP confirm error = %v, want ErrValidation", err)
	}
}

// TestRecordSetTerminalWorkout verifies writes against completed, discarded,
// or unknown workouts fail with the invalid-state error.
func TestRecordSetTerminalWorkout(t *testing.T) {
	m := newTestManager(newFakeStore())
	detail, _ := m.Start(context.Background(), 1, 1)
	set := detail.Sets[0]

	if err := m.Cancel(context.Background(), detail.Workout.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	reps := 8
	if _, err := m.RecordSet(context.Background(), detail.Workout.ID, set.ID, SetPatch{ActualReps: &reps}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("record on discarded workout error = %v, want ErrInvalidState", err)
	}
	if _, err := m.RecordSet(context.Background(), uuid.New(), set.ID, SetPatch{ActualReps: &reps}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("record on unknown workout error = %v, want ErrInvalidState", err)
	}
}

// TestCompleteProgression verifies the end-to-end scenario: an AMRAP set of
// 14 reps against the [13,999]→+5 bench rule moves the TM from 90 to 95.
func TestCompleteProgression(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	detail, _ := m.Start(context.Background(), 1, 1)

	reps := 14
	if _, err := m.RecordSet(context.Background(), detail.Workout.ID, detail.Sets[2].ID, SetPatch{ActualReps: &reps}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	completion, err := m.Complete(context.Background(), detail.Workout.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completion.Workout.Status != models.StatusCompleted || completion.Workout.CompletedAt == nil {
		t.Errorf("workout = %+v, want completed with timestamp", completion.Workout)
	}
	if len(completion.Progressions) != 1 {
		t.Fatalf("progressions = %d, want 1", len(completion.Progressions))
	}
	p := completion.Progressions[0]
	if p.ExerciseName != "bench" || p.PreviousTMKg != 90 || p.NewTMKg != 95 || p.IncreaseKg != 5 {
		t.Errorf("progression = %+v, want bench 90→95 (+5)", p)
	}
	if len(store.maxes) != 1 || store.maxes[0].WeightKg != 95 {
		t.Errorf("TM rows = %+v, want exactly one at 95", store.maxes)
	}
}

// TestCompleteIdempotent verifies retrying Complete returns the stored
// results and never double-inserts TM rows.
func TestCompleteIdempotent(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	detail, _ := m.Start(context.Background(), 1, 1)

	reps := 14
	if _, err := m.RecordSet(context.Background(), detail.Workout.ID, detail.Sets[2].ID, SetPatch{ActualReps: &reps}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	first, err := m.Complete(context.Background(), detail.Workout.ID)
	if err != nil {
		t.Fatalf("first complete failed: %v", err)
	}
	second, err := m.Complete(context.Background(), detail.Workout.ID)
	if err != nil {
		t.Fatalf("second complete failed: %v", err)
	}

	if len(first.Progressions) != len(second.Progressions) {
		t.Fatalf("progressions differ: %d vs %d", len(first.Progressions), len(second.Progressions))
	}
	for i := range first.Progressions {
		if first.Progressions[i] != second.Progressions[i] {
			t.Errorf("progression %d differs: %+v vs %+v", i, first.Progressions[i], second.Progressions[i])
		}
	}
	if len(store.maxes) != 1 {
		t.Errorf("TM rows = %d, want exactly 1 after retry", len(store.maxes))
	}
}

// TestCompletePendingAmrapSkipped verifies a never-recorded progression set
// completes the workout with no TM change and a skip report.
func TestCompletePendingAmrapSkipped(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	detail, _ := m.Start(context.Background(), 1, 1)

	completion, err := m.Complete(context.Background(), detail.Workout.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(completion.Progressions) != 0 {
		t.Errorf("progressions = %+v, want none", completion.Progressions)
	}
	if len(completion.Skipped) != 1 || completion.Skipped[0].Reason != "no data" {
		t.Errorf("skipped = %+v, want one no-data entry", completion.Skipped)
	}
	if len(store.maxes) != 0 {
		t.Errorf("TM rows = %d, want 0", len(store.maxes))
	}
}

// TestCancelThenFreshStart verifies the discard-and-restart resolution: the
// new workout is a brand-new row, not a resurrection.
func TestCancelThenFreshStart(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	first, _ := m.Start(context.Background(), 1, 1)
	if err := m.Cancel(context.Background(), first.Workout.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	w, _ := store.GetWorkout(context.Background(), first.Workout.ID)
	if w.Status != models.StatusDiscarded {
		t.Errorf("status = %s, want discarded", w.Status)
	}

	second, err := m.Start(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if second.Workout.ID == first.Workout.ID {
		t.Error("restart must create a new workout id")
	}
	if len(store.maxes) != 0 {
		t.Errorf("cancel must not touch training maxes, got %d rows", len(store.maxes))
	}
}

// TestCancelTerminal verifies cancel on terminal or unknown workouts fails
// with the invalid-state error.
func TestCancelTerminal(t *testing.T) {
	m := newTestManager(newFakeStore())
	detail, _ := m.Start(context.Background(), 1, 1)

	if _, err := m.Complete(context.Background(), detail.Workout.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := m.Cancel(context.Background(), detail.Workout.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("cancel completed workout error = %v, want ErrInvalidState", err)
	}
	if err := m.Cancel(context.Background(), uuid.New()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("cancel unknown workout error = %v, want ErrInvalidState", err)
	}
}

// TestCompleteDiscarded verifies a discarded workout cannot be completed.
func TestCompleteDiscarded(t *testing.T) {
	m := newTestManager(newFakeStore())
	detail, _ := m.Start(context.Background(), 1, 1)

	if err := m.Cancel(context.Background(), detail.Workout.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := m.Complete(context.Background(), detail.Workout.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("complete discarded workout error = %v, want ErrInvalidState", err)
	}
}

// TestCurrent verifies the active-session read: nil when idle, the detail
// when a workout is open.
func TestCurrent(t *testing.T) {
	m := newTestManager(newFakeStore())

	got, err := m.Current(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("current = %+v, want nil with no session", got)
	}

	started, _ := m.Start(context.Background(), 1, 1)
	got, err = m.Current(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Workout.ID != started.Workout.ID {
		t.Errorf("current = %+v, want started workout %s", got, started.Workout.ID)
	}
}
