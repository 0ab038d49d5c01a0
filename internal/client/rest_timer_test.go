package client

import (
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// TestStartRestAfterMidSet verifies a rest timer starts when later sets
// remain unfinished.
func TestStartRestAfterMidSet(t *testing.T) {
	sets := []models.WorkoutSet{
		{ID: uuid.New(), SetOrder: 1, Completed: true},
		{ID: uuid.New(), SetOrder: 2},
	}

	timer := StartRest(sets, sets[0].ID, time.Minute)
	if timer == nil {
		t.Fatal("expected a rest timer after a non-final set")
	}
	defer timer.Stop()

	if r := timer.Remaining(); r <= 0 || r > time.Minute {
		t.Errorf("remaining = %v, want within (0, 1m]", r)
	}
}

// TestStartRestSkipsFinalSet verifies no timer runs after the last set.
func TestStartRestSkipsFinalSet(t *testing.T) {
	sets := []models.WorkoutSet{
		{ID: uuid.New(), SetOrder: 1, Completed: true},
		{ID: uuid.New(), SetOrder: 2, Completed: true},
	}

	if timer := StartRest(sets, sets[1].ID, time.Minute); timer != nil {
		timer.Stop()
		t.Error("expected no rest timer after the final set")
	}
}

// TestStartRestUnknownSet verifies an unknown set ID yields no timer.
func TestStartRestUnknownSet(t *testing.T) {
	sets := []models.WorkoutSet{{ID: uuid.New(), SetOrder: 1}}

	if timer := StartRest(sets, uuid.New(), time.Minute); timer != nil {
		timer.Stop()
		t.Error("expected no rest timer for an unknown set")
	}
}

// TestRestTimerFires verifies Done delivers once the duration elapses.
func TestRestTimerFires(t *testing.T) {
	sets := []models.WorkoutSet{
		{ID: uuid.New(), SetOrder: 1, Completed: true},
		{ID: uuid.New(), SetOrder: 2},
	}

	timer := StartRest(sets, sets[0].ID, 5*time.Millisecond)
	if timer == nil {
		t.Fatal("expected a rest timer")
	}

	select {
	case <-timer.Done:
	case <-time.After(time.Second):
		t.Fatal("rest timer never fired")
	}
	if r := timer.Remaining(); r != 0 {
		t.Errorf("remaining = %v, want 0 after firing", r)
	}
}
