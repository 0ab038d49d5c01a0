package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, handler := range routes {
		mux.HandleFunc(path, handler)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

// TestCurrentWorkout verifies the workout-with-sets response is unwrapped.
func TestCurrentWorkout(t *testing.T) {
	workoutID := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/current": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, workoutDetail{
				Workout: models.Workout{ID: workoutID, DayNumber: 1, Status: models.StatusInProgress},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	workout, err := client.CurrentWorkout(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if workout.ID != workoutID {
		t.Errorf("workout ID = %s, want %s", workout.ID, workoutID)
	}
}

// TestCurrentWorkoutNone verifies a null response maps to nil, nil.
func TestCurrentWorkoutNone(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/current": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("null\n"))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	workout, err := client.CurrentWorkout(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if workout != nil {
		t.Errorf("workout = %+v, want nil", workout)
	}
}

// TestListWorkouts verifies the time range is forwarded as query params.
func TestListWorkouts(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("start"); got != start.Format(time.RFC3339) {
				t.Errorf("start = %q, want %q", got, start.Format(time.RFC3339))
			}
			writeTestJSON(t, w, []models.Workout{{ID: uuid.New(), DayNumber: 2}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	workouts, err := client.ListWorkouts(context.Background(), 1, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 1 {
		t.Fatalf("got %d workouts, want 1", len(workouts))
	}
}

// TestCurrentTrainingMaxes verifies the entry list converts to a map.
func TestCurrentTrainingMaxes(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/training-maxes": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []map[string]any{
				{"exercise_id": 1, "slug": "bench-press", "weight_kg": 92.5},
				{"exercise_id": 2, "slug": "squat", "weight_kg": 140},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	tms, err := client.CurrentTrainingMaxes(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if tms[1] != 92.5 || tms[2] != 140 {
		t.Errorf("tms = %v, want {1: 92.5, 2: 140}", tms)
	}
}

// TestTrainingMaxHistory verifies the ID-to-slug resolution through the
// exercise catalog.
func TestTrainingMaxHistory(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.Exercise{{ID: 1, Slug: "bench-press", Name: "Bench Press"}})
		},
		"/api/v1/training-maxes/history": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("exercise"); got != "bench-press" {
				t.Errorf("exercise = %q, want bench-press", got)
			}
			writeTestJSON(t, w, []models.TrainingMax{
				{ID: 1, ExerciseID: 1, WeightKg: 90},
				{ID: 2, ExerciseID: 1, WeightKg: 95},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	history, err := client.TrainingMaxHistory(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[1].WeightKg != 95 {
		t.Errorf("history = %+v, want two rows ending at 95", history)
	}
}

// TestHTTPClientErrorStatus verifies a non-200 response surfaces as an error.
func TestHTTPClientErrorStatus(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/plan": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	if _, err := client.PlanDays(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
