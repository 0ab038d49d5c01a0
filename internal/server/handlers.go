package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type startWorkoutRequest struct {
	DayNumber int `json:"dayNumber"`
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	var req startWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	detail, err := s.sessions.Start(r.Context(), userIDFromContext(r), req.DayNumber)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCurrentWorkout(w http.ResponseWriter, r *http.Request) {
	detail, err := s.sessions.Current(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	// No active session is a normal state, not an error.
	if detail == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleRecordSet(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := parseUUID(w, chi.URLParam(r, "id"), "workout")
	if !ok {
		return
	}
	setID, ok := parseUUID(w, chi.URLParam(r, "setID"), "set")
	if !ok {
		return
	}

	var patch session.SetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	set, err := s.sessions.RecordSet(r.Context(), workoutID, setID, patch)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := parseUUID(w, chi.URLParam(r, "id"), "workout")
	if !ok {
		return
	}

	completion, err := s.sessions.Complete(r.Context(), workoutID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completion)
}

func (s *Server) handleCancelWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := parseUUID(w, chi.URLParam(r, "id"), "workout")
	if !ok {
		return
	}

	if err := s.sessions.Cancel(r.Context(), workoutID); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := parseUUID(w, chi.URLParam(r, "id"), "workout")
	if !ok {
		return
	}

	workout, err := s.store.GetWorkout(r.Context(), workoutID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if workout == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}

	sets, err := s.store.GetWorkoutSets(r.Context(), workoutID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, session.Detail{Workout: *workout, Sets: sets})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	workouts, err := s.store.ListWorkouts(r.Context(), userIDFromContext(r), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

// trainingMaxEntry is a current TM joined with its catalog entry.
type trainingMaxEntry struct {
	ExerciseID int     `json:"exercise_id"`
	Slug       string  `json:"slug"`
	Name       string  `json:"name"`
	WeightKg   float64 `json:"weight_kg"`
}

func (s *Server) handleTrainingMaxes(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	tms, err := s.store.CurrentTrainingMaxes(r.Context(), uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	exercises, err := s.store.Exercises(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	entries := make([]trainingMaxEntry, 0, len(tms))
	for _, ex := range sortedExercises(exercises) {
		weight, ok := tms[ex.ID]
		if !ok {
			continue
		}
		entries = append(entries, trainingMaxEntry{
			ExerciseID: ex.ID, Slug: ex.Slug, Name: ex.Name, WeightKg: weight,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleTrainingMaxHistory(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("exercise")
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}

	exercises, err := s.store.Exercises(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	exerciseID := 0
	for _, ex := range exercises {
		if ex.Slug == slug {
			exerciseID = ex.ID
			break
		}
	}
	if exerciseID == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown exercise: " + slug})
		return
	}

	history, err := s.store.TrainingMaxHistory(r.Context(), userIDFromContext(r), exerciseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.store.Exercises(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sortedExercises(exercises))
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	days, err := s.store.PlanDays(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleProgressionRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.ProgressionRules(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// writeSessionError maps session-manager errors onto the wire taxonomy:
// conflicts are 409 with a structured body the client can resolve, invalid
// state and validation failures are 400, everything else is 500.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	var conflict *session.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "EXISTING_WORKOUT",
			"workoutId": conflict.WorkoutID,
			"dayNumber": conflict.DayNumber,
		})
	case errors.Is(err, session.ErrInvalidState):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "INVALID_STATE",
			"message": "this workout is no longer available",
		})
	case errors.Is(err, session.ErrValidation),
		errors.Is(err, session.ErrUnknownDay),
		errors.Is(err, session.ErrNoTrainingMax):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "VALIDATION",
			"message": err.Error(),
		})
	default:
		s.log.Error("session operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sortedExercises(m map[int]models.Exercise) []models.Exercise {
	out := make([]models.Exercise, 0, len(m))
	for _, ex := range m {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func parseUUID(w http.ResponseWriter, raw, kind string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + kind + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = parseFlexTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
