package mcp

import (
	"context"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetCurrentWorkout = mcp.NewTool("get_current_workout",
	mcp.WithDescription("Get the in-progress workout session with its prescribed sets and recorded performance. Returns null when no workout is in progress."),
)

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("List workouts (all statuses) in a time range, most recent first."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetWorkoutSets = mcp.NewTool("get_workout_sets",
	mcp.WithDescription("Get all sets of one workout: prescribed weight and reps plus what was actually performed."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout UUID")),
)

var toolGetTrainingMaxes = mcp.NewTool("get_training_maxes",
	mcp.WithDescription("Get the current training max per exercise, in kilograms."),
)

var toolGetTMHistory = mcp.NewTool("get_tm_history",
	mcp.WithDescription("Get the full training max history for one exercise, showing how it progressed over time."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise slug (e.g. 'bench-press')")),
)

var toolGetProgressionRules = mcp.NewTool("get_progression_rules",
	mcp.WithDescription("List the progression rules: AMRAP rep bands mapped to training max increases, in evaluation order."),
)

var toolGetPlan = mcp.NewTool("get_plan",
	mcp.WithDescription("Get the weekly training plan: days, exercises, and set templates as percentages of the training max."),
)

// --- Tool handlers ---

func (h *handlers) getCurrentWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	workout, err := h.ds.CurrentWorkout(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_current_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if workout == nil {
		return mcp.NewToolResultText("null"), nil
	}

	sets, err := h.ds.GetWorkoutSets(ctx, workout.ID)
	if err != nil {
		h.log.Error("mcp get_current_workout sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{"workout": workout, "sets": sets})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	workouts, err := h.ds.ListWorkouts(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_workout_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("workout_id")
	if err != nil {
		return mcp.NewToolResultError("workout_id parameter is required"), nil
	}
	workoutID, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid workout_id: " + err.Error()), nil
	}

	sets, err := h.ds.GetWorkoutSets(ctx, workoutID)
	if err != nil {
		h.log.Error("mcp get_workout_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sets)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// trainingMax is the joined shape returned by get_training_maxes.
type trainingMax struct {
	ExerciseID int     `json:"exercise_id"`
	Slug       string  `json:"slug"`
	Name       string  `json:"name"`
	WeightKg   float64 `json:"weight_kg"`
}

func (h *handlers) getTrainingMaxes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	tms, err := h.ds.CurrentTrainingMaxes(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_training_maxes", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	exercises, err := h.ds.Exercises(ctx)
	if err != nil {
		h.log.Error("mcp get_training_maxes catalog", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	entries := joinTrainingMaxes(tms, exercises)
	result, err := mcp.NewToolResultJSON(entries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func joinTrainingMaxes(tms map[int]float64, exercises map[int]models.Exercise) []trainingMax {
	entries := make([]trainingMax, 0, len(tms))
	for id, weight := range tms {
		ex := exercises[id]
		entries = append(entries, trainingMax{
			ExerciseID: id, Slug: ex.Slug, Name: ex.Name, WeightKg: weight,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ExerciseID < entries[j].ExerciseID })
	return entries
}

func (h *handlers) getTMHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	exercises, err := h.ds.Exercises(ctx)
	if err != nil {
		h.log.Error("mcp get_tm_history catalog", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	exerciseID := 0
	for _, ex := range exercises {
		if ex.Slug == slug {
			exerciseID = ex.ID
			break
		}
	}
	if exerciseID == 0 {
		return mcp.NewToolResultError("unknown exercise: " + slug), nil
	}

	uid := UserIDFromContext(ctx)
	history, err := h.ds.TrainingMaxHistory(ctx, uid, exerciseID)
	if err != nil {
		h.log.Error("mcp get_tm_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(history)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// progressionRule is a rule joined with its exercise slug for readability.
type progressionRule struct {
	Scope      string  `json:"scope"`
	Exercise   string  `json:"exercise,omitempty"`
	Category   string  `json:"category,omitempty"`
	MinReps    int     `json:"min_reps"`
	MaxReps    int     `json:"max_reps"`
	IncreaseKg float64 `json:"increase_kg"`
	Position   int     `json:"position"`
}

func (h *handlers) getProgressionRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rules, err := h.ds.ProgressionRules(ctx)
	if err != nil {
		h.log.Error("mcp get_progression_rules", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	exercises, err := h.ds.Exercises(ctx)
	if err != nil {
		h.log.Error("mcp get_progression_rules catalog", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := make([]progressionRule, 0, len(rules))
	for _, r := range rules {
		pr := progressionRule{
			MinReps: r.MinReps, MaxReps: r.MaxReps,
			IncreaseKg: r.IncreaseKg, Position: r.Position,
		}
		if r.ExerciseID != nil {
			pr.Scope = "exercise"
			pr.Exercise = exercises[*r.ExerciseID].Slug
		} else if r.Category != nil {
			pr.Scope = "category"
			pr.Category = string(*r.Category)
		}
		out = append(out, pr)
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := h.ds.PlanDays(ctx)
	if err != nil {
		h.log.Error("mcp get_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(days)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
