package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the liftlog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// workoutDetail mirrors the server's workout-with-sets response shape.
type workoutDetail struct {
	Workout models.Workout      `json:"workout"`
	Sets    []models.WorkoutSet `json:"sets"`
}

// User scoping happens server-side; the REST API serves the single
// configured user, so the userID parameters are accepted and ignored.

func (c *HTTPClient) CurrentWorkout(ctx context.Context, _ int) (*models.Workout, error) {
	var detail *workoutDetail
	if err := c.getJSON(ctx, "/api/v1/workouts/current", nil, &detail); err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, nil
	}
	return &detail.Workout, nil
}

func (c *HTTPClient) GetWorkoutSets(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutSet, error) {
	var detail workoutDetail
	if err := c.getJSON(ctx, "/api/v1/workouts/"+workoutID.String(), nil, &detail); err != nil {
		return nil, err
	}
	return detail.Sets, nil
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, _ int, start, end time.Time) ([]models.Workout, error) {
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))

	var workouts []models.Workout
	if err := c.getJSON(ctx, "/api/v1/workouts", params, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) CurrentTrainingMaxes(ctx context.Context, _ int) (map[int]float64, error) {
	var entries []struct {
		ExerciseID int     `json:"exercise_id"`
		WeightKg   float64 `json:"weight_kg"`
	}
	if err := c.getJSON(ctx, "/api/v1/training-maxes", nil, &entries); err != nil {
		return nil, err
	}

	tms := make(map[int]float64, len(entries))
	for _, e := range entries {
		tms[e.ExerciseID] = e.WeightKg
	}
	return tms, nil
}

func (c *HTTPClient) TrainingMaxHistory(ctx context.Context, _ int, exerciseID int) ([]models.TrainingMax, error) {
	exercises, err := c.Exercises(ctx)
	if err != nil {
		return nil, err
	}
	ex, ok := exercises[exerciseID]
	if !ok {
		return nil, fmt.Errorf("httpclient: unknown exercise ID %d", exerciseID)
	}

	params := url.Values{}
	params.Set("exercise", ex.Slug)

	var history []models.TrainingMax
	if err := c.getJSON(ctx, "/api/v1/training-maxes/history", params, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *HTTPClient) ProgressionRules(ctx context.Context) ([]models.ProgressionRule, error) {
	var rules []models.ProgressionRule
	if err := c.getJSON(ctx, "/api/v1/progression-rules", nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *HTTPClient) PlanDays(ctx context.Context) ([]models.PlanDay, error) {
	var days []models.PlanDay
	if err := c.getJSON(ctx, "/api/v1/plan", nil, &days); err != nil {
		return nil, err
	}
	return days, nil
}

func (c *HTTPClient) Exercises(ctx context.Context) (map[int]models.Exercise, error) {
	var list []models.Exercise
	if err := c.getJSON(ctx, "/api/v1/exercises", nil, &list); err != nil {
		return nil, err
	}

	exercises := make(map[int]models.Exercise, len(list))
	for _, ex := range list {
		exercises[ex.ID] = ex
	}
	return exercises, nil
}
