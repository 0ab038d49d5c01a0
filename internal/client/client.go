// Package client is the device-side half of the workout tracker: a typed
// REST client, a debounced update coordinator, a rest timer, and a local
// journal for patches that could not be delivered.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/google/uuid"
)

// Client sends session operations to the liftlog server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the liftlog server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StartWorkout begins a session for the given plan day. A 409 response is
// returned as *session.ConflictError so callers can resume or cancel.
func (c *Client) StartWorkout(dayNumber int) (*session.Detail, error) {
	body, err := json.Marshal(map[string]int{"dayNumber": dayNumber})
	if err != nil {
		return nil, fmt.Errorf("marshaling start request: %w", err)
	}

	resp, err := c.do(http.MethodPost, "/api/v1/workouts", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		var conflict session.ConflictError
		if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
			return nil, fmt.Errorf("decoding conflict response: %w", err)
		}
		return nil, &conflict
	}
	if resp.StatusCode != http.StatusOK {
		return nil, responseError("start workout", resp)
	}

	var detail session.Detail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("decoding workout: %w", err)
	}
	return &detail, nil
}

// CurrentWorkout fetches the active session, or nil when none is in progress.
func (c *Client) CurrentWorkout() (*session.Detail, error) {
	resp, err := c.do(http.MethodGet, "/api/v1/workouts/current", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("fetch current workout", resp)
	}

	var detail *session.Detail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("decoding workout: %w", err)
	}
	return detail, nil
}

// UpdateSet patches one set's recorded performance.
func (c *Client) UpdateSet(workoutID, setID uuid.UUID, patch session.SetPatch) (*models.WorkoutSet, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshaling set patch: %w", err)
	}

	path := fmt.Sprintf("/api/v1/workouts/%s/sets/%s", workoutID, setID)
	resp, err := c.do(http.MethodPatch, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("update set", resp)
	}

	var set models.WorkoutSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decoding set: %w", err)
	}
	return &set, nil
}

// CompleteWorkout finishes the session and returns the progression report.
func (c *Client) CompleteWorkout(workoutID uuid.UUID) (*session.Completion, error) {
	resp, err := c.do(http.MethodPost, fmt.Sprintf("/api/v1/workouts/%s/complete", workoutID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("complete workout", resp)
	}

	var completion session.Completion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decoding completion: %w", err)
	}
	return &completion, nil
}

// CancelWorkout discards the session.
func (c *Client) CancelWorkout(workoutID uuid.UUID) error {
	resp, err := c.do(http.MethodDelete, "/api/v1/workouts/"+workoutID.String(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError("cancel workout", resp)
	}
	return nil
}

func (c *Client) do(method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.serverURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func responseError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed (status %d): %s", op, resp.StatusCode, body)
}
