package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) currentWorkoutResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	workout, err := h.ds.CurrentWorkout(ctx, uid)
	if err != nil {
		return nil, err
	}

	var payload any
	if workout != nil {
		sets, err := h.ds.GetWorkoutSets(ctx, workout.ID)
		if err != nil {
			return nil, err
		}
		payload = map[string]any{"workout": workout, "sets": sets}
	}

	return jsonResource(req.Params.URI, payload)
}

func (h *handlers) trainingMaxesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	tms, err := h.ds.CurrentTrainingMaxes(ctx, uid)
	if err != nil {
		return nil, err
	}
	exercises, err := h.ds.Exercises(ctx)
	if err != nil {
		return nil, err
	}

	return jsonResource(req.Params.URI, joinTrainingMaxes(tms, exercises))
}

func (h *handlers) planResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	days, err := h.ds.PlanDays(ctx)
	if err != nil {
		return nil, err
	}

	return jsonResource(req.Params.URI, days)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
