package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("liftlog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Strength training tracker. Query the current workout session, workout history, training maxes and their progression history, progression rules, and the weekly plan. Read-only: start, record, and complete workouts through the client app."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetCurrentWorkout, Handler: h.getCurrentWorkout},
		server.ServerTool{Tool: toolGetWorkoutHistory, Handler: h.getWorkoutHistory},
		server.ServerTool{Tool: toolGetWorkoutSets, Handler: h.getWorkoutSets},
		server.ServerTool{Tool: toolGetTrainingMaxes, Handler: h.getTrainingMaxes},
		server.ServerTool{Tool: toolGetTMHistory, Handler: h.getTMHistory},
		server.ServerTool{Tool: toolGetProgressionRules, Handler: h.getProgressionRules},
		server.ServerTool{Tool: toolGetPlan, Handler: h.getPlan},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCurrentWorkout, Handler: h.currentWorkoutResource},
		server.ServerResource{Resource: resTrainingMaxes, Handler: h.trainingMaxesResource},
		server.ServerResource{Resource: resPlan, Handler: h.planResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resCurrentWorkout = mcp.NewResource(
	"liftlog://current_workout",
	"Current Workout",
	mcp.WithResourceDescription("The in-progress workout session with all prescribed sets and recorded performance, or null when nothing is in progress"),
	mcp.WithMIMEType("application/json"),
)

var resTrainingMaxes = mcp.NewResource(
	"liftlog://training_maxes",
	"Training Maxes",
	mcp.WithResourceDescription("Current training max per exercise, in kilograms"),
	mcp.WithMIMEType("application/json"),
)

var resPlan = mcp.NewResource(
	"liftlog://plan",
	"Weekly Plan",
	mcp.WithResourceDescription("The weekly training plan: days, exercises, and set templates as percentages of the training max"),
	mcp.WithMIMEType("application/json"),
)
