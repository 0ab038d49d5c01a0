// Package server exposes the workout session lifecycle over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ReadStore is the query surface the read endpoints need. *storage.DB
// satisfies it; handler tests use the same in-memory fake that backs the
// session manager.
type ReadStore interface {
	GetWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error)
	GetWorkoutSets(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutSet, error)
	ListWorkouts(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error)
	CurrentTrainingMaxes(ctx context.Context, userID int) (map[int]float64, error)
	TrainingMaxHistory(ctx context.Context, userID, exerciseID int) ([]models.TrainingMax, error)
	PlanDays(ctx context.Context) ([]models.PlanDay, error)
	Exercises(ctx context.Context) (map[int]models.Exercise, error)
	ProgressionRules(ctx context.Context) ([]models.ProgressionRule, error)
}

var _ ReadStore = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    ReadStore
	sessions *session.Manager
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(store ReadStore, sessions *session.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:    store,
		sessions: sessions,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(DevIdentity)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Read endpoints
		r.Get("/exercises", s.handleExercises)
		r.Get("/plan", s.handlePlan)
		r.Get("/progression-rules", s.handleProgressionRules)
		r.Get("/training-maxes", s.handleTrainingMaxes)
		r.Get("/training-maxes/history", s.handleTrainingMaxHistory)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/current", s.handleCurrentWorkout)
		r.Get("/workouts/{id}", s.handleGetWorkout)

		// Session mutations (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/workouts", s.handleStartWorkout)
			r.Patch("/workouts/{id}/sets/{setID}", s.handleRecordSet)
			r.Post("/workouts/{id}/complete", s.handleCompleteWorkout)
			r.Delete("/workouts/{id}", s.handleCancelWorkout)
		})
	})
}
