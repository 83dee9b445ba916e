// Package handler implements the HTTP API the browser talks to.
// All handlers are methods on Server. Methods are split into files by
// resource (health.go, session.go, workout.go, export.go) but share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/session"
	"github.com/pkordes/mapty/internal/ui"
	"github.com/pkordes/mapty/spec"
)

// SessionServicer defines the session operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without any storage.
type SessionServicer interface {
	Init(ctx context.Context, clientID string, pos ui.Position) ([]ui.Command, error)
	Click(ctx context.Context, clientID string, coords domain.Coords) ([]ui.Command, error)
	ToggleType(ctx context.Context, clientID string, kind domain.Kind) ([]ui.Command, error)
	Submit(ctx context.Context, clientID string, values session.FormValues) (domain.Workout, []ui.Command, error)
	Select(ctx context.Context, clientID, workoutID string) (bool, []ui.Command, error)
	Workouts(ctx context.Context, clientID string) ([]domain.Workout, error)
	Workout(ctx context.Context, clientID, workoutID string) (domain.Workout, error)
	Reset(ctx context.Context, clientID string) ([]ui.Command, error)
}

// Exporter reads a client's stored workouts.
type Exporter interface {
	Export(ctx context.Context, clientID string) ([]domain.Workout, error)
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	sessions SessionServicer
	export   Exporter
}

// NewServer constructs the Server with all its dependencies.
func NewServer(sessions SessionServicer, export Exporter) *Server {
	return &Server{sessions: sessions, export: export}
}

// Routes returns the API router. Cross-cutting middleware (request IDs,
// logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Route("/api/session", func(r chi.Router) {
		r.Post("/", s.InitSession)
		r.Delete("/", s.ResetSession)
		r.Post("/click", s.ClickMap)
		r.Post("/type", s.ToggleType)
		r.Get("/workouts", s.ListWorkouts)
		r.Post("/workouts", s.SubmitWorkout)
		r.Get("/workouts/{id}", s.GetWorkout)
		r.Post("/workouts/{id}/select", s.SelectWorkout)
		r.Get("/export", s.GetExport)
	})
	return r
}

// serveOpenAPI serves the embedded API description.
func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
