package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/session"
	"github.com/pkordes/mapty/internal/ui"
)

type submitWorkoutResponse struct {
	Workout  domain.Record `json:"workout"`
	Commands []ui.Command `json:"commands"`
}

type selectWorkoutResponse struct {
	Moved    bool         `json:"moved"`
	Commands []ui.Command `json:"commands"`
}

type listWorkoutsResponse struct {
	Data []domain.Record `json:"data"`
}

// SubmitWorkout handles POST /api/session/workouts.
// The body carries the five raw form fields as strings.
func (s *Server) SubmitWorkout(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClient(w, r)
	if !ok {
		return
	}
	var values session.FormValues
	if !decodeJSON(w, r, &values) {
		return
	}

	workout, cmds, err := s.sessions.Submit(r.Context(), clientID, values)
	if err != nil {
		// A storage failure still carries commands: the workout was recorded
		// in the session and the browser must show it.
		writeError(w, r, err, cmds)
		return
	}
	writeJSON(w, http.StatusCreated, submitWorkoutResponse{Workout: domain.ToRecord(workout), Commands: cmds})
}

// SelectWorkout handles POST /api/session/workouts/{id}/select.
// A missing or unknown workout is not an error: the map simply stays put.
func (s *Server) SelectWorkout(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClient(w, r)
	if !ok {
		return
	}

	moved, cmds, err := s.sessions.Select(r.Context(), clientID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, cmds)
		return
	}
	writeJSON(w, http.StatusOK, selectWorkoutResponse{Moved: moved, Commands: cmds})
}

// GetWorkout handles GET /api/session/workouts/{id}.
func (s *Server) GetWorkout(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClient(w, r)
	if !ok {
		return
	}

	workout, err := s.sessions.Workout(r.Context(), clientID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, domain.ToRecord(workout))
}

// ListWorkouts handles GET /api/session/workouts.
func (s *Server) ListWorkouts(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClient(w, r)
	if !ok {
		return
	}

	ws, err := s.sessions.Workouts(r.Context(), clientID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, listWorkoutsResponse{Data: toRecords(ws)})
}

func toRecords(ws []domain.Workout) []domain.Record {
	out := make([]domain.Record, len(ws))
	for i, w := range ws {
		out[i] = domain.ToRecord(w)
	}
	return out
}
