package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/ui"
)

// ClientCookie names the cookie that identifies a browser client.
const ClientCookie = "mapty_client"

const clientCookieMaxAge = 365 * 24 * time.Hour

type positionBody struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// InitSessionRequest carries the outcome of the browser's single geolocation
// request: a position, or the failure it reported.
type InitSessionRequest struct {
	Position         *positionBody `json:"position,omitempty"`
	GeolocationError string        `json:"geolocation_error,omitempty"`
}

type initSessionResponse struct {
	ClientID string       `json:"client_id"`
	Commands []ui.Command `json:"commands"`
}

type commandsResponse struct {
	Commands []ui.Command `json:"commands"`
}

type toggleTypeRequest struct {
	Type string `json:"type"`
}

// InitSession handles POST /api/session.
// It assigns a client cookie on first visit, then (re)starts the client's
// session: stored workouts are listed and, given a position, the map loads.
func (s *Server) InitSession(w http.ResponseWriter, r *http.Request) {
	var req InitSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	clientID, ok := clientIDFrom(r)
	if !ok {
		clientID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     ClientCookie,
			Value:    clientID,
			Path:     "/",
			MaxAge:   int(clientCookieMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	pos := ui.Position{Reason: req.GeolocationError}
	if req.Position != nil {
		pos.Coords = &domain.Coords{Lat: req.Position.Lat, Lng: req.Position.Lng}
	}

	cmds, err := s.sessions.Init(r.Context(), clientID, pos)
	if err != nil {
		writeError(w, r, err, cmds)
		return
	}
	writeJSON(w, http.StatusOK, initSessionResponse{ClientID: clientID, Commands: cmds})
}

// ResetSession handles DELETE /api/session.
// It deletes every stored workout of the client and answers with a
// page.reload command.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClient(w, r)
	if !ok {
		return
	}

	cmds, err := s.sessions.Reset(r.Context(), clientID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, commandsResponse{Commands: cmds})
}

// ClickMap handles POST /api/session/click?lat=&lng=.
func (s *Server) ClickMap(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClient(w, r)
	if !ok {
		return
	}

	var coords domain.Coords
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "lat", query, &coords.Lat); err != nil {
		requestError(w, "lat: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "lng", query, &coords.Lng); err != nil {
		requestError(w, "lng: "+err.Error())
		return
	}

	cmds, err := s.sessions.Click(r.Context(), clientID, coords)
	if err != nil {
		writeError(w, r, err, cmds)
		return
	}
	writeJSON(w, http.StatusOK, commandsResponse{Commands: cmds})
}

// ToggleType handles POST /api/session/type.
func (s *Server) ToggleType(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClient(w, r)
	if !ok {
		return
	}
	var req toggleTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmds, err := s.sessions.ToggleType(r.Context(), clientID, domain.Kind(req.Type))
	if err != nil {
		writeError(w, r, err, cmds)
		return
	}
	writeJSON(w, http.StatusOK, commandsResponse{Commands: cmds})
}

// clientIDFrom reads the client cookie.
func clientIDFrom(r *http.Request) (string, bool) {
	c, err := r.Cookie(ClientCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// requireClient reads the client cookie, answering 404 when it is missing
// because such a client cannot have a session.
func requireClient(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := clientIDFrom(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{Code: "not_found", Message: "session not found"},
		})
	}
	return id, ok
}
