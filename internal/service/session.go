// Package service contains the application services behind the HTTP API.
// SessionService keeps one workout session per browser client and runs every
// operation on it under that session's lock. ExportService reads a client's
// stored workouts without touching a live session.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/repo"
	"github.com/pkordes/mapty/internal/session"
	"github.com/pkordes/mapty/internal/ui"
)

// StorageKey returns the key under which a client's workouts are stored.
func StorageKey(prefix, clientID string) string {
	return prefix + ":" + clientID
}

// SessionConfig holds the settings shared by every session.
type SessionConfig struct {
	StorageKey string
	Validation domain.ValidationMode
	Publisher  session.Publisher
	// IdleTTL is how long a session may go unused before EvictIdle drops it.
	// Zero keeps sessions until the process exits.
	IdleTTL time.Duration
	Now     func() time.Time // defaults to time.Now
}

type liveSession struct {
	mu   sync.Mutex
	ctrl *session.Controller
	rec  *ui.Recorder

	lastUsed time.Time // guarded by SessionService.mu
}

// SessionService owns the live sessions, keyed by client ID.
// An evicted client gets domain.ErrNotFound until it calls Init again; its
// stored workouts are untouched and come back on that Init.
type SessionService struct {
	kv  repo.KVStore
	cfg SessionConfig
	log *slog.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewSessionService constructs a SessionService storing workouts in kv.
func NewSessionService(kv repo.KVStore, cfg SessionConfig, log *slog.Logger) *SessionService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SessionService{
		kv:       kv,
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*liveSession),
	}
}

// Init starts a fresh session for clientID, replacing any previous one the
// way a page reload does, and initializes it with the browser's position.
func (s *SessionService) Init(ctx context.Context, clientID string, pos ui.Position) ([]ui.Command, error) {
	rec := ui.NewRecorder()
	store := s.repoFor(clientID)
	ls := &liveSession{
		rec: rec,
		ctrl: session.NewController(rec.Surface(), store, session.Options{
			ClientID:   clientID,
			Validation: s.cfg.Validation,
			Publisher:  s.cfg.Publisher,
			Logger:     s.log.With("client_id", clientID),
		}),
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	s.mu.Lock()
	ls.lastUsed = s.cfg.Now()
	s.sessions[clientID] = ls
	s.mu.Unlock()

	if err := ls.ctrl.Initialize(ctx, pos); err != nil {
		return ls.rec.Drain(), fmt.Errorf("service.SessionService.Init: %w", err)
	}
	return ls.rec.Drain(), nil
}

// Click forwards a map click to the client's session.
func (s *SessionService) Click(ctx context.Context, clientID string, coords domain.Coords) ([]ui.Command, error) {
	return s.run(clientID, "Click", func(ls *liveSession) error {
		return ls.ctrl.HandleMapClick(coords)
	})
}

// ToggleType switches the visible type-specific form field.
func (s *SessionService) ToggleType(ctx context.Context, clientID string, kind domain.Kind) ([]ui.Command, error) {
	return s.run(clientID, "ToggleType", func(ls *liveSession) error {
		return ls.ctrl.ToggleType(kind)
	})
}

// Submit records a workout from the submitted form values.
// The returned commands include the alert when validation fails.
func (s *SessionService) Submit(ctx context.Context, clientID string, values session.FormValues) (domain.Workout, []ui.Command, error) {
	var w domain.Workout
	cmds, err := s.run(clientID, "Submit", func(ls *liveSession) error {
		ls.rec.SetValues(values)
		var err error
		w, err = ls.ctrl.Submit(ctx)
		return err
	})
	return w, cmds, err
}

// Select pans the client's map to a workout. It reports whether the map moved.
func (s *SessionService) Select(ctx context.Context, clientID, workoutID string) (bool, []ui.Command, error) {
	var moved bool
	cmds, err := s.run(clientID, "Select", func(ls *liveSession) error {
		moved = ls.ctrl.SelectWorkout(workoutID)
		return nil
	})
	return moved, cmds, err
}

// Workouts returns the client's session list in insertion order.
func (s *SessionService) Workouts(ctx context.Context, clientID string) ([]domain.Workout, error) {
	var ws []domain.Workout
	_, err := s.run(clientID, "Workouts", func(ls *liveSession) error {
		ws = ls.ctrl.Workouts()
		return nil
	})
	return ws, err
}

// Workout returns one workout of the client's session by ID.
func (s *SessionService) Workout(ctx context.Context, clientID, workoutID string) (domain.Workout, error) {
	var w domain.Workout
	_, err := s.run(clientID, "Workout", func(ls *liveSession) error {
		var err error
		w, err = ls.ctrl.Workout(workoutID)
		return err
	})
	return w, err
}

// Reset deletes the client's stored workouts, drops its live session and
// tells the browser to reload. It works with or without a live session.
func (s *SessionService) Reset(ctx context.Context, clientID string) ([]ui.Command, error) {
	if err := s.repoFor(clientID).Clear(ctx); err != nil {
		return nil, fmt.Errorf("service.SessionService.Reset: %w", err)
	}

	s.mu.Lock()
	delete(s.sessions, clientID)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "session reset", "client_id", clientID)
	return []ui.Command{{Op: ui.OpPageReload}}, nil
}

// EvictIdle drops every session unused for longer than IdleTTL and returns
// how many it dropped.
func (s *SessionService) EvictIdle() int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.cfg.Now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, ls := range s.sessions {
		if ls.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (s *SessionService) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				s.log.InfoContext(ctx, "evicted idle sessions", "count", n)
			}
		}
	}
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) repoFor(clientID string) *repo.WorkoutRepo {
	return repo.NewWorkoutRepo(s.kv, StorageKey(s.cfg.StorageKey, clientID), s.cfg.Validation, s.log)
}

// run executes fn on the client's session under its lock and drains the
// commands fn produced. Returns domain.ErrNotFound if the client has no
// session yet.
func (s *SessionService) run(clientID, op string, fn func(*liveSession) error) ([]ui.Command, error) {
	s.mu.Lock()
	ls, ok := s.sessions[clientID]
	if ok {
		ls.lastUsed = s.cfg.Now()
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("service.SessionService.%s: session %w", op, domain.ErrNotFound)
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	err := fn(ls)
	cmds := ls.rec.Drain()
	if err != nil {
		return cmds, fmt.Errorf("service.SessionService.%s: %w", op, err)
	}
	return cmds, nil
}
