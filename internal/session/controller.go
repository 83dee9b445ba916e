package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang/geo/s2"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/observability"
	"github.com/pkordes/mapty/internal/render"
)

// User-facing alert texts.
const (
	MsgGeolocationFailed = "Could not get your position"
	MsgInvalidInput      = "Inputs have to be positive numbers!"
)

// ErrMapNotReady is returned when an operation needs the map before
// geolocation has succeeded.
var ErrMapNotReady = errors.New("map not ready")

// ErrNoPendingClick is returned by Submit when no map click is waiting for
// a form submission.
var ErrNoPendingClick = errors.New("no pending map click")

// State is the visibility state of the workout form.
type State string

const (
	Idle          State = "idle"
	AwaitingInput State = "awaiting_input"
)

// panDurationSec is the length of the animated pan to a selected workout.
const panDurationSec = 1

// Options configures a Controller. The zero value is usable.
type Options struct {
	ClientID   string
	Validation domain.ValidationMode // defaults to domain.Strict
	Publisher  Publisher             // optional
	Logger     *slog.Logger          // defaults to slog.Default()
	Now        func() time.Time
}

// Controller owns one client's workout session.
// It is not safe for concurrent use; callers serialize access per session.
type Controller struct {
	ui    Surface
	store WorkoutStore
	opts  Options

	workouts []domain.Workout
	pending  *domain.Coords
	state    State
	mapReady bool
}

// NewController wires a Controller to its UI surface and store.
func NewController(ui Surface, store WorkoutStore, opts Options) *Controller {
	if opts.Validation == "" {
		opts.Validation = domain.Strict
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		ui:       ui,
		store:    store,
		opts:     opts,
		workouts: []domain.Workout{},
		state:    Idle,
	}
}

// Initialize restores the persisted workouts, renders them as list items
// and then asks geo for the user's position once.
//
// On success the map is loaded at the position, a "current location"
// marker is placed there and a marker is added for every restored workout.
// On failure the user is alerted and the map stays
// unusable for the rest of the session; Initialize itself still returns nil
// because the session keeps working without a map.
func (c *Controller) Initialize(ctx context.Context, geo Geolocator) error {
	c.restore(ctx)

	pos, err := geo.CurrentPosition(ctx)
	if err != nil {
		c.opts.Logger.WarnContext(ctx, "geolocation failed", "client_id", c.opts.ClientID, "error", err)
		observability.RecordGeolocationFailure()
		c.ui.Alert.Alert(MsgGeolocationFailed)
		return nil
	}

	c.ui.Map.Load(pos, DefaultZoom)
	c.ui.Map.AddMarker(Marker{Coords: pos, Popup: render.LocationPopup()})
	c.mapReady = true
	for _, w := range c.workouts {
		c.addMarker(w)
	}
	c.opts.Logger.DebugContext(ctx, "map loaded", "client_id", c.opts.ClientID, "lat", pos.Lat, "lng", pos.Lng)
	return nil
}

// restore loads stored workouts. A store failure is logged and the session
// starts with an empty list.
func (c *Controller) restore(ctx context.Context) {
	stored, err := c.store.Load(ctx)
	if err != nil {
		c.opts.Logger.ErrorContext(ctx, "loading stored workouts", "client_id", c.opts.ClientID, "error", err)
		return
	}
	for _, w := range stored {
		if err := c.renderItem(w); err != nil {
			c.opts.Logger.WarnContext(ctx, "skipping unrenderable workout", "id", w.ID, "error", err)
			continue
		}
		c.workouts = append(c.workouts, w)
	}
	c.opts.Logger.DebugContext(ctx, "workouts restored", "client_id", c.opts.ClientID, "count", len(c.workouts))
}

// HandleMapClick captures the clicked position and opens an empty form with
// the distance field focused.
func (c *Controller) HandleMapClick(coords domain.Coords) error {
	if !c.mapReady {
		return fmt.Errorf("session.Controller.HandleMapClick: %w", ErrMapNotReady)
	}
	if !s2.LatLngFromDegrees(coords.Lat, coords.Lng).IsValid() {
		return fmt.Errorf("session.Controller.HandleMapClick: %w: coordinates out of range", domain.ErrValidation)
	}

	pending := coords
	c.pending = &pending
	c.ui.Form.Clear()
	c.ui.Form.Show()
	c.ui.Form.FocusDistance()
	c.state = AwaitingInput
	return nil
}

// ToggleType shows the field that belongs to the selected workout type.
func (c *Controller) ToggleType(kind domain.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("session.Controller.ToggleType: %w: unknown workout type %q", domain.ErrValidation, kind)
	}
	c.ui.Form.ShowFieldsFor(kind)
	return nil
}

// Submit reads the form, builds a workout at the pending click and records
// it: list item, marker, storage write, form hidden.
//
// Invalid numbers are alerted. In strict mode Submit then fails with
// domain.ErrValidation and the form stays open; in lenient mode the workout
// is recorded anyway. A persistence failure is returned after the workout
// has been recorded in memory and rendered.
func (c *Controller) Submit(ctx context.Context) (domain.Workout, error) {
	if c.pending == nil {
		return domain.Workout{}, fmt.Errorf("session.Controller.Submit: %w", ErrNoPendingClick)
	}

	values := c.ui.Form.Values()
	kind := domain.Kind(values.Type)
	if !kind.Valid() {
		return domain.Workout{}, fmt.Errorf("session.Controller.Submit: %w: unknown workout type %q", domain.ErrValidation, values.Type)
	}

	distance := coerce(values.Distance)
	duration := coerce(values.Duration)
	now := c.opts.Now()

	var w domain.Workout
	switch kind {
	case domain.KindRunning:
		w = domain.NewRunning(now, *c.pending, distance, duration, coerce(values.Cadence))
	case domain.KindCycling:
		w = domain.NewCycling(now, *c.pending, distance, duration, coerce(values.Elevation))
	}

	if err := domain.Validate(w); err != nil {
		observability.RecordValidationFailure(string(c.opts.Validation))
		c.ui.Alert.Alert(MsgInvalidInput)
		if c.opts.Validation == domain.Strict {
			return domain.Workout{}, fmt.Errorf("session.Controller.Submit: %w: inputs have to be positive numbers", domain.ErrValidation)
		}
		c.opts.Logger.WarnContext(ctx, "recording invalid workout in lenient mode",
			"client_id", c.opts.ClientID, "type", kind, "distance", values.Distance, "duration", values.Duration)
	}

	c.workouts = append(c.workouts, w)
	observability.RecordWorkout(string(kind))
	if err := c.renderItem(w); err != nil {
		c.opts.Logger.WarnContext(ctx, "rendering workout", "id", w.ID, "error", err)
	}
	c.addMarker(w)

	saveErr := c.store.Save(ctx, c.workouts)
	observability.RecordStorageWrite(saveErr)

	c.ui.Form.Clear()
	c.ui.Form.Hide()
	c.pending = nil
	c.state = Idle

	if saveErr != nil {
		return w, fmt.Errorf("session.Controller.Submit: %w", saveErr)
	}

	if c.opts.Publisher != nil {
		if err := c.opts.Publisher.PublishWorkoutRecorded(ctx, c.opts.ClientID, w); err != nil {
			c.opts.Logger.WarnContext(ctx, "publishing workout", "id", w.ID, "error", err)
		}
	}
	return w, nil
}

// SelectWorkout pans the map to the workout with the given ID.
// It reports whether the map moved. An empty ID (the click missed every
// list item), an unknown ID or a map that never loaded is a no-op.
// When IDs collide, the first workout in the list wins.
func (c *Controller) SelectWorkout(id string) bool {
	if id == "" || !c.mapReady {
		return false
	}
	w, ok := c.find(id)
	if !ok {
		return false
	}
	c.ui.Map.SetView(w.Coords, DefaultZoom, PanOptions{Animate: true, PanDuration: panDurationSec})
	return true
}

// Workout returns the workout with the given ID.
// Returns domain.ErrNotFound if there is none.
func (c *Controller) Workout(id string) (domain.Workout, error) {
	w, ok := c.find(id)
	if !ok {
		return domain.Workout{}, fmt.Errorf("session.Controller.Workout: workout %w", domain.ErrNotFound)
	}
	return w, nil
}

// Workouts returns a copy of the list in insertion order.
func (c *Controller) Workouts() []domain.Workout {
	out := make([]domain.Workout, len(c.workouts))
	copy(out, c.workouts)
	return out
}

// State returns the current form state.
func (c *Controller) State() State {
	return c.state
}

// MapReady reports whether geolocation succeeded and the map is loaded.
func (c *Controller) MapReady() bool {
	return c.mapReady
}

func (c *Controller) find(id string) (domain.Workout, bool) {
	for _, w := range c.workouts {
		if w.ID == id {
			return w, true
		}
	}
	return domain.Workout{}, false
}

func (c *Controller) renderItem(w domain.Workout) error {
	item, err := render.Item(w)
	if err != nil {
		return err
	}
	c.ui.List.Append(item)
	return nil
}

// addMarker places w on the map. Markers wait until the map is loaded;
// Initialize adds the ones for restored workouts.
func (c *Controller) addMarker(w domain.Workout) {
	if !c.mapReady {
		return
	}
	c.ui.Map.AddMarker(Marker{WorkoutID: w.ID, Coords: w.Coords, Popup: render.PopupFor(w)})
}
