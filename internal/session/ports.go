// Package session implements the per-client workout session: the in-memory
// workout list, the pending map click and the form state machine.
//
// The Controller never touches a browser. It drives its UI surface and
// reaches geolocation and storage only through the interfaces in this file,
// all injected once at construction.
package session

import (
	"context"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/render"
)

// DefaultZoom is the zoom level used when loading the map and when panning
// to a workout.
const DefaultZoom = 13

// Marker is a workout annotation placed on the map.
type Marker struct {
	WorkoutID string        `json:"workoutId,omitempty"` // empty for the current-location marker
	Coords    domain.Coords `json:"coords"`
	Popup     render.Popup  `json:"popup"`
}

// PanOptions controls the animation of a map re-centre.
type PanOptions struct {
	Animate     bool    `json:"animate"`
	PanDuration float64 `json:"panDuration"` // seconds
}

// MapView is the map widget.
type MapView interface {
	Load(center domain.Coords, zoom int)
	AddMarker(m Marker)
	SetView(center domain.Coords, zoom int, opts PanOptions)
}

// FormValues are the raw, unparsed form field contents.
type FormValues struct {
	Type      string `json:"type"`
	Distance  string `json:"distance"`
	Duration  string `json:"duration"`
	Cadence   string `json:"cadence"`
	Elevation string `json:"elevation"`
}

// Form is the workout entry form.
type Form interface {
	Values() FormValues
	Show()
	Hide()
	Clear()
	FocusDistance()
	ShowFieldsFor(kind domain.Kind)
}

// WorkoutList is the rendered list of workouts. Items are inserted right
// after the form and never updated or removed.
type WorkoutList interface {
	Append(item render.ListItem)
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// Surface groups the UI collaborators of a Controller.
type Surface struct {
	Map   MapView
	Form  Form
	List  WorkoutList
	Alert Alerter
}

// Geolocator resolves the user's position once. It either returns a
// coordinate pair or fails; the error carries no detail the user sees.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (domain.Coords, error)
}

// WorkoutStore persists the full workout list.
type WorkoutStore interface {
	Load(ctx context.Context) ([]domain.Workout, error)
	Save(ctx context.Context, workouts []domain.Workout) error
}

// Publisher is notified after a workout has been recorded.
type Publisher interface {
	PublishWorkoutRecorded(ctx context.Context, clientID string, w domain.Workout) error
}
