// Package ui implements the session's UI ports for a remote browser.
// Instead of drawing anything, a Recorder queues one Command per UI call;
// the HTTP layer drains the queue and sends it to the browser, which applies
// the commands to the real map, form and list.
package ui

import (
	"sync"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/render"
	"github.com/pkordes/mapty/internal/session"
)

// Command operation names.
const (
	OpMapLoad    = "map.load"
	OpMapMarker  = "map.marker"
	OpMapView    = "map.view"
	OpFormShow   = "form.show"
	OpFormHide   = "form.hide"
	OpFormClear  = "form.clear"
	OpFormFocus  = "form.focus"
	OpFormFields = "form.fields"
	OpListAppend = "list.append"
	OpAlert      = "alert"
	OpPageReload = "page.reload" // storage was cleared; reload the page
)

// Command is one instruction for the browser. Only the fields relevant to
// Op are set.
type Command struct {
	Op      string              `json:"op"`
	Center  *domain.Coords      `json:"center,omitempty"`
	Zoom    int                 `json:"zoom,omitempty"`
	Pan     *session.PanOptions `json:"pan,omitempty"`
	Marker  *session.Marker     `json:"marker,omitempty"`
	Item    *render.ListItem    `json:"item,omitempty"`
	Field   string              `json:"field,omitempty"`
	Kind    domain.Kind         `json:"kind,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Recorder implements session.MapView, session.Form, session.WorkoutList and
// session.Alerter by recording commands.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	values   session.FormValues
}

var (
	_ session.MapView     = (*Recorder)(nil)
	_ session.Form        = (*Recorder)(nil)
	_ session.WorkoutList = (*Recorder)(nil)
	_ session.Alerter     = (*Recorder)(nil)
)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Surface returns r wired into every slot of a session.Surface.
func (r *Recorder) Surface() session.Surface {
	return session.Surface{Map: r, Form: r, List: r, Alert: r}
}

// SetValues sets what the next Values call returns; the HTTP layer calls it
// with the submitted form fields.
func (r *Recorder) SetValues(v session.FormValues) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = v
}

// Drain returns the queued commands in call order and empties the queue.
// It never returns nil.
func (r *Recorder) Drain() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.commands
	r.commands = nil
	if out == nil {
		out = []Command{}
	}
	return out
}

func (r *Recorder) push(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, c)
}

func (r *Recorder) Load(center domain.Coords, zoom int) {
	r.push(Command{Op: OpMapLoad, Center: &center, Zoom: zoom})
}

func (r *Recorder) AddMarker(m session.Marker) {
	r.push(Command{Op: OpMapMarker, Marker: &m})
}

func (r *Recorder) SetView(center domain.Coords, zoom int, opts session.PanOptions) {
	r.push(Command{Op: OpMapView, Center: &center, Zoom: zoom, Pan: &opts})
}

func (r *Recorder) Values() session.FormValues {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values
}

func (r *Recorder) Show() { r.push(Command{Op: OpFormShow}) }
func (r *Recorder) Hide() { r.push(Command{Op: OpFormHide}) }

// Clear empties the four numeric fields, both in the browser and in the
// values the Recorder hands back.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.values = session.FormValues{Type: r.values.Type}
	r.mu.Unlock()
	r.push(Command{Op: OpFormClear})
}

func (r *Recorder) FocusDistance() {
	r.push(Command{Op: OpFormFocus, Field: "distance"})
}

func (r *Recorder) ShowFieldsFor(kind domain.Kind) {
	r.push(Command{Op: OpFormFields, Kind: kind})
}

func (r *Recorder) Append(item render.ListItem) {
	r.push(Command{Op: OpListAppend, Item: &item})
}

func (r *Recorder) Alert(message string) {
	r.push(Command{Op: OpAlert, Message: message})
}
