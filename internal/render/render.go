// Package render turns workouts into the HTML fragments and popup captions
// the browser inserts into the workout list and onto map markers.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/pkordes/mapty/internal/domain"
)

// Popup dimensions and behaviour shared by every workout marker.
const (
	PopupMaxWidth = 250
	PopupMinWidth = 100
)

// ListItem is a rendered workout list entry.
// Kind and ID are exposed separately so the browser can style and look up
// the item without parsing HTML.
type ListItem struct {
	ID   string      `json:"id"`
	Kind domain.Kind `json:"kind"`
	HTML string      `json:"html"`
}

// Popup configures the popup bound to a workout marker.
type Popup struct {
	MaxWidth     int    `json:"maxWidth"`
	MinWidth     int    `json:"minWidth"`
	AutoClose    bool   `json:"autoClose"`
	CloseOnClick bool   `json:"closeOnClick"`
	ClassName    string `json:"className"`
	Content      string `json:"content"`
	Open         bool   `json:"open,omitempty"` // open as soon as the marker is added
}

// LocationCaption is the caption of the marker placed at the user's own
// position.
const LocationCaption = "This is your current location."

// LocationPopup builds the popup for the current-location marker. It opens
// immediately and closes like any default map popup.
func LocationPopup() Popup {
	return Popup{
		MaxWidth:     PopupMaxWidth,
		MinWidth:     PopupMinWidth,
		AutoClose:    true,
		CloseOnClick: true,
		Content:      LocationCaption,
		Open:         true,
	}
}

// Icon returns the emoji shown next to a workout of the given kind.
func Icon(kind domain.Kind) string {
	if kind == domain.KindRunning {
		return "🏃‍♂️"
	}
	return "🚴‍♀️"
}

// PopupFor builds the marker popup for w. Popups stay open while other
// popups open and while the map is clicked.
func PopupFor(w domain.Workout) Popup {
	return Popup{
		MaxWidth:     PopupMaxWidth,
		MinWidth:     PopupMinWidth,
		AutoClose:    false,
		CloseOnClick: false,
		ClassName:    fmt.Sprintf("%s-popup", w.Kind()),
		Content:      fmt.Sprintf("%s %s", Icon(w.Kind()), w.Description),
	}
}

type detail struct {
	Icon  string
	Value string
	Unit  string
}

type itemView struct {
	ID      string
	Kind    domain.Kind
	Title   string
	Details []detail
}

var itemTmpl = template.Must(template.New("workout").Parse(
	`<li class="workout workout--{{.Kind}}" data-id="{{.ID}}">` +
		`<h2 class="workout__title">{{.Title}}</h2>` +
		`{{range .Details}}<div class="workout__details">` +
		`<span class="workout__icon">{{.Icon}}</span>` +
		`<span class="workout__value">{{.Value}}</span>` +
		`<span class="workout__unit">{{.Unit}}</span>` +
		`</div>{{end}}</li>`))

// Item renders w as a list entry tagged with its kind and ID.
func Item(w domain.Workout) (ListItem, error) {
	view := itemView{
		ID:    w.ID,
		Kind:  w.Kind(),
		Title: w.Description,
		Details: []detail{
			{Icon: Icon(w.Kind()), Value: number(w.Distance), Unit: "km"},
			{Icon: "⏱", Value: number(w.Duration), Unit: "min"},
		},
	}
	switch m := w.Metrics.(type) {
	case domain.Running:
		view.Details = append(view.Details,
			detail{Icon: "⚡️", Value: fixed1(m.Pace), Unit: "min/km"},
			detail{Icon: "🦶🏼", Value: number(m.Cadence), Unit: "spm"},
		)
	case domain.Cycling:
		view.Details = append(view.Details,
			detail{Icon: "⚡️", Value: fixed1(m.Speed), Unit: "km/h"},
			detail{Icon: "⛰", Value: number(m.ElevationGain), Unit: "m"},
		)
	default:
		return ListItem{}, fmt.Errorf("render.Item: %w: workout %s has no variant", domain.ErrValidation, w.ID)
	}

	var buf bytes.Buffer
	if err := itemTmpl.Execute(&buf, view); err != nil {
		return ListItem{}, fmt.Errorf("render.Item: %w", err)
	}
	return ListItem{ID: w.ID, Kind: w.Kind(), HTML: buf.String()}, nil
}

// number formats v with the fewest digits that round-trip ("5", "2.5").
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fixed1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
