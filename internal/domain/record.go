package domain

import (
	"fmt"
	"time"
)

// Record is the flat, storage-facing form of a Workout.
// Numbers use Number so that values a lenient session accepted (NaN, ±Inf)
// are written as null instead of failing the whole list. Variant fields
// are omitted when zero; an absent field decodes as zero again.
type Record struct {
	Type          Kind      `json:"type"`
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	Coords        Coords    `json:"coords"`
	Distance      Number    `json:"distance"`
	Duration      Number    `json:"duration"`
	Description   string    `json:"description"`
	Cadence       Number    `json:"cadence,omitempty"`
	Pace          Number    `json:"pace,omitempty"`
	ElevationGain Number    `json:"elevationGain,omitempty"`
	Speed         Number    `json:"speed,omitempty"`
}

// ToRecord flattens w for storage and transport.
func ToRecord(w Workout) Record {
	rec := Record{
		Type:        w.Kind(),
		ID:          w.ID,
		Date:        w.Date,
		Coords:      w.Coords,
		Distance:    Number(w.Distance),
		Duration:    Number(w.Duration),
		Description: w.Description,
	}
	switch m := w.Metrics.(type) {
	case Running:
		rec.Cadence, rec.Pace = Number(m.Cadence), Number(m.Pace)
	case Cycling:
		rec.ElevationGain, rec.Speed = Number(m.ElevationGain), Number(m.Speed)
	}
	return rec
}

// Restore re-tags a stored record into the Workout union.
//
// Restore checks structure only: a known type and an ID. Numeric rules are
// Validate's job, so that the caller decides whether a record a lenient
// session wrote is kept. Stored ID, date and description are kept. A zero
// derived metric is derived again from the stored distance and duration.
func Restore(rec Record) (Workout, error) {
	if !rec.Type.Valid() {
		return Workout{}, fmt.Errorf("%w: unknown workout type %q", ErrValidation, rec.Type)
	}
	if rec.ID == "" {
		return Workout{}, fmt.Errorf("%w: id is required", ErrValidation)
	}

	distance, duration := float64(rec.Distance), float64(rec.Duration)
	w := Workout{
		ID:          rec.ID,
		Date:        rec.Date,
		Coords:      rec.Coords,
		Distance:    distance,
		Duration:    duration,
		Description: rec.Description,
	}
	if w.Description == "" {
		w.Description = Describe(rec.Type, rec.Date)
	}

	switch rec.Type {
	case KindRunning:
		pace := float64(rec.Pace)
		if pace == 0 {
			pace = duration / distance
		}
		w.Metrics = Running{Cadence: float64(rec.Cadence), Pace: pace}
	case KindCycling:
		speed := float64(rec.Speed)
		if speed == 0 {
			speed = distance / (duration / 60)
		}
		w.Metrics = Cycling{ElevationGain: float64(rec.ElevationGain), Speed: speed}
	}
	return w, nil
}
