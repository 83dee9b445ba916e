// Package domain contains the core data types for the Mapty workout tracker.
// This package has no third-party dependencies and is imported by every other
// internal package (repo, session, render, service, handler).
package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Kind tags the variant of a Workout.
type Kind string

const (
	KindRunning Kind = "running"
	KindCycling Kind = "cycling"
)

// Valid reports whether k names a known workout variant.
func (k Kind) Valid() bool {
	return k == KindRunning || k == KindCycling
}

// Title returns the capitalised variant name used in descriptions ("Running").
func (k Kind) Title() string {
	switch k {
	case KindRunning:
		return "Running"
	case KindCycling:
		return "Cycling"
	}
	return string(k)
}

// Metrics is the variant-specific part of a Workout.
// It is a closed sum type: only Running and Cycling implement it.
type Metrics interface {
	Kind() Kind
	isMetrics()
}

// Running holds the cadence entered by the user and the pace derived from it.
type Running struct {
	Cadence float64 // steps per minute
	Pace    float64 // minutes per km
}

// Kind implements Metrics.
func (Running) Kind() Kind { return KindRunning }
func (Running) isMetrics() {}

// Cycling holds the elevation gain entered by the user and the derived speed.
// ElevationGain may be negative.
type Cycling struct {
	ElevationGain float64 // metres
	Speed         float64 // km per hour
}

// Kind implements Metrics.
func (Cycling) Kind() Kind { return KindCycling }
func (Cycling) isMetrics() {}

// Workout is a single recorded activity.
// The shared fields live here; Metrics carries exactly one variant.
// A Workout is immutable once built by NewRunning, NewCycling or Restore.
type Workout struct {
	ID          string
	Date        time.Time
	Coords      Coords
	Distance    float64 // km
	Duration    float64 // minutes
	Description string
	Metrics     Metrics
}

// Kind returns the variant tag of w.
func (w Workout) Kind() Kind {
	if w.Metrics == nil {
		return ""
	}
	return w.Metrics.Kind()
}

// Running returns the running metrics of w and whether w is a running workout.
func (w Workout) Running() (Running, bool) {
	r, ok := w.Metrics.(Running)
	return r, ok
}

// Cycling returns the cycling metrics of w and whether w is a cycling workout.
func (w Workout) Cycling() (Cycling, bool) {
	c, ok := w.Metrics.(Cycling)
	return c, ok
}

// NewRunning builds a running workout created at at.
// Pace is derived here and never recomputed. No validation is performed.
func NewRunning(at time.Time, coords Coords, distance, duration, cadence float64) Workout {
	w := newWorkout(at, coords, distance, duration, KindRunning)
	w.Metrics = Running{Cadence: cadence, Pace: duration / distance}
	return w
}

// NewCycling builds a cycling workout created at at.
// Speed is derived here and never recomputed. No validation is performed.
func NewCycling(at time.Time, coords Coords, distance, duration, elevationGain float64) Workout {
	w := newWorkout(at, coords, distance, duration, KindCycling)
	w.Metrics = Cycling{ElevationGain: elevationGain, Speed: distance / (duration / 60)}
	return w
}

func newWorkout(at time.Time, coords Coords, distance, duration float64, kind Kind) Workout {
	return Workout{
		ID:          NewID(at),
		Date:        at,
		Coords:      coords,
		Distance:    distance,
		Duration:    duration,
		Description: Describe(kind, at),
	}
}

// NewID derives a workout identifier from the last 10 digits of the creation
// time in Unix milliseconds.
//
// Two workouts created within the same millisecond get the same ID, so an ID
// is only a lookup key within one session's list, never a unique key.
func NewID(at time.Time) string {
	s := strconv.FormatInt(at.UnixMilli(), 10)
	if len(s) > 10 {
		s = s[len(s)-10:]
	}
	return s
}

// Describe returns the human-readable description "{Variant} on {Month} {Day}".
func Describe(kind Kind, at time.Time) string {
	return fmt.Sprintf("%s on %s %d", kind.Title(), at.Month(), at.Day())
}
