package domain

import (
	"fmt"
	"math"
	"strings"
)

// ValidationMode selects how invalid workout numbers are treated.
type ValidationMode string

const (
	// Strict rejects invalid input and drops invalid stored records.
	Strict ValidationMode = "strict"
	// Lenient alerts on invalid input but records and keeps the workout.
	Lenient ValidationMode = "lenient"
)

// ParseValidationMode parses "strict" or "lenient" (case-insensitive).
func ParseValidationMode(s string) (ValidationMode, error) {
	switch m := ValidationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case Strict, Lenient:
		return m, nil
	}
	return "", fmt.Errorf("unknown validation mode %q", s)
}

// Validate checks the numeric rules of a workout: distance and duration
// finite and positive, running cadence finite and positive, cycling
// elevation finite of any sign. Derived metrics are not checked.
func Validate(w Workout) error {
	if !positive(w.Distance) || !positive(w.Duration) {
		return fmt.Errorf("%w: distance and duration must be positive numbers", ErrValidation)
	}
	switch m := w.Metrics.(type) {
	case Running:
		if !positive(m.Cadence) {
			return fmt.Errorf("%w: running cadence must be a positive number", ErrValidation)
		}
	case Cycling:
		if !finite(m.ElevationGain) {
			return fmt.Errorf("%w: elevation gain must be a number", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: workout %s has no variant", ErrValidation, w.ID)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// positive reports whether v is finite and strictly greater than zero.
func positive(v float64) bool {
	return finite(v) && v > 0
}
