package session

import (
	"math"
	"strconv"
	"strings"
)

// coerce converts a raw field value to a number the way an HTML number
// input is read: surrounding space is ignored, an empty field is 0 and
// anything unparsable is NaN.
func coerce(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
