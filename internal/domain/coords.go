package domain

import (
	"encoding/json"
	"fmt"
)

// Coords is a geographic coordinate pair in degrees.
// It is encoded in JSON as a two-element array [lat, lng], which is the shape
// the map widget emits and accepts.
type Coords struct {
	Lat float64
	Lng float64
}

// MarshalJSON encodes c as [lat, lng].
func (c Coords) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

// UnmarshalJSON decodes a [lat, lng] array.
func (c *Coords) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("coords: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coords: want 2 elements, got %d", len(pair))
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}
