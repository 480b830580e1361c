// Package domain holds the session record and the location points it carries.
package domain

import (
	"encoding/json"
	"fmt"
)

// Point is one location sample. Accuracy (meters) and Speed (m/s) are optional.
// It is encoded as the compact array [lat, lon, time, accuracy, speed] that
// viewers consume, with null for missing optional values.
type Point struct {
	Lat      float64
	Lon      float64
	Time     float64
	Accuracy *float64
	Speed    *float64
}

// MarshalJSON encodes p as a 5-element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([5]any{p.Lat, p.Lon, p.Time, p.Accuracy, p.Speed})
}

// UnmarshalJSON decodes the array form. Trailing optional elements may be omitted.
func (p *Point) UnmarshalJSON(b []byte) error {
	var raw []*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) < 3 || len(raw) > 5 {
		return fmt.Errorf("point: want 3 to 5 elements, got %d", len(raw))
	}
	if raw[0] == nil || raw[1] == nil || raw[2] == nil {
		return fmt.Errorf("point: lat, lon and time are required")
	}
	*p = Point{Lat: *raw[0], Lon: *raw[1], Time: *raw[2]}
	if len(raw) > 3 {
		p.Accuracy = raw[3]
	}
	if len(raw) > 4 {
		p.Speed = raw[4]
	}
	return nil
}
