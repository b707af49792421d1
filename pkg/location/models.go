package location

import "time"

// Reading is a single position fix returned by a Provider.
type Reading struct {
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lng"`
	Accuracy   float64 `json:"accuracy"`   // radius in meters, lower is better
	CapturedAt int64   `json:"capturedAt"` // epoch milliseconds
}

// Point returns the coordinates of the reading.
func (r Reading) Point() Point {
	return Point{Latitude: r.Latitude, Longitude: r.Longitude}
}

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// FixOptions controls a single GetCurrentFix request.
type FixOptions struct {
	HighAccuracy bool          // prefer the most precise source the provider has
	Timeout      time.Duration // upper bound for this request, zero means no bound
	MaxAge       time.Duration // maximum age of a cached fix, zero forces a fresh one
}

// nowMillis returns the current time in epoch milliseconds.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
