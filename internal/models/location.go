package models

import (
	"fmt"

	"github.com/benmeehan/fieldcase/pkg/location"
)

// LocationRecord is the chosen property location stored on a case.
type LocationRecord struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Accuracy   float64 `json:"accuracy"`
	CapturedAt int64   `json:"capturedAt"` // epoch milliseconds
}

// NewLocationRecord builds a record from the winning reading of a sampling run.
func NewLocationRecord(r location.Reading) *LocationRecord {
	return &LocationRecord{
		Lat:        r.Latitude,
		Lng:        r.Longitude,
		Accuracy:   r.Accuracy,
		CapturedAt: r.CapturedAt,
	}
}

// Point returns the record coordinates.
func (l *LocationRecord) Point() location.Point {
	return location.Point{Latitude: l.Lat, Longitude: l.Lng}
}

// DisplayText renders the record as "lat, lng (±accuracym)".
func (l *LocationRecord) DisplayText() string {
	return fmt.Sprintf("%.6f, %.6f (±%.1fm)", l.Lat, l.Lng, l.Accuracy)
}
