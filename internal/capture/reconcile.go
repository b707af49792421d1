package capture

import (
	"fmt"
	"math"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/benmeehan/fieldcase/pkg/location"
)

// ReplaceThresholdMeters is the largest move accepted without asking the user.
const ReplaceThresholdMeters = 150.0

// RecaptureMessage is asked before sampling when the case already has a location.
const RecaptureMessage = "Location already exists. Recapture?"

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// ConfirmFunc adapts a plain function to the Confirmer interface.
type ConfirmFunc func(message string) (bool, error)

// Confirm calls f(message).
func (f ConfirmFunc) Confirm(message string) (bool, error) {
	return f(message)
}

// Verdict is the result of reconciling a new reading with a stored location.
type Verdict int

const (
	Accept Verdict = iota + 1
	Reject
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Decision carries the verdict and, when accepted, the record to persist.
type Decision struct {
	Verdict        Verdict
	Record         *models.LocationRecord
	DistanceMeters float64
	Prompted       bool
}

// NeedsConfirmation reports whether replacing previous with candidate has to be confirmed.
func NeedsConfirmation(previous *models.LocationRecord, candidate location.Reading) bool {
	if previous == nil {
		return false
	}
	return location.Haversine(previous.Point(), candidate.Point()) > ReplaceThresholdMeters
}

// Reconcile decides whether candidate may replace previous.
// Moves of more than ReplaceThresholdMeters need the user's confirmation.
func Reconcile(previous *models.LocationRecord, candidate location.Reading, confirm Confirmer) (Decision, error) {
	if previous == nil {
		return Decision{Verdict: Accept, Record: models.NewLocationRecord(candidate)}, nil
	}

	distance := location.Haversine(previous.Point(), candidate.Point())
	if distance <= ReplaceThresholdMeters {
		return Decision{
			Verdict:        Accept,
			Record:         models.NewLocationRecord(candidate),
			DistanceMeters: distance,
		}, nil
	}

	ok, err := confirm.Confirm(ReplaceMessage(distance))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to confirm location replacement: %w", err)
	}
	if !ok {
		return Decision{Verdict: Reject, DistanceMeters: distance, Prompted: true}, nil
	}

	return Decision{
		Verdict:        Accept,
		Record:         models.NewLocationRecord(candidate),
		DistanceMeters: distance,
		Prompted:       true,
	}, nil
}

// ReplaceMessage is the question asked when a new fix is far from the stored one.
func ReplaceMessage(distanceMeters float64) string {
	return fmt.Sprintf("New location is %dm away from the saved location. Replace it?", int64(math.Round(distanceMeters)))
}
