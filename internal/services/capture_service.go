package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/fieldcase/internal/capture"
	"github.com/benmeehan/fieldcase/internal/mapview"
	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/benmeehan/fieldcase/pkg/location"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

var (
	// ErrCaptureInProgress is returned when a case already has a running capture.
	ErrCaptureInProgress = errors.New("location capture already in progress for this case")
	// ErrNoStoredLocation is returned when a case has no location to show.
	ErrNoStoredLocation = errors.New("case has no stored location")
)

// CaptureService captures property locations for cases and persists the result.
type CaptureService struct {
	store     CaseStore
	provider  location.Provider
	policy    capture.SamplerPolicy
	confirm   capture.Confirmer
	publisher *EventPublisher
	viewer    mapview.Viewer
	logger    zerolog.Logger

	openMapOnCommit bool
	inFlight        cmap.ConcurrentMap[string, string]
	now             func() time.Time
}

// NewCaptureService wires the capture core to a case store. publisher and viewer may be nil.
func NewCaptureService(store CaseStore, provider location.Provider, policy capture.SamplerPolicy,
	confirm capture.Confirmer, publisher *EventPublisher, viewer mapview.Viewer, openMapOnCommit bool,
	logger zerolog.Logger) *CaptureService {
	return &CaptureService{
		store:           store,
		provider:        provider,
		policy:          policy,
		confirm:         confirm,
		publisher:       publisher,
		viewer:          viewer,
		logger:          logger,
		openMapOnCommit: openMapOnCommit,
		inFlight:        cmap.New[string](),
		now:             time.Now,
	}
}

// Busy reports whether a capture is running for caseID.
func (c *CaptureService) Busy(caseID string) bool {
	return c.inFlight.Has(caseID)
}

// CaptureCaseLocation runs a capture session for the case and writes the committed location back.
// observer may be nil.
func (c *CaptureService) CaptureCaseLocation(ctx context.Context, caseID string, observer capture.Observer) (*capture.Outcome, error) {
	sampler := capture.NewSampler(c.provider, c.policy, c.logger)
	session := capture.NewSession(sampler, c.confirm, &caseObserver{
		caseID:    caseID,
		publisher: c.publisher,
		next:      observer,
		now:       c.now,
	}, c.logger.With().Str("case_id", caseID).Logger())

	if !c.inFlight.SetIfAbsent(caseID, session.ID) {
		c.logger.Warn().Str("case_id", caseID).Msg("Location capture already running")
		return nil, ErrCaptureInProgress
	}
	defer c.inFlight.Remove(caseID)

	caseRecord, err := c.store.LoadCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	outcome, err := session.Run(ctx, caseRecord.PropertyLocation)
	if err != nil {
		return outcome, err
	}
	if !outcome.Committed() {
		return outcome, nil
	}

	err = c.store.UpdateCase(ctx, caseID, map[string]any{
		models.FieldPropertyLocation:     outcome.Record,
		models.FieldPropertyLocationText: outcome.DisplayText,
		models.FieldUpdatedAt:            c.now().UTC(),
	})
	if err != nil {
		c.logger.Error().Err(err).Str("case_id", caseID).Msg("Failed to save property location")
		c.publisher.Publish(CaptureEvent{
			SessionID: session.ID,
			CaseID:    caseID,
			Timestamp: c.now(),
			Status:    EventStatusState,
			State:     EventStateSaveFailed,
		})
		return outcome, fmt.Errorf("failed to save property location: %w", err)
	}

	c.publisher.Publish(CaptureEvent{
		SessionID: session.ID,
		CaseID:    caseID,
		Timestamp: c.now(),
		Status:    EventStatusState,
		State:     EventStateSaved,
		Location:  outcome.Record,
	})

	c.logger.Info().
		Str("case_id", caseID).
		Str("location", outcome.DisplayText).
		Int("readings", len(outcome.Sample.Collected)).
		Msg("Property location saved")

	if c.openMapOnCommit && c.viewer != nil {
		c.viewer.Open(outcome.Record)
	}

	return outcome, nil
}

// OpenCaseMap shows the stored location of a case in the map viewer.
func (c *CaptureService) OpenCaseMap(ctx context.Context, caseID string) error {
	caseRecord, err := c.store.LoadCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if caseRecord.PropertyLocation == nil {
		return ErrNoStoredLocation
	}
	if c.viewer != nil {
		c.viewer.Open(caseRecord.PropertyLocation)
	}
	return nil
}
