package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionFinished is returned when Run is called on a session that already ran.
var ErrSessionFinished = errors.New("capture session has already run")

// State of a capture session.
type State int

const (
	StateIdle State = iota
	StateConfirmingRecapture
	StateSampling
	StateReconciling
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirmingRecapture:
		return "confirming_recapture"
	case StateSampling:
		return "sampling"
	case StateReconciling:
		return "reconciling"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}

// AbortReason explains why a session ended in StateAborted.
type AbortReason string

const (
	ReasonDeclinedRecapture AbortReason = "declined_recapture"
	ReasonNoFix             AbortReason = "no_fix"
	ReasonDeclinedReplace   AbortReason = "declined_replace"
	ReasonCanceled          AbortReason = "canceled"
	ReasonError             AbortReason = "error"
)

// Outcome is the terminal result of a session.
type Outcome struct {
	State          State
	Reason         AbortReason
	Record         *models.LocationRecord
	DisplayText    string
	Sample         *SampleResult
	DistanceMeters float64
}

// Committed reports whether a new record was produced.
func (o *Outcome) Committed() bool {
	return o != nil && o.State == StateCommitted
}

// Observer receives session notifications. Calls happen on the goroutine running the session.
type Observer interface {
	StateChanged(sessionID string, state State)
	ProgressUpdated(sessionID string, progress Progress)
}

type nopObserver struct{}

func (nopObserver) StateChanged(string, State)       {}
func (nopObserver) ProgressUpdated(string, Progress) {}

// Session drives one capture: optional recapture prompt, sampling, reconciliation, commit.
// A session runs once. Its accessors are safe to call from other goroutines while it runs.
type Session struct {
	ID string

	sampler  *Sampler
	confirm  Confirmer
	observer Observer
	logger   zerolog.Logger

	mu        sync.Mutex
	started   bool
	state     State
	busy      bool
	completed int
	target    int
	outcome   *Outcome
}

// NewSession creates an idle session. observer may be nil.
func NewSession(sampler *Sampler, confirm Confirmer, observer Observer, logger zerolog.Logger) *Session {
	if observer == nil {
		observer = nopObserver{}
	}
	id := uuid.New().String()
	return &Session{
		ID:       id,
		sampler:  sampler,
		confirm:  confirm,
		observer: observer,
		logger:   logger.With().Str("session_id", id).Logger(),
		state:    StateIdle,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether sampling or reconciliation is in progress.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Progress returns the number of readings collected so far and the target.
func (s *Session) Progress() (completed, target int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed, s.target
}

// Outcome returns the terminal outcome, or nil while the session has not finished.
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Run executes the session. previous is the location currently stored on the case, if any.
// A user decline is a normal outcome and returns a nil error; ErrNoFixAcquired and
// context errors are returned alongside an aborted outcome.
func (s *Session) Run(ctx context.Context, previous *models.LocationRecord) (*Outcome, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil, ErrSessionFinished
	}
	s.started = true
	s.mu.Unlock()

	// busy state and counters never outlive Run
	defer s.clearBusy()

	if previous != nil {
		s.transition(StateConfirmingRecapture)
		ok, err := s.confirm.Confirm(RecaptureMessage)
		if err != nil {
			return s.finish(&Outcome{State: StateAborted, Reason: ReasonError}), err
		}
		if !ok {
			return s.finish(&Outcome{State: StateAborted, Reason: ReasonDeclinedRecapture}), nil
		}
	}

	s.startSampling()
	result, err := s.sampler.Sample(ctx, s.onProgress)
	if err != nil {
		reason := ReasonError
		switch {
		case errors.Is(err, ErrNoFixAcquired):
			reason = ReasonNoFix
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			reason = ReasonCanceled
		}
		s.logger.Warn().Err(err).Str("reason", string(reason)).Msg("Location sampling failed")
		return s.finish(&Outcome{State: StateAborted, Reason: reason}), err
	}

	// moves within the threshold are accepted without entering Reconciling
	if NeedsConfirmation(previous, result.Best) {
		s.transition(StateReconciling)
	}
	decision, err := Reconcile(previous, result.Best, s.confirm)
	if err != nil {
		return s.finish(&Outcome{State: StateAborted, Reason: ReasonError, Sample: &result}), err
	}
	if decision.Verdict == Reject {
		return s.finish(&Outcome{
			State:          StateAborted,
			Reason:         ReasonDeclinedReplace,
			Sample:         &result,
			DistanceMeters: decision.DistanceMeters,
		}), nil
	}

	return s.finish(&Outcome{
		State:          StateCommitted,
		Record:         decision.Record,
		DisplayText:    decision.Record.DisplayText(),
		Sample:         &result,
		DistanceMeters: decision.DistanceMeters,
	}), nil
}

func (s *Session) transition(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.logger.Debug().Str("state", state.String()).Msg("Capture session state changed")
	s.observer.StateChanged(s.ID, state)
}

func (s *Session) startSampling() {
	s.mu.Lock()
	s.state = StateSampling
	s.busy = true
	s.completed = 0
	s.target = s.sampler.Policy().TargetCount
	s.mu.Unlock()

	s.logger.Info().Int("target", s.sampler.Policy().TargetCount).Msg("Location sampling started")
	s.observer.StateChanged(s.ID, StateSampling)
}

func (s *Session) onProgress(p Progress) {
	s.mu.Lock()
	s.completed = p.Completed
	s.mu.Unlock()

	s.observer.ProgressUpdated(s.ID, p)
}

func (s *Session) clearBusy() {
	s.mu.Lock()
	s.busy = false
	s.completed = 0
	s.target = 0
	s.mu.Unlock()
}

// finish records the outcome and clears busy state before observers hear about it.
func (s *Session) finish(outcome *Outcome) *Outcome {
	s.clearBusy()

	s.mu.Lock()
	s.state = outcome.State
	s.outcome = outcome
	s.mu.Unlock()

	event := s.logger.Info().Str("state", outcome.State.String())
	if outcome.Reason != "" {
		event = event.Str("reason", string(outcome.Reason))
	}
	if outcome.Record != nil {
		event = event.Str("location", outcome.DisplayText)
	}
	event.Msg("Capture session finished")

	s.observer.StateChanged(s.ID, outcome.State)
	return outcome
}
