package capture

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/benmeehan/fieldcase/internal/mocks"
	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/benmeehan/fieldcase/pkg/location"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingObserver keeps every notification and checks busy state while sampling.
type recordingObserver struct {
	mu       sync.Mutex
	session  *Session
	states   []State
	progress []Progress
	busySeen []bool
}

func (o *recordingObserver) StateChanged(_ string, state State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *recordingObserver) ProgressUpdated(_ string, p Progress) {
	busy := o.session.Busy()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, p)
	o.busySeen = append(o.busySeen, busy)
}

func newTestSession(provider location.Provider, target int, confirmer Confirmer) (*Session, *recordingObserver) {
	observer := &recordingObserver{}
	sampler := NewSampler(provider, fastPolicy(target), zerolog.Nop())
	session := NewSession(sampler, confirmer, observer, zerolog.Nop())
	observer.session = session
	return session, observer
}

func assertCleared(t *testing.T, s *Session) {
	t.Helper()
	completed, target := s.Progress()
	assert.False(t, s.Busy())
	assert.Zero(t, completed)
	assert.Zero(t, target)
}

func TestSession_Run_EndToEndWithoutPreviousLocation(t *testing.T) {
	r := func(acc float64, at int64) *location.Reading {
		return &location.Reading{Latitude: 23.0, Longitude: 72.0, Accuracy: acc, CapturedAt: at}
	}
	provider := scriptedProvider([]*location.Reading{
		r(30, 1001), nil, nil, r(8, 1004), r(15, 1005), nil, r(6, 1007),
	})
	confirmer := new(mocks.MockConfirmer)

	session, observer := newTestSession(provider, 7, confirmer)
	outcome, err := session.Run(context.Background(), nil)

	require.NoError(t, err)
	require.True(t, outcome.Committed())
	assert.Equal(t, 6.0, outcome.Record.Accuracy)
	assert.Equal(t, int64(1007), outcome.Record.CapturedAt)
	assert.Equal(t, "23.000000, 72.000000 (±6.0m)", outcome.DisplayText)
	assert.Len(t, outcome.Sample.Collected, 4)

	assert.Equal(t, []State{StateSampling, StateCommitted}, observer.states)
	assert.Len(t, observer.progress, 4)
	assert.Equal(t, []bool{true, true, true, true}, observer.busySeen)
	assert.Equal(t, StateCommitted, session.State())
	assert.Same(t, outcome, session.Outcome())
	assertCleared(t, session)
	confirmer.AssertNotCalled(t, "Confirm", mock.Anything)
}

func TestSession_Run_DeclineRecaptureSkipsSampling(t *testing.T) {
	provider := new(mocks.MockProvider)
	confirmer := new(mocks.MockConfirmer)
	confirmer.On("Confirm", RecaptureMessage).Return(false, nil).Once()

	session, observer := newTestSession(provider, 7, confirmer)
	previous := &models.LocationRecord{Lat: 23.0, Lng: 72.0, Accuracy: 5}

	outcome, err := session.Run(context.Background(), previous)

	require.NoError(t, err)
	assert.Equal(t, StateAborted, outcome.State)
	assert.Equal(t, ReasonDeclinedRecapture, outcome.Reason)
	assert.Nil(t, outcome.Record)
	assert.Equal(t, []State{StateConfirmingRecapture, StateAborted}, observer.states)
	provider.AssertNotCalled(t, "GetCurrentFix", mock.Anything, mock.Anything)
	assertCleared(t, session)
}

func TestSession_Run_NoFixAcquired(t *testing.T) {
	provider := scriptedProvider(make([]*location.Reading, 3))
	session, _ := newTestSession(provider, 3, new(mocks.MockConfirmer))

	outcome, err := session.Run(context.Background(), nil)

	assert.ErrorIs(t, err, ErrNoFixAcquired)
	assert.Equal(t, StateAborted, outcome.State)
	assert.Equal(t, ReasonNoFix, outcome.Reason)
	assert.Nil(t, outcome.Record)
	assertCleared(t, session)
}

func TestSession_Run_SmallDriftCommitsAfterRecapture(t *testing.T) {
	provider := scriptedProvider([]*location.Reading{
		{Latitude: 23.0, Longitude: 72.0014, Accuracy: 4, CapturedAt: 50},
	})
	confirmer := new(mocks.MockConfirmer)
	confirmer.On("Confirm", RecaptureMessage).Return(true, nil).Once()

	session, observer := newTestSession(provider, 1, confirmer)
	previous := &models.LocationRecord{Lat: 23.0, Lng: 72.0, Accuracy: 9}

	outcome, err := session.Run(context.Background(), previous)

	require.NoError(t, err)
	assert.True(t, outcome.Committed())
	assert.InDelta(t, 143, outcome.DistanceMeters, 1)
	assert.Equal(t, []State{StateConfirmingRecapture, StateSampling, StateCommitted}, observer.states)
	confirmer.AssertNumberOfCalls(t, "Confirm", 1)
}

func TestSession_Run_DeclineReplaceKeepsPrevious(t *testing.T) {
	provider := scriptedProvider([]*location.Reading{
		{Latitude: 23.002, Longitude: 72.0, Accuracy: 4, CapturedAt: 50},
	})
	confirmer := new(mocks.MockConfirmer)
	confirmer.On("Confirm", RecaptureMessage).Return(true, nil).Once()
	confirmer.On("Confirm", ReplaceMessage(location.Haversine(
		location.Point{Latitude: 23.0, Longitude: 72.0},
		location.Point{Latitude: 23.002, Longitude: 72.0},
	))).Return(false, nil).Once()

	session, observer := newTestSession(provider, 1, confirmer)
	previous := &models.LocationRecord{Lat: 23.0, Lng: 72.0, Accuracy: 9, CapturedAt: 10}
	snapshot := *previous

	outcome, err := session.Run(context.Background(), previous)

	require.NoError(t, err)
	assert.Equal(t, StateAborted, outcome.State)
	assert.Equal(t, ReasonDeclinedReplace, outcome.Reason)
	assert.Nil(t, outcome.Record)
	assert.Equal(t, snapshot, *previous)
	assert.Equal(t, []State{StateConfirmingRecapture, StateSampling, StateReconciling, StateAborted}, observer.states)
	confirmer.AssertExpectations(t)
	assertCleared(t, session)
}

func TestSession_Run_ConfirmError(t *testing.T) {
	confirmer := new(mocks.MockConfirmer)
	confirmer.On("Confirm", RecaptureMessage).Return(false, errors.New("prompt closed"))

	session, _ := newTestSession(new(mocks.MockProvider), 1, confirmer)
	outcome, err := session.Run(context.Background(), &models.LocationRecord{})

	assert.EqualError(t, err, "prompt closed")
	assert.Equal(t, ReasonError, outcome.Reason)
}

func TestSession_Run_OnlyOnce(t *testing.T) {
	provider := scriptedProvider([]*location.Reading{{Accuracy: 3, CapturedAt: 1}})
	session, _ := newTestSession(provider, 1, new(mocks.MockConfirmer))

	_, err := session.Run(context.Background(), nil)
	require.NoError(t, err)

	_, err = session.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSessionFinished)
}

func TestSession_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := new(mocks.MockProvider)
	provider.On("GetCurrentFix", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(location.Reading{}, context.Canceled).Once()

	session, _ := newTestSession(provider, 5, new(mocks.MockConfirmer))
	outcome, err := session.Run(ctx, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ReasonCanceled, outcome.Reason)
	assertCleared(t, session)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "confirming_recapture", StateConfirmingRecapture.String())
	assert.True(t, StateAborted.Terminal())
	assert.False(t, StateSampling.Terminal())
}
