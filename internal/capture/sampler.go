package capture

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/benmeehan/fieldcase/pkg/location"
	"github.com/rs/zerolog"
)

// Sampling policy defaults.
const (
	DefaultTargetCount       = 7
	DefaultInterAttemptDelay = 1500 * time.Millisecond
	DefaultAttemptTimeout    = 10 * time.Second
)

var (
	// ErrNoFixAcquired is returned when every attempt of a sampling run failed.
	ErrNoFixAcquired = errors.New("unable to capture location: no GPS fix acquired")
	// ErrInvalidTargetCount is returned when the policy asks for fewer than one attempt.
	ErrInvalidTargetCount = errors.New("sampler target count must be at least 1")
)

// SamplerPolicy controls how many fixes are requested and how they are paced.
type SamplerPolicy struct {
	TargetCount       int           `yaml:"target_count"`
	InterAttemptDelay time.Duration `yaml:"inter_attempt_delay"`
	AttemptTimeout    time.Duration `yaml:"attempt_timeout"`
}

// DefaultSamplerPolicy returns 7 attempts, 1.5s apart, each bounded by 10s.
func DefaultSamplerPolicy() SamplerPolicy {
	return SamplerPolicy{
		TargetCount:       DefaultTargetCount,
		InterAttemptDelay: DefaultInterAttemptDelay,
		AttemptTimeout:    DefaultAttemptTimeout,
	}
}

// Progress is emitted after every successful attempt.
type Progress struct {
	Completed int              `json:"completed"`
	Target    int              `json:"target"`
	Attempt   int              `json:"attempt"`
	Latest    location.Reading `json:"latest"`
}

// SampleResult holds the chosen reading and every successful reading in attempt order.
type SampleResult struct {
	Best      location.Reading   `json:"best"`
	Collected []location.Reading `json:"collected"`
}

// Sampler runs the multi-reading acquisition loop against a location provider.
type Sampler struct {
	provider location.Provider
	policy   SamplerPolicy
	logger   zerolog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewSampler creates a Sampler for provider using policy.
func NewSampler(provider location.Provider, policy SamplerPolicy, logger zerolog.Logger) *Sampler {
	return &Sampler{
		provider: provider,
		policy:   policy,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Policy returns the sampling policy in use.
func (s *Sampler) Policy() SamplerPolicy {
	return s.policy
}

// Sample requests TargetCount fixes one after another and returns the most accurate one.
// Failed attempts are skipped. Only a run without a single fix fails with ErrNoFixAcquired.
// There is no overall deadline; cancelling ctx is the only way to stop a run early.
func (s *Sampler) Sample(ctx context.Context, onProgress func(Progress)) (SampleResult, error) {
	if s.policy.TargetCount < 1 {
		return SampleResult{}, ErrInvalidTargetCount
	}

	collected := make([]location.Reading, 0, s.policy.TargetCount)
	opts := location.FixOptions{
		HighAccuracy: true,
		Timeout:      s.policy.AttemptTimeout,
		MaxAge:       0,
	}

	for attempt := 1; attempt <= s.policy.TargetCount; attempt++ {
		reading, err := s.attempt(ctx, opts)
		switch {
		case ctx.Err() != nil:
			return SampleResult{}, ctx.Err()
		case err != nil:
			s.logger.Debug().
				Err(err).
				Int("attempt", attempt).
				Msg("Location attempt failed")
		default:
			collected = append(collected, reading)
			s.logger.Debug().
				Int("attempt", attempt).
				Float64("accuracy_m", reading.Accuracy).
				Msg("Location reading collected")
			if onProgress != nil {
				onProgress(Progress{
					Completed: len(collected),
					Target:    s.policy.TargetCount,
					Attempt:   attempt,
					Latest:    reading,
				})
			}
		}

		if attempt < s.policy.TargetCount {
			if err := s.sleep(ctx, s.policy.InterAttemptDelay); err != nil {
				return SampleResult{}, err
			}
		}
	}

	best, ok := BestReading(collected)
	if !ok {
		return SampleResult{}, ErrNoFixAcquired
	}

	return SampleResult{Best: best, Collected: collected}, nil
}

// attempt requests a single fix bounded by the per-attempt timeout.
func (s *Sampler) attempt(ctx context.Context, opts location.FixOptions) (location.Reading, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	reading, err := s.provider.GetCurrentFix(ctx, opts)
	if err != nil {
		return location.Reading{}, err
	}
	if reading.Accuracy < 0 || math.IsNaN(reading.Accuracy) {
		return location.Reading{}, &location.PositionError{
			Code: location.Unavailable,
			Err:  errors.New("provider reported an invalid accuracy"),
		}
	}
	return reading, nil
}

// BestReading returns the reading with the smallest accuracy radius.
// Ties go to the earliest reading.
func BestReading(readings []location.Reading) (location.Reading, bool) {
	if len(readings) == 0 {
		return location.Reading{}, false
	}
	best := readings[0]
	for _, r := range readings[1:] {
		if r.Accuracy < best.Accuracy {
			best = r
		}
	}
	return best, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
