package location

import (
	"context"
	"errors"
	"fmt"
)

// Provider interface defines the methods for location providers
type Provider interface {
	GetCurrentFix(ctx context.Context, opts FixOptions) (Reading, error)
	Close() error
}

// PositionErrorCode classifies why a fix could not be obtained.
type PositionErrorCode int

const (
	PermissionDenied PositionErrorCode = iota + 1
	Unavailable
	Timeout
)

func (c PositionErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission denied"
	case Unavailable:
		return "position unavailable"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// PositionError is returned by providers when a single fix request fails.
type PositionError struct {
	Code PositionErrorCode
	Err  error
}

func (e *PositionError) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *PositionError) Unwrap() error { return e.Err }

// classifyError wraps err into a PositionError, mapping context deadlines to Timeout.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var posErr *PositionError
	if errors.As(err, &posErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &PositionError{Code: Timeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &PositionError{Code: Unavailable, Err: err}
}
