package classify

import "errors"

// Validation rule sentinels. Every *ValidationError unwraps to one of them.
var (
	ErrMissingCapture     = errors.New("missing capture")
	ErrDuplicateCapture   = errors.New("duplicate capture")
	ErrUnexpectedCapture  = errors.New("unexpected capture")
	ErrMissingSignal      = errors.New("missing signal")
	ErrDuplicateSignal    = errors.New("duplicate signal")
	ErrInconsistentTiming = errors.New("inconsistent waveform timing")
	ErrInvalidMode        = errors.New("invalid cavity mode")
	ErrZoneMismatch       = errors.New("zone mismatch")
)

var (
	// ErrModeUnavailable is returned when a cavity's control mode cannot be determined.
	ErrModeUnavailable = errors.New("cavity mode unavailable")
	// ErrWindowOutOfRange is returned when a capture is too short for the analysis window.
	ErrWindowOutOfRange = errors.New("analysis window out of range")
	// ErrEngineInvocation is returned when an inference engine fails or answers unexpectedly.
	ErrEngineInvocation = errors.New("inference engine invocation failed")
)

// ValidationError reports the first validation rule an event broke.
type ValidationError struct {
	Reason error
	// Cavity is the offending cavity number, or 0 when the rule is not cavity specific.
	Cavity  int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Reason }

// Code returns a short label for the broken rule, used as a metric label.
func (e *ValidationError) Code() string {
	switch e.Reason {
	case ErrMissingCapture:
		return "missing_capture"
	case ErrDuplicateCapture:
		return "duplicate_capture"
	case ErrUnexpectedCapture:
		return "unexpected_capture"
	case ErrMissingSignal:
		return "missing_signal"
	case ErrDuplicateSignal:
		return "duplicate_signal"
	case ErrInconsistentTiming:
		return "timing"
	case ErrInvalidMode:
		return "mode"
	case ErrZoneMismatch:
		return "zone"
	default:
		return "other"
	}
}
