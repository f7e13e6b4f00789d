package brain

import "errors"

// ErrMaxStepsExceeded indicates that pipeline execution reached the maximum
// allowed step count without completing. This prevents accidental infinite
// loops when a conditional exit edge is misconfigured.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ErrMaxAttemptsExceeded indicates a stage kept failing with transient
// errors until its retry budget ran out.
var ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")

// ErrInvalidRetryPolicy indicates a RetryPolicy with impossible settings,
// e.g. MaxAttempts < 1 or MaxDelay below BaseDelay.
var ErrInvalidRetryPolicy = errors.New("invalid retry policy")

// EngineError represents an error from Engine operations.
type EngineError struct {
	Message string
	Code    string

	// Err is the underlying sentinel or cause, exposed via Unwrap so
	// callers can match with errors.Is.
	Err error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

func (e *EngineError) Unwrap() error { return e.Err }
