package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited marks a provider answering 429. It always travels wrapped in
// ErrProviderUnavailable.
var ErrRateLimited = errors.New("rate limited")

// ErrProviderUnavailable marks a reputation or threat-intelligence provider that
// could not produce an answer. It is absorbed into degraded verdicts.
var ErrProviderUnavailable = errors.New("provider unavailable")

// InvalidTargetError reports a URL that cannot be assessed at all.
type InvalidTargetError struct {
	URL    string
	Reason string
	Err    error
}

func (e *InvalidTargetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid target %q: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid target %q: %s", e.URL, e.Reason)
}

func (e *InvalidTargetError) Unwrap() error { return e.Err }

// EvaluatorTimeout is recorded when an evaluator misses its deadline.
type EvaluatorTimeout struct {
	Kind    SignalKind
	Timeout time.Duration
}

func (e *EvaluatorTimeout) Error() string {
	return fmt.Sprintf("%s evaluator timed out after %s", e.Kind, e.Timeout)
}

// EvaluatorFailure wraps an error or panic raised inside an evaluator.
type EvaluatorFailure struct {
	Kind SignalKind
	Err  error
}

func (e *EvaluatorFailure) Error() string {
	return fmt.Sprintf("%s evaluator failed: %v", e.Kind, e.Err)
}

func (e *EvaluatorFailure) Unwrap() error { return e.Err }

// PersistenceFailure wraps an analysis log write error.
type PersistenceFailure struct {
	RecordID string
	Err      error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("persist record %s: %v", e.RecordID, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }
