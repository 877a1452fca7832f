package api

import (
	"context"
	"errors"
	"time"

	"vlr-pipeline/internal/constants"
)

// TransientError marks a failure worth retrying: a rate-limit response
// or a transport-level error. Everything else is permanent for the call.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// RetryPolicy retries a single failing call. Backoff and sleep are fields
// so tests can account attempts and delays without real timing.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Sleep       func(d time.Duration)
}

// LinearBackoff scales the base delay by the attempt number.
func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: constants.FetchMaxAttempts,
		Backoff:     LinearBackoff(constants.FetchBackoffBase),
		Sleep:       time.Sleep,
	}
}

// Do runs op until it succeeds, fails permanently, or exhausts the
// attempt budget. Only transient failures are retried.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = op()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt < p.MaxAttempts {
			p.Sleep(p.Backoff(attempt))
		}
	}
	return err
}
