// Package retry classifies transient failures and applies bounded retry
// policies around them. All retry pacing in the app flows through this
// package so that no layer below it stacks its own retries on top.
package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"syscall"
	"time"
)

// Kind buckets an error by how it should be retried.
type Kind string

const (
	// KindRateLimit marks a remote throttling response.
	KindRateLimit Kind = "rate_limit"
	// KindNetwork marks a transport-level failure such as a timeout or a
	// dropped connection.
	KindNetwork Kind = "network"
	// KindAuth marks a rejected credential. Never retried.
	KindAuth Kind = "auth"
	// KindNotFound marks a missing remote resource. Never retried.
	KindNotFound Kind = "not_found"
	// KindOther is the fallback for everything else.
	KindOther Kind = "other"
)

// Classifier is implemented by error types that know their own retry kind.
type Classifier interface {
	RetryKind() Kind
}

// Classify determines the retry kind for err. Errors implementing
// Classifier report their own kind; otherwise common transport failures
// map to KindNetwork and the rest to KindOther.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}

	var c Classifier
	if errors.As(err, &c) {
		return c.RetryKind()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindNetwork
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return KindNetwork
	}

	return KindOther
}

// Policy bounds and paces retries.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay returns the pause after the given failed attempt (1-based).
	Delay func(attempt int, kind Kind) time.Duration

	// Retryable reports whether errors of the given kind should be
	// retried at all. A nil Retryable retries every kind.
	Retryable func(kind Kind) bool
}

// Exponential returns a policy that retries only the given kinds, with
// delays doubling from base up to the max cap.
func Exponential(maxAttempts int, base, maxDelay time.Duration, kinds ...Kind) Policy {
	allowed := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	return Policy{
		MaxAttempts: maxAttempts,
		Delay: func(attempt int, _ Kind) time.Duration {
			d := base << (attempt - 1)
			if d <= 0 || d > maxDelay {
				d = maxDelay
			}
			return d
		},
		Retryable: func(k Kind) bool {
			return allowed[k]
		},
	}
}

// FixedByKind returns a policy with a fixed delay per kind. Kinds absent
// from the table are not retried. Delays never grow across attempts.
func FixedByKind(maxAttempts int, delays map[Kind]time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Delay: func(_ int, k Kind) time.Duration {
			return delays[k]
		},
		Retryable: func(k Kind) bool {
			_, ok := delays[k]
			return ok
		},
	}
}

// Do runs op, retrying per the policy. It returns nil on the first
// success, or the last error once attempts are exhausted, the error kind
// is not retryable, or the context is done.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}

		kind := Classify(err)
		if attempt == policy.MaxAttempts {
			return err
		}
		if policy.Retryable != nil && !policy.Retryable(kind) {
			return err
		}

		var delay time.Duration
		if policy.Delay != nil {
			delay = policy.Delay(attempt, kind)
		}
		slog.Debug("retrying after failure",
			"kind", kind,
			"attempt", attempt,
			"maxAttempts", policy.MaxAttempts,
			"delay", delay,
			"error", err,
		)
		if sleepErr := sleepFn(ctx, delay); sleepErr != nil {
			return err
		}
	}
	return err
}

// sleepFn is swapped out in tests.
var sleepFn = sleep

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
