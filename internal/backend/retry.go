package backend

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/osse101/playerledger/internal/logger"
	"github.com/osse101/playerledger/internal/metrics"
)

// Retry policy defaults
const (
	DefaultRetryAttempts        = 5
	DefaultRetryInitialInterval = 20 * time.Millisecond
	DefaultRetryMaxInterval     = 500 * time.Millisecond
)

// RetryPolicy bounds how often a store re-runs an atomic unit that lost a race.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     DefaultRetryAttempts,
		InitialInterval: DefaultRetryInitialInterval,
		MaxInterval:     DefaultRetryMaxInterval,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Do runs op until it succeeds, fails with an error retryable rejects, or the
// attempts are exhausted. The last error is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, backendName string, retryable func(error) bool, op func() error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		metrics.LedgerRetriesTotal.WithLabelValues(backendName).Inc()
		logger.FromContext(ctx).Debug("Retrying ledger transaction", "backend", backendName, "attempt", attempt, "error", err)
		return err
	}, p.backOff(ctx))
}
