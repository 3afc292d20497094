package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"analytics-service/internal/core/domain"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings - circuit breaker around storage reads
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
	// OnStateChange receives gobreaker state names
	OnStateChange func(name, from, to string)
}

var DefaultBreakerSettings = BreakerSettings{
	Name:         "sqlstore",
	MaxRequests:  3,
	Interval:     time.Minute,
	Timeout:      30 * time.Second,
	MinRequests:  10,
	FailureRatio: 0.6,
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		// a miss or a cancelled request says nothing about database health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrPropertyNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if s.OnStateChange != nil {
				s.OnStateChange(name, from.String(), to.String())
			}
		},
	})
}

// read runs fn through the breaker under the query timeout. An open breaker
// maps to ErrStorageUnavailable.
func read[T any](ctx context.Context, r *Repository, fn func(ctx context.Context) (T, error)) (T, error) {
	if r.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.QueryTimeout)
		defer cancel()
	}
	res, err := r.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		return zero, err
	}
	return res.(T), nil
}
