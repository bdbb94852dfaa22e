package critic

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("critic: model temporarily unavailable")

// BreakerConfig tunes the circuit breaker and per-call timeout.
type BreakerConfig struct {
	Name             string
	Timeout          time.Duration // per call
	OpenFor          time.Duration // how long the breaker stays open
	Interval         time.Duration // counter reset period while closed
	MinRequests      uint32
	FailureThreshold float64
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "critic",
		Timeout:          60 * time.Second,
		OpenFor:          30 * time.Second,
		Interval:         2 * time.Minute,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
}

// breakerCompleter guards a Completer with a timeout and a circuit breaker.
type breakerCompleter struct {
	next    Completer
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

// WithBreaker wraps next so that every call gets cfg.Timeout and repeated
// failures open the breaker, failing fast with ErrUnavailable.
func WithBreaker(next Completer, cfg BreakerConfig, logger *log.Logger) Completer {
	if logger == nil {
		logger = log.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about the model's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &breakerCompleter{next: next, timeout: cfg.Timeout, cb: cb}
}

func (b *breakerCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if b.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return b.next.Complete(callCtx, system, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrUnavailable
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
