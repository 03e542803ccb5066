package model

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hupe1980/agentchat/logging"
)

// BreakerOptions configures WithCircuitBreaker.
type BreakerOptions struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a half-open probe.
	Timeout time.Duration
	// Interval resets the failure counts while closed; zero never resets.
	Interval time.Duration
	// MaxRequests allowed in the half-open state.
	MaxRequests uint32
	Logger      logging.Logger
}

// CircuitBreakerModel stops calling a failing model until it recovers. The
// wrapped response is buffered, so partial chunks are not forwarded.
type CircuitBreakerModel struct {
	next    Model
	breaker *gobreaker.CircuitBreaker[*Response]
}

// WithCircuitBreaker wraps m with a circuit breaker. Requests made while the
// circuit is open fail with gobreaker.ErrOpenState.
func WithCircuitBreaker(m Model, optFns ...func(o *BreakerOptions)) *CircuitBreakerModel {
	opts := BreakerOptions{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		MaxRequests: 1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)
	name := m.Info().Provider + "/" + m.Info().Name

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: opts.MaxRequests,
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("model.breaker.state", "model", name, "from", from.String(), "to", to.String())
		},
	}
	return &CircuitBreakerModel{next: m, breaker: gobreaker.NewCircuitBreaker[*Response](settings)}
}

// Generate implements Model.
func (c *CircuitBreakerModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	resp, err := c.breaker.Execute(func() (*Response, error) {
		return Complete(ctx, c.next, req)
	})
	return emit(resp, err)
}

// State reports the current breaker state.
func (c *CircuitBreakerModel) State() gobreaker.State { return c.breaker.State() }

// Info implements Model.
func (c *CircuitBreakerModel) Info() Info { return c.next.Info() }
