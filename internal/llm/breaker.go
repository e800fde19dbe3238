package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("model provider temporarily unavailable")

// BreakerConfig configures circuit breaking around a provider.
type BreakerConfig struct {
	Name string

	// CallTimeout bounds every call. Zero disables the per-call timeout.
	CallTimeout time.Duration

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration

	// Interval clears failure counts while closed. Zero never clears.
	Interval time.Duration

	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns the settings used by the CLI.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:                name,
		CallTimeout:         90 * time.Second,
		OpenTimeout:         30 * time.Second,
		Interval:            60 * time.Second,
		MaxRequests:         1,
		ConsecutiveFailures: 5,
	}
}

// BreakerClient wraps a Client with a circuit breaker and a per-call timeout.
type BreakerClient struct {
	next    Client
	cb      *gobreaker.CircuitBreaker
	logger  *slog.Logger
	timeout time.Duration
}

// WithBreaker wraps client in a circuit breaker.
func WithBreaker(client Client, cfg BreakerConfig, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}

	bc := &BreakerClient{
		next:    client,
		logger:  logger,
		timeout: cfg.CallTimeout,
	}

	threshold := cfg.ConsecutiveFailures
	bc.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Callers giving up is not a provider fault.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return bc
}

// Send forwards the request unless the breaker is open.
func (c *BreakerClient) Send(ctx context.Context, req Request) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.next.Send(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Response{}, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		return Response{}, err
	}

	return result.(Response), nil
}

// State reports the breaker state, for diagnostics.
func (c *BreakerClient) State() string {
	return c.cb.State().String()
}
