package providers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker wrapping an LLM or OCR backend.
type BreakerConfig struct {
	MaxRequests  uint32        // half-open probe budget
	OpenTimeout  time.Duration // how long the circuit stays open
	MinRequests  uint32        // minimum calls before the trip ratio applies
	FailureRatio float64
}

func (c BreakerConfig) normalize() BreakerConfig {
	if c.MaxRequests == 0 {
		c.MaxRequests = 1
	}
	if c.OpenTimeout == 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio == 0 {
		c.FailureRatio = 0.6
	}
	return c
}

// BreakerClient wraps an LLMClient with a circuit breaker so a failing
// backend sheds load fast instead of stalling every document in a batch.
type BreakerClient struct {
	inner   LLMClient
	breaker *gobreaker.CircuitBreaker[*ChatResult]
	logger  *slog.Logger
}

// NewBreakerClient wraps client with circuit breaking.
func NewBreakerClient(client LLMClient, cfg BreakerConfig, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.normalize()

	settings := gobreaker.Settings{
		Name:        client.Name(),
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Caller-side cancellation is not a backend failure.
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("providers.breaker.state_change",
				"provider", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerClient{
		inner:   client,
		breaker: gobreaker.NewCircuitBreaker[*ChatResult](settings),
		logger:  logger,
	}
}

// Name returns the wrapped client's identifier.
func (b *BreakerClient) Name() string { return b.inner.Name() }

// Chat sends the request through the circuit breaker.
func (b *BreakerClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	return b.breaker.Execute(func() (*ChatResult, error) {
		return b.inner.Chat(ctx, req)
	})
}
