package events

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"restaurant-service/internal/shared/logging"
)

type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
}

type breakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// WithBreaker stops calling next after FailureThreshold consecutive failures
// and fails fast with gobreaker.ErrOpenState until Timeout elapses.
func WithBreaker(next Publisher, cfg BreakerConfig) Publisher {
	if cfg.Name == "" {
		cfg.Name = "relation-events"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("publisher circuit state changed")
		},
	}
	return &breakerPublisher{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](st)}
}

func (b *breakerPublisher) Publish(ctx context.Context, ev RelationEvent) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Publish(ctx, ev)
	})
	return err
}

func (b *breakerPublisher) Close() error { return b.next.Close() }
