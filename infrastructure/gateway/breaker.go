package gateway

import (
	"context"
	"errors"
	"time"

	"marketplace-backend/application/ports"
	"marketplace-backend/pkg/cipher"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the gateway circuit breaker.
type BreakerConfig struct {
	Name string
	// MaxRequests may pass while half-open.
	MaxRequests uint32
	Interval    time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns the settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "encryption-gateway",
		MaxRequests:         1,
		Interval:            30 * time.Second,
		Timeout:             15 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Breaker fails gateway calls fast once the gateway keeps failing. An open
// breaker returns gobreaker.ErrOpenState, which callers surface as an
// encryption or decryption failure like any other gateway error.
type Breaker struct {
	next ports.Gateway
	cb   *gobreaker.CircuitBreaker
}

var _ ports.Gateway = (*Breaker)(nil)

func NewBreaker(next ports.Gateway, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerConfig().ConsecutiveFailures
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: answered,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Gateway circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Breaker{next: next, cb: cb}
}

// answered reports whether the gateway itself worked. A rejected ciphertext
// is a property of the record, not of the gateway, and must not trip the
// breaker.
func answered(err error) bool {
	return err == nil ||
		errors.Is(err, ErrGatewayStatus) ||
		errors.Is(err, cipher.ErrInvalidInput) ||
		errors.Is(err, cipher.ErrInvalidLength) ||
		errors.Is(err, cipher.ErrInvalidPadding)
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) EncryptText(ctx context.Context, plaintext string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.EncryptText(ctx, plaintext)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *Breaker) EncryptFields(ctx context.Context, fields map[string]string) (map[string]string, error) {
	return b.fields(func() (map[string]string, error) { return b.next.EncryptFields(ctx, fields) })
}

func (b *Breaker) DecryptText(ctx context.Context, ciphertext string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.DecryptText(ctx, ciphertext)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *Breaker) DecryptFields(ctx context.Context, fields map[string]string) (map[string]string, error) {
	return b.fields(func() (map[string]string, error) { return b.next.DecryptFields(ctx, fields) })
}

func (b *Breaker) fields(fn func() (map[string]string, error)) (map[string]string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return out.(map[string]string), nil
}
