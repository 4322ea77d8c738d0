package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultRetries        = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultRetryMaxDelay  = 8 * time.Second
)

// ErrRetriesExhausted is returned when every attempt of a completion call failed.
var ErrRetriesExhausted = errors.New("completion retries exhausted")

// Params holds the model parameters of a completion call.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Stream      bool // always false, streaming is not supported
}

// CompletionProvider executes one remote completion call.
type CompletionProvider interface {
	Complete(ctx context.Context, messages []Message, params Params) (Message, error)
}

// CompletionFunc adapts a plain function to CompletionProvider.
type CompletionFunc func(ctx context.Context, messages []Message, params Params) (Message, error)

// Complete calls f.
func (f CompletionFunc) Complete(ctx context.Context, messages []Message, params Params) (Message, error) {
	return f(ctx, messages, params)
}

// RetryPolicy bounds the attempts of an Invoker.
type RetryPolicy struct {
	Retries   int           // additional attempts after the first failure
	BaseDelay time.Duration // delay before the first retry
	MaxDelay  time.Duration // upper bound for any delay
}

// DefaultRetryPolicy returns the policy used when nothing is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:   DefaultRetries,
		BaseDelay: DefaultRetryBaseDelay,
		MaxDelay:  DefaultRetryMaxDelay,
	}
}

// MaxAttempts returns the total number of calls the policy allows.
func (p RetryPolicy) MaxAttempts() int {
	if p.Retries < 0 {
		return 1
	}
	return p.Retries + 1
}

// backoff doubles from BaseDelay up to MaxDelay and stops after Retries.
func (p RetryPolicy) backoff() retry.Backoff {
	var b retry.Backoff
	if p.BaseDelay <= 0 {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	} else {
		b = retry.NewExponential(p.BaseDelay)
		if p.MaxDelay > 0 {
			b = retry.WithCappedDuration(p.MaxDelay, b)
		}
	}
	return retry.WithMaxRetries(uint64(p.MaxAttempts()-1), b)
}

// Invoker wraps CompletionProvider calls in a bounded retry policy.
// Every provider error is treated as transient.
type Invoker struct {
	provider CompletionProvider
	policy   RetryPolicy
	logger   zerolog.Logger
}

// NewInvoker creates an Invoker for the given provider.
func NewInvoker(provider CompletionProvider, policy RetryPolicy, logger zerolog.Logger) *Invoker {
	return &Invoker{
		provider: provider,
		policy:   policy,
		logger:   logger,
	}
}

// Invoke calls the provider until it succeeds or the policy is exhausted.
// Attempts are serialized; the last provider error is returned on exhaustion.
func (inv *Invoker) Invoke(ctx context.Context, messages []Message, params Params) (Message, error) {
	params.Stream = false
	maxAttempts := inv.policy.MaxAttempts()

	var (
		reply   Message
		attempt int
	)
	err := retry.Do(ctx, inv.policy.backoff(), func(ctx context.Context) error {
		attempt++
		msg, err := inv.provider.Complete(ctx, messages, params)
		if err != nil {
			inv.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Int("remaining", maxAttempts-attempt).
				Msg("completion attempt failed")
			return retry.RetryableError(err)
		}
		reply = msg
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return Message{}, fmt.Errorf("completion aborted after %d attempts: %w", attempt, err)
		}
		return Message{}, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
	}

	reply.Role = RoleAssistant
	return reply, nil
}
