package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessages = []Message{
	{Role: RoleSystem, Content: "sys"},
	{Role: RoleUser, Content: "hello"},
}

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{Retries: retries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestInvoker_Attempts(t *testing.T) {
	tests := []struct {
		name      string
		retries   int
		failures  int
		wantCalls int
		wantErr   bool
	}{
		{name: "first attempt succeeds", retries: 3, failures: 0, wantCalls: 1, wantErr: false},
		{name: "succeeds on last attempt", retries: 3, failures: 3, wantCalls: 4, wantErr: false},
		{name: "budget exhausted", retries: 3, failures: -1, wantCalls: 4, wantErr: true},
		{name: "no retries", retries: 0, failures: -1, wantCalls: 1, wantErr: true},
		{name: "negative retries", retries: -2, failures: -1, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeCompleter{failures: tt.failures}
			inv := NewInvoker(provider, fastPolicy(tt.retries), zerolog.Nop())

			msg, err := inv.Invoke(context.Background(), testMessages, Params{Model: "gpt-4.1"})

			assert.Equal(t, tt.wantCalls, provider.Calls())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrRetriesExhausted)
				assert.ErrorIs(t, err, errUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, RoleAssistant, msg.Role)
			assert.Equal(t, "with hello", msg.Content)
		})
	}
}

func TestInvoker_CoercesAssistantRole(t *testing.T) {
	provider := &fakeCompleter{}
	inv := NewInvoker(CompletionFunc(func(ctx context.Context, m []Message, p Params) (Message, error) {
		msg, err := provider.Complete(ctx, m, p)
		msg.Role = ""
		return msg, err
	}), fastPolicy(0), zerolog.Nop())

	msg, err := inv.Invoke(context.Background(), testMessages, Params{})

	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, msg.Role)
}

func TestInvoker_DisablesStreaming(t *testing.T) {
	var got Params
	inv := NewInvoker(CompletionFunc(func(_ context.Context, _ []Message, p Params) (Message, error) {
		got = p
		return Message{Role: RoleAssistant, Content: "ok"}, nil
	}), fastPolicy(0), zerolog.Nop())

	_, err := inv.Invoke(context.Background(), testMessages, Params{Model: "m", Temperature: 0.7, MaxTokens: 256, Stream: true})

	require.NoError(t, err)
	assert.Equal(t, Params{Model: "m", Temperature: 0.7, MaxTokens: 256, Stream: false}, got)
}

func TestInvoker_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := CompletionFunc(func(context.Context, []Message, Params) (Message, error) {
		cancel()
		return Message{}, errUnavailable
	})
	inv := NewInvoker(provider, RetryPolicy{Retries: 5, BaseDelay: time.Hour}, zerolog.Nop())

	_, err := inv.Invoke(ctx, testMessages, Params{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrRetriesExhausted))
}

func TestRetryPolicy_BackoffIsMonotonicAndBounded(t *testing.T) {
	policy := RetryPolicy{Retries: 8, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	b := policy.backoff()

	var delays []time.Duration
	for {
		d, stop := b.Next()
		if stop {
			break
		}
		delays = append(delays, d)
	}

	require.Len(t, delays, 8)
	for i, d := range delays {
		assert.LessOrEqual(t, d, time.Second)
		if i > 0 {
			assert.GreaterOrEqual(t, d, delays[i-1])
		}
	}
	assert.Equal(t, 100*time.Millisecond, delays[0])
}

func TestRetryPolicy_MaxAttempts(t *testing.T) {
	assert.Equal(t, 4, DefaultRetryPolicy().MaxAttempts())
	assert.Equal(t, 1, RetryPolicy{}.MaxAttempts())
	assert.Equal(t, 1, RetryPolicy{Retries: -1}.MaxAttempts())
}
