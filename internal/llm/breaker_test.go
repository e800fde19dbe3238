package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerClient(t *testing.T) {
	t.Run("passes through success", func(t *testing.T) {
		inner := &countingClient{text: "answer"}
		client := WithBreaker(inner, DefaultBreakerConfig("test"), nil)

		resp, err := client.Send(context.Background(), Request{Prompt: "q"})
		require.NoError(t, err)
		assert.Equal(t, "answer", resp.Text)
		assert.Equal(t, "closed", client.State())
	})

	t.Run("opens after consecutive failures", func(t *testing.T) {
		inner := &countingClient{err: errors.New("boom")}
		cfg := DefaultBreakerConfig("test")
		cfg.ConsecutiveFailures = 3
		cfg.OpenTimeout = time.Minute
		client := WithBreaker(inner, cfg, nil)

		for i := 0; i < 3; i++ {
			_, err := client.Send(context.Background(), Request{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "boom")
		}
		assert.Equal(t, "open", client.State())

		_, err := client.Send(context.Background(), Request{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, int32(3), inner.calls.Load())
	})

	t.Run("cancellation does not count as failure", func(t *testing.T) {
		inner := &countingClient{err: context.Canceled}
		cfg := DefaultBreakerConfig("test")
		cfg.ConsecutiveFailures = 1
		client := WithBreaker(inner, cfg, nil)

		for i := 0; i < 3; i++ {
			_, err := client.Send(context.Background(), Request{})
			assert.ErrorIs(t, err, context.Canceled)
		}
		assert.Equal(t, "closed", client.State())
	})

	t.Run("applies call timeout", func(t *testing.T) {
		client := WithBreaker(ClientFunc(func(ctx context.Context, _ Request) (Response, error) {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
			return Response{Text: "x"}, nil
		}), BreakerConfig{Name: "test", CallTimeout: time.Second}, nil)

		_, err := client.Send(context.Background(), Request{})
		require.NoError(t, err)
	})
}
