package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCache(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		cache := newResponseCache(time.Minute)
		defer cache.close()

		cache.set("k", Response{Text: "v"})
		got, ok := cache.get("k")
		assert.True(t, ok)
		assert.Equal(t, "v", got.Text)
		assert.Equal(t, 1, cache.size())
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		cache := newResponseCache(10 * time.Millisecond)
		defer cache.close()

		cache.set("k", Response{Text: "v"})
		time.Sleep(20 * time.Millisecond)
		_, ok := cache.get("k")
		assert.False(t, ok)
	})
}

func TestCachedClient(t *testing.T) {
	t.Run("identical requests hit cache", func(t *testing.T) {
		inner := &countingClient{text: "answer"}
		client := WithCache(inner, time.Minute)
		defer client.Close()

		for i := 0; i < 3; i++ {
			resp, err := client.Send(context.Background(), Request{System: "s", Prompt: "p"})
			require.NoError(t, err)
			assert.Equal(t, "answer", resp.Text)
		}
		assert.Equal(t, int32(1), inner.calls.Load())

		_, err := client.Send(context.Background(), Request{System: "s", Prompt: "other"})
		require.NoError(t, err)
		assert.Equal(t, int32(2), inner.calls.Load())
	})

	t.Run("image requests bypass cache", func(t *testing.T) {
		inner := &countingClient{text: "answer"}
		client := WithCache(inner, time.Minute)
		defer client.Close()

		req := Request{Prompt: "p", Images: []Image{{MIMEType: "image/png", Data: []byte{1}}}}
		_, _ = client.Send(context.Background(), req)
		_, _ = client.Send(context.Background(), req)
		assert.Equal(t, int32(2), inner.calls.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		inner := &countingClient{err: errors.New("down")}
		client := WithCache(inner, time.Minute)
		defer client.Close()

		_, err := client.Send(context.Background(), Request{Prompt: "p"})
		require.Error(t, err)
		_, err = client.Send(context.Background(), Request{Prompt: "p"})
		require.Error(t, err)
		assert.Equal(t, int32(2), inner.calls.Load())
	})
}
