package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for payload")
		return nil
	}
}

func assertClosed(t *testing.T, ch <-chan []byte) {
	t.Helper()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel was not closed")
	}
}

func brokers(t *testing.T) map[string]ports.Broker {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]ports.Broker{
		"hub":   NewHub(),
		"redis": NewRedisBroker(client),
	}
}

func TestBroker_PublishSubscribe(t *testing.T) {
	for name, b := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			domains, err := b.Subscribe(ctx, ports.TopicDomainUpdate)
			require.NoError(t, err)
			clients, err := b.Subscribe(ctx, ports.TopicClientUpdate)
			require.NoError(t, err)

			require.NoError(t, b.Publish(ctx, ports.TopicDomainUpdate, []byte(`{"domain":{"id":"d1"}}`)))
			assert.JSONEq(t, `{"domain":{"id":"d1"}}`, string(receive(t, domains)))

			select {
			case msg := <-clients:
				t.Fatalf("unexpected payload on other topic: %s", msg)
			case <-time.After(50 * time.Millisecond):
			}

			cancel()
			assertClosed(t, domains)
			assertClosed(t, clients)
		})
	}
}

func TestBroker_LateSubscriberMissesPastPayloads(t *testing.T) {
	for name, b := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			require.NoError(t, b.Publish(ctx, ports.TopicDomainUpdate, []byte(`"early"`)))
			ch, err := b.Subscribe(ctx, ports.TopicDomainUpdate)
			require.NoError(t, err)
			require.NoError(t, b.Publish(ctx, ports.TopicDomainUpdate, []byte(`"late"`)))

			assert.Equal(t, `"late"`, string(receive(t, ch)))
		})
	}
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	h.buffer = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := h.Subscribe(ctx, "t")
	require.NoError(t, err)
	require.NoError(t, h.Publish(ctx, "t", []byte("first")))
	require.NoError(t, h.Publish(ctx, "t", []byte("second")))

	assert.Equal(t, "first", string(receive(t, ch)))
	select {
	case msg := <-ch:
		t.Fatalf("expected dropped payload, got %s", msg)
	default:
	}
}

func TestHub_UnsubscribesOnCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := h.Subscribe(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Subscribers("t"))

	cancel()
	assertClosed(t, ch)
	assert.Equal(t, 0, h.Subscribers("t"))
}
