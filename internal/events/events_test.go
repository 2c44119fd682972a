package events

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBroadcasterDeliversToSubscribers(t *testing.T) {
	b := NewLocalBroadcaster(4)
	first, unsubscribeFirst := b.Subscribe()
	second, unsubscribeSecond := b.Subscribe()
	defer unsubscribeSecond()

	event := Event{
		Type: EventCryptoFintracReportSubmitted,
		Data: map[string]interface{}{"reportReference": "VCTR_20261017120000_ABCDEFGH"},
	}
	require.NoError(t, b.Publish(context.Background(), event))

	for _, ch := range []<-chan Event{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, EventCryptoFintracReportSubmitted, got.Type)
			assert.False(t, got.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	unsubscribeFirst()
	unsubscribeFirst()
	_, open := <-first
	assert.False(t, open, "channel should be closed after unsubscribe")
}

func TestLocalBroadcasterDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := NewLocalBroadcaster(1)
	_, unsubscribe := b.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		assert.NoError(t, b.Publish(ctx, Event{Type: EventCryptoFintracReportSubmitted}))
	}
}

func TestLocalBroadcasterCanceledContext(t *testing.T) {
	b := NewLocalBroadcaster(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Publish(ctx, Event{Type: EventCryptoFintracReportSubmitted}), context.Canceled)
}

func TestRedisBroadcasterUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	b := NewRedisBroadcaster(client, "fintrac:events")
	err := b.Publish(context.Background(), Event{Type: EventCryptoFintracReportSubmitted})
	assert.Error(t, err)
}
