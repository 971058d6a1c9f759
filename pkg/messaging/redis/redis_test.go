package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/feedback-api/pkg/messaging"
)

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewClient(ctx, Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	broker := NewRedisBroker(client, zerolog.Nop())
	defer broker.Close()

	msgs, err := broker.Subscribe(ctx, messaging.ChannelNotifications)
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, messaging.ChannelNotifications, map[string]string{"title": "hi"}))

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"title":"hi"}`, string(msg))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestRedisBroker_CloseLeavesClientOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)

	broker := NewRedisBroker(client, zerolog.Nop())
	require.NoError(t, broker.Close())

	assert.ErrorIs(t, broker.Publish(ctx, messaging.ChannelNotifications, "x"), messaging.ErrClosed)
	assert.NoError(t, client.Ping(ctx).Err())
	assert.NoError(t, client.Close())
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(context.Background(), Config{URL: "not a url"})
	assert.Error(t, err)
}
