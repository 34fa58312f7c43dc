package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/foxauth/internal/pkg/env"
)

func TestNew(t *testing.T) {
	e := New(UserVerified, 3)
	assert.Equal(t, UserVerified, e.Name)
	assert.EqualValues(t, 3, e.UserID)
	assert.WithinDuration(t, time.Now(), e.OccurredAt, time.Second)
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, LogPublisher{}.Publish(context.Background(), New(UserRegistered, 1)))
}

func TestRedisPublisher(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	channel := "foxauth:test:events"
	sub := client.Subscribe(context.Background(), channel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	pub := NewRedisPublisher(client, channel)
	require.NoError(t, pub.Publish(context.Background(), New(UserVerified, 9)))

	recvCtx, recvCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer recvCancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, UserVerified, got.Name)
	assert.EqualValues(t, 9, got.UserID)
}
