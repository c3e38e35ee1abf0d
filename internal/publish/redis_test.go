package publish

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (string, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready to accept connections").WithStartupTimeout(60*time.Second),
				wait.ForListeningPort("6379/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func TestRedisPublisher_Publish(t *testing.T) {
	addr, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	cfg := RedisConfig{Addr: addr, Stream: "momentum:records", Channel: "momentum:published", StreamMaxLen: 100}

	p, err := NewRedisPublisher(ctx, cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	reader := redis.NewClient(&redis.Options{Addr: addr})
	defer reader.Close()

	sub := reader.Subscribe(ctx, cfg.Channel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, testBatch()))

	entries, err := reader.XRange(ctx, cfg.Stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2025-10-13", entries[0].Values["as_of_date"])
	assert.Equal(t, "7d", entries[0].Values["window"])
	assert.Contains(t, entries[0].Values["payload"], `"item_id":"a"`)

	msgCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(msgCtx)
	require.NoError(t, err)
	assert.Contains(t, msg.Payload, entries[0].ID)
}

func TestNewRedisPublisher_Unreachable(t *testing.T) {
	_, err := NewRedisPublisher(context.Background(), RedisConfig{Addr: "127.0.0.1:1"}, nil)
	require.Error(t, err)
}
