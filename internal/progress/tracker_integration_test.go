//go:build integration

package progress

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nikhilbhutani/followuplab/internal/experiment"
)

func TestRedisTracker(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	backend := NewRedisBackend(client)
	require.NoError(t, backend.Ping(ctx))
	tr := NewTracker(backend, nil)

	_, err = tr.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownRun)

	require.NoError(t, tr.Queue(ctx, "run-1", 3))
	tr.Reporter("run-1").Finish(ctx, experiment.RunSummary{ExperimentID: 3, Total: 2, Generated: 2})

	s, err := tr.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, 2, s.Generated)

	ttl, err := client.TTL(ctx, "run:run-1").Result()
	require.NoError(t, err)
	assert.InDelta(t, snapshotTTL.Seconds(), ttl.Seconds(), 5)
}
