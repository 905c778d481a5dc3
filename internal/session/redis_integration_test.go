//go:build integration

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore_RoundTripAndAtomicity(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore(startRedis(t), time.Minute)
	require.NoError(t, s.Ping(ctx))

	st, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.False(t, st.HasRevision())

	_, err = s.Update(ctx, "a", func(st *SelectionState) error {
		st.SelectRevision("vision", "detection", "detector", "v1")
		st.SetWeight("backbone", "w1")
		return nil
	})
	require.NoError(t, err)

	_, err = s.Update(ctx, "a", func(st *SelectionState) error {
		st.SetWeight("backbone", "w2")
		return errors.New("rejected")
	})
	require.Error(t, err)

	st, err = s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "detector", st.Pipeline)
	assert.Equal(t, "w1", st.Weights["backbone"])

	require.NoError(t, s.Delete(ctx, "a"))
	st, err = s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, st.Pipeline)
}

func TestRedisStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore(startRedis(t), 0)
	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "a", func(st *SelectionState) error {
				n, _ := st.Params["n"].(float64)
				st.SetParam("n", n+1)
				return nil
			})
			if err == nil {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	st, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, float64(applied), st.Params["n"])
}
