package oauthstate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store interface {
	Put(ctx context.Context, nonce, value string) error
	Take(ctx context.Context, nonce string) (string, error)
}

func TestStores_TakeOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stores := map[string]store{
		"redis":  NewRedisStore(client, "oauth"),
		"memory": NewMemoryStore(),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, "nonce-1", "verifier-1"))

			v, err := s.Take(ctx, "nonce-1")
			require.NoError(t, err)
			assert.Equal(t, "verifier-1", v)

			_, err = s.Take(ctx, "nonce-1")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.Take(ctx, "unknown")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStores_ConcurrentTakeSucceedsOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stores := map[string]store{
		"redis":  NewRedisStore(client, "oauth"),
		"memory": NewMemoryStore(),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for round := 0; round < 20; round++ {
				require.NoError(t, s.Put(ctx, "nonce", "verifier"))

				var wins atomic.Int32
				var wg sync.WaitGroup
				start := make(chan struct{})
				for i := 0; i < 16; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						<-start
						if _, err := s.Take(ctx, "nonce"); err == nil {
							wins.Add(1)
						}
					}()
				}
				close(start)
				wg.Wait()
				assert.Equal(t, int32(1), wins.Load(), "round %d", round)
			}
		})
	}
}

func TestRedisStore_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client, "oauth")

	require.NoError(t, s.Put(context.Background(), "n", "v"))
	assert.Equal(t, TTL, mr.TTL("oauth:n"))

	mr.FastForward(TTL + time.Second)
	_, err := s.Take(context.Background(), "n")
	assert.ErrorIs(t, err, ErrNotFound)
}
