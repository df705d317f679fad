// Package oauthstate はOAuthフロー中の一時データ（PKCEのverifier）をnonceをキーに保持します。
// 値は一度だけ取り出せます。
package oauthstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// TTL は保留中のOAuthフローを保持する時間です。
const TTL = 10 * time.Minute

// ErrNotFound はnonceに対応する値がない（期限切れ・使用済み）ことを表します。
var ErrNotFound = errors.New("oauth state not found")

// RedisStore はRedisを使ったストアです。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore はRedisStoreを生成します。
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(nonce string) string {
	return s.prefix + ":" + nonce
}

// Put は値を保存します。
func (s *RedisStore) Put(ctx context.Context, nonce, value string) error {
	return s.client.Set(ctx, s.key(nonce), value, TTL).Err()
}

// Take は値を取り出して削除します。
func (s *RedisStore) Take(ctx context.Context, nonce string) (string, error) {
	v, err := s.client.GetDel(ctx, s.key(nonce)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

// MemoryStore はRedisがない環境向けのプロセス内ストアです。
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewMemoryStore はMemoryStoreを生成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(TTL, 2*TTL)}
}

// Put は値を保存します。
func (s *MemoryStore) Put(_ context.Context, nonce, value string) error {
	s.cache.Set(nonce, value, cache.DefaultExpiration)
	return nil
}

// Take は値を取り出して削除します。
// 取得と削除は同じロックの中で行い、同時に呼ばれても取り出せるのは1回だけです。
func (s *MemoryStore) Take(_ context.Context, nonce string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(nonce)
	if !ok {
		return "", ErrNotFound
	}
	s.cache.Delete(nonce)
	return v.(string), nil
}
