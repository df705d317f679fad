package redis

import (
	"context"
	"log/slog"
	"net"

	"github.com/redis/go-redis/v9"

	"mindcare_backend/internal/platform/config"
)

// NewRedisClient はRedisクライアントを生成し、接続確認を行います。
// Host が未設定の場合は (nil, nil) を返し、呼び出し側はRedisなしの実装を選びます。
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		slog.Info("Redis is not configured, falling back to in-process stores")
		return nil, nil
	}
	addr := net.JoinHostPort(cfg.Host, cfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       0,
	})

	// 接続確認
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
