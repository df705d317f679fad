// Package ratelimiter は外部API呼び出しの頻度を制限します。
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiter は interval あたり limit 回までの呼び出しを許可します。
// 上限に達した場合は次の枠が空くまで待機します。
type RateLimiter struct {
	limiter *rate.Limiter
	limit   int
}

var _ RateLimiterInterface = (*RateLimiter)(nil)

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval/time.Duration(limit)), limit),
		limit:   limit,
	}
}

// Wait は呼び出し枠が空くまで待機します。コンテキストが先に終了する場合はエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter.Tokens() < 1 {
		slog.Debug("rate limit reached, waiting", "limit", rl.limit)
	}
	return rl.limiter.Wait(ctx)
}
