package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"mindcare_backend/internal/api"
)

// IPRateLimiter はクライアントIPごとにトークンバケットを持つレートリミッターです。
// 一定時間使われなかったバケットはgo-cacheの期限切れで破棄されます。
type IPRateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets *cache.Cache
}

// NewIPRateLimiter は1分あたり perMinute 回まで許可するリミッターを生成します。
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &IPRateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		buckets: cache.New(10*time.Minute, 20*time.Minute),
	}
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(ip); ok {
		lim := v.(*rate.Limiter)
		l.buckets.SetDefault(ip, lim)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.buckets.SetDefault(ip, lim)
	return lim
}

// Allow はクライアントIPのリクエストを許可するかを返します。
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.limiter(ip).Allow()
}

// Middleware は上限を超えたリクエストに429を返します。
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Message: "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}
