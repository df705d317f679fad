// Package middleware はルーター全体に適用するGinミドルウェアを提供します。
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mindcare_backend/internal/api"
)

const (
	// HeaderXRequestID はリクエストIDを運ぶヘッダーです。
	HeaderXRequestID = "X-Request-ID"
	// ContextRequestID はgin.ContextにリクエストIDを格納するキーです。
	ContextRequestID = "request_id"
)

// RequestID は各リクエストにIDを割り当て、レスポンスヘッダーに返します。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" || len(rid) > 64 {
			rid = uuid.NewString()
		}
		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}

// Logger はリクエストごとに1行のアクセスログを出力します。
// ボディは機密情報を含むため記録しません。
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := []any{
			"request_id", c.GetString(ContextRequestID),
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			slog.Error("request completed", attrs...)
		case status >= http.StatusBadRequest:
			slog.Warn("request completed", attrs...)
		default:
			slog.Info("request completed", attrs...)
		}
	}
}

// Recovery はpanicを500に変換します。スタックトレースはサーバー側のログにのみ出力します。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered",
					"panic", r,
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(ContextRequestID),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Internal server error"})
			}
		}()
		c.Next()
	}
}

// NotFound は未定義のルートに404を返します。
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "Route not found"})
}

// CORS はフロントエンドのオリジンからの資格情報付きリクエストを許可します。
func CORS(origin string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", HeaderXRequestID},
		ExposeHeaders:    []string{HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
