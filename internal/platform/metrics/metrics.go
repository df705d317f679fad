// Package metrics はPrometheusメトリクスの登録とエクスポートを提供します。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はアプリケーション専用のレジストリとコレクターを保持します。
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	authAttempts *prometheus.CounterVec
	bookings     *prometheus.CounterVec
	emotions     *prometheus.CounterVec
}

// New はレジストリを作成し、全コレクターを登録します。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Authentication attempts by method and result",
			},
			[]string{"method", "result"},
		),
		bookings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Slot booking attempts by result",
			},
			[]string{"result"},
		),
		emotions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emotion_analyses_total",
				Help: "Emotion analyses by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.requestTotal,
		m.authAttempts,
		m.bookings,
		m.emotions,
	)
	return m
}

// Middleware はリクエスト数とレイテンシを記録します。ラベルにはルートパターンを使います。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

// Handler は /metrics のハンドラーを返します。
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// AuthAttempt は認証試行の結果を記録します。method は local/google/twitter/refresh です。
func (m *Metrics) AuthAttempt(method, result string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(method, result).Inc()
}

// Booking は予約試行の結果を記録します。
func (m *Metrics) Booking(result string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(result).Inc()
}

// EmotionAnalysis は感情分析の結果を記録します。
func (m *Metrics) EmotionAnalysis(result string) {
	if m == nil {
		return
	}
	m.emotions.WithLabelValues(result).Inc()
}
