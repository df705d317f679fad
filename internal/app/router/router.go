// Package router はGinエンジンとルートテーブルを構築します。
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindcare_backend/internal/api"
	authentity "mindcare_backend/internal/feature/auth/domain/entity"
	authhandler "mindcare_backend/internal/feature/auth/transport/handler"
	bookinghandler "mindcare_backend/internal/feature/booking/transport/handler"
	doctorhandler "mindcare_backend/internal/feature/doctor/transport/handler"
	emotionhandler "mindcare_backend/internal/feature/emotion/transport/handler"
	intakehandler "mindcare_backend/internal/feature/intake/transport/handler"
	platformhandler "mindcare_backend/internal/platform/http/handler"
	"mindcare_backend/internal/platform/http/middleware"
	jwtmw "mindcare_backend/internal/platform/jwt"
	"mindcare_backend/internal/platform/metrics"
)

// Handlers はルーターに登録するフィーチャーごとのハンドラーです。
// Google / Twitter / Emotion は設定がない場合 nil で構いません。
type Handlers struct {
	Auth    *authhandler.AuthHandler
	OAuth   *authhandler.OAuthHandler
	Google  authhandler.OAuthProvider
	Twitter authhandler.OAuthProvider
	Doctor  *doctorhandler.DoctorHandler
	Booking *bookinghandler.BookingHandler
	Intake  *intakehandler.IntakeHandler
	Emotion *emotionhandler.EmotionHandler
}

// Options はミドルウェアとプラットフォームエンドポイントの設定です。
type Options struct {
	CORSOrigin          string
	SigninRatePerMinute int
	// AuthRequired はBearerトークンを検証するミドルウェアです。
	AuthRequired gin.HandlerFunc
	Metrics      *metrics.Metrics
	HealthChecks map[string]platformhandler.Checker
}

// NewRouter はミドルウェアと全ルートを登録したGinエンジンを返します。
func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery(), middleware.CORS(opts.CORSOrigin))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", opts.Metrics.Handler())
	}
	r.NoRoute(middleware.NotFound)

	// 導通確認用
	health := platformhandler.Health(opts.HealthChecks)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)

	registerAuth(r, h, opts)
	registerAPI(r, h, opts.AuthRequired)
	return r
}

func registerAuth(r *gin.Engine, h Handlers, opts Options) {
	auth := r.Group("/auth")

	// サインアップとサインインはIP単位で回数制限する
	limited := auth.Group("", middleware.NewIPRateLimiter(opts.SigninRatePerMinute).Middleware())
	limited.POST("/signup", h.Auth.Signup)
	limited.POST("/signin", h.Auth.Signin)

	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	for _, p := range []authhandler.OAuthProvider{h.Google, h.Twitter} {
		if p == nil || h.OAuth == nil {
			continue
		}
		base := "/" + string(p.Name())
		auth.GET(base, h.OAuth.Begin(p, authentity.RoleUser))
		auth.GET(base+"/doctor", h.OAuth.Begin(p, authentity.RoleDoctor))
		auth.GET(base+"/callback", h.OAuth.Callback(p))
	}
}

func registerAPI(r *gin.Engine, h Handlers, authRequired gin.HandlerFunc) {
	// 認証不要
	r.GET("/api/:doctorId", h.Booking.GetSlotsByDoctor)

	// 認証必須のルート
	protected := r.Group("/api", authRequired)
	{
		doctorOnly := jwtmw.RequireRole(authentity.RoleDoctor)
		protected.POST("/add", doctorOnly, h.Booking.AddSlots)
		protected.POST("/book", h.Booking.BookSlot)
		protected.GET("/my-bookings", h.Booking.MyBookings)

		protected.POST("/doctor-info", doctorOnly, h.Doctor.Upsert)
		protected.GET("/doctor-info", doctorOnly, h.Doctor.Mine)
		protected.GET("/doctors", h.Doctor.List)

		protected.POST("/submit", h.Intake.Submit)
		protected.GET("/me", h.Intake.Me)

		analyze, history := emotionUnavailable, emotionUnavailable
		if h.Emotion != nil {
			analyze, history = h.Emotion.Analyze, h.Emotion.History
		}
		protected.POST("/analyze", jwtmw.RequireRole(authentity.RoleUser), analyze)
		protected.GET("/emotions", history)
	}
}

// emotionUnavailable は感情分析が設定されていない場合のハンドラーです。
func emotionUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Message: "Emotion analysis is temporarily unavailable"})
}
