package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"mindcare_backend/internal/app/di"
	"mindcare_backend/internal/app/migrate"
	"mindcare_backend/internal/app/router"
	authadapters "mindcare_backend/internal/feature/auth/adapters"
	"mindcare_backend/internal/feature/auth/adapters/oauth"
	authhandler "mindcare_backend/internal/feature/auth/transport/handler"
	authusecase "mindcare_backend/internal/feature/auth/usecase"
	bookingadapters "mindcare_backend/internal/feature/booking/adapters"
	bookinghandler "mindcare_backend/internal/feature/booking/transport/handler"
	bookingusecase "mindcare_backend/internal/feature/booking/usecase"
	doctoradapters "mindcare_backend/internal/feature/doctor/adapters"
	doctorhandler "mindcare_backend/internal/feature/doctor/transport/handler"
	doctorusecase "mindcare_backend/internal/feature/doctor/usecase"
	emotionhandler "mindcare_backend/internal/feature/emotion/transport/handler"
	intakeadapters "mindcare_backend/internal/feature/intake/adapters"
	intakehandler "mindcare_backend/internal/feature/intake/transport/handler"
	intakeusecase "mindcare_backend/internal/feature/intake/usecase"
	"mindcare_backend/internal/platform/config"
	infradb "mindcare_backend/internal/platform/db"
	infrahttp "mindcare_backend/internal/platform/http"
	platformhandler "mindcare_backend/internal/platform/http/handler"
	"mindcare_backend/internal/platform/jobs"
	jwtmw "mindcare_backend/internal/platform/jwt"
	"mindcare_backend/internal/platform/logger"
	"mindcare_backend/internal/platform/metrics"
	inframongo "mindcare_backend/internal/platform/mongo"
	"mindcare_backend/internal/platform/password"
	infraredis "mindcare_backend/internal/platform/redis"
)

const (
	shutdownTimeout = 10 * time.Second
	oauthTimeout    = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(cfg.Env, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.OpenDB(infradb.ConfigFrom(cfg.DB), cfg.DB.ConnectWithin)
	if err != nil {
		return err
	}
	slog.Info("database connection successful", "driver", cfg.DB.Driver)
	if cfg.DB.RunMigrations {
		if err := migrate.Run(db); err != nil {
			return err
		}
	}

	// Redis
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// MongoDB
	mongoClient, mongoDB, err := inframongo.Connect(ctx, cfg.Mongo)
	if err != nil {
		slog.Warn("MongoDB unavailable, emotion analysis is disabled", "error", err)
	}
	if mongoClient != nil {
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				slog.Error("failed to disconnect MongoDB", "error", err)
			}
		}()
	}

	m := metrics.New()

	// Repository
	userRepo := authadapters.NewUserGorm(db)
	adminRepo := authadapters.NewAdminGorm(db)
	sessionRepo := di.NewSessionRepository(rdb, db)
	doctorRepo := doctoradapters.NewDoctorGorm(db)
	bookingRepo := bookingadapters.NewBookingGorm(db)
	slotRepo := di.NewSlotRepository(rdb, bookingRepo)
	formRepo := intakeadapters.NewFormGorm(db)

	hasher, err := password.NewHasher(password.DefaultCost)
	if err != nil {
		return err
	}
	issuer := jwtmw.NewIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, jwtmw.DefaultAccessTTL, jwtmw.DefaultRefreshTTL)

	// Usecase
	authUC := authusecase.NewAuthUsecase(userRepo, sessionRepo, hasher, issuer)
	federationUC := authusecase.NewFederationUsecase(userRepo)
	doctorUC := doctorusecase.NewDoctorUsecase(doctorRepo)
	intakeUC := intakeusecase.NewIntakeUsecase(formRepo)

	notifier := di.NewNotifier(cfg.SMTP)
	var bookingNotifier bookingusecase.Notifier
	if notifier != nil {
		bookingNotifier = notifier
	}
	bookingUC := bookingusecase.NewBookingUsecase(slotRepo, bookingRepo, bookingRepo, bookingNotifier)

	emotion, err := di.NewEmotion(ctx, cfg.Gemini, mongoDB)
	if err != nil {
		slog.Warn("emotion analysis disabled", "reason", err)
	}
	defer emotion.Close()

	// Handler
	secure := cfg.IsProduction()
	handlers := router.Handlers{
		Auth: authhandler.NewAuthHandler(authUC, m, secure),
		OAuth: authhandler.NewOAuthHandler(authUC, federationUC, jwtmw.NewStateSigner(cfg.SessionSecret),
			di.NewPendingStore(rdb), authhandler.OAuthRedirects{
				Success: cfg.OAuth.SuccessRedirect,
				Failure: cfg.OAuth.FailureRedirect,
			}, m, secure),
		Doctor:  doctorhandler.NewDoctorHandler(doctorUC),
		Booking: bookinghandler.NewBookingHandler(bookingUC, m),
		Intake:  intakehandler.NewIntakeHandler(intakeUC),
	}
	oauthClient := infrahttp.NewHTTPClient(oauthTimeout)
	if cfg.OAuth.GoogleClientID != "" {
		handlers.Google = oauth.NewGoogle(oauth.Config{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
			RedirectURL:  cfg.OAuth.CallbackBaseURL + "/auth/google/callback",
		}, oauthClient)
	}
	if cfg.OAuth.TwitterClientID != "" {
		handlers.Twitter = oauth.NewTwitter(oauth.Config{
			ClientID:     cfg.OAuth.TwitterClientID,
			ClientSecret: cfg.OAuth.TwitterClientSecret,
			RedirectURL:  cfg.OAuth.CallbackBaseURL + "/auth/twitter/callback",
		}, oauthClient)
	}
	if emotion != nil {
		handlers.Emotion = emotionhandler.NewEmotionHandler(emotion.Usecase, m)
	}

	// ルータ生成
	r := router.NewRouter(handlers, router.Options{
		CORSOrigin:          cfg.CORSOrigin,
		SigninRatePerMinute: cfg.SigninRatePerMinute,
		AuthRequired:        jwtmw.AuthRequired(issuer, userRepo, adminRepo),
		Metrics:             m,
		HealthChecks:        healthChecks(db, rdb, mongoClient),
	})

	// 期限切れセッションの定期削除
	scheduler := jobs.NewScheduler()
	if err := scheduler.RegisterSessionPurge(jobs.PurgeSchedule, sessionRepo); err != nil {
		return err
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	scheduler.Stop(shutdownCtx)
	if notifier != nil {
		notifier.Wait()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	slog.Info("server stopped")
	return nil
}

// healthChecks は設定済みの依存先だけを /healthz の確認対象にします。
func healthChecks(db *gorm.DB, rdb *redisv9.Client, mongoClient *mongo.Client) map[string]platformhandler.Checker {
	checks := map[string]platformhandler.Checker{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if mongoClient != nil {
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	}
	return checks
}
