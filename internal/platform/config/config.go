// Package config は環境変数からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvProduction は本番環境を示す APP_ENV の値です。
const EnvProduction = "production"

// Config はプロセス全体の設定です。
type Config struct {
	Port     string `envconfig:"PORT" default:"7000"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"http://localhost:5173"`

	JWTSecret        string `envconfig:"JWT_SECRET_KEY" required:"true"`
	JWTRefreshSecret string `envconfig:"JWT_REFRESH_SECRET_KEY" required:"true"`
	SessionSecret    string `envconfig:"SESSION_SECRET" required:"true"`

	// ネストした設定は接頭辞なしのキーで個別に読み込む
	DB     DBConfig     `ignored:"true"`
	Redis  RedisConfig  `ignored:"true"`
	Mongo  MongoConfig  `ignored:"true"`
	OAuth  OAuthConfig  `ignored:"true"`
	Gemini GeminiConfig `ignored:"true"`
	SMTP   SMTPConfig   `ignored:"true"`

	SigninRatePerMinute int `envconfig:"SIGNIN_RATE_PER_MINUTE" default:"10"`
}

// DBConfig はリレーショナルDBの接続設定です。
type DBConfig struct {
	Driver        string        `envconfig:"DB_DRIVER" default:"postgres"`
	URL           string        `envconfig:"DATABASE_URL"`
	User          string        `envconfig:"DB_USER"`
	Password      string        `envconfig:"DB_PASSWORD"`
	Name          string        `envconfig:"DB_NAME"`
	Host          string        `envconfig:"DB_HOST" default:"localhost"`
	Port          string        `envconfig:"DB_PORT"`
	SSLMode       string        `envconfig:"DB_SSLMODE" default:"disable"`
	InstanceName  string        `envconfig:"INSTANCE_CONNECTION_NAME"`
	RunMigrations bool          `envconfig:"RUN_MIGRATIONS" default:"false"`
	ConnectWithin time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"60s"`
}

// RedisConfig はRedisの接続設定です。Host が空の場合Redisは使用しません。
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
}

// MongoConfig は感情分析の保存先です。URI が空の場合感情分析APIは無効になります。
type MongoConfig struct {
	URI      string `envconfig:"MONGO_URI"`
	Database string `envconfig:"MONGO_DB" default:"mindcare"`
}

// OAuthConfig は外部IDプロバイダーの設定です。
type OAuthConfig struct {
	GoogleClientID      string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret  string `envconfig:"GOOGLE_CLIENT_SECRET"`
	TwitterClientID     string `envconfig:"TWITTER_CLIENT_ID"`
	TwitterClientSecret string `envconfig:"TWITTER_CLIENT_SECRET"`
	CallbackBaseURL     string `envconfig:"OAUTH_CALLBACK_BASE_URL" default:"http://localhost:7000"`
	SuccessRedirect     string `envconfig:"OAUTH_SUCCESS_REDIRECT" default:"/dashboard"`
	FailureRedirect     string `envconfig:"OAUTH_FAILURE_REDIRECT" default:"/signin"`
}

// GeminiConfig は感情分類モデルの設定です。
type GeminiConfig struct {
	APIKeys       []string `envconfig:"GOOGLE_API_KEYS"`
	Model         string   `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	RatePerMinute int      `envconfig:"GEMINI_RATE_PER_MINUTE" default:"60"`
	VisionEnabled bool     `envconfig:"VISION_ENABLED" default:"false"`
}

// SMTPConfig は予約確認メールの送信設定です。Host が空の場合メールは送信しません。
type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	User     string `envconfig:"SMTP_USER"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"MAIL_FROM" default:"MindCare <no-reply@mindcare.local>"`
}

// Load は .env ファイル（存在する場合）と環境変数から設定を読み込みます。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	specs := []any{&cfg, &cfg.DB, &cfg.Redis, &cfg.Mongo, &cfg.OAuth, &cfg.Gemini, &cfg.SMTP}
	for _, spec := range specs {
		if err := envconfig.Process("", spec); err != nil {
			return nil, fmt.Errorf("failed to process env: %w", err)
		}
	}
	cfg.Gemini.APIKeys = compact(cfg.Gemini.APIKeys)
	return &cfg, nil
}

// IsProduction は本番環境かどうかを返します。
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// RedisEnabled はRedisの接続先が設定されているかを返します。
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// compact は空白のみの要素を取り除きます。
func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
