// Package db はGORMによるリレーショナルDB接続を提供します。
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mindcare_backend/internal/platform/config"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	// retryInterval は接続リトライの間隔です。
	retryInterval = 3 * time.Second
)

// Config はDB接続設定です。
type Config struct {
	Driver       string
	URL          string
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	SSLMode      string
	InstanceName string
}

// ConfigFrom は環境変数から読み込んだ設定をDB接続設定に変換します。
func ConfigFrom(c config.DBConfig) Config {
	return Config{
		Driver:       c.Driver,
		URL:          c.URL,
		User:         c.User,
		Password:     c.Password,
		Name:         c.Name,
		Host:         c.Host,
		Port:         c.Port,
		SSLMode:      c.SSLMode,
		InstanceName: c.InstanceName,
	}
}

// Opener はDSNからgorm.DBを開く関数です。テストで差し替え可能です。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN は設定からDSN文字列を生成します。
// URL が設定されている場合はそれを優先し、Cloud SQL のインスタンス名がある場合はUnixソケットを使用します。
func BuildDSN(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	switch cfg.Driver {
	case DriverMySQL:
		if cfg.InstanceName != "" {
			return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
				cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, portOr(cfg.Port, "3306"), cfg.Name)
	default:
		host := cfg.Host
		if cfg.InstanceName != "" {
			host = "/cloudsql/" + cfg.InstanceName
		}
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			host, cfg.User, cfg.Password, cfg.Name, portOr(cfg.Port, "5432"), sslmode)
	}
}

func portOr(port, def string) string {
	if port == "" {
		return def
	}
	return port
}

// Dialector はドライバー名に応じたGORMのDialectorを返します。
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres, "":
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return gmysql.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", driver)
}

// NewOpener は指定ドライバーでDBを開くOpenerを返します。
// TranslateError を有効にし、一意制約違反を gorm.ErrDuplicatedKey に変換します。
func NewOpener(driver string) Opener {
	return func(dsn string) (*gorm.DB, error) {
		dialector, err := Dialector(driver, dsn)
		if err != nil {
			return nil, err
		}
		return gorm.Open(dialector, &gorm.Config{TranslateError: true})
	}
}

// ConnectWithRetry は timeout に達するまで接続をリトライします。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に従って接続します。マイグレーションは migrate パッケージで行います。
func OpenDB(cfg Config, timeout time.Duration) (*gorm.DB, error) {
	return ConnectWithRetry(BuildDSN(cfg), timeout, NewOpener(cfg.Driver))
}

// IsDuplicateKey は一意制約違反のエラーかを判定します。
// TranslateError が効かない経路でもドライバー固有のエラーコードで判定します。
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// MySQLエラー1062: ユニークキーの重複エントリ
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
