// Package logger はzapをバックエンドとするslog.Loggerを構築します。
package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New は環境に応じたslog.Loggerを返します。
// production ではJSON、それ以外では人間向けのコンソール形式で出力します。
func New(env, level string) *slog.Logger {
	return slog.New(NewHandler(env, level, zapcore.Lock(os.Stdout)))
}

// NewHandler は指定の出力先に書き込むslog.Handlerを返します。
func NewHandler(env, level string, out zapcore.WriteSyncer) slog.Handler {
	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	if env == "production" {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, out, zap.NewAtomicLevelAt(parseLevel(level)))
	return zapslog.NewHandler(core, zapslog.WithCaller(true))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
