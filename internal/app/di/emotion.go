package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"mindcare_backend/internal/feature/emotion/adapters/gemini"
	emotionmongo "mindcare_backend/internal/feature/emotion/adapters/mongo"
	"mindcare_backend/internal/feature/emotion/adapters/vision"
	emotionusecase "mindcare_backend/internal/feature/emotion/usecase"
	"mindcare_backend/internal/platform/config"
	infrahttp "mindcare_backend/internal/platform/http"
)

// geminiTimeout は分類リクエスト1回あたりのタイムアウトです。
const geminiTimeout = 30 * time.Second

// ErrEmotionDisabled は感情分析に必要な設定（MongoDB・APIキー）が揃っていないことを表します。
var ErrEmotionDisabled = errors.New("emotion analysis is not configured")

// Emotion は感情分析ユースケースと、終了時に解放するリソースです。
type Emotion struct {
	Usecase *emotionusecase.EmotionUsecase
	faces   *vision.FaceDetector
}

// Close はVisionクライアントを解放します。
func (e *Emotion) Close() {
	if e == nil || e.faces == nil {
		return
	}
	if err := e.faces.Close(); err != nil {
		slog.Warn("failed to close vision client", "error", err)
	}
}

// NewEmotion はGemini分類器・Vision顔検出・Mongoリポジトリを組み立てます。
// db が nil かAPIキーがない場合は ErrEmotionDisabled を返します。
func NewEmotion(ctx context.Context, cfg config.GeminiConfig, db *mongo.Database) (*Emotion, error) {
	if db == nil || len(cfg.APIKeys) == 0 {
		return nil, ErrEmotionDisabled
	}

	classifier, err := gemini.NewClassifier(ctx, gemini.Options{
		APIKeys:       cfg.APIKeys,
		Model:         cfg.Model,
		RatePerMinute: cfg.RatePerMinute,
		HTTPClient:    infrahttp.NewHTTPClient(geminiTimeout),
	})
	if err != nil {
		return nil, err
	}

	repo := emotionmongo.NewAnalysisMongo(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create emotion indexes: %w", err)
	}

	e := &Emotion{}
	var faces emotionusecase.FaceDetector
	if cfg.VisionEnabled {
		e.faces, err = vision.NewFaceDetector(ctx)
		if err != nil {
			return nil, err
		}
		faces = e.faces
	}
	e.Usecase = emotionusecase.NewEmotionUsecase(classifier, faces, repo)
	return e, nil
}
