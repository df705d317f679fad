// Package usecase は画像からの感情分析のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mindcare_backend/internal/feature/emotion/domain/entity"
)

// MaxImageBytes は受け付ける画像の最大サイズです。
const MaxImageBytes = 2 << 20

var (
	// ErrUnsupportedImage is returned for images that are not JPEG or PNG.
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrImageTooLarge is returned for images over MaxImageBytes.
	ErrImageTooLarge = errors.New("image too large")

	// ErrNoFace is returned when face detection is enabled and finds no face.
	ErrNoFace = errors.New("no face detected")

	// ErrUnrecognizedEmotion is returned when the model answers with something other than a known label.
	ErrUnrecognizedEmotion = errors.New("unrecognized emotion label")

	// ErrClassifierUnavailable is returned while the classifier circuit is open.
	ErrClassifierUnavailable = errors.New("emotion classifier unavailable")
)

// Classifier は画像を感情ラベルに分類します。
type Classifier interface {
	Classify(ctx context.Context, image []byte, contentType string) (entity.Emotion, error)
}

// FaceDetector は画像内の顔の数を返します。
type FaceDetector interface {
	CountFaces(ctx context.Context, image []byte) (int, error)
}

// AnalysisRepository は分析結果の保存先です。
type AnalysisRepository interface {
	Save(ctx context.Context, a *entity.Analysis) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error)
}

// EmotionUsecase は感情分析のユースケースです。
type EmotionUsecase struct {
	classifier Classifier
	faces      FaceDetector
	repo       AnalysisRepository
	now        func() time.Time
}

// NewEmotionUsecase はEmotionUsecaseを生成します。faces が nil の場合、顔検出は行いません。
func NewEmotionUsecase(classifier Classifier, faces FaceDetector, repo AnalysisRepository) *EmotionUsecase {
	return &EmotionUsecase{classifier: classifier, faces: faces, repo: repo, now: time.Now}
}

// Analyze は画像を分類し、結果を保存します。
func (u *EmotionUsecase) Analyze(ctx context.Context, userID uint, image []byte) (*entity.Analysis, error) {
	if len(image) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	contentType := http.DetectContentType(image)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	if u.faces != nil {
		n, err := u.faces.CountFaces(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("face detection: %w", err)
		}
		if n == 0 {
			return nil, ErrNoFace
		}
	}

	emotion, err := u.classifier.Classify(ctx, image, contentType)
	if err != nil {
		return nil, err
	}

	a := &entity.Analysis{
		UserID:      userID,
		Image:       image,
		ContentType: contentType,
		Emotion:     emotion,
		CreatedAt:   u.now().UTC(),
	}
	if err := u.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	slog.Info("emotion analyzed", "user_id", userID, "emotion", emotion, "analysis_id", a.ID)
	return a, nil
}

// History はユーザーの最近の分析結果を画像なしで返します。
func (u *EmotionUsecase) History(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return u.repo.ListByUser(ctx, userID, limit)
}
