// Package handler は感情分析のHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mindcare_backend/internal/api"
	"mindcare_backend/internal/feature/emotion/domain/entity"
	"mindcare_backend/internal/feature/emotion/usecase"
	jwtmw "mindcare_backend/internal/platform/jwt"
)

const (
	msgImageRequired    = "Image file is required"
	msgImageTooLarge    = "Image must be 2MB or smaller"
	msgUnsupportedImage = "Only JPEG and PNG images are supported"
	msgNoFace           = "No face detected in the image"
	msgUnrecognized     = "Could not determine emotion from the image"
	msgUnavailable      = "Emotion analysis is temporarily unavailable"
	msgNoToken          = "No token provided"
	msgInternalError    = "Internal server error"

	// multipartOverhead はフォーム境界やヘッダー分の余裕です。
	multipartOverhead = 64 << 10
)

// EmotionUsecase は感情分析のユースケースを定義します。
type EmotionUsecase interface {
	Analyze(ctx context.Context, userID uint, image []byte) (*entity.Analysis, error)
	History(ctx context.Context, userID uint, limit int) ([]entity.Analysis, error)
}

// AnalysisRecorder は分析結果をメトリクスに記録します。
type AnalysisRecorder interface {
	EmotionAnalysis(result string)
}

type noopRecorder struct{}

func (noopRecorder) EmotionAnalysis(string) {}

// EmotionHandler は感情分析のHTTPリクエストを処理します。
type EmotionHandler struct {
	uc      EmotionUsecase
	metrics AnalysisRecorder
}

// NewEmotionHandler はEmotionHandlerを生成します。
func NewEmotionHandler(uc EmotionUsecase, metrics AnalysisRecorder) *EmotionHandler {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &EmotionHandler{uc: uc, metrics: metrics}
}

func toResult(a *entity.Analysis) api.EmotionResult {
	return api.EmotionResult{
		UserID:    a.UserID,
		Emotion:   string(a.Emotion),
		ImageID:   a.ID,
		CreatedAt: a.CreatedAt,
	}
}

// Analyze は画像をアップロードして感情を分析します。
//
// エンドポイント: POST /api/analyze
// Content-Type: multipart/form-data
// フィールド: image（JPEG/PNG、最大2MB）
func (h *EmotionHandler) Analyze(c *gin.Context) {
	id, ok := jwtmw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, usecase.MaxImageBytes+multipartOverhead)
	file, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Message: msgImageTooLarge})
			return
		}
		slog.Warn("image upload missing", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgImageRequired})
		return
	}
	if file.Size > usecase.MaxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Message: msgImageTooLarge})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("failed to open uploaded image", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close uploaded image", "error", err)
		}
	}()

	imageData, err := io.ReadAll(f)
	if err != nil {
		slog.Error("failed to read uploaded image", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}

	a, err := h.uc.Analyze(c.Request.Context(), id.UserID, imageData)
	if err != nil {
		h.writeAnalyzeError(c, err, id.UserID)
		return
	}

	h.metrics.EmotionAnalysis("success")
	c.JSON(http.StatusOK, api.EmotionResponse{Message: "Emotion analyzed successfully", Data: toResult(a)})
}

func (h *EmotionHandler) writeAnalyzeError(c *gin.Context, err error, userID uint) {
	switch {
	case errors.Is(err, usecase.ErrImageTooLarge):
		h.metrics.EmotionAnalysis("rejected")
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Message: msgImageTooLarge})
	case errors.Is(err, usecase.ErrUnsupportedImage):
		h.metrics.EmotionAnalysis("rejected")
		c.JSON(http.StatusUnsupportedMediaType, api.ErrorResponse{Message: msgUnsupportedImage})
	case errors.Is(err, usecase.ErrNoFace):
		h.metrics.EmotionAnalysis("no_face")
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Message: msgNoFace})
	case errors.Is(err, usecase.ErrUnrecognizedEmotion):
		h.metrics.EmotionAnalysis("unrecognized")
		slog.Warn("emotion label not recognized", "error", err, "user_id", userID)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Message: msgUnrecognized})
	case errors.Is(err, usecase.ErrClassifierUnavailable):
		h.metrics.EmotionAnalysis("unavailable")
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Message: msgUnavailable})
	default:
		h.metrics.EmotionAnalysis("error")
		slog.Error("emotion analysis failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
	}
}

// History は GET /api/emotions を処理します。?limit= で件数を指定できます。
func (h *EmotionHandler) History(c *gin.Context) {
	id, ok := jwtmw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.uc.History(c.Request.Context(), id.UserID, limit)
	if err != nil {
		slog.Error("emotion history failed", "error", err, "user_id", id.UserID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}

	res := make([]api.EmotionResult, 0, len(items))
	for i := range items {
		res = append(res, toResult(&items[i]))
	}
	c.JSON(http.StatusOK, api.EmotionHistoryResponse{Data: res})
}
