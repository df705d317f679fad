// Package handler は問診フォームのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindcare_backend/internal/api"
	"mindcare_backend/internal/feature/intake/domain/entity"
	"mindcare_backend/internal/feature/intake/usecase"
	"mindcare_backend/internal/platform/http/bind"
	jwtmw "mindcare_backend/internal/platform/jwt"
)

const (
	msgAllFieldsRequired = "All fields are required"
	msgFormNotFound      = "Form not found for this user"
	msgInternalError     = "Internal server error"
	msgNoToken           = "No token provided"
)

// IntakeUsecase は問診フォームのユースケースを定義します。
type IntakeUsecase interface {
	Submit(ctx context.Context, userID uint, f entity.UserForm) (*entity.UserForm, bool, error)
	Get(ctx context.Context, userID uint) (*entity.UserForm, error)
}

// IntakeHandler は問診フォームのHTTPリクエストを処理します。
type IntakeHandler struct {
	uc IntakeUsecase
}

// NewIntakeHandler はIntakeHandlerを生成します。
func NewIntakeHandler(uc IntakeUsecase) *IntakeHandler {
	return &IntakeHandler{uc: uc}
}

func toResponse(f *entity.UserForm) api.UserFormResponse {
	return api.UserFormResponse{
		ID:                 f.ID,
		UserID:             f.UserID,
		Age:                f.Age,
		Gender:             f.Gender,
		Occupation:         f.Occupation,
		SleepCycle:         f.SleepCycle,
		RelationshipStatus: f.RelationshipStatus,
		UpdatedAt:          f.UpdatedAt,
	}
}

// Submit は POST /api/submit を処理します。新規作成は201、更新は200です。
func (h *IntakeHandler) Submit(c *gin.Context) {
	id, ok := jwtmw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
		return
	}

	var req api.UserFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bind.AbortWithError(c, err, msgAllFieldsRequired)
		return
	}

	f, created, err := h.uc.Submit(c.Request.Context(), id.UserID, entity.UserForm{
		Age:                req.Age,
		Gender:             req.Gender,
		Occupation:         req.Occupation,
		SleepCycle:         req.SleepCycle,
		RelationshipStatus: req.RelationshipStatus,
	})
	if err != nil {
		slog.Error("user form submit failed", "error", err, "user_id", id.UserID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}

	if created {
		c.JSON(http.StatusCreated, api.UserFormEnvelope{Message: "Form submitted successfully", Data: toResponse(f)})
		return
	}
	c.JSON(http.StatusOK, api.UserFormEnvelope{Message: "Form updated successfully", Data: toResponse(f)})
}

// Me は GET /api/me を処理します。
func (h *IntakeHandler) Me(c *gin.Context) {
	id, ok := jwtmw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
		return
	}

	f, err := h.uc.Get(c.Request.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrFormNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Message: msgFormNotFound})
			return
		}
		slog.Error("user form lookup failed", "error", err, "user_id", id.UserID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}
	c.JSON(http.StatusOK, api.UserFormEnvelope{Data: toResponse(f)})
}
