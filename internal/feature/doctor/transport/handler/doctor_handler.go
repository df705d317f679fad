// Package handler は医師プロフィールのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindcare_backend/internal/api"
	"mindcare_backend/internal/feature/doctor/domain/entity"
	"mindcare_backend/internal/feature/doctor/usecase"
	"mindcare_backend/internal/platform/http/bind"
	jwtmw "mindcare_backend/internal/platform/jwt"
)

const (
	msgAllFieldsRequired = "All fields are required"
	msgDoctorNotFound    = "Doctor info not found"
	msgInternalError     = "Internal server error"
	msgNoToken           = "No token provided"
)

// DoctorUsecase は医師プロフィールのユースケースを定義します。
type DoctorUsecase interface {
	Upsert(ctx context.Context, userID uint, in usecase.ProfileInput) (*entity.DoctorProfile, bool, error)
	Get(ctx context.Context, userID uint) (*entity.DoctorProfile, error)
	List(ctx context.Context) ([]entity.DoctorProfile, error)
}

// DoctorHandler は医師プロフィールのHTTPリクエストを処理します。
type DoctorHandler struct {
	uc DoctorUsecase
}

// NewDoctorHandler はDoctorHandlerを生成します。
func NewDoctorHandler(uc DoctorUsecase) *DoctorHandler {
	return &DoctorHandler{uc: uc}
}

// ToResponse はプロフィールをレスポンス型に変換します。
func ToResponse(p *entity.DoctorProfile) api.DoctorResponse {
	return api.DoctorResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		Name:          p.Name,
		Contact:       p.Contact,
		License:       p.License,
		Speciality:    string(p.Speciality),
		Experience:    p.Experience,
		ClinicAddress: p.ClinicAddress,
		FeePerHour:    p.FeePerHour,
	}
}

// Upsert は POST /api/doctor-info を処理します。新規作成は201、更新は200です。
func (h *DoctorHandler) Upsert(c *gin.Context) {
	id, ok := jwtmw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
		return
	}

	var req api.DoctorInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bind.AbortWithError(c, err, msgAllFieldsRequired)
		return
	}

	p, created, err := h.uc.Upsert(c.Request.Context(), id.UserID, usecase.ProfileInput{
		Name:          req.Name,
		Contact:       req.Contact,
		License:       req.License,
		Speciality:    entity.Speciality(req.Speciality),
		Experience:    *req.Experience,
		ClinicAddress: req.ClinicAddress,
		FeePerHour:    req.FeePerHour,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidProfile) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgAllFieldsRequired})
			return
		}
		slog.Error("doctor info upsert failed", "error", err, "user_id", id.UserID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}

	if created {
		slog.Info("doctor info added", "user_id", id.UserID, "doctor_id", p.ID)
		c.JSON(http.StatusCreated, api.DoctorInfoResponse{Message: "Doctor info added", Doctor: ToResponse(p)})
		return
	}
	c.JSON(http.StatusOK, api.DoctorInfoResponse{Message: "Doctor info updated", Doctor: ToResponse(p)})
}

// Mine は GET /api/doctor-info を処理し、呼び出し元のプロフィールを返します。
func (h *DoctorHandler) Mine(c *gin.Context) {
	id, ok := jwtmw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
		return
	}

	p, err := h.uc.Get(c.Request.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrDoctorNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Message: msgDoctorNotFound})
			return
		}
		slog.Error("doctor info lookup failed", "error", err, "user_id", id.UserID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}
	c.JSON(http.StatusOK, ToResponse(p))
}

// List は GET /api/doctors を処理します。
func (h *DoctorHandler) List(c *gin.Context) {
	profiles, err := h.uc.List(c.Request.Context())
	if err != nil {
		slog.Error("doctor list failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}

	res := make([]api.DoctorResponse, 0, len(profiles))
	for i := range profiles {
		res = append(res, ToResponse(&profiles[i]))
	}
	c.JSON(http.StatusOK, res)
}
