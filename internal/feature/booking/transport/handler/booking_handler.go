// Package handler は予約ワークフローのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"mindcare_backend/internal/api"
	authentity "mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/booking/domain/entity"
	"mindcare_backend/internal/feature/booking/usecase"
	jwtmw "mindcare_backend/internal/platform/jwt"
)

const (
	msgSlotsRequired     = "Slots required"
	msgInvalidSlot       = "Each slot needs a valid date, startTime and endTime"
	msgDoctorInfoMissing = "Doctor info not found"
	msgDoctorNotFound    = "Doctor not found"
	msgSlotIDRequired    = "Slot ID is required"
	msgSlotNotAvailable  = "Slot not available"
	msgInvalidDoctorID   = "Invalid doctor id"
	msgAccessDenied      = "Access denied"
	msgNoToken           = "No token provided"
	msgInternalError     = "Internal server error"
)

// BookingUsecase は予約ワークフローのユースケースを定義します。
type BookingUsecase interface {
	AddSlots(ctx context.Context, doctorUserID uint, in []usecase.SlotInput) ([]entity.Slot, error)
	GetSlotsByDoctor(ctx context.Context, doctorID uint) ([]entity.Slot, error)
	BookSlot(ctx context.Context, id *authentity.Identity, slotID uint) (*entity.BookingDetail, error)
	GetUserBookings(ctx context.Context, userID uint) ([]entity.BookingDetail, error)
}

// BookingRecorder は予約結果をメトリクスに記録します。
type BookingRecorder interface {
	Booking(result string)
}

type noopRecorder struct{}

func (noopRecorder) Booking(string) {}

// BookingHandler は予約関連のHTTPリクエストを処理します。
type BookingHandler struct {
	uc      BookingUsecase
	metrics BookingRecorder
}

// NewBookingHandler はBookingHandlerを生成します。
func NewBookingHandler(uc BookingUsecase, metrics BookingRecorder) *BookingHandler {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &BookingHandler{uc: uc, metrics: metrics}
}

func toSlotResponse(s *entity.Slot) api.SlotResponse {
	return api.SlotResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		IsBooked:  s.IsBooked,
	}
}

func toSlotResponses(slots []entity.Slot) []api.SlotResponse {
	res := make([]api.SlotResponse, 0, len(slots))
	for i := range slots {
		res = append(res, toSlotResponse(&slots[i]))
	}
	return res
}

func toBookingResponse(d *entity.BookingDetail) api.BookingResponse {
	res := api.BookingResponse{
		ID:         d.ID,
		UserID:     d.UserID,
		DoctorID:   d.DoctorID,
		SlotID:     d.SlotID,
		Fee:        d.Fee,
		Status:     string(d.Status),
		DoctorName: d.DoctorName,
		Speciality: d.Speciality,
		CreatedAt:  d.CreatedAt,
	}
	if d.Slot != nil {
		s := toSlotResponse(d.Slot)
		res.Slot = &s
	}
	return res
}

// AddSlots は POST /api/add を処理します。
func (h *BookingHandler) AddSlots(c *gin.Context) {
	id, ok := jwtmw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
		return
	}

	var req api.AddSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Slots) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgSlotsRequired})
		return
	}

	in := make([]usecase.SlotInput, 0, len(req.Slots))
	for _, s := range req.Slots {
		in = append(in, usecase.SlotInput{Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime})
	}

	slots, err := h.uc.AddSlots(c.Request.Context(), id.UserID, in)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrSlotsRequired):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgSlotsRequired})
		case errors.Is(err, usecase.ErrInvalidSlot):
			slog.Warn("add slots rejected", "error", err, "user_id", id.UserID)
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidSlot})
		case errors.Is(err, usecase.ErrDoctorNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Message: msgDoctorInfoMissing})
		default:
			slog.Error("add slots failed", "error", err, "user_id", id.UserID)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		}
		return
	}

	c.JSON(http.StatusCreated, api.AddSlotsResponse{Message: "Slots added", Slots: toSlotResponses(slots)})
}

// GetSlotsByDoctor は GET /api/:doctorId を処理します。認証は不要です。
func (h *BookingHandler) GetSlotsByDoctor(c *gin.Context) {
	var doctorID uint
	err := runtime.BindStyledParameterWithOptions("simple", "doctorId", c.Param("doctorId"), &doctorID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil || doctorID == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgInvalidDoctorID})
		return
	}

	slots, err := h.uc.GetSlotsByDoctor(c.Request.Context(), doctorID)
	if err != nil {
		slog.Error("list slots failed", "error", err, "doctor_id", doctorID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}
	c.JSON(http.StatusOK, toSlotResponses(slots))
}

// BookSlot は POST /api/book を処理します。
func (h *BookingHandler) BookSlot(c *gin.Context) {
	id, ok := jwtmw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
		return
	}

	var req api.BookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgSlotIDRequired})
		return
	}

	detail, err := h.uc.BookSlot(c.Request.Context(), id, req.SlotID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrSlotNotAvailable):
			h.metrics.Booking("unavailable")
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgSlotNotAvailable})
		case errors.Is(err, usecase.ErrDoctorNotFound):
			h.metrics.Booking("error")
			c.JSON(http.StatusNotFound, api.ErrorResponse{Message: msgDoctorNotFound})
		case errors.Is(err, usecase.ErrAdminBooking):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Message: msgAccessDenied})
		default:
			h.metrics.Booking("error")
			slog.Error("book slot failed", "error", err, "slot_id", req.SlotID, "user_id", id.UserID)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		}
		return
	}

	h.metrics.Booking("success")
	c.JSON(http.StatusCreated, api.BookSlotResponse{Message: "Slot booked successfully", Booking: toBookingResponse(detail)})
}

// MyBookings は GET /api/my-bookings を処理します。
func (h *BookingHandler) MyBookings(c *gin.Context) {
	id, ok := jwtmw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
		return
	}

	details, err := h.uc.GetUserBookings(c.Request.Context(), id.UserID)
	if err != nil {
		slog.Error("list bookings failed", "error", err, "user_id", id.UserID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}

	res := make([]api.BookingResponse, 0, len(details))
	for i := range details {
		res = append(res, toBookingResponse(&details[i]))
	}
	c.JSON(http.StatusOK, res)
}
