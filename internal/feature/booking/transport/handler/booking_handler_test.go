package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcare_backend/internal/api"
	authentity "mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/booking/domain/entity"
	"mindcare_backend/internal/feature/booking/usecase"
	jwtmw "mindcare_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type mockBookingUsecase struct {
	AddSlotsFunc         func(ctx context.Context, doctorUserID uint, in []usecase.SlotInput) ([]entity.Slot, error)
	GetSlotsByDoctorFunc func(ctx context.Context, doctorID uint) ([]entity.Slot, error)
	BookSlotFunc         func(ctx context.Context, id *authentity.Identity, slotID uint) (*entity.BookingDetail, error)
	GetUserBookingsFunc  func(ctx context.Context, userID uint) ([]entity.BookingDetail, error)
}

func (m *mockBookingUsecase) AddSlots(ctx context.Context, doctorUserID uint, in []usecase.SlotInput) ([]entity.Slot, error) {
	return m.AddSlotsFunc(ctx, doctorUserID, in)
}

func (m *mockBookingUsecase) GetSlotsByDoctor(ctx context.Context, doctorID uint) ([]entity.Slot, error) {
	return m.GetSlotsByDoctorFunc(ctx, doctorID)
}

func (m *mockBookingUsecase) BookSlot(ctx context.Context, id *authentity.Identity, slotID uint) (*entity.BookingDetail, error) {
	return m.BookSlotFunc(ctx, id, slotID)
}

func (m *mockBookingUsecase) GetUserBookings(ctx context.Context, userID uint) ([]entity.BookingDetail, error) {
	return m.GetUserBookingsFunc(ctx, userID)
}

type countingRecorder struct {
	results []string
}

func (r *countingRecorder) Booking(result string) {
	r.results = append(r.results, result)
}

func newRouter(uc BookingUsecase, rec BookingRecorder) *gin.Engine {
	h := NewBookingHandler(uc, rec)
	r := gin.New()
	r.GET("/api/:doctorId", h.GetSlotsByDoctor)

	authed := r.Group("/api", func(c *gin.Context) {
		c.Set(jwtmw.ContextIdentity, &authentity.Identity{UserID: 7, Role: authentity.RoleUser})
	})
	authed.POST("/add", h.AddSlots)
	authed.POST("/book", h.BookSlot)
	authed.GET("/my-bookings", h.MyBookings)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestBookingHandler_AddSlots(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ucErr      error
		wantStatus int
		wantMsg    string
	}{
		{name: "success", body: `{"slots":[{"date":"2024-01-01","startTime":"10:00","endTime":"10:30"}]}`, wantStatus: http.StatusCreated, wantMsg: "Slots added"},
		{name: "empty array", body: `{"slots":[]}`, wantStatus: http.StatusBadRequest, wantMsg: msgSlotsRequired},
		{name: "not an array", body: `{"slots":"x"}`, wantStatus: http.StatusBadRequest, wantMsg: msgSlotsRequired},
		{name: "invalid slot", body: `{"slots":[{"date":"x"}]}`, ucErr: usecase.ErrInvalidSlot, wantStatus: http.StatusBadRequest, wantMsg: msgInvalidSlot},
		{name: "no doctor profile", body: `{"slots":[{"date":"2024-01-01","startTime":"10:00","endTime":"10:30"}]}`, ucErr: usecase.ErrDoctorNotFound, wantStatus: http.StatusNotFound, wantMsg: msgDoctorInfoMissing},
		{name: "internal", body: `{"slots":[{"date":"2024-01-01","startTime":"10:00","endTime":"10:30"}]}`, ucErr: errors.New("db"), wantStatus: http.StatusInternalServerError, wantMsg: msgInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockBookingUsecase{
				AddSlotsFunc: func(_ context.Context, doctorUserID uint, in []usecase.SlotInput) ([]entity.Slot, error) {
					assert.Equal(t, uint(7), doctorUserID)
					if tt.ucErr != nil {
						return nil, tt.ucErr
					}
					return []entity.Slot{{ID: 1, DoctorID: 3, Date: in[0].Date, StartTime: in[0].StartTime, EndTime: in[0].EndTime}}, nil
				},
			}
			w := postJSON(newRouter(uc, nil), "/api/add", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			var res map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tt.wantMsg, res["message"])
			if tt.wantStatus == http.StatusCreated {
				slots := res["slots"].([]any)
				require.Len(t, slots, 1)
				assert.Equal(t, false, slots[0].(map[string]any)["isBooked"])
			}
		})
	}
}

func TestBookingHandler_GetSlotsByDoctor(t *testing.T) {
	uc := &mockBookingUsecase{
		GetSlotsByDoctorFunc: func(_ context.Context, doctorID uint) ([]entity.Slot, error) {
			return []entity.Slot{{ID: 2, DoctorID: doctorID, Date: "2024-01-01", StartTime: "10:00", EndTime: "10:30"}}, nil
		},
	}
	r := newRouter(uc, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/3", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var slots []api.SlotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, uint(3), slots[0].DoctorID)

	for _, bad := range []string{"/api/abc", "/api/0", "/api/-1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, bad, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestBookingHandler_BookSlot(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ucErr      error
		wantStatus int
		wantMsg    string
		wantMetric string
	}{
		{name: "success", body: `{"slotId":11}`, wantStatus: http.StatusCreated, wantMsg: "Slot booked successfully", wantMetric: "success"},
		{name: "missing slot id", body: `{}`, wantStatus: http.StatusBadRequest, wantMsg: msgSlotIDRequired},
		{name: "unavailable", body: `{"slotId":11}`, ucErr: usecase.ErrSlotNotAvailable, wantStatus: http.StatusBadRequest, wantMsg: msgSlotNotAvailable, wantMetric: "unavailable"},
		{name: "doctor gone", body: `{"slotId":11}`, ucErr: usecase.ErrDoctorNotFound, wantStatus: http.StatusNotFound, wantMsg: msgDoctorNotFound, wantMetric: "error"},
		{name: "admin", body: `{"slotId":11}`, ucErr: usecase.ErrAdminBooking, wantStatus: http.StatusForbidden, wantMsg: msgAccessDenied},
		{name: "internal", body: `{"slotId":11}`, ucErr: errors.New("tx"), wantStatus: http.StatusInternalServerError, wantMsg: msgInternalError, wantMetric: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockBookingUsecase{
				BookSlotFunc: func(_ context.Context, id *authentity.Identity, slotID uint) (*entity.BookingDetail, error) {
					if tt.ucErr != nil {
						return nil, tt.ucErr
					}
					return &entity.BookingDetail{
						Booking:    entity.Booking{ID: 1, UserID: id.UserID, DoctorID: 3, SlotID: slotID, Fee: 1200, Status: entity.StatusConfirmed},
						DoctorName: "Dr. Rao",
						Speciality: "psychiatrist",
					}, nil
				},
			}
			rec := &countingRecorder{}
			w := postJSON(newRouter(uc, rec), "/api/book", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			var res api.BookSlotResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tt.wantMsg, res.Message)
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, "confirmed", res.Booking.Status)
				assert.Equal(t, "Dr. Rao", res.Booking.DoctorName)
				assert.Equal(t, uint(11), res.Booking.SlotID)
			}
			if tt.wantMetric != "" {
				assert.Equal(t, []string{tt.wantMetric}, rec.results)
			} else {
				assert.Empty(t, rec.results)
			}
		})
	}
}

func TestBookingHandler_MyBookings(t *testing.T) {
	uc := &mockBookingUsecase{
		GetUserBookingsFunc: func(_ context.Context, userID uint) ([]entity.BookingDetail, error) {
			return []entity.BookingDetail{{
				Booking:    entity.Booking{ID: 5, UserID: userID, Status: entity.StatusConfirmed},
				DoctorName: "Dr. Rao",
				Slot:       &entity.Slot{ID: 11, Date: "2024-01-01", StartTime: "10:00", EndTime: "10:30", IsBooked: true},
			}}, nil
		},
	}
	w := httptest.NewRecorder()
	newRouter(uc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/my-bookings", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var res []api.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res, 1)
	assert.Equal(t, uint(7), res[0].UserID)
	require.NotNil(t, res[0].Slot)
	assert.Equal(t, "10:00", res[0].Slot.StartTime)
}
