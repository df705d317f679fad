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
	"mindcare_backend/internal/feature/intake/domain/entity"
	"mindcare_backend/internal/feature/intake/usecase"
	jwtmw "mindcare_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type mockIntakeUsecase struct {
	SubmitFunc func(ctx context.Context, userID uint, f entity.UserForm) (*entity.UserForm, bool, error)
	GetFunc    func(ctx context.Context, userID uint) (*entity.UserForm, error)
}

func (m *mockIntakeUsecase) Submit(ctx context.Context, userID uint, f entity.UserForm) (*entity.UserForm, bool, error) {
	return m.SubmitFunc(ctx, userID, f)
}

func (m *mockIntakeUsecase) Get(ctx context.Context, userID uint) (*entity.UserForm, error) {
	return m.GetFunc(ctx, userID)
}

func newRouter(uc IntakeUsecase) *gin.Engine {
	h := NewIntakeHandler(uc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(jwtmw.ContextIdentity, &authentity.Identity{UserID: 7, Role: authentity.RoleUser})
	})
	r.POST("/api/submit", h.Submit)
	r.GET("/api/me", h.Me)
	return r
}

const validForm = `{"age":30,"gender":"female","occupation":"professional","sleep_cycle":"6-8","relationship_status":"married"}`

func TestIntakeHandler_Submit(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		created    bool
		ucErr      error
		wantStatus int
		wantMsg    string
	}{
		{name: "created", body: validForm, created: true, wantStatus: http.StatusCreated, wantMsg: "Form submitted successfully"},
		{name: "updated", body: validForm, wantStatus: http.StatusOK, wantMsg: "Form updated successfully"},
		{name: "missing age", body: `{"gender":"female","occupation":"student","sleep_cycle":"<6","relationship_status":"single"}`, wantStatus: http.StatusBadRequest, wantMsg: msgAllFieldsRequired},
		{name: "age out of range", body: `{"age":130,"gender":"female","occupation":"student","sleep_cycle":"<6","relationship_status":"single"}`, wantStatus: http.StatusUnprocessableEntity, wantMsg: "Validation failed"},
		{name: "bad enum", body: `{"age":30,"gender":"female","occupation":"astronaut","sleep_cycle":"<6","relationship_status":"single"}`, wantStatus: http.StatusUnprocessableEntity, wantMsg: "Validation failed"},
		{name: "internal", body: validForm, ucErr: errors.New("db"), wantStatus: http.StatusInternalServerError, wantMsg: msgInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockIntakeUsecase{
				SubmitFunc: func(_ context.Context, userID uint, f entity.UserForm) (*entity.UserForm, bool, error) {
					if tt.ucErr != nil {
						return nil, false, tt.ucErr
					}
					f.ID, f.UserID = 1, userID
					return &f, tt.created, nil
				},
			}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/submit", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			newRouter(uc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var res api.UserFormEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tt.wantMsg, res.Message)
			if tt.wantStatus < 300 {
				assert.Equal(t, uint(7), res.Data.UserID)
				assert.Equal(t, "6-8", res.Data.SleepCycle)
			}
		})
	}
}

func TestIntakeHandler_Me(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		uc := &mockIntakeUsecase{
			GetFunc: func(_ context.Context, userID uint) (*entity.UserForm, error) {
				return &entity.UserForm{ID: 1, UserID: userID, Age: 30}, nil
			},
		}
		w := httptest.NewRecorder()
		newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var res api.UserFormEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, 30, res.Data.Age)
	})

	t.Run("not found", func(t *testing.T) {
		uc := &mockIntakeUsecase{
			GetFunc: func(context.Context, uint) (*entity.UserForm, error) { return nil, usecase.ErrFormNotFound },
		}
		w := httptest.NewRecorder()
		newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"Form not found for this user"}`, w.Body.String())
	})
}
