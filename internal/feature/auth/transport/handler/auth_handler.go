// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindcare_backend/internal/api"
	"mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/auth/usecase"
	"mindcare_backend/internal/platform/http/bind"
)

const (
	// TokenCookie はアクセストークンを運ぶCookie名です。
	TokenCookie = "token"

	tokenCookieMaxAge = 7 * 24 * 60 * 60

	msgAllFieldsRequired   = "All fields are required"
	msgPasswordsMismatch   = "Passwords do not match"
	msgWeakPassword        = "Password must be at least 8 characters long"
	msgDuplicateUser       = "Email or username already exists"
	msgProvideCredentials  = "Please provide valid credentials"
	msgInvalidCredentials  = "Invalid credentials"
	msgRefreshTokenMissing = "Refresh token is required"
	msgInvalidRefresh      = "Invalid or expired refresh token"
	msgInternalError       = "Internal server error"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Signup(ctx context.Context, in usecase.SignupInput, meta usecase.SessionMeta) (*usecase.AuthResult, error)
	Signin(ctx context.Context, identifier, password string, meta usecase.SessionMeta) (*usecase.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string, meta usecase.SessionMeta) (*usecase.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	EstablishSession(ctx context.Context, user *entity.User, meta usecase.SessionMeta) (*usecase.AuthResult, error)
}

// AttemptRecorder は認証試行の結果をメトリクスに記録します。
type AttemptRecorder interface {
	AuthAttempt(method, result string)
}

type noopRecorder struct{}

func (noopRecorder) AuthAttempt(string, string) {}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth         AuthUsecase
	metrics      AttemptRecorder
	secureCookie bool
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// secureCookie は本番環境でtrueにします。
func NewAuthHandler(auth AuthUsecase, metrics AttemptRecorder, secureCookie bool) *AuthHandler {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &AuthHandler{auth: auth, metrics: metrics, secureCookie: secureCookie}
}

func sessionMeta(c *gin.Context) usecase.SessionMeta {
	return usecase.SessionMeta{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
}

// setTokenCookie はアクセストークンをhttpOnly・SameSite=StrictのCookieに設定します。
func setTokenCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, token, tokenCookieMaxAge, "/", "", secure, true)
}

func clearTokenCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, "", -1, "/", "", secure, true)
}

func authResponse(message string, res *usecase.AuthResult) api.AuthResponse {
	return api.AuthResponse{
		Message:      message,
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
		User: api.UserResponse{
			ID:         res.User.ID,
			UserName:   res.User.UserName,
			Role:       string(res.User.Role),
			Name:       res.User.Name,
			IsVerified: res.User.IsVerified,
		},
	}
}

// Signup はユーザー登録APIエンドポイントを処理します。
//   - 必須項目の欠落は400、形式違反は422
//   - パスワード不一致・短すぎるパスワード・重複は400
//   - 成功時はトークンを返しCookieを設定して201
func (h *AuthHandler) Signup(c *gin.Context) {
	var req api.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		bind.AbortWithError(c, err, msgAllFieldsRequired)
		return
	}

	res, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Name:            req.Name,
		UserName:        req.UserName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            entity.Role(req.Role),
	}, sessionMeta(c))
	if err != nil {
		slog.Warn("signup failed", "error", err, "remote_addr", c.ClientIP())
		h.metrics.AuthAttempt("signup", "failure")
		switch {
		case errors.Is(err, usecase.ErrMissingFields):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgAllFieldsRequired})
		case errors.Is(err, usecase.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgPasswordsMismatch})
		case errors.Is(err, usecase.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgWeakPassword})
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgDuplicateUser})
		case errors.Is(err, usecase.ErrInvalidRole):
			c.JSON(http.StatusUnprocessableEntity, api.ValidationErrorResponse{
				Message: bind.MessageValidationFailed,
				Errors:  []api.FieldError{{Field: "Role", Rule: "oneof"}},
			})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		}
		return
	}

	h.metrics.AuthAttempt("signup", "success")
	slog.Info("user signup successful", "user_id", res.User.ID, "role", res.User.Role, "remote_addr", c.ClientIP())
	setTokenCookie(c, res.AccessToken, h.secureCookie)
	c.JSON(http.StatusCreated, authResponse("User created successfully", res))
}

// Signin はユーザーログインAPIエンドポイントを処理します。
// ユーザー未検出とパスワード不一致は同じ401レスポンスになります。
func (h *AuthHandler) Signin(c *gin.Context) {
	var req api.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signin validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgProvideCredentials})
		return
	}

	res, err := h.auth.Signin(c.Request.Context(), req.Identifier, req.Password, sessionMeta(c))
	if err != nil {
		h.metrics.AuthAttempt("local", "failure")
		// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Warn("signin failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgInvalidCredentials})
			return
		}
		slog.Error("signin error", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}

	h.metrics.AuthAttempt("local", "success")
	slog.Info("user signin successful", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	setTokenCookie(c, res.AccessToken, h.secureCookie)
	c.JSON(http.StatusOK, authResponse("Signin successful", res))
}

// Refresh はリフレッシュトークンをローテーションし、新しいトークンの組を返します。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req api.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgRefreshTokenMissing})
		return
	}

	res, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, sessionMeta(c))
	if err != nil {
		h.metrics.AuthAttempt("refresh", "failure")
		switch {
		case errors.Is(err, usecase.ErrInvalidRefreshToken),
			errors.Is(err, usecase.ErrSessionExpired),
			errors.Is(err, usecase.ErrSessionRevoked):
			slog.Warn("refresh rejected", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgInvalidRefresh})
		default:
			slog.Error("refresh error", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		}
		return
	}

	h.metrics.AuthAttempt("refresh", "success")
	setTokenCookie(c, res.AccessToken, h.secureCookie)
	c.JSON(http.StatusOK, authResponse("Token refreshed", res))
}

// Logout はリフレッシュセッションを失効させ、Cookieを削除します。
func (h *AuthHandler) Logout(c *gin.Context) {
	var req api.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: msgRefreshTokenMissing})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgInvalidRefresh})
			return
		}
		slog.Error("logout error", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
		return
	}

	clearTokenCookie(c, h.secureCookie)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Logged out successfully"})
}
