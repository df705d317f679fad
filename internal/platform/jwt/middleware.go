package jwtmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mindcare_backend/internal/api"
	"mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/auth/usecase"
)

// ContextIdentity はgin.Contextに認証済み主体を格納するキーです。
const ContextIdentity = "identity"

const (
	msgNoToken       = "No token provided"
	msgInvalidToken  = "Invalid or expired token"
	msgUserNotFound  = "Invalid token - user not found"
	msgAccessDenied  = "Access denied"
	msgInternalError = "Internal server error"
)

// AccessVerifier はアクセストークンの検証を抽象化します。
type AccessVerifier interface {
	VerifyAccessToken(token string) (entity.AccessClaims, error)
}

// UserFinder は一般ユーザーの取得を抽象化します。
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

// AdminStore は管理者主体の照合と監査ログの保存を抽象化します。
type AdminStore interface {
	FindActiveByID(ctx context.Context, id uint) (*entity.AdminPrincipal, error)
	RecordAudit(ctx context.Context, ev *entity.AdminAuditEvent) error
}

// AuthRequired はBearerトークンを検証し、リクエストに主体を付与するGinミドルウェアを返します。
// 管理者ロールのトークンも必ず管理者テーブルと照合し、処理後に監査ログを記録します。
func AuthRequired(verifier AccessVerifier, users UserFinder, admins AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if !strings.HasPrefix(auth, "Bearer ") || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
			return
		}

		claims, err := verifier.VerifyAccessToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgInvalidToken})
			return
		}

		ctx := c.Request.Context()
		if claims.Role == entity.RoleAdmin {
			admin, err := admins.FindActiveByID(ctx, claims.UserID)
			if !resolved(c, err, usecase.ErrAdminNotFound) {
				return
			}
			c.Set(ContextIdentity, entity.IdentityFromAdmin(admin))
			c.Next()
			recordAudit(c, admins, admin.ID)
			return
		}

		user, err := users.FindByID(ctx, claims.UserID)
		if !resolved(c, err, usecase.ErrUserNotFound) {
			return
		}
		c.Set(ContextIdentity, entity.IdentityFromUser(user))
		c.Next()
	}
}

// resolved はストア参照の結果を判定し、失敗時はレスポンスを書き込んで false を返します。
func resolved(c *gin.Context, err, notFound error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, notFound):
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgUserNotFound})
	default:
		slog.Error("failed to resolve token subject", "error", err, "path", c.FullPath())
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Message: msgInternalError})
	}
	return false
}

func recordAudit(c *gin.Context, admins AdminStore, adminID uint) {
	ev := &entity.AdminAuditEvent{
		AdminID:    adminID,
		Method:     c.Request.Method,
		Path:       c.Request.URL.Path,
		Status:     c.Writer.Status(),
		RemoteAddr: c.ClientIP(),
		CreatedAt:  time.Now(),
	}
	// 監査ログの失敗でレスポンスは変えない
	ctx := context.WithoutCancel(c.Request.Context())
	if err := admins.RecordAudit(ctx, ev); err != nil {
		slog.Error("failed to record admin audit event", "error", err, "admin_id", adminID, "path", ev.Path)
	}
}

// CurrentIdentity はAuthRequiredが付与した主体を返します。
func CurrentIdentity(c *gin.Context) (*entity.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil, false
	}
	id, ok := v.(*entity.Identity)
	return id, ok && id != nil
}

// RequireRole は指定ロールのいずれかを持つ主体のみを通過させます。管理者は常に通過します。
// AuthRequiredの後に配置してください。
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Message: msgNoToken})
			return
		}
		if id.IsAdmin() {
			c.Next()
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Message: msgAccessDenied})
	}
}
