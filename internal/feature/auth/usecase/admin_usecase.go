package usecase

import (
	"context"
	"fmt"
	"strings"

	"mindcare_backend/internal/feature/auth/domain/entity"
)

// AdminRepository は管理者主体と監査ログの永続化を抽象化します。
type AdminRepository interface {
	Create(ctx context.Context, a *entity.AdminPrincipal) error
	FindByUserName(ctx context.Context, userName string) (*entity.AdminPrincipal, error)
	Disable(ctx context.Context, id uint) error
	ListAudit(ctx context.Context, adminID uint, limit int) ([]entity.AdminAuditEvent, error)
}

// AccessTokenIssuer はアクセストークンの発行だけを行います。
type AccessTokenIssuer interface {
	IssueAccessToken(claims entity.AccessClaims) (string, error)
}

// AdminUsecase は運用CLIから使う管理者主体の操作です。
// 管理者はサインアップやOAuthでは作成できず、この経路でのみ登録されます。
type AdminUsecase struct {
	admins AdminRepository
	tokens AccessTokenIssuer
}

// NewAdminUsecase はAdminUsecaseを生成します。
func NewAdminUsecase(admins AdminRepository, tokens AccessTokenIssuer) *AdminUsecase {
	return &AdminUsecase{admins: admins, tokens: tokens}
}

// Create は管理者主体を登録します。
func (u *AdminUsecase) Create(ctx context.Context, userName, name string) (*entity.AdminPrincipal, error) {
	userName = strings.TrimSpace(userName)
	name = strings.TrimSpace(name)
	if userName == "" || name == "" {
		return nil, ErrMissingFields
	}
	a := &entity.AdminPrincipal{UserName: userName, Name: name}
	if err := u.admins.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// IssueToken は有効な管理者主体のアクセストークンを発行します。
func (u *AdminUsecase) IssueToken(ctx context.Context, userName string) (string, error) {
	a, err := u.admins.FindByUserName(ctx, userName)
	if err != nil {
		return "", err
	}
	if a.Disabled {
		return "", ErrAdminNotFound
	}
	token, err := u.tokens.IssueAccessToken(entity.AccessClaims{
		UserID:   a.ID,
		UserName: a.UserName,
		Role:     entity.RoleAdmin,
		Name:     a.Name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to issue admin token: %w", err)
	}
	return token, nil
}

// Disable は管理者主体を無効化します。発行済みトークンも以後拒否されます。
func (u *AdminUsecase) Disable(ctx context.Context, userName string) error {
	a, err := u.admins.FindByUserName(ctx, userName)
	if err != nil {
		return err
	}
	return u.admins.Disable(ctx, a.ID)
}

// Audit は管理者の監査ログを新しい順に返します。
func (u *AdminUsecase) Audit(ctx context.Context, userName string, limit int) ([]entity.AdminAuditEvent, error) {
	a, err := u.admins.FindByUserName(ctx, userName)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return u.admins.ListAudit(ctx, a.ID, limit)
}
