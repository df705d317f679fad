package adapters

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/auth/usecase"
	"mindcare_backend/internal/platform/db"
)

// adminGorm は管理者主体と監査ログのGORM実装です。
type adminGorm struct {
	db *gorm.DB
}

var _ usecase.AdminRepository = (*adminGorm)(nil)

// NewAdminGorm はadminGormの新しいインスタンスを生成します。
func NewAdminGorm(db *gorm.DB) *adminGorm {
	return &adminGorm{db: db}
}

// Create は管理者主体を登録します。
func (r *adminGorm) Create(ctx context.Context, a *entity.AdminPrincipal) error {
	a.UserName = strings.ToLower(strings.TrimSpace(a.UserName))
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return usecase.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

// FindActiveByID は有効な管理者主体を取得します。無効化されている場合も ErrAdminNotFound です。
func (r *adminGorm) FindActiveByID(ctx context.Context, id uint) (*entity.AdminPrincipal, error) {
	var a entity.AdminPrincipal
	err := r.db.WithContext(ctx).Where("id = ? AND disabled = ?", id, false).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByUserName はユーザー名で管理者主体を取得します。
func (r *adminGorm) FindByUserName(ctx context.Context, userName string) (*entity.AdminPrincipal, error) {
	var a entity.AdminPrincipal
	err := r.db.WithContext(ctx).Where("user_name = ?", strings.ToLower(userName)).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Disable は管理者主体を無効化します。以後その管理者のトークンは拒否されます。
func (r *adminGorm) Disable(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entity.AdminPrincipal{}).Where("id = ?", id).Update("disabled", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrAdminNotFound
	}
	return nil
}

// RecordAudit は管理者リクエストの監査ログを保存します。
func (r *adminGorm) RecordAudit(ctx context.Context, ev *entity.AdminAuditEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

// ListAudit は管理者の監査ログを新しい順に返します。
func (r *adminGorm) ListAudit(ctx context.Context, adminID uint, limit int) ([]entity.AdminAuditEvent, error) {
	var events []entity.AdminAuditEvent
	err := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
