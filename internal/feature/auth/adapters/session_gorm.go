package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/auth/usecase"
)

// sessionGorm はSessionRepositoryのGORM実装です。
type sessionGorm struct {
	db *gorm.DB
}

// sessionGormがSessionRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.SessionRepository = (*sessionGorm)(nil)

// NewSessionGorm はsessionGormの新しいインスタンスを生成します。
func NewSessionGorm(db *gorm.DB) *sessionGorm {
	return &sessionGorm{db: db}
}

// liveScope は期限内かつ未失効のセッションに絞り込みます。
func liveScope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("revoked_at IS NULL AND expires_at > ?", now)
	}
}

// Create はセッションを保存します。
func (r *sessionGorm) Create(ctx context.Context, session *entity.Session) error {
	return r.db.WithContext(ctx).Create(sessionModelFrom(session)).Error
}

// FindByID はIDでセッションを取得します。失効済み・期限切れのセッションも返します。
func (r *sessionGorm) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	var model SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}
	return model.toEntity(), nil
}

// Revoke はセッションを失効させます。
func (r *sessionGorm) Revoke(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("id = ?", id).
		Update("revoked_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// RevokeAllByUserID はユーザーの未失効セッションをすべて失効させます。
func (r *sessionGorm) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}

// DeleteExpired は期限切れのセッションを削除します。
func (r *sessionGorm) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&SessionModel{})
	return result.RowsAffected, result.Error
}

// CountByUserID はユーザーの有効なセッション数を返します。
func (r *sessionGorm) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Scopes(liveScope(time.Now())).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// DeleteOldestByUserID はユーザーの最も古い有効なセッションを削除します。
func (r *sessionGorm) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	var oldest SessionModel
	err := r.db.WithContext(ctx).
		Scopes(liveScope(time.Now())).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		First(&oldest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&SessionModel{}, "id = ?", oldest.ID).Error
}
