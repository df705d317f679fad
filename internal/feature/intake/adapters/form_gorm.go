// Package adapters は問診フォームの永続化を実装します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mindcare_backend/internal/feature/intake/domain/entity"
	"mindcare_backend/internal/feature/intake/usecase"
)

type formGorm struct {
	db *gorm.DB
}

// NewFormGorm はformGormの新しいインスタンスを生成します。
func NewFormGorm(db *gorm.DB) *formGorm {
	return &formGorm{db: db}
}

var _ usecase.FormRepository = (*formGorm)(nil)

// Upsert は UserID をキーにフォームを作成または更新します。
func (r *formGorm) Upsert(ctx context.Context, f *entity.UserForm) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.UserForm
		err := tx.Where("user_id = ?", f.UserID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(f).Error
		}
		if err != nil {
			return err
		}

		f.ID = existing.ID
		f.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Select(
			"Age", "Gender", "Occupation", "SleepCycle", "RelationshipStatus",
		).Updates(f).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// FindByUserID はユーザーのフォームを取得します。
func (r *formGorm) FindByUserID(ctx context.Context, userID uint) (*entity.UserForm, error) {
	var f entity.UserForm
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrFormNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
