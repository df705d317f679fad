// Package adapters は医師プロフィールの永続化を実装します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mindcare_backend/internal/feature/doctor/domain/entity"
	"mindcare_backend/internal/feature/doctor/usecase"
	"mindcare_backend/internal/platform/db"
)

type doctorGorm struct {
	db *gorm.DB
}

// NewDoctorGorm はdoctorGormの新しいインスタンスを生成します。
func NewDoctorGorm(db *gorm.DB) *doctorGorm {
	return &doctorGorm{db: db}
}

var _ usecase.DoctorRepository = (*doctorGorm)(nil)

// Upsert は UserID をキーにプロフィールを作成または更新します。
// 検索と作成の間に同じユーザーの行が先に作られた場合は、一意制約違反を受けて更新としてやり直します。
func (r *doctorGorm) Upsert(ctx context.Context, p *entity.DoctorProfile) (bool, error) {
	created, err := r.upsert(ctx, p)
	if db.IsDuplicateKey(err) {
		p.ID = 0
		created, err = r.upsert(ctx, p)
	}
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *doctorGorm) upsert(ctx context.Context, p *entity.DoctorProfile) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.DoctorProfile
		err := tx.Where("user_id = ?", p.UserID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(p).Error
		}
		if err != nil {
			return err
		}

		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Select(
			"Name", "Contact", "License", "Speciality", "Experience", "ClinicAddress", "FeePerHour",
		).Updates(p).Error
	})
	return created, err
}

// FindByUserID は医師ユーザーのプロフィールを取得します。
func (r *doctorGorm) FindByUserID(ctx context.Context, userID uint) (*entity.DoctorProfile, error) {
	var p entity.DoctorProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrDoctorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List は全プロフィールを名前順で返します。
func (r *doctorGorm) List(ctx context.Context) ([]entity.DoctorProfile, error) {
	var profiles []entity.DoctorProfile
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&profiles).Error
	return profiles, err
}
