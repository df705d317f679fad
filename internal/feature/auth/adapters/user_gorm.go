// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
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

// userGorm はUserRepositoryインターフェースのGORM実装です。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーをデータベースに追加します。
// 一意制約（メールアドレス・ユーザー名・外部ID）に違反する場合、usecase.ErrUserAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	if !u.HasAuthPath() {
		return usecase.ErrNoAuthPath
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return usecase.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

// FindByEmailOrUserName はメールアドレスまたはユーザー名でユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmailOrUserName(ctx context.Context, identifier string) (*entity.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	return r.first(ctx, "email = ? OR user_name = ?", identifier, identifier)
}

// FindByProviderID は外部IDプロバイダーのIDでユーザーを取得します。
func (r *userGorm) FindByProviderID(ctx context.Context, provider entity.Provider, externalID string) (*entity.User, error) {
	switch provider {
	case entity.ProviderGoogle:
		return r.first(ctx, "google_id = ?", externalID)
	case entity.ProviderTwitter:
		return r.first(ctx, "twitter_id = ?", externalID)
	}
	return nil, usecase.ErrUserNotFound
}

// FindByID はIDでユーザーを取得します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

// UpdateRole はユーザーのロールを更新します。
func (r *userGorm) UpdateRole(ctx context.Context, id uint, role entity.Role) error {
	result := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *userGorm) first(ctx context.Context, query string, args ...any) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
