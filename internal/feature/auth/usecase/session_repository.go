package usecase

import (
	"context"

	"mindcare_backend/internal/feature/auth/domain/entity"
)

// SessionRepository はリフレッシュセッションの保存先です。
// Redis実装とRDB実装があり、di.NewSessionRepository が環境に応じて選択します。
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error

	// FindByID はリフレッシュトークンの jti でセッションを取得します。
	// 失効済みのセッションも返すため、呼び出し側で IsValid を確認します。
	FindByID(ctx context.Context, id string) (*entity.Session, error)

	Revoke(ctx context.Context, id string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error

	// DeleteExpired は期限切れのセッションを削除し、件数を返します。夜間ジョブから呼ばれます。
	DeleteExpired(ctx context.Context) (int64, error)

	// CountByUserID と DeleteOldestByUserID はユーザーごとのセッション上限の維持に使います。
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	DeleteOldestByUserID(ctx context.Context, userID uint) error
}
