// Package di は実行環境に応じて依存コンポーネントの実装を選択するファクトリーを提供します。
package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "mindcare_backend/internal/feature/auth/adapters"
	authhandler "mindcare_backend/internal/feature/auth/transport/handler"
	"mindcare_backend/internal/feature/auth/usecase"
	"mindcare_backend/internal/platform/oauthstate"
	"mindcare_backend/internal/platform/session"
)

// NewSessionRepository はSessionRepositoryの実装を生成します。
// Redisが利用可能な場合はRedis実装を返し、そうでない場合はRDB実装にフォールバックします。
func NewSessionRepository(rdb *redis.Client, db *gorm.DB) usecase.SessionRepository {
	if rdb != nil {
		return session.NewSessionRedis(rdb, "session")
	}
	return authadapters.NewSessionGorm(db)
}

// NewPendingStore はOAuthフロー中のPKCE verifierの保存先を返します。
// Redisがない場合のgo-cache実装は単一インスタンス構成でのみ正しく動作します。
func NewPendingStore(rdb *redis.Client) authhandler.PendingStore {
	if rdb != nil {
		return oauthstate.NewRedisStore(rdb, "oauth")
	}
	return oauthstate.NewMemoryStore()
}
