package adapters

import (
	"time"

	"mindcare_backend/internal/feature/auth/domain/entity"
)

// SessionModel は refresh_sessions テーブルのGORMモデルです。
// Redisが使えない環境でのリフレッシュセッション保存先になります。
type SessionModel struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    uint       `gorm:"index:idx_refresh_sessions_user_created;not null"`
	UserAgent string     `gorm:"size:512"`
	IPAddress string     `gorm:"size:45"`
	CreatedAt time.Time  `gorm:"index:idx_refresh_sessions_user_created;not null"`
	ExpiresAt time.Time  `gorm:"index;not null"`
	RevokedAt *time.Time `gorm:"index"`
}

// TableName はテーブル名を返します。
func (SessionModel) TableName() string {
	return "refresh_sessions"
}

func (m *SessionModel) toEntity() *entity.Session {
	return &entity.Session{
		ID:        m.ID,
		UserID:    m.UserID,
		UserAgent: m.UserAgent,
		IPAddress: m.IPAddress,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
		RevokedAt: m.RevokedAt,
	}
}

func sessionModelFrom(s *entity.Session) *SessionModel {
	return &SessionModel{
		ID:        s.ID,
		UserID:    s.UserID,
		UserAgent: truncate(s.UserAgent, 512),
		IPAddress: truncate(s.IPAddress, 45),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		RevokedAt: s.RevokedAt,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
