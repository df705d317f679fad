package entity

import "time"

// Session はリフレッシュトークン1本に対応するログインセッションです。
// ID はリフレッシュトークンの jti クレームと一致します。
type Session struct {
	ID        string     `json:"id"`
	UserID    uint       `json:"user_id"`
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// IsExpired は有効期限を過ぎているかを返します。
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsRevoked は失効済みかを返します。
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValid は期限内かつ未失効かを返します。
func (s *Session) IsValid() bool {
	return !s.IsExpired() && !s.IsRevoked()
}
