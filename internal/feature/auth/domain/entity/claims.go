package entity

// AccessClaims はアクセストークンに含めるクレームです。
type AccessClaims struct {
	UserID   uint
	UserName string
	Role     Role
	Name     string
}

// RefreshClaims はリフレッシュトークンに含めるクレームです。
// ロールは含めず、利用時にストアから再取得します。
type RefreshClaims struct {
	UserID    uint
	UserName  string
	Name      string
	SessionID string
}
