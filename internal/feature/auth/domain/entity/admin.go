package entity

import "time"

// AdminPrincipal は運用目的の管理者です。
// 一般ユーザーとは別テーブルに保持し、管理者トークンは必ずこのレコードと照合します。
type AdminPrincipal struct {
	ID        uint   `gorm:"primaryKey"`
	UserName  string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:120;not null"`
	Disabled  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdminAuditEvent は管理者によるリクエストの監査ログです。
type AdminAuditEvent struct {
	ID         uint   `gorm:"primaryKey"`
	AdminID    uint   `gorm:"index;not null"`
	Method     string `gorm:"size:8;not null"`
	Path       string `gorm:"size:255;not null"`
	Status     int    `gorm:"not null"`
	RemoteAddr string `gorm:"size:45"`
	CreatedAt  time.Time
}
