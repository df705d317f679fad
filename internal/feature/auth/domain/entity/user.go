// Package entity はauthフィーチャーのドメインエンティティを定義します。
package entity

import (
	"strings"
	"time"
)

// Role はユーザーの役割です。
type Role string

const (
	RoleUser      Role = "user"
	RoleDoctor    Role = "doctor"
	RoleSeller    Role = "seller"
	RoleOrganizer Role = "organizer"

	// RoleAdmin は永続化されたユーザーには付与されません。
	// 管理者は AdminPrincipal として別テーブルで管理します。
	RoleAdmin Role = "admin"
)

// Assignable はユーザーに付与可能なロールかを返します。
func (r Role) Assignable() bool {
	switch r {
	case RoleUser, RoleDoctor, RoleSeller, RoleOrganizer:
		return true
	}
	return false
}

// RoleFromHint はOAuthの開始時に指定されたロールのヒントを解釈します。
// "doctor" のみ医師ロールを選択し、それ以外（空を含む）は一般ユーザーです。
func RoleFromHint(hint string) Role {
	if hint == string(RoleDoctor) {
		return RoleDoctor
	}
	return RoleUser
}

// Provider は外部IDプロバイダーです。
type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderTwitter Provider = "twitter"
)

// User はシステムに登録されたユーザーです。
type User struct {
	ID uint `gorm:"primaryKey"`

	Name string `gorm:"size:120;not null"`

	// UserName は小文字に正規化された一意のユーザー名です。
	UserName string `gorm:"column:user_name;uniqueIndex;size:64;not null"`

	// Email は小文字に正規化された一意のメールアドレスです。
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// PasswordHash はローカル認証用のbcryptハッシュです。外部IDのみのユーザーでは空です。
	PasswordHash string `gorm:"column:password;size:255"`

	Role       Role `gorm:"size:16;not null;default:user"`
	IsVerified bool `gorm:"not null;default:false"`

	// 外部IDは存在する場合のみ一意です（NULL は一意制約の対象外）。
	GoogleID  *string `gorm:"uniqueIndex;size:64"`
	TwitterID *string `gorm:"uniqueIndex;size:64"`

	WellbeingScore *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize はユーザー名とメールアドレスを小文字に揃えます。
func (u *User) Normalize() {
	u.UserName = strings.ToLower(strings.TrimSpace(u.UserName))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}

// HasAuthPath はパスワードまたは外部IDのいずれかを持つかを返します。
func (u *User) HasAuthPath() bool {
	return u.PasswordHash != "" || u.GoogleID != nil || u.TwitterID != nil
}

// ProviderID は指定プロバイダーの外部IDを返します。
func (u *User) ProviderID(p Provider) *string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderTwitter:
		return u.TwitterID
	}
	return nil
}

// SetProviderID は指定プロバイダーの外部IDを設定します。
func (u *User) SetProviderID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = &id
	case ProviderTwitter:
		u.TwitterID = &id
	}
}
