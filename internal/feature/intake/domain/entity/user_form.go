// Package entity はユーザーの初回問診フォームを定義します。
package entity

import "time"

// UserForm はユーザーごとに1件の問診フォームです。
type UserForm struct {
	ID                 uint   `gorm:"primaryKey"`
	UserID             uint   `gorm:"uniqueIndex;not null"`
	Age                int    `gorm:"not null"`
	Gender             string `gorm:"size:24;not null"`
	Occupation         string `gorm:"size:24;not null"`
	SleepCycle         string `gorm:"size:8;not null"`
	RelationshipStatus string `gorm:"size:24;not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
