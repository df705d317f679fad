// Package entity は予約枠と予約のドメインモデルを定義します。
package entity

import "time"

// DateLayout は枠の日付の保存形式です。
const DateLayout = "2006-01-02"

// Slot は医師が提供する予約可能な時間枠です。
// IsBooked は false から true へ一度だけ遷移します。
type Slot struct {
	ID        uint   `gorm:"primaryKey"`
	DoctorID  uint   `gorm:"index:idx_slots_doctor_open,priority:1;not null"`
	Date      string `gorm:"size:10;not null"`
	StartTime string `gorm:"size:5;not null"`
	EndTime   string `gorm:"size:5;not null"`
	IsBooked  bool   `gorm:"index:idx_slots_doctor_open,priority:2;not null;default:false"`
	CreatedAt time.Time
}

// BookingStatus は予約の状態です。
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking はユーザー・医師・枠を結ぶ予約です。
// Fee は予約時点の医師の時給のコピーで、後の料金変更の影響を受けません。
// 決済関連のフィールドとミーティングURLは現状どの処理からも設定されません。
type Booking struct {
	ID               uint          `gorm:"primaryKey"`
	UserID           uint          `gorm:"index;not null"`
	DoctorID         uint          `gorm:"index;not null"`
	SlotID           uint          `gorm:"uniqueIndex;not null"`
	Fee              float64       `gorm:"not null"`
	Status           BookingStatus `gorm:"size:16;not null;default:confirmed"`
	PaymentOrderID   *string       `gorm:"size:64"`
	PaymentID        *string       `gorm:"size:64"`
	PaymentSignature *string       `gorm:"size:128"`
	MeetLink         *string       `gorm:"size:255"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BookingDetail は読み取り時に医師名・専門分野・枠を結合した予約です。
type BookingDetail struct {
	Booking
	DoctorName string
	Speciality string
	Slot       *Slot
}

// DoctorSummary は予約処理が参照する医師情報です。
type DoctorSummary struct {
	ID         uint
	UserID     uint
	Name       string
	Speciality string
	FeePerHour float64
}
