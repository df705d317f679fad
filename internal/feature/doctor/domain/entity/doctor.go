// Package entity は医師プロフィールのドメインモデルを定義します。
package entity

import "time"

// Speciality は医師の専門分野です。
type Speciality string

const (
	SpecialityPsychiatrist Speciality = "psychiatrist"
	SpecialityPsychologist Speciality = "psychologist"
)

// Valid は定義済みの専門分野かどうかを返します。
func (s Speciality) Valid() bool {
	return s == SpecialityPsychiatrist || s == SpecialityPsychologist
}

// DoctorProfile は doctor ロールのユーザーに1対1で紐づく医師情報です。
// UserID にユニークインデックスを張り、ユーザーあたり1件に制限します。
type DoctorProfile struct {
	ID            uint       `gorm:"primaryKey"`
	UserID        uint       `gorm:"uniqueIndex;not null"`
	Name          string     `gorm:"size:120;not null"`
	Contact       string     `gorm:"size:40;not null"`
	License       string     `gorm:"size:80;not null"`
	Speciality    Speciality `gorm:"size:20;not null"`
	Experience    int        `gorm:"not null"`
	ClinicAddress string     `gorm:"size:255;not null"`
	FeePerHour    float64    `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
