// Package api はHTTP APIのリクエスト/レスポンス型を定義します。
// ハンドラー間で共有されるワイヤーフォーマットはすべてこのパッケージに集約します。
package api

import "time"

// ErrorResponse はエラー時の共通レスポンスです。
type ErrorResponse struct {
	Message string `json:"message"`
}

// FieldError は入力検証で失敗したフィールドを表します。
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationErrorResponse は 422 のレスポンスです。
type ValidationErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

// MessageResponse はメッセージのみのレスポンスです。
type MessageResponse struct {
	Message string `json:"message"`
}

// SignupRequest は POST /auth/signup のリクエストボディです。
type SignupRequest struct {
	Name            string `json:"name" binding:"required,max=120"`
	UserName        string `json:"userName" binding:"required,max=30"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Role            string `json:"role" binding:"required,oneof=user doctor seller organizer"`
}

// SigninRequest は POST /auth/signin のリクエストボディです。
// Identifier はメールアドレスまたはユーザー名です。
type SigninRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// RefreshRequest は POST /auth/refresh と POST /auth/logout のリクエストボディです。
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UserResponse はクライアントに公開するユーザー情報です。
type UserResponse struct {
	ID         uint   `json:"id"`
	UserName   string `json:"userName"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

// AuthResponse はサインアップ/サインイン/リフレッシュ成功時のレスポンスです。
type AuthResponse struct {
	Message      string       `json:"message"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         UserResponse `json:"user"`
}

// DoctorInfoRequest は POST /api/doctor-info のリクエストボディです。
type DoctorInfoRequest struct {
	Name          string  `json:"name" binding:"required,max=120"`
	Contact       string  `json:"contact" binding:"required,max=40"`
	License       string  `json:"license" binding:"required,max=80"`
	Speciality    string  `json:"speciality" binding:"required,oneof=psychiatrist psychologist"`
	Experience    *int    `json:"experience" binding:"required,min=0,max=80"`
	ClinicAddress string  `json:"clinicAddress" binding:"required,max=255"`
	FeePerHour    float64 `json:"feePerHour" binding:"required,gt=0"`
}

// DoctorResponse は医師プロフィールのレスポンスです。
type DoctorResponse struct {
	ID            uint    `json:"id"`
	UserID        uint    `json:"userId"`
	Name          string  `json:"name"`
	Contact       string  `json:"contact"`
	License       string  `json:"license"`
	Speciality    string  `json:"speciality"`
	Experience    int     `json:"experience"`
	ClinicAddress string  `json:"clinicAddress"`
	FeePerHour    float64 `json:"feePerHour"`
}

// DoctorInfoResponse は医師プロフィール登録/更新のレスポンスです。
type DoctorInfoResponse struct {
	Message string         `json:"message"`
	Doctor  DoctorResponse `json:"doctor"`
}

// SlotRequest は追加する1件の枠です。
// Date は YYYY-MM-DD または RFC 3339、時刻は HH:MM です。検証はユースケースで行います。
type SlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// AddSlotsRequest は POST /api/add のリクエストボディです。
type AddSlotsRequest struct {
	Slots []SlotRequest `json:"slots"`
}

// SlotResponse は予約枠のレスポンスです。
type SlotResponse struct {
	ID        uint   `json:"id"`
	DoctorID  uint   `json:"doctorId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsBooked  bool   `json:"isBooked"`
}

// AddSlotsResponse は POST /api/add のレスポンスです。
type AddSlotsResponse struct {
	Message string         `json:"message"`
	Slots   []SlotResponse `json:"slots"`
}

// BookSlotRequest は POST /api/book のリクエストボディです。
type BookSlotRequest struct {
	SlotID uint `json:"slotId" binding:"required"`
}

// BookingResponse は予約のレスポンスです。
type BookingResponse struct {
	ID         uint          `json:"id"`
	UserID     uint          `json:"userId"`
	DoctorID   uint          `json:"doctorId"`
	SlotID     uint          `json:"slotId"`
	Fee        float64       `json:"fee"`
	Status     string        `json:"status"`
	DoctorName string        `json:"doctorName"`
	Speciality string        `json:"speciality"`
	Slot       *SlotResponse `json:"slot,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// BookSlotResponse は POST /api/book のレスポンスです。
type BookSlotResponse struct {
	Message string          `json:"message"`
	Booking BookingResponse `json:"booking"`
}

// UserFormRequest は POST /api/submit のリクエストボディです。
type UserFormRequest struct {
	Age                int    `json:"age" binding:"required,min=1,max=120"`
	Gender             string `json:"gender" binding:"required,oneof=male female non-binary prefer-not-to-say"`
	Occupation         string `json:"occupation" binding:"required,oneof=student professional homemaker retired other"`
	SleepCycle         string `json:"sleep_cycle" binding:"required,oneof=<6 6-8 >8"`
	RelationshipStatus string `json:"relationship_status" binding:"required,oneof=single in-a-relationship married divorced"`
}

// UserFormResponse はユーザーフォームのレスポンスです。
type UserFormResponse struct {
	ID                 uint      `json:"id"`
	UserID             uint      `json:"userId"`
	Age                int       `json:"age"`
	Gender             string    `json:"gender"`
	Occupation         string    `json:"occupation"`
	SleepCycle         string    `json:"sleep_cycle"`
	RelationshipStatus string    `json:"relationship_status"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// UserFormEnvelope は POST /api/submit と GET /api/me のレスポンスです。
type UserFormEnvelope struct {
	Message string           `json:"message,omitempty"`
	Data    UserFormResponse `json:"data"`
}

// EmotionResult は感情分析の結果です。
type EmotionResult struct {
	UserID    uint      `json:"userId"`
	Emotion   string    `json:"emotion"`
	ImageID   string    `json:"imageId"`
	CreatedAt time.Time `json:"createdAt"`
}

// EmotionResponse は POST /api/analyze のレスポンスです。
type EmotionResponse struct {
	Message string        `json:"message"`
	Data    EmotionResult `json:"data"`
}

// EmotionHistoryResponse は GET /api/emotions のレスポンスです。
type EmotionHistoryResponse struct {
	Data []EmotionResult `json:"data"`
}
