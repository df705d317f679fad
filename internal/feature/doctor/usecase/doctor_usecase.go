// Package usecase は医師プロフィールのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mindcare_backend/internal/feature/doctor/domain/entity"
)

var (
	// ErrDoctorNotFound is returned when no profile exists for the requested doctor.
	ErrDoctorNotFound = errors.New("doctor info not found")

	// ErrInvalidProfile is returned when a profile field is out of range.
	ErrInvalidProfile = errors.New("invalid doctor profile")
)

// DoctorRepository は医師プロフィールの永続化を抽象化します。
type DoctorRepository interface {
	// Upsert は UserID をキーに作成または更新し、新規作成だったかを返します。
	Upsert(ctx context.Context, p *entity.DoctorProfile) (created bool, err error)
	FindByUserID(ctx context.Context, userID uint) (*entity.DoctorProfile, error)
	List(ctx context.Context) ([]entity.DoctorProfile, error)
}

// ProfileInput は医師プロフィールの入力です。
type ProfileInput struct {
	Name          string
	Contact       string
	License       string
	Speciality    entity.Speciality
	Experience    int
	ClinicAddress string
	FeePerHour    float64
}

// DoctorUsecase は医師プロフィールのユースケースです。
type DoctorUsecase struct {
	repo DoctorRepository
}

// NewDoctorUsecase はDoctorUsecaseを生成します。
func NewDoctorUsecase(repo DoctorRepository) *DoctorUsecase {
	return &DoctorUsecase{repo: repo}
}

// Upsert は呼び出し元ユーザーのプロフィールを作成または更新します。
// 同じ内容で2回呼んでもプロフィールは1件のままです。
func (u *DoctorUsecase) Upsert(ctx context.Context, userID uint, in ProfileInput) (*entity.DoctorProfile, bool, error) {
	if err := validate(in); err != nil {
		return nil, false, err
	}

	p := &entity.DoctorProfile{
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		Contact:       strings.TrimSpace(in.Contact),
		License:       strings.TrimSpace(in.License),
		Speciality:    in.Speciality,
		Experience:    in.Experience,
		ClinicAddress: strings.TrimSpace(in.ClinicAddress),
		FeePerHour:    in.FeePerHour,
	}
	created, err := u.repo.Upsert(ctx, p)
	if err != nil {
		return nil, false, fmt.Errorf("upsert doctor profile: %w", err)
	}
	return p, created, nil
}

// Get は医師ユーザーのプロフィールを返します。
func (u *DoctorUsecase) Get(ctx context.Context, userID uint) (*entity.DoctorProfile, error) {
	return u.repo.FindByUserID(ctx, userID)
}

// List は全医師のプロフィールを返します。
func (u *DoctorUsecase) List(ctx context.Context) ([]entity.DoctorProfile, error) {
	return u.repo.List(ctx)
}

func validate(in ProfileInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "", strings.TrimSpace(in.License) == "":
		return fmt.Errorf("%w: name and license are required", ErrInvalidProfile)
	case !in.Speciality.Valid():
		return fmt.Errorf("%w: speciality %q", ErrInvalidProfile, in.Speciality)
	case in.Experience < 0:
		return fmt.Errorf("%w: negative experience", ErrInvalidProfile)
	case in.FeePerHour <= 0:
		return fmt.Errorf("%w: fee must be positive", ErrInvalidProfile)
	}
	return nil
}
