// Package usecase は問診フォームのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"

	"mindcare_backend/internal/feature/intake/domain/entity"
)

// ErrFormNotFound is returned when the caller has not submitted a form yet.
var ErrFormNotFound = errors.New("form not found")

// FormRepository は問診フォームの永続化を抽象化します。
type FormRepository interface {
	// Upsert は UserID をキーに作成または更新し、新規作成だったかを返します。
	Upsert(ctx context.Context, f *entity.UserForm) (created bool, err error)
	FindByUserID(ctx context.Context, userID uint) (*entity.UserForm, error)
}

// IntakeUsecase は問診フォームのユースケースです。
type IntakeUsecase struct {
	repo FormRepository
}

// NewIntakeUsecase はIntakeUsecaseを生成します。
func NewIntakeUsecase(repo FormRepository) *IntakeUsecase {
	return &IntakeUsecase{repo: repo}
}

// Submit は呼び出し元のフォームを保存します。値の検証はハンドラーのバインディングで済んでいます。
func (u *IntakeUsecase) Submit(ctx context.Context, userID uint, f entity.UserForm) (*entity.UserForm, bool, error) {
	f.ID = 0
	f.UserID = userID
	created, err := u.repo.Upsert(ctx, &f)
	if err != nil {
		return nil, false, fmt.Errorf("save user form: %w", err)
	}
	return &f, created, nil
}

// Get は呼び出し元のフォームを返します。
func (u *IntakeUsecase) Get(ctx context.Context, userID uint) (*entity.UserForm, error) {
	return u.repo.FindByUserID(ctx, userID)
}
