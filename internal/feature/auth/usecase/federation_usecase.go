package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"mindcare_backend/internal/feature/auth/domain/entity"
)

const (
	// placeholderEmailDomain はメールアドレスを返さないプロバイダー用の代替ドメインです。
	placeholderEmailDomain = "users.noreply.mindcare.local"

	maxDerivedUserNameLength = 30
)

// FederatedProfile は外部IDプロバイダーから取得したプロフィールです。
type FederatedProfile struct {
	Provider    entity.Provider
	ExternalID  string
	DisplayName string
	// Email は検証済みのメールアドレスです。取得できない場合は空です。
	Email string
	// UserName はプロバイダー上のハンドル名です。
	UserName string
}

// federationUsecase は外部IDをローカルユーザーに対応付けます。
type federationUsecase struct {
	users UserRepository
}

// NewFederationUsecase はfederationUsecaseの新しいインスタンスを生成します。
func NewFederationUsecase(users UserRepository) *federationUsecase {
	return &federationUsecase{users: users}
}

// ResolveFederatedUser は外部IDに対応するユーザーを返します。
//   - 未登録なら requested ロールで新規作成
//   - 登録済みでロールが異なれば requested に上書き
//   - ロールが同じなら変更しない
func (u *federationUsecase) ResolveFederatedUser(ctx context.Context, p FederatedProfile, requested entity.Role) (*entity.User, error) {
	if p.ExternalID == "" {
		return nil, ErrInvalidProfile
	}
	if !requested.Assignable() {
		return nil, ErrInvalidRole
	}

	user, err := u.users.FindByProviderID(ctx, p.Provider, p.ExternalID)
	switch {
	case err == nil:
		if user.Role != requested {
			if err := u.users.UpdateRole(ctx, user.ID, requested); err != nil {
				return nil, fmt.Errorf("failed to update role: %w", err)
			}
			user.Role = requested
		}
		return user, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up federated user: %w", err)
	}

	userName := DeriveUserName(p)
	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		name = userName
	}
	email := p.Email
	if email == "" {
		email = PlaceholderEmail(p.Provider, p.ExternalID)
	}

	user = &entity.User{
		Name:     name,
		UserName: userName,
		Email:    email,
		Role:     requested,
	}
	user.SetProviderID(p.Provider, p.ExternalID)
	user.Normalize()

	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// PlaceholderEmail はメールアドレスを提供しないプロバイダー向けの代替アドレスを返します。
func PlaceholderEmail(provider entity.Provider, externalID string) string {
	return fmt.Sprintf("%s_%s@%s", provider, strings.ToLower(externalID), placeholderEmailDomain)
}

// DeriveUserName はプロフィールからユーザー名を導出します。
// 優先順: メールのローカル部、プロバイダーのハンドル名、表示名、"<provider>_<id>"。
func DeriveUserName(p FederatedProfile) string {
	candidates := []string{p.UserName, p.DisplayName}
	if local, _, ok := strings.Cut(p.Email, "@"); ok {
		candidates = append([]string{local}, candidates...)
	}
	for _, c := range candidates {
		if s := sanitizeUserName(c); s != "" {
			return s
		}
	}
	return sanitizeUserName(fmt.Sprintf("%s_%s", p.Provider, p.ExternalID))
}

// sanitizeUserName は英数字と . _ - のみを残し、小文字化して長さを制限します。
func sanitizeUserName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
		if b.Len() >= maxDerivedUserNameLength {
			break
		}
	}
	return strings.Trim(b.String(), ".-_")
}
