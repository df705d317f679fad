// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindcare_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8

	// MaxSessionsPerUser はユーザーごとに保持する有効なリフレッシュセッションの上限です。
	MaxSessionsPerUser = 5
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーを永続化します。
	// メールアドレス・ユーザー名・外部IDのいずれかが重複する場合 ErrUserAlreadyExists を返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmailOrUserName はメールアドレスまたはユーザー名が一致するユーザーを取得します。
	FindByEmailOrUserName(ctx context.Context, identifier string) (*entity.User, error)

	// FindByProviderID は外部IDプロバイダーのIDでユーザーを取得します。
	FindByProviderID(ctx context.Context, provider entity.Provider, externalID string) (*entity.User, error)

	// FindByID はIDでユーザーを取得します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// UpdateRole はユーザーのロールを更新します。
	UpdateRole(ctx context.Context, id uint, role entity.Role) error
}

// PasswordHasher はパスワードのハッシュ化と検証を抽象化します。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify は hash が空でも同等の計算時間をかけて false を返します。
	Verify(plain, hash string) bool
}

// TokenIssuer はJWTの発行と検証を抽象化します。
type TokenIssuer interface {
	IssueAccessToken(claims entity.AccessClaims) (string, error)
	IssueRefreshToken(claims entity.RefreshClaims) (string, error)
	VerifyRefreshToken(token string) (entity.RefreshClaims, error)
	RefreshTTL() time.Duration
}

// SessionMeta はセッション作成時に記録するクライアント情報です。
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// SignupInput はローカルサインアップの入力です。
type SignupInput struct {
	Name            string
	UserName        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            entity.Role
}

// AuthResult はセッション確立の結果です。
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	tokens   TokenIssuer

	now   func() time.Time
	newID func() string
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, sessions SessionRepository, hasher PasswordHasher, tokens TokenIssuer) *authUsecase {
	return &authUsecase{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, minPasswordLength)
	}
	return nil
}

// Signup はローカルユーザーを登録し、セッションを確立します。
func (u *authUsecase) Signup(ctx context.Context, in SignupInput, meta SessionMeta) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.UserName == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" || in.Role == "" {
		return nil, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	// admin はサインアップでは付与できない
	if !in.Role.Assignable() {
		return nil, ErrInvalidRole
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		Name:         in.Name,
		UserName:     in.UserName,
		Email:        in.Email,
		PasswordHash: hashed,
		Role:         in.Role,
	}
	user.Normalize()

	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return u.EstablishSession(ctx, user, meta)
}

// Signin はメールアドレスまたはユーザー名とパスワードで認証します。
// ユーザー未検出とパスワード不一致は同じ ErrInvalidCredentials になり、
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Signin(ctx context.Context, identifier, password string, meta SessionMeta) (*AuthResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := u.users.FindByEmailOrUserName(ctx, identifier)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	if ok := u.hasher.Verify(password, hash); !ok || user == nil {
		return nil, ErrInvalidCredentials
	}

	return u.EstablishSession(ctx, user, meta)
}

// EstablishSession はリフレッシュセッションを作成し、トークンの組を発行します。
// ローカル認証と外部ID認証の双方で共通に使用します。
func (u *authUsecase) EstablishSession(ctx context.Context, user *entity.User, meta SessionMeta) (*AuthResult, error) {
	count, err := u.sessions.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	// 上限に達している場合は最も古いセッションから削除する
	for ; count >= MaxSessionsPerUser; count-- {
		if err := u.sessions.DeleteOldestByUserID(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to evict session: %w", err)
		}
	}

	now := u.now()
	session := &entity.Session{
		ID:        u.newID(),
		UserID:    user.ID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(u.tokens.RefreshTTL()),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	access, err := u.tokens.IssueAccessToken(entity.AccessClaims{
		UserID:   user.ID,
		UserName: user.UserName,
		Role:     user.Role,
		Name:     user.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := u.tokens.IssueRefreshToken(entity.RefreshClaims{
		UserID:    user.ID,
		UserName:  user.UserName,
		Name:      user.Name,
		SessionID: session.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh はリフレッシュトークンを検証し、セッションをローテーションします。
// ロールはトークンではなくストアから再取得します。
// 失効済みセッションのトークンが提示された場合は漏洩とみなし、そのユーザーの全セッションを失効させます。
func (u *authUsecase) Refresh(ctx context.Context, refreshToken string, meta SessionMeta) (*AuthResult, error) {
	claims, err := u.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	session, err := u.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, ErrInvalidRefreshToken
	}
	if session.IsRevoked() {
		if err := u.sessions.RevokeAllByUserID(ctx, session.UserID); err != nil {
			return nil, fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil, ErrSessionRevoked
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	user, err := u.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if err := u.sessions.Revoke(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to revoke session: %w", err)
	}
	return u.EstablishSession(ctx, user, meta)
}

// Logout はリフレッシュトークンに対応するセッションを失効させます。
// 既に存在しないセッションに対しては何もしません。
func (u *authUsecase) Logout(ctx context.Context, refreshToken string) error {
	claims, err := u.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}
	if err := u.sessions.Revoke(ctx, claims.SessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}
