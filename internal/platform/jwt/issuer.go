package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mindcare_backend/internal/feature/auth/domain/entity"
)

const (
	// DefaultAccessTTL はアクセストークンの有効期間です。
	DefaultAccessTTL = 7 * 24 * time.Hour
	// DefaultRefreshTTL はリフレッシュトークンの有効期間です。
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// ErrInvalidToken は署名・形式・有効期限のいずれかが不正なトークンを表します。
var ErrInvalidToken = errors.New("invalid token")

// accessClaims はアクセストークンのペイロードです。
type accessClaims struct {
	ID       uint   `json:"id"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// refreshClaims はリフレッシュトークンのペイロードです。ロールは含めません。
type refreshClaims struct {
	ID       uint   `json:"id"`
	UserName string `json:"userName"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer はHS256でアクセストークンとリフレッシュトークンを発行・検証します。
// 2種類のトークンは別々の秘密鍵で署名されるため、互いに流用できません。
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer はIssuerを生成します。TTLが0以下の場合はデフォルト値を使います。
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// AccessTTL はアクセストークンの有効期間を返します。
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL はリフレッシュトークンの有効期間を返します。
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *Issuer) registered(ttl time.Duration, id string) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// IssueAccessToken はアクセストークンを発行します。
func (i *Issuer) IssueAccessToken(c entity.AccessClaims) (string, error) {
	claims := accessClaims{
		ID:               c.UserID,
		UserName:         c.UserName,
		Role:             string(c.Role),
		Name:             c.Name,
		RegisteredClaims: i.registered(i.accessTTL, ""),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken はリフレッシュトークンを発行します。jti にはセッションIDが入ります。
func (i *Issuer) IssueRefreshToken(c entity.RefreshClaims) (string, error) {
	claims := refreshClaims{
		ID:               c.UserID,
		UserName:         c.UserName,
		Name:             c.Name,
		RegisteredClaims: i.registered(i.refreshTTL, c.SessionID),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken はアクセストークンを検証しクレームを返します。
func (i *Issuer) VerifyAccessToken(token string) (entity.AccessClaims, error) {
	var claims accessClaims
	if err := i.parse(token, &claims, i.accessSecret); err != nil {
		return entity.AccessClaims{}, err
	}
	if claims.ID == 0 || claims.Role == "" {
		return entity.AccessClaims{}, ErrInvalidToken
	}
	return entity.AccessClaims{
		UserID:   claims.ID,
		UserName: claims.UserName,
		Role:     entity.Role(claims.Role),
		Name:     claims.Name,
	}, nil
}

// VerifyRefreshToken はリフレッシュトークンを検証しクレームを返します。
func (i *Issuer) VerifyRefreshToken(token string) (entity.RefreshClaims, error) {
	var claims refreshClaims
	if err := i.parse(token, &claims, i.refreshSecret); err != nil {
		return entity.RefreshClaims{}, err
	}
	if claims.ID == 0 || claims.RegisteredClaims.ID == "" {
		return entity.RefreshClaims{}, ErrInvalidToken
	}
	return entity.RefreshClaims{
		UserID:    claims.ID,
		UserName:  claims.UserName,
		Name:      claims.Name,
		SessionID: claims.RegisteredClaims.ID,
	}, nil
}

func (i *Issuer) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		// HMAC以外の署名アルゴリズムは受け付けない
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
