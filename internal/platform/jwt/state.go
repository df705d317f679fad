package jwtmw

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mindcare_backend/internal/feature/auth/domain/entity"
)

// StateTTL はOAuthのstateパラメータの有効期間です。
const StateTTL = 10 * time.Minute

type stateClaims struct {
	Role  string `json:"role"`
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// StateSigner はOAuthの往復で要求ロールとnonceを運ぶ署名付きstateを生成・検証します。
type StateSigner struct {
	secret []byte
	now    func() time.Time
}

// NewStateSigner はStateSignerを生成します。
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret), now: time.Now}
}

// Encode は要求ロールとnonceを署名付きstateに変換します。
func (s *StateSigner) Encode(role entity.Role, nonce string) (string, error) {
	now := s.now()
	claims := stateClaims{
		Role:  string(role),
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Decode はstateを検証し、要求ロールとnonceを返します。
func (s *StateSigner) Decode(state string) (entity.Role, string, error) {
	var claims stateClaims
	parsed, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Nonce == "" {
		return "", "", ErrInvalidToken
	}
	return entity.Role(claims.Role), claims.Nonce, nil
}
