// Package password はbcryptによるパスワードハッシュ化を提供します。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost は本番で使用するbcryptのコストです。
const DefaultCost = 12

// Hasher はbcryptでパスワードをハッシュ化・検証します。
type Hasher struct {
	cost int
	// dummy はハッシュが存在しない場合に比較対象とする同コストのハッシュです。
	dummy []byte
}

// NewHasher は指定コストのHasherを生成します。
// 存在しないユーザーに対しても同じ時間がかかるよう、同コストのダミーハッシュを事前計算します。
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("mindcare-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

// Hash は平文パスワードのハッシュを返します。
func (h *Hasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文とハッシュが一致するかを返します。
// hash が空の場合もダミーハッシュとの比較を行い、常に false を返します。
func (h *Hasher) Verify(plain, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
