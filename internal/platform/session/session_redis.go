// Package session はリフレッシュセッションのRedis実装を提供します。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/auth/usecase"
)

// SessionRedis はRedisを使ったusecase.SessionRepositoryの実装です。
// セッション本体は <prefix>:<id> に、ユーザーごとの索引は有効期限をスコアとした
// ソート済みセット <prefix>:user:<id> に保持します。
type SessionRedis struct {
	client *redis.Client
	prefix string
}

var _ usecase.SessionRepository = (*SessionRedis)(nil)

// NewSessionRedis はSessionRedisの新しいインスタンスを生成します。
func NewSessionRedis(client *redis.Client, prefix string) *SessionRedis {
	return &SessionRedis{
		client: client,
		prefix: prefix,
	}
}

func (r *SessionRedis) sessionKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *SessionRedis) userSessionsKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", r.prefix, userID)
}

// Create はセッションを保存し、ユーザーの索引に追加します。
func (r *SessionRedis) Create(ctx context.Context, session *entity.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(session.ID), data, ttl)
		pipe.ZAdd(ctx, r.userSessionsKey(session.UserID), redis.Z{
			Score:  float64(session.ExpiresAt.Unix()),
			Member: session.ID,
		})
		return nil
	})
	return err
}

// FindByID はIDでセッションを取得します。失効済みのセッションも期限まで返します。
func (r *SessionRedis) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}

	var session entity.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// liveSessions はユーザーの有効なセッションを返します。本体が消えた索引は取り除きます。
func (r *SessionRedis) liveSessions(ctx context.Context, userID uint) ([]*entity.Session, error) {
	key := r.userSessionsKey(userID)
	ids, err := r.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(time.Now().Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	var sessions []*entity.Session
	for _, id := range ids {
		s, err := r.FindByID(ctx, id)
		if errors.Is(err, usecase.ErrSessionNotFound) {
			r.client.ZRem(ctx, key, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.IsValid() {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// Revoke はセッションを失効させます。リフレッシュトークンの再利用を検知できるよう、
// 失効済みのレコードは元の有効期限まで残します。
func (r *SessionRedis) Revoke(ctx context.Context, id string) error {
	session, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if session.IsRevoked() {
		return nil
	}

	now := time.Now()
	session.RevokedAt = &now
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return r.client.Set(ctx, r.sessionKey(id), data, redis.KeepTTL).Err()
}

// RevokeAllByUserID はユーザーの全セッションを失効させます。
func (r *SessionRedis) RevokeAllByUserID(ctx context.Context, userID uint) error {
	ids, err := r.client.ZRange(ctx, r.userSessionsKey(userID), 0, -1).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.Revoke(ctx, id); err != nil && !errors.Is(err, usecase.ErrSessionNotFound) {
			return err
		}
	}
	return nil
}

// DeleteExpired は期限切れの索引エントリを削除します。本体はRedisのTTLで消えます。
func (r *SessionRedis) DeleteExpired(ctx context.Context) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)
	max := "(" + strconv.FormatInt(time.Now().Unix(), 10)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+":user:*", 100).Result()
		if err != nil {
			return deleted, err
		}
		for _, key := range keys {
			n, err := r.client.ZRemRangeByScore(ctx, key, "-inf", max).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// CountByUserID はユーザーの有効なセッション数を返します。
func (r *SessionRedis) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	sessions, err := r.liveSessions(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}

// DeleteOldestByUserID はユーザーの最も古い有効なセッションを削除します。
func (r *SessionRedis) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	sessions, err := r.liveSessions(ctx, userID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	oldest := sessions[0]
	for _, s := range sessions[1:] {
		if s.CreatedAt.Before(oldest.CreatedAt) {
			oldest = s
		}
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(oldest.ID))
		pipe.ZRem(ctx, r.userSessionsKey(userID), oldest.ID)
		return nil
	})
	return err
}
