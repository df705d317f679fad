package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/auth/usecase"
)

// setupTestRedis はテスト用のminiredisを起動します。
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func createTestSession(id string, userID uint, expiresIn time.Duration) *entity.Session {
	now := time.Now()
	return &entity.Session{
		ID:        id,
		UserID:    userID,
		UserAgent: "test-agent",
		IPAddress: "127.0.0.1",
		CreatedAt: now,
		ExpiresAt: now.Add(expiresIn),
	}
}

func TestSessionRedis_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session *entity.Session
		wantErr bool
	}{
		{"success: create session", createTestSession("session-001", 1, 30*24*time.Hour), false},
		{"failure: expired session", createTestSession("expired-session", 1, -time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, mr := setupTestRedis(t)
			repo := NewSessionRedis(client, "refresh")

			err := repo.Create(context.Background(), tt.session)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.True(t, mr.Exists(repo.sessionKey(tt.session.ID)))
			assert.Greater(t, mr.TTL(repo.sessionKey(tt.session.ID)), 29*24*time.Hour)

			score, err := client.ZScore(context.Background(), repo.userSessionsKey(1), tt.session.ID).Result()
			require.NoError(t, err)
			assert.Equal(t, float64(tt.session.ExpiresAt.Unix()), score)
		})
	}
}

func TestSessionRedis_FindByID(t *testing.T) {
	t.Parallel()

	client, _ := setupTestRedis(t)
	repo := NewSessionRedis(client, "refresh")
	require.NoError(t, repo.Create(context.Background(), createTestSession("find-me", 1, time.Hour)))

	found, err := repo.FindByID(context.Background(), "find-me")
	require.NoError(t, err)
	assert.Equal(t, uint(1), found.UserID)
	assert.Equal(t, "test-agent", found.UserAgent)

	found, err = repo.FindByID(context.Background(), "nonexistent-id")
	assert.ErrorIs(t, err, usecase.ErrSessionNotFound)
	assert.Nil(t, found)
}

func TestSessionRedis_Revoke(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	repo := NewSessionRedis(client, "refresh")
	require.NoError(t, repo.Create(context.Background(), createTestSession("revoke-me", 1, 30*24*time.Hour)))

	require.NoError(t, repo.Revoke(context.Background(), "revoke-me"))

	// 失効後も再利用検知のため有効期限までは残る
	found, err := repo.FindByID(context.Background(), "revoke-me")
	require.NoError(t, err)
	assert.True(t, found.IsRevoked())
	assert.Greater(t, mr.TTL(repo.sessionKey("revoke-me")), 29*24*time.Hour)

	// 2回目の失効は何もしない
	assert.NoError(t, repo.Revoke(context.Background(), "revoke-me"))

	assert.ErrorIs(t, repo.Revoke(context.Background(), "nonexistent-id"), usecase.ErrSessionNotFound)
}

func TestSessionRedis_RevokeAllByUserID(t *testing.T) {
	t.Parallel()

	client, _ := setupTestRedis(t)
	repo := NewSessionRedis(client, "refresh")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, createTestSession("session-1", 1, time.Hour)))
	require.NoError(t, repo.Create(ctx, createTestSession("session-2", 1, time.Hour)))
	require.NoError(t, repo.Create(ctx, createTestSession("session-3", 2, time.Hour)))

	require.NoError(t, repo.RevokeAllByUserID(ctx, 1))

	found1, err := repo.FindByID(ctx, "session-1")
	require.NoError(t, err)
	found2, err := repo.FindByID(ctx, "session-2")
	require.NoError(t, err)
	found3, err := repo.FindByID(ctx, "session-3")
	require.NoError(t, err)
	assert.True(t, found1.IsRevoked())
	assert.True(t, found2.IsRevoked())
	assert.False(t, found3.IsRevoked())
}

func TestSessionRedis_CountByUserID(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	repo := NewSessionRedis(client, "refresh")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, createTestSession("active-1", 1, time.Hour)))
	require.NoError(t, repo.Create(ctx, createTestSession("active-2", 1, time.Hour)))
	require.NoError(t, repo.Create(ctx, createTestSession("active-3", 1, time.Hour)))
	require.NoError(t, repo.Revoke(ctx, "active-1"))
	// 本体だけが消えた索引エントリ
	mr.Del(repo.sessionKey("active-2"))

	count, err := repo.CountByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	members, err := client.ZRange(ctx, repo.userSessionsKey(1), 0, -1).Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"active-1", "active-3"}, members)
}

func TestSessionRedis_DeleteOldestByUserID(t *testing.T) {
	t.Parallel()

	client, _ := setupTestRedis(t)
	repo := NewSessionRedis(client, "refresh")
	ctx := context.Background()

	now := time.Now()
	oldest := createTestSession("oldest", 1, time.Hour)
	oldest.CreatedAt = now.Add(-2 * time.Hour)
	newest := createTestSession("newest", 1, time.Hour)
	newest.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, oldest))
	require.NoError(t, repo.Create(ctx, newest))

	require.NoError(t, repo.DeleteOldestByUserID(ctx, 1))

	_, err := repo.FindByID(ctx, "oldest")
	assert.ErrorIs(t, err, usecase.ErrSessionNotFound)
	_, err = repo.FindByID(ctx, "newest")
	assert.NoError(t, err)

	assert.NoError(t, repo.DeleteOldestByUserID(ctx, 999))
}

func TestSessionRedis_DeleteExpired(t *testing.T) {
	t.Parallel()

	client, _ := setupTestRedis(t)
	repo := NewSessionRedis(client, "refresh")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, createTestSession("live", 1, time.Hour)))
	stale := float64(time.Now().Add(-time.Hour).Unix())
	require.NoError(t, client.ZAdd(ctx, repo.userSessionsKey(1), redis.Z{Score: stale, Member: "gone-1"}).Err())
	require.NoError(t, client.ZAdd(ctx, repo.userSessionsKey(2), redis.Z{Score: stale, Member: "gone-2"}).Err())

	deleted, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	members, err := client.ZRange(ctx, repo.userSessionsKey(1), 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, members)
}

func TestSessionRedis_KeyGeneration(t *testing.T) {
	t.Parallel()

	client, _ := setupTestRedis(t)
	repo := NewSessionRedis(client, "test-prefix")

	assert.Equal(t, "test-prefix:session-id", repo.sessionKey("session-id"))
	assert.Equal(t, "test-prefix:user:123", repo.userSessionsKey(123))
}
