package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindcare_backend/internal/feature/auth/domain/entity"
)

// newTestUsecase wires an authUsecase with deterministic clocks and session ids.
func newTestUsecase(users UserRepository, sessions SessionRepository) (*authUsecase, *stubHasher) {
	hasher := &stubHasher{}
	uc := NewAuthUsecase(users, sessions, hasher, &stubIssuer{})

	base := time.Now()
	var seq int
	uc.now = func() time.Time {
		seq++
		return base.Add(time.Duration(seq) * time.Millisecond)
	}
	uc.newID = func() string { return fmt.Sprintf("sid-%d", seq) }
	return uc, hasher
}

func validSignup() SignupInput {
	return SignupInput{
		Name:            "A",
		UserName:        "A1",
		Email:           "A1@X.com",
		Password:        "Secret123!",
		ConfirmPassword: "Secret123!",
		Role:            entity.RoleUser,
	}
}

func TestAuthUsecase_Signup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(in *SignupInput)
		create  func(ctx context.Context, user *entity.User) error
		wantErr error
	}{
		{name: "success"},
		{name: "missing name", mutate: func(in *SignupInput) { in.Name = "  " }, wantErr: ErrMissingFields},
		{name: "missing role", mutate: func(in *SignupInput) { in.Role = "" }, wantErr: ErrMissingFields},
		{name: "password mismatch", mutate: func(in *SignupInput) { in.ConfirmPassword = "Other123!" }, wantErr: ErrPasswordMismatch},
		{
			name: "short password",
			mutate: func(in *SignupInput) {
				in.Password = "short"
				in.ConfirmPassword = "short"
			},
			wantErr: ErrWeakPassword,
		},
		{name: "admin self-assignment", mutate: func(in *SignupInput) { in.Role = entity.RoleAdmin }, wantErr: ErrInvalidRole},
		{
			name:    "duplicate email or username",
			create:  func(ctx context.Context, user *entity.User) error { return ErrUserAlreadyExists },
			wantErr: ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var created *entity.User
			users := &mockUserRepository{
				CreateFunc: func(ctx context.Context, user *entity.User) error {
					if tt.create != nil {
						return tt.create(ctx, user)
					}
					user.ID = 7
					created = user
					return nil
				},
			}
			uc, _ := newTestUsecase(users, newMemorySessions())

			in := validSignup()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			res, err := uc.Signup(context.Background(), in, SessionMeta{UserAgent: "ua", IPAddress: "127.0.0.1"})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, created)
			assert.Equal(t, "a1", created.UserName)
			assert.Equal(t, "a1@x.com", created.Email)
			assert.Equal(t, "hashed:Secret123!", created.PasswordHash)
			assert.False(t, created.IsVerified)
			assert.Equal(t, "access:7:user", res.AccessToken)
			assert.Equal(t, "refresh:7:sid-1", res.RefreshToken)
		})
	}
}

func TestAuthUsecase_Signin(t *testing.T) {
	t.Parallel()

	stored := &entity.User{ID: 3, UserName: "a1", Email: "a1@x.com", PasswordHash: "hashed:Secret123!", Role: entity.RoleDoctor}

	tests := []struct {
		name       string
		identifier string
		password   string
		find       func(ctx context.Context, identifier string) (*entity.User, error)
		wantErr    error
		wantToken  string
	}{
		{
			name:       "success by email",
			identifier: "A1@X.com",
			password:   "Secret123!",
			find: func(ctx context.Context, identifier string) (*entity.User, error) {
				assert.Equal(t, "a1@x.com", identifier)
				return stored, nil
			},
			wantToken: "access:3:doctor",
		},
		{
			name:       "wrong password",
			identifier: "a1@x.com",
			password:   "WrongPass",
			find:       func(ctx context.Context, identifier string) (*entity.User, error) { return stored, nil },
			wantErr:    ErrInvalidCredentials,
		},
		{
			name:       "unknown user",
			identifier: "ghost",
			password:   "Secret123!",
			wantErr:    ErrInvalidCredentials,
		},
		{
			name:       "federated user without password",
			identifier: "fed",
			password:   "anything",
			find: func(ctx context.Context, identifier string) (*entity.User, error) {
				return &entity.User{ID: 9, UserName: "fed"}, nil
			},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc, hasher := newTestUsecase(&mockUserRepository{FindByEmailOrUserNameFunc: tt.find}, newMemorySessions())
			res, err := uc.Signin(context.Background(), tt.identifier, tt.password, SessionMeta{})

			// 検証は失敗理由に関わらず必ず1回実行される
			assert.Equal(t, 1, hasher.verifyCalls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, res.AccessToken)
		})
	}
}

// TestAuthUsecase_Signin_Indistinguishable は未登録ユーザーとパスワード不一致が同じエラーになることを検証します。
func TestAuthUsecase_Signin_Indistinguishable(t *testing.T) {
	t.Parallel()

	stored := &entity.User{ID: 1, UserName: "a1", PasswordHash: "hashed:Secret123!"}
	users := &mockUserRepository{
		FindByEmailOrUserNameFunc: func(ctx context.Context, identifier string) (*entity.User, error) {
			if identifier == "a1" {
				return stored, nil
			}
			return nil, ErrUserNotFound
		},
	}
	uc, _ := newTestUsecase(users, newMemorySessions())

	_, errWrongPassword := uc.Signin(context.Background(), "a1", "WrongPass", SessionMeta{})
	_, errUnknownUser := uc.Signin(context.Background(), "nobody", "WrongPass", SessionMeta{})

	require.Error(t, errWrongPassword)
	assert.Equal(t, errWrongPassword, errUnknownUser)
}

func TestAuthUsecase_Signin_StoreFailure(t *testing.T) {
	t.Parallel()

	users := &mockUserRepository{
		FindByEmailOrUserNameFunc: func(ctx context.Context, identifier string) (*entity.User, error) {
			return nil, errors.New("connection reset")
		},
	}
	uc, _ := newTestUsecase(users, newMemorySessions())

	_, err := uc.Signin(context.Background(), "a1", "Secret123!", SessionMeta{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthUsecase_EstablishSession_EvictsOldest(t *testing.T) {
	t.Parallel()

	sessions := newMemorySessions()
	uc, _ := newTestUsecase(&mockUserRepository{}, sessions)
	user := &entity.User{ID: 5, Role: entity.RoleUser}

	for i := 0; i < MaxSessionsPerUser+2; i++ {
		_, err := uc.EstablishSession(context.Background(), user, SessionMeta{})
		require.NoError(t, err)
	}

	count, err := sessions.CountByUserID(context.Background(), 5)
	require.NoError(t, err)
	assert.EqualValues(t, MaxSessionsPerUser, count)

	_, err = sessions.FindByID(context.Background(), "sid-1")
	assert.ErrorIs(t, err, ErrSessionNotFound, "oldest session should be evicted")
}

func TestAuthUsecase_Refresh(t *testing.T) {
	t.Parallel()

	user := &entity.User{ID: 4, UserName: "a1", Role: entity.RoleUser}

	t.Run("rotates session and re-reads role", func(t *testing.T) {
		t.Parallel()

		sessions := newMemorySessions()
		promoted := *user
		promoted.Role = entity.RoleDoctor
		users := &mockUserRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*entity.User, error) { return &promoted, nil },
		}
		uc, _ := newTestUsecase(users, sessions)

		first, err := uc.EstablishSession(context.Background(), user, SessionMeta{})
		require.NoError(t, err)

		second, err := uc.Refresh(context.Background(), first.RefreshToken, SessionMeta{})
		require.NoError(t, err)
		assert.Equal(t, "access:4:doctor", second.AccessToken)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

		old, err := sessions.FindByID(context.Background(), "sid-1")
		require.NoError(t, err)
		assert.True(t, old.IsRevoked())
	})

	t.Run("reuse of rotated token revokes all sessions", func(t *testing.T) {
		t.Parallel()

		sessions := newMemorySessions()
		users := &mockUserRepository{
			FindByIDFunc: func(ctx context.Context, id uint) (*entity.User, error) { return user, nil },
		}
		uc, _ := newTestUsecase(users, sessions)

		first, err := uc.EstablishSession(context.Background(), user, SessionMeta{})
		require.NoError(t, err)
		_, err = uc.Refresh(context.Background(), first.RefreshToken, SessionMeta{})
		require.NoError(t, err)

		_, err = uc.Refresh(context.Background(), first.RefreshToken, SessionMeta{})
		assert.ErrorIs(t, err, ErrSessionRevoked)

		count, err := sessions.CountByUserID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()

		uc, _ := newTestUsecase(&mockUserRepository{}, newMemorySessions())
		_, err := uc.Refresh(context.Background(), "garbage", SessionMeta{})
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		uc, _ := newTestUsecase(&mockUserRepository{}, newMemorySessions())
		_, err := uc.Refresh(context.Background(), "refresh:4:missing", SessionMeta{})
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("expired session", func(t *testing.T) {
		t.Parallel()

		sessions := newMemorySessions()
		require.NoError(t, sessions.Create(context.Background(), &entity.Session{
			ID:        "old",
			UserID:    4,
			CreatedAt: time.Now().Add(-31 * 24 * time.Hour),
			ExpiresAt: time.Now().Add(-time.Hour),
		}))
		uc, _ := newTestUsecase(&mockUserRepository{}, sessions)

		_, err := uc.Refresh(context.Background(), "refresh:4:old", SessionMeta{})
		assert.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("session of another user", func(t *testing.T) {
		t.Parallel()

		sessions := newMemorySessions()
		require.NoError(t, sessions.Create(context.Background(), &entity.Session{
			ID:        "s",
			UserID:    99,
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}))
		uc, _ := newTestUsecase(&mockUserRepository{}, sessions)

		_, err := uc.Refresh(context.Background(), "refresh:4:s", SessionMeta{})
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestAuthUsecase_Logout(t *testing.T) {
	t.Parallel()

	sessions := newMemorySessions()
	uc, _ := newTestUsecase(&mockUserRepository{}, sessions)

	res, err := uc.EstablishSession(context.Background(), &entity.User{ID: 2}, SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, uc.Logout(context.Background(), res.RefreshToken))
	s, err := sessions.FindByID(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.True(t, s.IsRevoked())

	// 存在しないセッションのログアウトは成功扱い
	assert.NoError(t, uc.Logout(context.Background(), "refresh:2:unknown"))
	assert.ErrorIs(t, uc.Logout(context.Background(), "garbage"), ErrInvalidRefreshToken)
}
