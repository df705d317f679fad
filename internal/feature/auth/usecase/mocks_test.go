package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mindcare_backend/internal/feature/auth/domain/entity"
)

// mockUserRepository is a mock implementation of UserRepository.
type mockUserRepository struct {
	CreateFunc                func(ctx context.Context, user *entity.User) error
	FindByEmailOrUserNameFunc func(ctx context.Context, identifier string) (*entity.User, error)
	FindByProviderIDFunc      func(ctx context.Context, provider entity.Provider, externalID string) (*entity.User, error)
	FindByIDFunc              func(ctx context.Context, id uint) (*entity.User, error)
	UpdateRoleFunc            func(ctx context.Context, id uint, role entity.Role) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepository) FindByEmailOrUserName(ctx context.Context, identifier string) (*entity.User, error) {
	if m.FindByEmailOrUserNameFunc != nil {
		return m.FindByEmailOrUserNameFunc(ctx, identifier)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByProviderID(ctx context.Context, provider entity.Provider, externalID string) (*entity.User, error) {
	if m.FindByProviderIDFunc != nil {
		return m.FindByProviderIDFunc(ctx, provider, externalID)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id uint, role entity.Role) error {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return nil
}

// stubHasher treats "hashed:<plain>" as the hash of <plain>.
type stubHasher struct {
	verifyCalls int
}

func (h *stubHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (h *stubHasher) Verify(plain, hash string) bool {
	h.verifyCalls++
	return hash != "" && hash == "hashed:"+plain
}

// stubIssuer encodes claims in a readable form so tests can inspect them.
type stubIssuer struct {
	ttl time.Duration
}

func (s *stubIssuer) IssueAccessToken(c entity.AccessClaims) (string, error) {
	return fmt.Sprintf("access:%d:%s", c.UserID, c.Role), nil
}

func (s *stubIssuer) IssueRefreshToken(c entity.RefreshClaims) (string, error) {
	return fmt.Sprintf("refresh:%d:%s", c.UserID, c.SessionID), nil
}

func (s *stubIssuer) VerifyRefreshToken(token string) (entity.RefreshClaims, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "refresh" {
		return entity.RefreshClaims{}, fmt.Errorf("malformed token")
	}
	var id uint
	if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil {
		return entity.RefreshClaims{}, err
	}
	return entity.RefreshClaims{UserID: id, SessionID: parts[2]}, nil
}

func (s *stubIssuer) RefreshTTL() time.Duration {
	if s.ttl == 0 {
		return 30 * 24 * time.Hour
	}
	return s.ttl
}

// memorySessions is an in-memory SessionRepository.
type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]*entity.Session{}}
}

func (m *memorySessions) Create(_ context.Context, s *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memorySessions) FindByID(_ context.Context, id string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memorySessions) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	now := time.Now()
	s.RevokedAt = &now
	return nil
}

func (m *memorySessions) RevokeAllByUserID(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, s := range m.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (m *memorySessions) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.IsExpired() {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memorySessions) live(userID uint) []*entity.Session {
	var out []*entity.Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsValid() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memorySessions) CountByUserID(_ context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.live(userID))), nil
}

func (m *memorySessions) DeleteOldestByUserID(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.live(userID)
	if len(live) > 0 {
		delete(m.sessions, live[0].ID)
	}
	return nil
}
