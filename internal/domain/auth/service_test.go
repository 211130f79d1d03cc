package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/tx"
)

type memUsers struct {
	mu    sync.Mutex
	users map[id.ID]User
}

func newMemUsers() *memUsers { return &memUsers{users: map[id.ID]User{}} }

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, userID id.ID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (m *memUsers) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok {
		return apperror.NewNotFound("user", u.ID)
	}
	if cur.Version != u.Version {
		return apperror.NewConcurrentModification("user", u.ID)
	}
	u.Version++
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) List(_ context.Context, f UserFilter) ([]User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, len(out), nil
}

func (m *memUsers) Exists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memUsers) DirectReports(ctx context.Context, managerID id.ID) ([]id.ID, error) {
	users, _ := m.ListReports(ctx, managerID)
	out := make([]id.ID, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out, nil
}

func (m *memUsers) ListReports(_ context.Context, managerID id.ID) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if u.ManagerID != nil && *u.ManagerID == managerID {
			out = append(out, u)
		}
	}
	return out, nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newMemTokens() *memTokens { return &memTokens{tokens: map[string]*RefreshToken{}} }

func (m *memTokens) SaveRefreshToken(_ context.Context, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.TokenHash] = t
	return nil
}

func (m *memTokens) GetRefreshToken(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok {
		return nil, apperror.NewNotFound("refresh_token", hash)
	}
	return t, nil
}

func (m *memTokens) RevokeRefreshToken(_ context.Context, tokenID id.ID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = &reason
		}
	}
	return nil
}

func (m *memTokens) RevokeAllUserTokens(_ context.Context, userID id.ID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = &reason
		}
	}
	return nil
}

type forgetRecorder struct {
	users   *memUsers
	lookups int
	ids     []id.ID
}

func (f *forgetRecorder) User(ctx context.Context, u id.ID) (*User, error) {
	f.lookups++
	return f.users.GetByID(ctx, u)
}

func (f *forgetRecorder) Forget(u id.ID) { f.ids = append(f.ids, u) }

func newTestService(t *testing.T) (*Service, *memUsers, *forgetRecorder) {
	t.Helper()
	cfg := DefaultServiceConfig()
	cfg.BcryptCost = bcrypt.MinCost
	users := newMemUsers()
	sessions := &forgetRecorder{users: users}
	svc := NewService(users, newMemTokens(), tx.Passthrough{}, NewJWTService(DefaultJWTConfig("test-secret")), sessions, cfg)
	return svc, users, sessions
}

func register(t *testing.T, svc *Service, email string, role security.Role, mgr *id.ID) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Email: email, Password: "password123", Role: role, ManagerID: mgr,
	})
	require.NoError(t, err)
	return u
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	mgr := register(t, svc, "boss@example.com", security.RoleManager, nil)
	u := register(t, svc, " Sales@Example.com ", security.RoleSalesman, &mgr.ID)

	assert.Equal(t, "sales@example.com", u.Email)
	assert.Equal(t, "sales", u.Username)

	tokens, logged, err := svc.Login(context.Background(), Credentials{Email: "sales@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.NotNil(t, logged.LastLoginAt)

	got, err := svc.ValidateAccessToken(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	uc, err := svc.jwtService.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "salesman", uc.Role)
	assert.Equal(t, mgr.ID.String(), uc.ManagerID)
	assert.NotEmpty(t, uc.SessionID)
}

func TestJWTService_RejectsForeignTokens(t *testing.T) {
	user := &User{ID: id.New(), Email: "a@example.com", Role: security.RoleAdmin}

	other := NewJWTService(DefaultJWTConfig("other-secret"))
	raw, _, err := other.GenerateAccessToken(user, id.New())
	require.NoError(t, err)

	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	_, err = svc.ValidateToken(raw)
	assert.Error(t, err, "wrong secret")

	cfg := DefaultJWTConfig("test-secret")
	cfg.Issuer = "someone-else"
	raw, _, err = NewJWTService(cfg).GenerateAccessToken(user, id.New())
	require.NoError(t, err)
	_, err = svc.ValidateToken(raw)
	assert.Error(t, err, "wrong issuer")

	cfg = DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Hour
	raw, _, err = NewJWTService(cfg).GenerateAccessToken(user, id.New())
	require.NoError(t, err)
	_, err = svc.ValidateToken(raw)
	assert.Error(t, err, "expired")
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "a@example.com", security.RoleAdmin, nil)

	tests := []struct {
		name string
		req  RegisterRequest
		code string
	}{
		{"short password", RegisterRequest{Email: "b@example.com", Password: "x", Role: security.RoleSalesman}, apperror.CodeValidation},
		{"bad role", RegisterRequest{Email: "b@example.com", Password: "password123", Role: "ceo"}, apperror.CodeValidation},
		{"bad email", RegisterRequest{Email: "nope", Password: "password123", Role: security.RoleSalesman}, apperror.CodeValidation},
		{"duplicate", RegisterRequest{Email: "A@example.com", Password: "password123", Role: security.RoleSalesman}, apperror.CodeConflict},
		{"missing manager", RegisterRequest{Email: "c@example.com", Password: "password123", Role: security.RoleSalesman, ManagerID: id.Ptr(id.New())}, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestService_LoginFailures(t *testing.T) {
	svc, _, _ := newTestService(t)
	admin := register(t, svc, "admin@example.com", security.RoleAdmin, nil)
	u := register(t, svc, "s@example.com", security.RoleSalesman, nil)

	_, _, err := svc.Login(context.Background(), Credentials{Email: "s@example.com", Password: "wrong-password"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, _, err = svc.Login(context.Background(), Credentials{Email: "ghost@example.com", Password: "password123"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	tokens, _, err := svc.Login(context.Background(), Credentials{Email: "s@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Deactivate(context.Background(), admin.Actor(), u.ID)
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), Credentials{Email: "s@example.com", Password: "password123"})
	assert.True(t, apperror.IsForbidden(err), "deactivated login: %v", err)

	_, err = svc.ValidateAccessToken(context.Background(), tokens.AccessToken)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized), "token of deactivated user: %v", err)

	_, err = svc.RefreshToken(context.Background(), tokens.RefreshToken)
	assert.Error(t, err)
}

func TestService_RefreshRotatesToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "s@example.com", security.RoleSalesman, nil)
	tokens, _, err := svc.Login(context.Background(), Credentials{Email: "s@example.com", Password: "password123"})
	require.NoError(t, err)

	next, err := svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, next.RefreshToken)

	_, err = svc.RefreshToken(context.Background(), tokens.RefreshToken)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized), "reused token: %v", err)
}

func TestService_ChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := register(t, svc, "s@example.com", security.RoleSalesman, nil)

	err := svc.ChangePassword(context.Background(), u.ID, "bad-current", "newpassword1")
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "password123", "newpassword1"))
	_, _, err = svc.Login(context.Background(), Credentials{Email: "s@example.com", Password: "newpassword1"})
	assert.NoError(t, err)
}

func TestService_SetManagerHierarchy(t *testing.T) {
	svc, _, sessions := newTestService(t)
	director := register(t, svc, "director@example.com", security.RoleManager, nil)
	mgr := register(t, svc, "mgr@example.com", security.RoleManager, &director.ID)
	s1 := register(t, svc, "s1@example.com", security.RoleSalesman, nil)
	s2 := register(t, svc, "s2@example.com", security.RoleSalesman, nil)

	ctx := context.Background()

	_, err := svc.SetManager(ctx, s1.ID, &mgr.ID)
	require.NoError(t, err, "depth 2 is allowed")
	assert.Contains(t, sessions.ids, s1.ID)

	_, err = svc.SetManager(ctx, s1.ID, &s1.ID)
	assert.True(t, apperror.IsValidation(err), "self manager: %v", err)

	_, err = svc.SetManager(ctx, director.ID, &s1.ID)
	assert.True(t, apperror.IsValidation(err), "cycle: %v", err)

	_, err = svc.SetManager(ctx, s2.ID, &s1.ID)
	assert.True(t, apperror.IsValidation(err), "depth 3: %v", err)

	// moving a manager with reports under another manager deepens the subtree
	top := register(t, svc, "top@example.com", security.RoleManager, nil)
	_, err = svc.SetManager(ctx, director.ID, &top.ID)
	assert.True(t, apperror.IsValidation(err), "subtree depth: %v", err)

	reports, err := svc.Reports(ctx, mgr.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, s1.ID, reports[0].ID)

	_, err = svc.Deactivate(ctx, security.Actor{ID: id.New(), Role: security.RoleAdmin}, s2.ID)
	require.NoError(t, err)
	_, err = svc.SetManager(ctx, s1.ID, &s2.ID)
	assert.True(t, apperror.IsValidation(err), "inactive manager: %v", err)
}

func TestService_AdminGuards(t *testing.T) {
	svc, _, _ := newTestService(t)
	admin := register(t, svc, "admin@example.com", security.RoleAdmin, nil)

	_, err := svc.Deactivate(context.Background(), admin.Actor(), admin.ID)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.ChangeRole(context.Background(), admin.Actor(), admin.ID, security.RoleSalesman)
	assert.True(t, apperror.IsValidation(err))

	u := register(t, svc, "s@example.com", security.RoleSalesman, nil)
	changed, err := svc.ChangeRole(context.Background(), admin.Actor(), u.ID, security.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, security.RoleManager, changed.Role)

	reset, err := svc.ResetPassword(context.Background(), u.ID, "another-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reset.PasswordHash, "$2"))
}

func TestService_ValidateAccessTokenReadsSessionCache(t *testing.T) {
	svc, _, sessions := newTestService(t)
	register(t, svc, "s@example.com", security.RoleSalesman, nil)
	tokens, _, err := svc.Login(context.Background(), Credentials{Email: "s@example.com", Password: "password123"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.ValidateAccessToken(context.Background(), tokens.AccessToken)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, sessions.lookups)
}

func TestService_ValidateAccessTokenWithoutCache(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.BcryptCost = bcrypt.MinCost
	svc := NewService(newMemUsers(), newMemTokens(), tx.Passthrough{}, NewJWTService(DefaultJWTConfig("test-secret")), nil, cfg)
	u := register(t, svc, "s@example.com", security.RoleSalesman, nil)
	tokens, _, err := svc.Login(context.Background(), Credentials{Email: "s@example.com", Password: "password123"})
	require.NoError(t, err)

	got, err := svc.ValidateAccessToken(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}
