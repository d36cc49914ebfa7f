package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"go-auth-api/internal/core/auth"
	"go-auth-api/internal/domain"
	"go-auth-api/internal/repo"
	"go-auth-api/pkg/utils"
)

type authEnv struct {
	svc    *AuthService
	mem    *repo.Memory
	tokens *auth.TokenService
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	mem := repo.NewMemory()
	ctx := context.Background()
	for _, name := range []string{"admin", "moderator", "user"} {
		if err := mem.Roles().Create(ctx, &domain.Role{ID: utils.NewID(), Name: name}); err != nil {
			t.Fatalf("seed role %s: %v", name, err)
		}
	}
	tokens := auth.NewTokenService([]byte("test-secret"), "test", 15*time.Minute, 7*24*time.Hour)
	svc := NewAuthService(mem.Users(), mem.Roles(), mem.Sessions(), tokens, zap.NewNop())
	return &authEnv{svc: svc, mem: mem, tokens: tokens}
}

func (e *authEnv) addUser(t *testing.T, email, password string, verified bool) *domain.User {
	t.Helper()
	ctx := context.Background()
	role, err := e.mem.Roles().FindByName(ctx, "user")
	if err != nil {
		t.Fatalf("find user role: %v", err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: utils.HashPassword(password),
		Verified:     verified,
		RoleID:       &role.ID,
	}
	if err := e.mem.Users().Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

var testDevice = Device{UserAgent: "go-test/1.0", IP: "192.0.2.1"}

func TestLoginSuccess(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "jo@example.com", "password123", true)

	u, pair, err := env.svc.Login(context.Background(), "  JO@Example.COM ", "password123", testDevice)
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if u.Email != "jo@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", pair)
	}

	sessions, err := env.mem.Sessions().ListByUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 audit session, got %d", len(sessions))
	}
	if sessions[0].UserAgent != testDevice.UserAgent || sessions[0].IPAddress != testDevice.IP {
		t.Fatalf("session device mismatch: %+v", sessions[0])
	}
}

func TestLoginUnverified(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "jo@example.com", "password123", false)

	_, pair, err := env.svc.Login(context.Background(), "jo@example.com", "password123", testDevice)
	if !errors.Is(err, ErrUnverified) {
		t.Fatalf("expected ErrUnverified, got %v", err)
	}
	if pair != nil {
		t.Fatalf("expected no tokens for unverified account")
	}
}

func TestLoginNoEnumeration(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "jo@example.com", "password123", true)

	_, _, errUnknown := env.svc.Login(context.Background(), "nobody@example.com", "password123", testDevice)
	_, _, errWrongPw := env.svc.Login(context.Background(), "jo@example.com", "wrong-password", testDevice)

	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrongPw, ErrInvalidCredentials) {
		t.Fatalf("expected identical ErrInvalidCredentials, got %v / %v", errUnknown, errWrongPw)
	}
}

func TestRegisterExample(t *testing.T) {
	env := newAuthEnv(t)

	u, pair, err := env.svc.Register(context.Background(), RegisterInput{
		Name:                 "Jo Doe",
		Email:                "jo@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	}, testDevice)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if u.Verified {
		t.Fatalf("new accounts must start unverified")
	}
	if u.Role == nil || u.Role.Name != "user" {
		t.Fatalf("expected default role user, got %+v", u.Role)
	}
	if pair.ExpiresIn != 900 {
		t.Fatalf("expected expires_in 900, got %d", pair.ExpiresIn)
	}

	sessions, _ := env.mem.Sessions().ListByUser(context.Background(), u.ID)
	if len(sessions) != 1 {
		t.Fatalf("expected audit session after register, got %d", len(sessions))
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "taken@example.com", "password123", true)

	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"short password", RegisterInput{Name: "Jo Doe", Email: "a@b.com", Password: "short", PasswordConfirmation: "short"}, "password"},
		{"confirmation mismatch", RegisterInput{Name: "Jo Doe", Email: "a@b.com", Password: "password123", PasswordConfirmation: "password124"}, "password_confirmation"},
		{"bad email", RegisterInput{Name: "Jo Doe", Email: "not-an-email", Password: "password123", PasswordConfirmation: "password123"}, "email"},
		{"short name", RegisterInput{Name: "J", Email: "a@b.com", Password: "password123", PasswordConfirmation: "password123"}, "name"},
		{"taken email", RegisterInput{Name: "Jo Doe", Email: "taken@example.com", Password: "password123", PasswordConfirmation: "password123"}, "email"},
	}
	for _, tc := range cases {
		_, _, err := env.svc.Register(context.Background(), tc.in, testDevice)
		var se *Error
		if !errors.As(err, &se) {
			t.Fatalf("%s: expected *Error, got %v", tc.name, err)
		}
		if se.Status != 422 {
			t.Fatalf("%s: expected 422, got %d", tc.name, se.Status)
		}
		if len(se.Fields[tc.field]) == 0 {
			t.Fatalf("%s: expected error on field %q, got %v", tc.name, tc.field, se.Fields)
		}
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "jo@example.com", "password123", true)

	refresh, err := env.tokens.IssueRefresh(u)
	if err != nil {
		t.Fatalf("IssueRefresh() error: %v", err)
	}
	pair, err := env.svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if pair.RefreshToken != "" {
		t.Fatalf("refresh endpoint must not mint a new refresh token")
	}
	claims, err := env.tokens.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("new access token invalid: %v", err)
	}
	if claims.UserID != u.ID || claims.Email != u.Email {
		t.Fatalf("claims carry stale user data: %+v", claims)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "jo@example.com", "password123", true)

	access, err := env.tokens.IssueAccess(u)
	if err != nil {
		t.Fatalf("IssueAccess() error: %v", err)
	}
	if _, err := env.svc.Refresh(context.Background(), access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
}

func TestRefreshMissingToken(t *testing.T) {
	env := newAuthEnv(t)
	if _, err := env.svc.Refresh(context.Background(), ""); !errors.Is(err, ErrRefreshRequired) {
		t.Fatalf("expected ErrRefreshRequired, got %v", err)
	}
}

func TestRefreshUnknownUser(t *testing.T) {
	env := newAuthEnv(t)
	ghost := &domain.User{ID: "gone"}
	refresh, err := env.tokens.IssueRefresh(ghost)
	if err != nil {
		t.Fatalf("IssueRefresh() error: %v", err)
	}
	_, err = env.svc.Refresh(context.Background(), refresh)
	var se *Error
	if !errors.As(err, &se) || se.Status != 401 {
		t.Fatalf("expected 401 for deleted user, got %v", err)
	}
}

func TestResolveAccessRejectsRefreshToken(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "jo@example.com", "password123", true)

	refresh, err := env.tokens.IssueRefresh(u)
	if err != nil {
		t.Fatalf("IssueRefresh() error: %v", err)
	}
	if _, err := env.svc.ResolveAccess(context.Background(), refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not authenticate requests, got %v", err)
	}
}

func TestLogoutDeletesOnlyMatchingDevice(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "jo@example.com", "password123", true)
	ctx := context.Background()

	otherDevice := Device{UserAgent: "phone/2.0", IP: "198.51.100.7"}
	if _, _, err := env.svc.Login(ctx, u.Email, "password123", testDevice); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if _, _, err := env.svc.Login(ctx, u.Email, "password123", otherDevice); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	if err := env.svc.Logout(ctx, u, testDevice); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	sessions, _ := env.mem.Sessions().ListByUser(ctx, u.ID)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 remaining session, got %d", len(sessions))
	}
	if sessions[0].UserAgent != otherDevice.UserAgent {
		t.Fatalf("wrong session deleted: %+v", sessions[0])
	}
}
