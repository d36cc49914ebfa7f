package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-auth-api/internal/core/auth"
	"go-auth-api/internal/core/config"
	"go-auth-api/internal/domain"
	"go-auth-api/internal/repo"
	"go-auth-api/internal/service"
	"go-auth-api/internal/transport/http/handler"
	"go-auth-api/pkg/utils"
)

func init() { gin.SetMode(gin.TestMode) }

type testServer struct {
	engine *gin.Engine
	mem    *repo.Memory
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := repo.NewMemory()
	ctx := context.Background()
	for _, name := range []string{"admin", "moderator", "user"} {
		if err := mem.Roles().Create(ctx, &domain.Role{ID: utils.NewID(), Name: name}); err != nil {
			t.Fatalf("seed role: %v", err)
		}
	}

	tokens := auth.NewTokenService([]byte("test-secret"), "test", 15*time.Minute, 7*24*time.Hour)
	log := zap.NewNop()
	authSvc := service.NewAuthService(mem.Users(), mem.Roles(), mem.Sessions(), tokens, log)
	userSvc := service.NewUserService(mem.Users(), mem.Roles())
	roleSvc := service.NewRoleService(mem.Roles())

	cfg := &config.Config{
		App: config.App{Env: "test"},
		RateLimit: config.RateLimit{
			RPS: 10000, Burst: 10000,
			APIPerMinute: 10000, AuthPerMinute: 10000, UserPerHour: 10000,
		},
	}
	engine := NewEngine(log, cfg, authSvc, nil, Handlers{
		Auth:  handler.NewAuthHandler(authSvc),
		Users: handler.NewUserHandler(userSvc),
		Roles: handler.NewRoleHandler(roleSvc),
	})
	return &testServer{engine: engine, mem: mem, tokens: tokens}
}

func (s *testServer) addUser(t *testing.T, email, roleName string, verified bool) *domain.User {
	t.Helper()
	ctx := context.Background()
	u := &domain.User{
		ID:           utils.NewID(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: utils.HashPassword("password123"),
		Verified:     verified,
	}
	if roleName != "" {
		role, err := s.mem.Roles().FindByName(ctx, roleName)
		if err != nil {
			t.Fatalf("find role %s: %v", roleName, err)
		}
		u.RoleID = &role.ID
	}
	if err := s.mem.Users().Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (s *testServer) accessToken(t *testing.T, u *domain.User) string {
	t.Helper()
	ctx := context.Background()
	loaded, err := s.mem.Users().FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	tok, err := s.tokens.IssueAccess(loaded)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	return tok
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    map[string]any      `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "go-test/1.0")
	req.RemoteAddr = "192.0.2.1:51000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w.Code, env
}

func TestRegisterEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":                  "Jo Doe",
		"email":                 "jo@example.com",
		"password":              "password123",
		"password_confirmation": "password123",
	})
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", code, env)
	}
	user := env.Data["user"].(map[string]any)
	if user["verified"] != false {
		t.Fatalf("expected verified false, got %v", user["verified"])
	}
	tokens := env.Data["tokens"].(map[string]any)
	if tokens["expires_in"].(float64) != 900 {
		t.Fatalf("expected expires_in 900, got %v", tokens["expires_in"])
	}
	if tokens["token_type"] != "Bearer" {
		t.Fatalf("expected Bearer, got %v", tokens["token_type"])
	}
}

func TestRegisterValidationEnvelope(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":                  "J",
		"email":                 "bad",
		"password":              "short",
		"password_confirmation": "short",
	})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if env.Success {
		t.Fatalf("expected success false")
	}
	for _, field := range []string{"name", "email", "password"} {
		if len(env.Errors[field]) == 0 {
			t.Fatalf("expected errors on %q, got %v", field, env.Errors)
		}
	}
}

func TestLoginNoEnumerationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "jo@example.com", "user", true)

	code1, env1 := s.do(t, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"email": "nobody@example.com", "password": "password123"})
	code2, env2 := s.do(t, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"email": "jo@example.com", "password": "wrong"})

	if code1 != http.StatusUnauthorized || code2 != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", code1, code2)
	}
	if env1.Message != env2.Message {
		t.Fatalf("messages must not distinguish cases: %q vs %q", env1.Message, env2.Message)
	}
}

func TestLoginUnverified(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "jo@example.com", "user", false)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"email": "jo@example.com", "password": "password123"})
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if env.Data != nil {
		t.Fatalf("expected no tokens, got %v", env.Data)
	}
}

func TestLoginSuccessOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "jo@example.com", "user", true)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"email": "jo@example.com", "password": "password123"})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", code, env)
	}
	user := env.Data["user"].(map[string]any)
	if user["email"] != "jo@example.com" {
		t.Fatalf("expected submitted email back, got %v", user["email"])
	}
	tokens := env.Data["tokens"].(map[string]any)
	access, _ := tokens["access_token"].(string)
	refresh, _ := tokens["refresh_token"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("expected both tokens, got %v", tokens)
	}
}

func TestMeRejectsRefreshToken(t *testing.T) {
	s := newTestServer(t)
	u := s.addUser(t, "jo@example.com", "user", true)

	refresh, err := s.tokens.IssueRefresh(u)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	code, env := s.do(t, http.MethodGet, "/api/v1/auth/me", refresh, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("refresh token must not pass auth middleware, got %d (%+v)", code, env)
	}
}

func TestMeWithAccessToken(t *testing.T) {
	s := newTestServer(t)
	u := s.addUser(t, "jo@example.com", "user", true)

	code, env := s.do(t, http.MethodGet, "/api/v1/auth/me", s.accessToken(t, u), nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", code, env)
	}
	user := env.Data["user"].(map[string]any)
	if user["email"] != "jo@example.com" || user["role"] != "user" {
		t.Fatalf("unexpected profile: %v", user)
	}
}

func TestMissingTokenUnauthorized(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	s := newTestServer(t)
	u := s.addUser(t, "jo@example.com", "user", true)

	// body 缺 refresh_token → 400
	code, _ := s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing token, got %d", code)
	}

	refresh, err := s.tokens.IssueRefresh(u)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": refresh})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", code, env)
	}
	if tok, _ := env.Data["access_token"].(string); tok == "" {
		t.Fatalf("expected new access token, got %v", env.Data)
	}

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": "garbage"})
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", code)
	}
}

func TestAdminGateOnUsers(t *testing.T) {
	s := newTestServer(t)
	member := s.addUser(t, "member@example.com", "user", true)
	admin := s.addUser(t, "boss@example.com", "admin", true)

	// 非 admin：列表/删除 403，资源存在与否无关
	code, env := s.do(t, http.MethodGet, "/api/v1/users", s.accessToken(t, member), nil)
	if code != http.StatusForbidden || env.Message != "Admin access required" {
		t.Fatalf("expected 403 admin gate, got %d %q", code, env.Message)
	}
	code, _ = s.do(t, http.MethodDelete, "/api/v1/users/does-not-exist", s.accessToken(t, member), nil)
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 before 404, got %d", code)
	}

	// admin 可列出
	code, env = s.do(t, http.MethodGet, "/api/v1/users", s.accessToken(t, admin), nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", code, env)
	}
	users := env.Data["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	// 普通用户可查详情和改自己
	code, _ = s.do(t, http.MethodGet, "/api/v1/users/"+member.ID, s.accessToken(t, member), nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200 on show, got %d", code)
	}
	code, env = s.do(t, http.MethodPatch, "/api/v1/users/"+member.ID, s.accessToken(t, member),
		gin.H{"name": "New Name"})
	if code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d (%+v)", code, env)
	}

	// admin 删除后资源消失
	code, _ = s.do(t, http.MethodDelete, "/api/v1/users/"+member.ID, s.accessToken(t, admin), nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", code)
	}
	code, _ = s.do(t, http.MethodGet, "/api/v1/users/"+member.ID, s.accessToken(t, admin), nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestRolesAdminOnlyCRUD(t *testing.T) {
	s := newTestServer(t)
	member := s.addUser(t, "member@example.com", "user", true)
	admin := s.addUser(t, "boss@example.com", "admin", true)

	code, _ := s.do(t, http.MethodGet, "/api/v1/roles", s.accessToken(t, member), nil)
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", code)
	}

	code, env := s.do(t, http.MethodPost, "/api/v1/roles", s.accessToken(t, admin),
		gin.H{"name": "support", "description": "handles tickets"})
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", code, env)
	}
	role := env.Data["role"].(map[string]any)
	roleID := role["id"].(string)

	code, env = s.do(t, http.MethodPatch, "/api/v1/roles/"+roleID, s.accessToken(t, admin),
		gin.H{"description": "updated"})
	if code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d (%+v)", code, env)
	}

	code, _ = s.do(t, http.MethodDelete, "/api/v1/roles/"+roleID, s.accessToken(t, admin), nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", code)
	}
	code, _ = s.do(t, http.MethodGet, "/api/v1/roles/"+roleID, s.accessToken(t, admin), nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestLogoutClearsDeviceSessions(t *testing.T) {
	s := newTestServer(t)
	s.addUser(t, "jo@example.com", "user", true)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"email": "jo@example.com", "password": "password123"})
	if code != http.StatusOK {
		t.Fatalf("login failed: %d", code)
	}
	access := env.Data["tokens"].(map[string]any)["access_token"].(string)
	userID := env.Data["user"].(map[string]any)["id"].(string)

	sessions, _ := s.mem.Sessions().ListByUser(context.Background(), userID)
	if len(sessions) != 1 {
		t.Fatalf("expected audit session after login, got %d", len(sessions))
	}

	code, _ = s.do(t, http.MethodDelete, "/api/v1/auth/logout", access, nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200 on logout, got %d", code)
	}
	sessions, _ = s.mem.Sessions().ListByUser(context.Background(), userID)
	if len(sessions) != 0 {
		t.Fatalf("expected sessions cleared, got %d", len(sessions))
	}

	// 无状态设计：已签发的 token 登出后依然有效，直到自然过期
	code, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", access, nil)
	if code != http.StatusOK {
		t.Fatalf("stateless logout must not revoke tokens, got %d", code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
