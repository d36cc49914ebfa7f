package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"go-auth-api/internal/core/auth"
	"go-auth-api/internal/domain"
	"go-auth-api/pkg/utils"
)

// Device 请求来源，审计会话按 UA+IP 归并设备
type Device struct {
	UserAgent string
	IP        string
}

type RegisterInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type AuthService struct {
	users    domain.UserRepository
	roles    domain.RoleRepository
	sessions domain.SessionRepository
	tokens   *auth.TokenService
	log      *zap.Logger
}

func NewAuthService(
	users domain.UserRepository,
	roles domain.RoleRepository,
	sessions domain.SessionRepository,
	tokens *auth.TokenService,
	log *zap.Logger,
) *AuthService {
	return &AuthService{users: users, roles: roles, sessions: sessions, tokens: tokens, log: log}
}

// Login 查不到邮箱和密码错误返回同一个 401，防止枚举已注册邮箱
func (s *AuthService) Login(ctx context.Context, email, password string, dev Device) (*domain.User, *auth.TokenPair, error) {
	email = domain.NormalizeEmail(email)
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	if !u.Verified {
		return nil, nil, ErrUnverified
	}
	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, nil, err
	}
	s.recordSession(ctx, u.ID, dev)
	return u, pair, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, dev Device) (*domain.User, *auth.TokenPair, error) {
	in.Email = domain.NormalizeEmail(in.Email)

	f := fieldErrors{}
	checkName(f, in.Name)
	checkEmail(f, in.Email)
	checkPassword(f, in.Password, in.PasswordConfirmation)
	if in.Email != "" {
		if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
			f.add("email", "has already been taken")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
	}
	if !f.empty() {
		return nil, nil, ValidationError("Registration failed", f)
	}

	u := &domain.User{
		ID:           utils.NewID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: utils.HashPassword(in.Password),
		Verified:     false,
	}
	// 默认角色 user；种子缺失时留空，等价于普通用户
	if role, err := s.roles.FindByName(ctx, string(domain.RoleUser)); err == nil {
		u.RoleID = &role.ID
		u.Role = role
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			f.add("email", "has already been taken")
			return nil, nil, ValidationError("Registration failed", f)
		}
		return nil, nil, err
	}

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, nil, err
	}
	s.recordSession(ctx, u.ID, dev)
	return u, pair, nil
}

// Refresh 只认 token_type=refresh 的 token，换发带最新用户数据的 access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrRefreshRequired
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, NewError(401, "User not found")
		}
		return nil, err
	}
	return s.tokens.AccessOnly(u)
}

// Logout 无状态登出：只清当前设备的审计记录，已签发的 token
// 到期前仍然有效（短 TTL 是这里的缓解手段）
func (s *AuthService) Logout(ctx context.Context, u *domain.User, dev Device) error {
	return s.sessions.DeleteByDevice(ctx, u.ID, dev.UserAgent, dev.IP)
}

// ResolveAccess 中间件入口：access token → 用户；一切失败都折叠成统一 401
func (s *AuthService) ResolveAccess(ctx context.Context, tokenStr string) (*domain.User, error) {
	claims, err := s.tokens.ParseAccess(tokenStr)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (s *AuthService) recordSession(ctx context.Context, userID string, dev Device) {
	sess := &domain.Session{
		ID:        utils.NewID(),
		UserID:    userID,
		UserAgent: dev.UserAgent,
		IPAddress: dev.IP,
	}
	// 审计行写失败不阻断登录
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.log.Warn("session audit write failed", zap.String("user_id", userID), zap.Error(err))
	}
}
