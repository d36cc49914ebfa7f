package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-auth-api/internal/domain"
)

// token_type 声明值；access 与 refresh 互不通用，泄露的 refresh token
// 不能直接当 access token 用，反之亦然
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken 对外统一的解码失败错误，不区分签名错/过期/类型错
var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenService HS256 签发/校验，密钥和 TTL 构造时注入
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func NewTokenService(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

func (s *TokenService) issue(c Claims, ttl time.Duration) (string, error) {
	now := s.now()
	c.Issuer = s.issuer
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// IssueAccess 短效 token，带 email 和角色名，15 分钟过期
func (s *TokenService) IssueAccess(u *domain.User) (string, error) {
	return s.issue(Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      string(u.RoleName()),
		TokenType: TokenTypeAccess,
	}, s.accessTTL)
}

// IssueRefresh 长效 token，只带 user_id，7 天过期
func (s *TokenService) IssueRefresh(u *domain.User) (string, error) {
	return s.issue(Claims{
		UserID:    u.ID,
		TokenType: TokenTypeRefresh,
	}, s.refreshTTL)
}

func (s *TokenService) IssuePair(u *domain.User) (*TokenPair, error) {
	access, err := s.IssueAccess(u)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefresh(u)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// AccessOnly refresh 接口的返回形态：只换新 access token
func (s *TokenService) AccessOnly(u *domain.User) (*TokenPair, error) {
	access, err := s.IssueAccess(u)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *TokenService) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// ParseAccess 校验签名/过期之外再卡 token_type
func (s *TokenService) ParseAccess(tokenStr string) (*Claims, error) {
	c, err := s.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if c.TokenType != TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func (s *TokenService) ParseRefresh(tokenStr string) (*Claims, error) {
	c, err := s.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if c.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return c, nil
}
