package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
	"github.com/nutrilog/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL 是访问令牌的默认有效期
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrUserExists 在注册已存在的用户名时返回
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials 在用户名或密码错误时返回
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken 在令牌无法校验时返回
	ErrInvalidToken = errors.New("invalid token")
)

// AuthService 是外部身份提供方的本地实现：校验账号并签发携带稳定 UID 的令牌。
// 账本核心只接收 UID，不参与认证。
type AuthService struct {
	users  UserRepository
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewAuthService 构造 AuthService
func NewAuthService(users UserRepository, secret string, ttl time.Duration, clk clock.Clock) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, clock: clk}
}

// Register 创建 bcrypt 哈希的新账号
func (s *AuthService) Register(ctx context.Context, username, password string) (*db.User, error) {
	name := strings.TrimSpace(username)
	if name == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	if _, err := s.users.FindByUsername(ctx, name); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("register user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &db.User{Username: name, Password: string(hashed)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}

// EnsureUser 存在性检查：若用户名与密码均非空且账号不存在，则创建该账号。
func (s *AuthService) EnsureUser(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	if _, err := s.Register(ctx, username, password); err != nil && !errors.Is(err, ErrUserExists) {
		return err
	}
	return nil
}

// Authenticate 校验用户名与密码
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*db.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Lookup 按 UID 读取用户
func (s *AuthService) Lookup(ctx context.Context, uid string) (*db.User, error) {
	user, err := s.users.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// FindUser 按用户名读取用户，供本地命令行使用
func (s *AuthService) FindUser(ctx context.Context, username string) (*db.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %q", ErrInvalidCredentials, username)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// IssueToken 为用户签发 HS256 令牌，sub 为用户 UID
func (s *AuthService) IssueToken(user *db.User) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.UID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken 校验令牌并返回其中的用户 UID
func (s *AuthService) ParseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
