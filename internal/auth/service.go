package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sharath018/event-gift-backend/config"
	"github.com/sharath018/event-gift-backend/internal/apperr"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials  = apperr.New(apperr.ErrUnauthorized, "invalid_credentials", "Invalid username or password")
	ErrInvalidToken        = apperr.New(apperr.ErrUnauthorized, "invalid_token", "Invalid or expired token")
	ErrInvalidRefreshToken = apperr.New(apperr.ErrUnauthorized, "invalid_refresh_token", "Session expired, please log in again")
	ErrUsernameNotAdmin    = apperr.New(apperr.ErrConflict, "username_taken", "Username already belongs to a non-admin user")
)

type Service interface {
	Login(ctx context.Context, in LoginInput) (*TokenPair, *User, error)
	Renew(ctx context.Context, refreshToken string) (*TokenPair, *User, error)
	Logout(ctx context.Context, refreshToken string) error
	Authorize(ctx context.Context, accessToken string) (Principal, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
	EnsureAdmin(ctx context.Context, name, username, password string) (bool, error)
}

type service struct {
	repo          Repository
	sessions      SessionStore
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewService(r Repository, sessions SessionStore, cfg *config.Config) Service {
	return &service{
		repo:          r,
		sessions:      sessions,
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTTL(),
		refreshTTL:    cfg.RefreshTTL(),
		now:           time.Now,
	}
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// =============================
// Login
// =============================

type LoginInput struct {
	Username string
	Password string
}

func (s *service) Login(ctx context.Context, in LoginInput) (*TokenPair, *User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// =============================
// Tokens
// =============================

func (s *service) issue(ctx context.Context, user *User) (*TokenPair, error) {
	now := s.now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(s.accessTTL).Unix(),
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	jti := uuid.NewString()
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"jti":     jti,
		"iat":     now.Unix(),
		"exp":     now.Add(s.refreshTTL).Unix(),
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.sessions.Save(ctx, jti, user.ID, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) parse(token string, secret []byte) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func claimUserID(claims jwt.MapClaims) (uint, bool) {
	v, ok := claims["user_id"].(float64)
	if !ok || v <= 0 {
		return 0, false
	}
	return uint(v), true
}

// =============================
// Renew / Logout
// =============================

func (s *service) Renew(ctx context.Context, refreshToken string) (*TokenPair, *User, error) {
	claims, err := s.parse(refreshToken, s.refreshSecret)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}
	userID, ok := claimUserID(claims)
	jti, _ := claims["jti"].(string)
	if !ok || jti == "" {
		return nil, nil, ErrInvalidRefreshToken
	}

	sessionUser, err := s.sessions.Consume(ctx, jti)
	if errors.Is(err, errSessionNotFound) || (err == nil && sessionUser != userID) {
		return nil, nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, nil, fmt.Errorf("consume session: %w", err)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Logout revokes the session behind refreshToken. Unknown or malformed tokens are ignored.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.parse(refreshToken, s.refreshSecret)
	if err != nil {
		return nil
	}
	if jti, _ := claims["jti"].(string); jti != "" {
		return s.sessions.Revoke(ctx, jti)
	}
	return nil
}

// =============================
// Authorize
// =============================

func (s *service) Authorize(ctx context.Context, accessToken string) (Principal, error) {
	claims, err := s.parse(accessToken, s.accessSecret)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	userID, ok := claimUserID(claims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Principal{}, ErrInvalidToken
	}
	if err != nil {
		return Principal{}, err
	}

	exp, _ := claims.GetExpirationTime()
	p := Principal{
		UserID:   user.ID,
		Name:     user.Name,
		Username: user.Username,
		Role:     user.Role,
	}
	if exp != nil {
		p.ExpiresAt = exp.Time
	}
	return p, nil
}

func (s *service) GetUserByID(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// =============================
// Admin bootstrap
// =============================

// EnsureAdmin creates the admin account unless it already exists. It reports
// whether a new account was created.
func (s *service) EnsureAdmin(ctx context.Context, name, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, apperr.Invalid("username", "username and password are required")
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		if existing.IsAdmin() {
			return false, nil
		}
		return false, ErrUsernameNotAdmin
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	admin := &User{Name: name, Username: username, PasswordHash: hash, Role: RoleAdmin}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
