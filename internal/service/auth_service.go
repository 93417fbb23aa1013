package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitstack/gymchat/internal/domain"
	"github.com/fitstack/gymchat/internal/repository"
)

// Guest session storage variants
const (
	GuestModeStore  = "store"  // durable, survives restarts, default
	GuestModeMemory = "memory" // in-process only, short TTL
)

// TokenResult is the outcome of any operation that issues a bearer token
type TokenResult struct {
	Token       string
	ExpiresAt   time.Time
	User        *domain.User
	SessionCode string
}

// AuthService handles registration, login, bearer-token verification, and
// guest sessions in both variants.
type AuthService struct {
	users         *repository.UserRepository
	guestSessions *repository.GuestSessionRepository
	registry      *GuestSessionRegistry
	logger        *zap.Logger

	jwtSecret string
	tokenTTL  time.Duration
	guestTTL  time.Duration
	guestMode string
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *repository.UserRepository,
	guestSessions *repository.GuestSessionRepository,
	registry *GuestSessionRegistry,
	logger *zap.Logger,
	jwtSecret string,
	tokenTTL, guestTTL time.Duration,
	guestMode string,
) *AuthService {
	if guestMode == "" {
		guestMode = GuestModeStore
	}
	return &AuthService{
		users:         users,
		guestSessions: guestSessions,
		registry:      registry,
		logger:        logger,
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
		guestTTL:      guestTTL,
		guestMode:     guestMode,
	}
}

// Register creates a new account and issues a token
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*TokenResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || len(password) < 8 {
		return nil, domain.ErrInvalidRequest
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueToken(user, "", "")
}

// Login authenticates a registered user and issues a token
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issueToken(user, "", "")
}

// CreateGuestSession provisions a guest identity with a short shareable
// code. The durable variant stores the guest user and code in the database;
// the in-process variant lives in the registry until restart or expiry.
func (s *AuthService) CreateGuestSession(ctx context.Context) (*TokenResult, error) {
	code, err := newSessionCode()
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:       "guest_" + uuid.New().String(),
		Username: "Guest_" + code,
		IsGuest:  true,
	}

	// The user row is durable in both variants: conversations reference
	// users by foreign key, so even an in-process guest needs one. Only the
	// session lives in the registry.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.guestMode == GuestModeMemory {
		session := s.registry.Put(code, user.ID)
		user.CreatedAt = session.CreatedAt
		return s.issueToken(user, code, code)
	}

	now := time.Now().UTC()
	session := &domain.GuestSession{
		Code:      code,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.guestTTL),
	}
	if err := s.guestSessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return s.issueToken(user, code, "")
}

// JoinGuestSession resumes an existing guest session from its code,
// issuing a fresh token for the same guest user. Unknown or expired codes
// fail with domain.ErrNotFound.
func (s *AuthService) JoinGuestSession(ctx context.Context, code string) (*TokenResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.ErrNotFound
	}

	if s.guestMode == GuestModeMemory {
		session, ok := s.registry.Get(code)
		if !ok {
			return nil, domain.ErrNotFound
		}
		user := &domain.User{
			ID:        session.UserID,
			Username:  "Guest_" + code,
			IsGuest:   true,
			CreatedAt: session.CreatedAt,
		}
		return s.issueToken(user, code, code)
	}

	session, err := s.guestSessions.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	return s.issueToken(user, code, "")
}

// CurrentUser verifies a bearer token and resolves the caller. Any token
// failure is reported as domain.ErrUnauthorized without distinguishing
// expired from malformed.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrUnauthorized
	}
	isGuest, _ := claims["is_guest"].(bool)

	// In-process guest tokens carry their session code; the session must
	// still be live in the registry.
	if sid, ok := claims["sid"].(string); ok && sid != "" {
		session, live := s.registry.Get(sid)
		if !live || session.UserID != sub {
			return nil, domain.ErrUnauthorized
		}
		username, _ := claims["username"].(string)
		return &domain.User{
			ID:        sub,
			Username:  username,
			IsGuest:   true,
			CreatedAt: session.CreatedAt,
		}, nil
	}

	user, err := s.users.GetByID(ctx, sub)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsGuest != isGuest {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// SweepGuestSessions removes expired guest sessions from both variants.
// Intended to run periodically from main.
func (s *AuthService) SweepGuestSessions(ctx context.Context) {
	if dropped := s.registry.Sweep(); dropped > 0 {
		s.logger.Info("swept in-process guest sessions", zap.Int("removed", dropped))
	}

	removed, err := s.guestSessions.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Warn("failed to sweep durable guest sessions", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("swept durable guest sessions", zap.Int("removed", removed))
	}
}

func (s *AuthService) issueToken(user *domain.User, sessionCode, sid string) (*TokenResult, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)

	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"is_guest": user.IsGuest,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
	}
	if sid != "" {
		claims["sid"] = sid
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token failed: %w", err)
	}

	return &TokenResult{
		Token:       token,
		ExpiresAt:   expiresAt.UTC(),
		User:        user,
		SessionCode: sessionCode,
	}, nil
}

func (s *AuthService) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// newSessionCode returns a 6-character uppercase hex code like "A1B2C3"
func newSessionCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
