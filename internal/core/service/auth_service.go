package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/pm/patient-system/internal/core/domain"
	"github.com/pm/patient-system/internal/core/ports"
	"github.com/pm/patient-system/internal/pkg/metrics"
)

const defaultTokenTTL = 10 * time.Hour

// tokenClaims is the payload of every issued token. Subject holds the email.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies bearer tokens.
type AuthService struct {
	repo      ports.AuthRepository
	secret    []byte
	tokenTTL  time.Duration
	dummyHash []byte
	now       func() time.Time
	logger    zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) (*AuthService, error) {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	// Compared against when the email is unknown, so both rejection paths
	// cost one bcrypt comparison.
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	return &AuthService{
		repo:      repo,
		secret:    []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		dummyHash: dummy,
		now:       time.Now,
		logger:    logger,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, email, password, role string) (*domain.User, error) {
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return created, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, bool, error) {
	if email == "" || password == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("rejected").Inc()
		return "", false, nil
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.reject()
			return "", false, nil
		}
		metrics.AuthAttemptsTotal.WithLabelValues("error").Inc()
		return "", false, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.reject()
		return "", false, nil
	}

	token, err := s.issueToken(user)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("error").Inc()
		return "", false, fmt.Errorf("authenticate: sign token: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	return token, true, nil
}

// VerifyToken checks signature, algorithm and expiry only. It does not look
// the subject up, so a token outlives its user's deletion until it expires.
func (s *AuthService) VerifyToken(token string) bool {
	if token == "" {
		return false
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return err == nil && parsed.Valid
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// reject records a failed login without saying which check failed.
func (s *AuthService) reject() {
	metrics.AuthAttemptsTotal.WithLabelValues("rejected").Inc()
	s.logger.Warn().Msg("authentication rejected")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
