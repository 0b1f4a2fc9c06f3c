package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/todoapi/internal/domain"
	"github.com/yourorg/todoapi/internal/security/auth"
)

// ErrInvalidCredentials is returned when a username/password pair does not
// match a stored user.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles registration, credential checks, and auth tokens
type AuthService struct {
	users    domain.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}

	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// CreateUser registers a new user. The username is unique ignoring case;
// a collision fails with domain.ErrDuplicateUser. The password is stored only
// as an argon2id hash.
func (s *AuthService) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	// The unique index catches races; this check gives the caller a clean
	// duplicate error without an aborted insert in the common case.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrDuplicateUser
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Authenticate verifies a username/password pair against the stored hash
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login attempt for unknown user", slog.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		// Stored hashes are written by this service; a malformed one is
		// corrupted data and must fail loudly.
		s.logger.Error("corrupted password hash",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.logger.Info("login failed with wrong password", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GenerateAuthToken issues a signed, expiring token for the user
func (s *AuthService) GenerateAuthToken(user *domain.User) (string, error) {
	token, err := s.tokens.Generate(user.ID, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return "", errors.New("failed to generate token")
	}
	return token, nil
}

// VerifyAuthToken checks signature and expiry and resolves the referenced
// user. A tampered or expired token yields (nil, nil), not an error. A valid
// token for a user that no longer exists fails with domain.ErrNotFound.
func (s *AuthService) VerifyAuthToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return user, nil
}

// TokenTTL exposes the configured token lifetime
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
