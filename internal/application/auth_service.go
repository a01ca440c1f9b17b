package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// AuthService issues and validates operator bearer tokens. The engine treats
// a request without a valid token as an empty Principal: the session feed is
// then empty and every mutation fails with ErrUnauthenticated.
type AuthService struct {
	operators      persistence.OperatorRepository
	tokens         persistence.AuthSessionRepository
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	tokenTTL       time.Duration
	logger         *slog.Logger
}

// NewAuthService wires dependencies for operator authentication.
func NewAuthService(operators persistence.OperatorRepository, tokens persistence.AuthSessionRepository, idGenerator, tokenGenerator func() string, now func() time.Time, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		operators:      operators,
		tokens:         tokens,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		tokenTTL:       tokenTTL,
		logger:         logger,
	}
}

// Register creates an operator account with an argon2id password hash.
func (s *AuthService) Register(ctx context.Context, email, password string) (persistence.Operator, error) {
	if s == nil {
		return persistence.Operator{}, fmt.Errorf("AuthService is nil")
	}

	vErr := &ValidationError{}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "a valid email is required")
	}
	if len(password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		return persistence.Operator{}, vErr
	}

	hash, err := HashPassword(password)
	if err != nil {
		return persistence.Operator{}, fmt.Errorf("hash password: %w", err)
	}

	operator := persistence.Operator{
		ID:           s.idGenerator(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	created, err := s.operators.CreateOperator(ctx, operator)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.Operator{}, ErrAlreadyExists
		}
		return persistence.Operator{}, err
	}
	return created, nil
}

// Authenticate verifies credentials and issues a fresh bearer token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (Principal, persistence.AuthSession, error) {
	if s == nil {
		return Principal{}, persistence.AuthSession{}, fmt.Errorf("AuthService is nil")
	}

	operator, err := s.operators.GetOperatorByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, persistence.AuthSession{}, ErrInvalidCredentials
		}
		return Principal{}, persistence.AuthSession{}, err
	}

	if err := VerifyPassword(operator.PasswordHash, password); err != nil {
		logger := serviceLogger(ctx, s.logger, "auth", "authenticate", "operator_id", operator.ID)
		logger.Warn("failed login attempt", "kind", ErrorKind(ErrInvalidCredentials))
		return Principal{}, persistence.AuthSession{}, ErrInvalidCredentials
	}

	now := s.now()
	session := persistence.AuthSession{
		ID:         s.idGenerator(),
		OperatorID: operator.ID,
		Token:      s.tokenGenerator(),
		ExpiresAt:  now.Add(s.tokenTTL),
		CreatedAt:  now,
	}
	created, err := s.tokens.CreateAuthSession(ctx, session)
	if err != nil {
		return Principal{}, persistence.AuthSession{}, err
	}

	return Principal{UserID: operator.ID, Email: operator.Email}, created, nil
}

// ValidateToken resolves a bearer token to the owning operator.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrUnauthenticated
	}

	session, err := s.tokens.GetAuthSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, err
	}
	if session.RevokedAt != nil {
		return Principal{}, ErrTokenRevoked
	}
	if !s.now().Before(session.ExpiresAt) {
		return Principal{}, ErrTokenExpired
	}

	operator, err := s.operators.GetOperator(ctx, session.OperatorID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, err
	}
	return Principal{UserID: operator.ID, Email: operator.Email}, nil
}

// Revoke invalidates a bearer token (logout).
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if err := s.tokens.RevokeAuthSession(ctx, token, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// PurgeExpired deletes lapsed tokens. Invoked on a cron schedule.
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	return s.tokens.DeleteExpiredAuthSessions(ctx, s.now())
}
