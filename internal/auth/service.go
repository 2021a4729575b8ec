// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/middleware"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

var ErrEmailExists = errors.New("email already exists")

type PrincipalStore interface {
	Create(ctx context.Context, p *principal.Principal) error
	FindByID(ctx context.Context, id string) (*principal.Principal, error)
	FindByEmail(ctx context.Context, email string) (*principal.Principal, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type TokenIssuer interface {
	IssueSessionToken(
		principalID, email string,
		role principal.Role,
	) (string, time.Time, error)
}

type SessionRevoker interface {
	Revoke(ctx context.Context, claims *middleware.SessionClaims) error
	RevokeAll(ctx context.Context, principalID string) error
}

// Session is a freshly issued token and the principal it was issued for.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal *principal.Principal
}

type Service struct {
	principals PrincipalStore
	tokens     TokenIssuer
	revoker    SessionRevoker
}

func NewService(
	principals PrincipalStore,
	tokens TokenIssuer,
	revoker SessionRevoker,
) *Service {
	return &Service{
		principals: principals,
		tokens:     tokens,
		revoker:    revoker,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login answers an unknown email and a wrong password with the same error
// after the same amount of hashing work.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	p, err := s.principals.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			core.AuthAttempts.WithLabelValues("login", "rejected").Inc()
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, &p.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		core.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		return nil, core.ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.principals.UpdatePassword(ctx, p.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed",
				"principal_id", p.ID,
				"error", err,
			)
		}
	}

	core.AuthAttempts.WithLabelValues("login", "accepted").Inc()
	return s.issue(p)
}

// Register creates a private principal. Administrators are never created
// through this path.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	role := principal.RoleRegular
	if req.Role != "" {
		parsed, err := principal.ParseRole(req.Role)
		if err != nil || parsed == principal.RoleAdmin {
			return nil, core.NewInputError("role must be regular or provider")
		}
		role = parsed
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &principal.Principal{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		Status:       principal.StatusPrivate,
	}

	if err := s.principals.Create(ctx, p); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.AuthAttempts.WithLabelValues("register", "duplicate").Inc()
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create principal: %w", err)
	}

	core.AuthAttempts.WithLabelValues("register", "accepted").Inc()
	return s.issue(p)
}

func (s *Service) issue(p *principal.Principal) (*Session, error) {
	token, expiresAt, err := s.tokens.IssueSessionToken(p.ID, p.Email, p.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: p,
	}, nil
}

func (s *Service) Logout(ctx context.Context, claims *middleware.SessionClaims) error {
	if err := s.revoker.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, principalID string) error {
	if err := s.revoker.RevokeAll(ctx, principalID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	return nil
}

// ChangePassword replaces the hash and revokes every session, including the
// one making the request.
func (s *Service) ChangePassword(
	ctx context.Context,
	principalID, currentPassword, newPassword string,
) error {
	p, err := s.principals.FindByID(ctx, principalID)
	if err != nil {
		return fmt.Errorf("find principal: %w", err)
	}

	valid, err := core.VerifyPassword(currentPassword, p.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return core.ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.principals.UpdatePassword(ctx, principalID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.LogoutAll(ctx, principalID)
}
