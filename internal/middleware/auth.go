// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

const (
	PrincipalKey contextKey = "principal"
	ClaimsKey    contextKey = "session_claims"

	defaultTouchTimeout = 3 * time.Second
)

// SessionClaims is the verified content of a session token.
type SessionClaims struct {
	PrincipalID string
	Email       string
	Role        principal.Role
	TokenID     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

type TokenVerifier interface {
	VerifySessionToken(ctx context.Context, token string) (*SessionClaims, error)
}

type PrincipalLoader interface {
	FindByID(ctx context.Context, id string) (*principal.Principal, error)
	TouchLastActive(ctx context.Context, id string, at time.Time) error
}

// RevocationChecker reports whether a verified token was revoked before its
// natural expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, claims *SessionClaims) (bool, error)
}

type GuardConfig struct {
	Verifier     TokenVerifier
	Principals   PrincipalLoader
	Revocations  RevocationChecker
	Session      *SessionCookie
	TouchTimeout time.Duration
}

// Guard is the single authorization choke point. Every protected handler is
// reached through one of its Resolve methods or HTTP adapters.
type Guard struct {
	verifier     TokenVerifier
	principals   PrincipalLoader
	revocations  RevocationChecker
	session      *SessionCookie
	touchTimeout time.Duration
	now          func() time.Time
}

func NewGuard(cfg GuardConfig) *Guard {
	timeout := cfg.TouchTimeout
	if timeout <= 0 {
		timeout = defaultTouchTimeout
	}

	return &Guard{
		verifier:     cfg.Verifier,
		principals:   cfg.Principals,
		revocations:  cfg.Revocations,
		session:      cfg.Session,
		touchTimeout: timeout,
		now:          time.Now,
	}
}

func (g *Guard) reject(ctx context.Context, reason string, err error) error {
	core.GuardRejections.WithLabelValues(reason).Inc()
	core.AddSpanEvent(ctx, "guard.rejected", attribute.String("reason", reason))
	return err
}

// ResolveAnyPrincipal authenticates the request and loads the live record.
// The role used for later checks is the stored one, not the role the token
// was issued with.
func (g *Guard) ResolveAnyPrincipal(
	r *http.Request,
) (*principal.Principal, *SessionClaims, error) {
	ctx := r.Context()

	token := g.session.Token(r)
	if token == "" {
		return nil, nil, g.reject(ctx, "missing_token", core.ErrUnauthorized)
	}

	claims, err := g.verifier.VerifySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrConfiguration) {
			return nil, nil, err
		}
		reason := "invalid_token"
		if errors.Is(err, core.ErrTokenExpired) {
			reason = "expired_token"
		}
		return nil, nil, g.reject(ctx, reason,
			fmt.Errorf("%w: %w", core.ErrUnauthorized, err))
	}

	if g.revocations != nil {
		revoked, err := g.revocations.IsRevoked(ctx, claims)
		if err != nil {
			return nil, nil, fmt.Errorf("check session revocation: %w", err)
		}
		if revoked {
			return nil, nil, g.reject(ctx, "revoked_token",
				fmt.Errorf("%w: %w", core.ErrUnauthorized, core.ErrTokenRevoked))
		}
	}

	p, err := g.principals.FindByID(ctx, claims.PrincipalID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil, g.reject(ctx, "unknown_principal", core.ErrUnauthorized)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load principal: %w", err)
	}

	return p, claims, nil
}

func (g *Guard) ResolveRole(
	r *http.Request,
	required principal.Role,
) (*principal.Principal, *SessionClaims, error) {
	p, claims, err := g.ResolveAnyPrincipal(r)
	if err != nil {
		return nil, nil, err
	}

	if !p.Role.Satisfies(required) {
		return nil, nil, g.reject(r.Context(), "role_mismatch", core.ErrForbidden)
	}

	return p, claims, nil
}

func (g *Guard) ResolveAdmin(r *http.Request) (*principal.Principal, *SessionClaims, error) {
	return g.ResolveRole(r, principal.RoleAdmin)
}

func (g *Guard) ResolveProvider(r *http.Request) (*principal.Principal, *SessionClaims, error) {
	return g.ResolveRole(r, principal.RoleProvider)
}

func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return g.adapt(next, func(r *http.Request) (*principal.Principal, *SessionClaims, error) {
		return g.ResolveAnyPrincipal(r)
	}, false)
}

// AuthenticateAndTouch is Authenticate plus a best-effort last-active write.
// The write runs detached from the request and its failure is only logged.
func (g *Guard) AuthenticateAndTouch(next http.Handler) http.Handler {
	return g.adapt(next, func(r *http.Request) (*principal.Principal, *SessionClaims, error) {
		return g.ResolveAnyPrincipal(r)
	}, true)
}

func (g *Guard) RequireRole(role principal.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.adapt(next, func(r *http.Request) (*principal.Principal, *SessionClaims, error) {
			return g.ResolveRole(r, role)
		}, false)
	}
}

func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return g.RequireRole(principal.RoleAdmin)(next)
}

func (g *Guard) RequireProvider(next http.Handler) http.Handler {
	return g.RequireRole(principal.RoleProvider)(next)
}

func (g *Guard) adapt(
	next http.Handler,
	resolve func(*http.Request) (*principal.Principal, *SessionClaims, error),
	touch bool,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, claims, err := resolve(r)
		if err != nil {
			writeGuardError(w, err)
			return
		}

		if touch {
			g.touch(r.Context(), p.ID)
		}

		ctx := context.WithValue(r.Context(), PrincipalKey, p)
		ctx = context.WithValue(ctx, ClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) touch(ctx context.Context, id string) {
	at := g.now().UTC()
	detached := context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(detached, g.touchTimeout)
		defer cancel()

		if err := g.principals.TouchLastActive(ctx, id, at); err != nil {
			slog.WarnContext(ctx, "last active touch failed",
				"principal_id", id,
				"error", err,
			)
		}
	}()
}

// writeGuardError keeps unauthenticated and forbidden apart and never says
// which role would have been accepted.
func writeGuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrForbidden):
		core.JSONError(w, core.ForbiddenError(""))
	case errors.Is(err, core.ErrUnauthorized):
		core.JSONError(w, core.UnauthorizedError(""))
	default:
		core.JSONError(w, core.InternalError(err))
	}
}

func GetPrincipal(ctx context.Context) *principal.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*principal.Principal); ok {
		return p
	}
	return nil
}

func GetSessionClaims(ctx context.Context) *SessionClaims {
	if c, ok := ctx.Value(ClaimsKey).(*SessionClaims); ok {
		return c
	}
	return nil
}

func GetPrincipalID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.ID
	}
	return ""
}
