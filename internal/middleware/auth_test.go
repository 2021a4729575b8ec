// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxggeorgia/gxg-sub001/internal/config"
	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

type stubVerifier struct {
	claims map[string]*SessionClaims
	errs   map[string]error
}

func (s *stubVerifier) VerifySessionToken(
	_ context.Context,
	token string,
) (*SessionClaims, error) {
	if err, ok := s.errs[token]; ok {
		return nil, err
	}
	if c, ok := s.claims[token]; ok {
		return c, nil
	}
	return nil, core.ErrTokenInvalid
}

type stubLoader struct {
	mu       sync.Mutex
	byID     map[string]*principal.Principal
	findErr  error
	touched  chan string
	touchErr error
}

func (s *stubLoader) FindByID(_ context.Context, id string) (*principal.Principal, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return p, nil
}

func (s *stubLoader) TouchLastActive(_ context.Context, id string, _ time.Time) error {
	if s.touched != nil {
		s.touched <- id
	}
	return s.touchErr
}

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s *stubRevocations) IsRevoked(_ context.Context, c *SessionClaims) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[c.TokenID], nil
}

func newTestGuard(loader *stubLoader, rev RevocationChecker) *Guard {
	verifier := &stubVerifier{
		claims: map[string]*SessionClaims{
			"regular-token":  {PrincipalID: "u-regular", TokenID: "j1"},
			"provider-token": {PrincipalID: "u-provider", TokenID: "j2"},
			"admin-token":    {PrincipalID: "u-admin", TokenID: "j3"},
			"ghost-token":    {PrincipalID: "u-deleted", TokenID: "j4"},
		},
		errs: map[string]error{
			"expired-token": core.ErrTokenExpired,
			"nokey-token":   core.ErrConfiguration,
		},
	}

	return NewGuard(GuardConfig{
		Verifier:    verifier,
		Principals:  loader,
		Revocations: rev,
		Session:     NewSessionCookie(config.SessionConfig{CookieName: "session"}),
	})
}

func newLoader() *stubLoader {
	return &stubLoader{byID: map[string]*principal.Principal{
		"u-regular":  {ID: "u-regular", Role: principal.RoleRegular},
		"u-provider": {ID: "u-provider", Role: principal.RoleProvider},
		"u-admin":    {ID: "u-admin", Role: principal.RoleAdmin},
	}}
}

func requestWithCookie(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	return r
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestGuard_ResolveAnyPrincipal(t *testing.T) {
	guard := newTestGuard(newLoader(), nil)

	tests := []struct {
		name    string
		token   string
		wantErr error
		wantID  string
	}{
		{name: "no cookie", token: "", wantErr: core.ErrUnauthorized},
		{name: "garbage token", token: "not-a-jwt", wantErr: core.ErrUnauthorized},
		{name: "expired token", token: "expired-token", wantErr: core.ErrUnauthorized},
		{name: "deleted principal", token: "ghost-token", wantErr: core.ErrUnauthorized},
		{name: "valid", token: "provider-token", wantID: "u-provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, claims, err := guard.ResolveAnyPrincipal(requestWithCookie(tt.token))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, p.ID)
			assert.Equal(t, tt.wantID, claims.PrincipalID)
		})
	}
}

func TestGuard_ExpiredTokenKeepsCause(t *testing.T) {
	guard := newTestGuard(newLoader(), nil)

	_, _, err := guard.ResolveAnyPrincipal(requestWithCookie("expired-token"))
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestGuard_BearerFallback(t *testing.T) {
	guard := newTestGuard(newLoader(), nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	r.Header.Set("Authorization", "Bearer admin-token")

	p, _, err := guard.ResolveAnyPrincipal(r)
	require.NoError(t, err)
	assert.Equal(t, "u-admin", p.ID)
}

func TestGuard_ResolveRole(t *testing.T) {
	guard := newTestGuard(newLoader(), nil)

	tests := []struct {
		token    string
		required principal.Role
		wantErr  error
	}{
		{token: "provider-token", required: principal.RoleProvider},
		{token: "regular-token", required: principal.RoleProvider, wantErr: core.ErrForbidden},
		{token: "provider-token", required: principal.RoleAdmin, wantErr: core.ErrForbidden},
		{token: "admin-token", required: principal.RoleAdmin},
		{token: "admin-token", required: principal.RoleProvider},
		{token: "admin-token", required: principal.RoleRegular},
		{token: "", required: principal.RoleProvider, wantErr: core.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.token+"/"+string(tt.required), func(t *testing.T) {
			_, _, err := guard.ResolveRole(requestWithCookie(tt.token), tt.required)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGuard_UsesLiveRole(t *testing.T) {
	loader := newLoader()
	guard := newTestGuard(loader, nil)

	loader.mu.Lock()
	loader.byID["u-admin"] = &principal.Principal{ID: "u-admin", Role: principal.RoleRegular}
	loader.mu.Unlock()

	_, _, err := guard.ResolveAdmin(requestWithCookie("admin-token"))
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestGuard_Revoked(t *testing.T) {
	guard := newTestGuard(newLoader(), &stubRevocations{
		revoked: map[string]bool{"j2": true},
	})

	_, _, err := guard.ResolveAnyPrincipal(requestWithCookie("provider-token"))
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, _, err = guard.ResolveAnyPrincipal(requestWithCookie("admin-token"))
	assert.NoError(t, err)
}

func TestGuard_HTTPStatusMapping(t *testing.T) {
	loader := newLoader()

	tests := []struct {
		name       string
		handler    func(g *Guard) http.Handler
		token      string
		rev        RevocationChecker
		findErr    error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "no cookie is 401",
			handler:    func(g *Guard) http.Handler { return g.Authenticate(okHandler) },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "expired is 401",
			handler:    func(g *Guard) http.Handler { return g.RequireProvider(okHandler) },
			token:      "expired-token",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "role mismatch is 403",
			handler:    func(g *Guard) http.Handler { return g.RequireAdmin(okHandler) },
			token:      "provider-token",
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "admin passes provider check",
			handler:    func(g *Guard) http.Handler { return g.RequireProvider(okHandler) },
			token:      "admin-token",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "store outage is 500",
			handler:    func(g *Guard) http.Handler { return g.Authenticate(okHandler) },
			token:      "provider-token",
			findErr:    errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "revocation store outage is 500",
			handler:    func(g *Guard) http.Handler { return g.Authenticate(okHandler) },
			token:      "provider-token",
			rev:        &stubRevocations{err: errors.New("redis down")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "missing signing key is 500",
			handler:    func(g *Guard) http.Handler { return g.Authenticate(okHandler) },
			token:      "nokey-token",
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader.findErr = tt.findErr
			guard := newTestGuard(loader, tt.rev)

			rec := httptest.NewRecorder()
			tt.handler(guard).ServeHTTP(rec, requestWithCookie(tt.token))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
		})
	}
}

func TestGuard_ForbiddenDoesNotNameRole(t *testing.T) {
	guard := newTestGuard(newLoader(), nil)

	rec := httptest.NewRecorder()
	guard.RequireAdmin(okHandler).ServeHTTP(rec, requestWithCookie("regular-token"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "admin")
}

func TestGuard_PrincipalInContext(t *testing.T) {
	guard := newTestGuard(newLoader(), nil)

	var got *principal.Principal
	var claims *SessionClaims
	h := guard.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPrincipal(r.Context())
		claims = GetSessionClaims(r.Context())
		assert.Equal(t, "u-provider", GetPrincipalID(r.Context()))
	}))

	h.ServeHTTP(httptest.NewRecorder(), requestWithCookie("provider-token"))

	require.NotNil(t, got)
	assert.Equal(t, principal.RoleProvider, got.Role)
	require.NotNil(t, claims)
	assert.Equal(t, "j2", claims.TokenID)
	assert.Empty(t, GetPrincipalID(context.Background()))
}

func TestGuard_AuthenticateAndTouch(t *testing.T) {
	loader := newLoader()
	loader.touched = make(chan string, 1)
	loader.touchErr = errors.New("write timeout")
	guard := newTestGuard(loader, nil)

	rec := httptest.NewRecorder()
	guard.AuthenticateAndTouch(okHandler).ServeHTTP(rec, requestWithCookie("regular-token"))

	assert.Equal(t, http.StatusNoContent, rec.Code, "touch failure must not fail the request")

	select {
	case id := <-loader.touched:
		assert.Equal(t, "u-regular", id)
	case <-time.After(2 * time.Second):
		t.Fatal("last active touch was not attempted")
	}
}

func TestGuard_AuthenticateDoesNotTouch(t *testing.T) {
	loader := newLoader()
	loader.touched = make(chan string, 1)
	guard := newTestGuard(loader, nil)

	guard.Authenticate(okHandler).ServeHTTP(httptest.NewRecorder(), requestWithCookie("regular-token"))

	select {
	case <-loader.touched:
		t.Fatal("plain Authenticate must not touch last active")
	case <-time.After(50 * time.Millisecond):
	}
}
