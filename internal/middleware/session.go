// AngelaMos | 2026
// session.go

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gxggeorgia/gxg-sub001/internal/config"
)

// SessionCookie carries the signed session token between browser and
// server. The cookie is never readable from scripts.
type SessionCookie struct {
	Name   string
	Domain string
	now    func() time.Time
}

func NewSessionCookie(cfg config.SessionConfig) *SessionCookie {
	return &SessionCookie{
		Name:   cfg.CookieName,
		Domain: cfg.Domain,
		now:    time.Now,
	}
}

func (s *SessionCookie) base() *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Domain:   s.Domain,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// Attach sets the cookie so that it lives exactly as long as the token.
func (s *SessionCookie) Attach(w http.ResponseWriter, token string, expiresAt time.Time) {
	c := s.base()
	c.Value = token
	c.Expires = expiresAt.UTC()
	c.MaxAge = max(int(expiresAt.Sub(s.now()).Seconds()), 1)

	http.SetCookie(w, c)
}

func (s *SessionCookie) Clear(w http.ResponseWriter) {
	c := s.base()
	c.Expires = time.Unix(0, 0).UTC()
	c.MaxAge = -1

	http.SetCookie(w, c)
}

// Token returns the session token from the cookie, or from an
// Authorization bearer header for non-browser clients. Empty means absent.
func (s *SessionCookie) Token(r *http.Request) string {
	if c, err := r.Cookie(s.Name); err == nil && c.Value != "" {
		return c.Value
	}
	return ExtractToken(r)
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
