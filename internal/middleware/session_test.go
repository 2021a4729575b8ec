// AngelaMos | 2026
// session_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxggeorgia/gxg-sub001/internal/config"
)

func newTestCookie(now time.Time) *SessionCookie {
	c := NewSessionCookie(config.SessionConfig{
		CookieName: "session",
		Domain:     "listing.example",
	})
	c.now = func() time.Time { return now }
	return c
}

func TestSessionCookie_Attach(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := httptest.NewRecorder()

	newTestCookie(now).Attach(rec, "tok", now.Add(2*time.Hour))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]

	assert.Equal(t, "session", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "listing.example", c.Domain)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 7200, c.MaxAge)
	assert.True(t, c.Expires.Equal(now.Add(2*time.Hour)))
}

func TestSessionCookie_Clear(t *testing.T) {
	rec := httptest.NewRecorder()

	newTestCookie(time.Now()).Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]

	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
}

func TestSessionCookie_Token(t *testing.T) {
	cookie := newTestCookie(time.Now())

	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{name: "absent", want: ""},
		{name: "cookie", cookie: "from-cookie", want: "from-cookie"},
		{name: "bearer", header: "Bearer from-header", want: "from-header"},
		{name: "cookie wins", cookie: "from-cookie", header: "Bearer from-header", want: "from-cookie"},
		{name: "basic ignored", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "lowercase scheme", header: "bearer x", want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, cookie.Token(r))
		})
	}
}
