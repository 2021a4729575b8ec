// AngelaMos | 2026
// errors_test.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not found", err: fmt.Errorf("load: %w", ErrNotFound), status: http.StatusNotFound},
		{name: "input", err: NewInputError("bad %s", "tier"), status: http.StatusBadRequest},
		{name: "credentials", err: ErrInvalidCredentials, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "expired token", err: fmt.Errorf("%w: %w", ErrUnauthorized, ErrTokenExpired), status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "forbidden", err: ErrForbidden, status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToAppError(tt.err)
			assert.Equal(t, tt.status, got.StatusCode)
			if tt.code != "" {
				assert.Equal(t, tt.code, got.Code)
			}
		})
	}
}

func TestToAppError_InputMessageIsClientSafe(t *testing.T) {
	got := ToAppError(fmt.Errorf("apply: %w", NewInputError("unknown tier %q", "platinum")))
	assert.Equal(t, `unknown tier "platinum"`, got.Message)
}

func TestToAppError_InternalHidesCause(t *testing.T) {
	got := ToAppError(errors.New("pq: password authentication failed"))
	assert.NotContains(t, got.Message, "password")
}
