// AngelaMos | 2026
// allowlist_test.go

package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

func TestFilterSelfUpdate_DropsRole(t *testing.T) {
	changes, dropped, err := FilterSelfUpdate(map[string]any{
		"role": "administrator",
		"name": "x",
	})
	require.NoError(t, err)

	assert.Equal(t, principal.Changes{principal.FieldName: "x"}, changes)
	assert.Equal(t, []string{"role"}, dropped)
}

func TestFilterSelfUpdate_DropsEntitlementKeys(t *testing.T) {
	changes, dropped, err := FilterSelfUpdate(map[string]any{
		"gold":              true,
		"is_gold":           true,
		"gold_expires_at":   "2099-01-01T00:00:00Z",
		"status":            "verified",
		"public_expires_at": "2099-01-01T00:00:00Z",
		"city":              "  Kutaisi ",
	})
	require.NoError(t, err)

	assert.Equal(t, principal.Changes{principal.FieldCity: "Kutaisi"}, changes)
	assert.Equal(t, []string{
		"gold", "gold_expires_at", "is_gold", "public_expires_at", "status",
	}, dropped)
}

func TestFilterSelfUpdate_Invalid(t *testing.T) {
	_, _, err := FilterSelfUpdate(map[string]any{"role": "admin"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, _, err = FilterSelfUpdate(map[string]any{"bio": 42.0})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
