// AngelaMos | 2026
// allowlist.go

package entitlement

import (
	"sort"
	"strings"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

var selfWritable = map[principal.Field]struct{}{
	principal.FieldName:  {},
	principal.FieldBio:   {},
	principal.FieldPhone: {},
	principal.FieldCity:  {},
}

// FilterSelfUpdate keeps only the profile attributes a principal may set on
// itself. Role, status and every tier key are dropped, never applied.
// The second return value lists dropped keys in sorted order.
func FilterSelfUpdate(fields map[string]any) (principal.Changes, []string, error) {
	changes := principal.Changes{}
	var dropped []string

	for key, value := range fields {
		field := principal.Field(key)
		if _, ok := selfWritable[field]; !ok {
			dropped = append(dropped, key)
			continue
		}

		s, ok := value.(string)
		if !ok {
			return nil, nil, core.NewInputError("%s must be a string", key)
		}
		changes[field] = strings.TrimSpace(s)
	}

	sort.Strings(dropped)

	if len(changes) == 0 {
		return nil, dropped, core.NewInputError("no allowed fields to update")
	}

	return changes, dropped, nil
}
