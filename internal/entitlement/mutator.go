// AngelaMos | 2026
// mutator.go

package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

const DefaultGrantDays = 30

// Store is the slice of the credential store the mutator writes through.
// Each call must land as one atomic row update.
type Store interface {
	UpdateFields(
		ctx context.Context,
		id string,
		changes principal.Changes,
	) (*principal.Principal, error)
}

// Mutator is the only writer of tier and visibility state. It trusts its
// caller: authorization happens in the access guard before it is reached.
type Mutator struct {
	store       Store
	defaultDays int
	now         func() time.Time
}

func NewMutator(store Store, defaultDays int) *Mutator {
	if defaultDays <= 0 {
		defaultDays = DefaultGrantDays
	}
	return &Mutator{
		store:       store,
		defaultDays: defaultDays,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (m *Mutator) WithClock(now func() time.Time) *Mutator {
	m.now = now
	return m
}

func (m *Mutator) DefaultDays() int {
	return m.defaultDays
}

func (m *Mutator) days(days int) int {
	if days <= 0 {
		return m.defaultDays
	}
	return days
}

// GrantChanges is the column set for granting tier for days starting at now.
func GrantChanges(tier principal.TierName, now time.Time, days int) principal.Changes {
	expires := windowEnd(now, days)
	return principal.Changes{
		tier.FlagField():   true,
		tier.ExpiryField(): expires,
	}
}

// RevokeChanges clears both the flag and the expiry, so a revoked tier
// cannot come back by comparing against an old timestamp.
func RevokeChanges(tier principal.TierName) principal.Changes {
	return principal.Changes{
		tier.FlagField():   false,
		tier.ExpiryField(): nil,
	}
}

func windowEnd(now time.Time, days int) time.Time {
	return now.UTC().Add(time.Duration(days) * 24 * time.Hour)
}

func (m *Mutator) Grant(
	ctx context.Context,
	id string,
	tier principal.TierName,
	days int,
) (*principal.Principal, error) {
	changes := GrantChanges(tier, m.now(), m.days(days))

	p, err := m.store.UpdateFields(ctx, id, changes)
	if err != nil {
		return nil, fmt.Errorf("grant %s: %w", tier, err)
	}

	core.EntitlementChanges.WithLabelValues(string(tier), "grant").Inc()
	slog.InfoContext(ctx, "tier granted",
		"principal_id", id,
		"tier", tier,
		"expires_at", changes[tier.ExpiryField()],
	)

	return p, nil
}

func (m *Mutator) Revoke(
	ctx context.Context,
	id string,
	tier principal.TierName,
) (*principal.Principal, error) {
	p, err := m.store.UpdateFields(ctx, id, RevokeChanges(tier))
	if err != nil {
		return nil, fmt.Errorf("revoke %s: %w", tier, err)
	}

	core.EntitlementChanges.WithLabelValues(string(tier), "revoke").Inc()
	slog.InfoContext(ctx, "tier revoked", "principal_id", id, "tier", tier)

	return p, nil
}

// Apply translates an administrative free-form field map into one update.
//
// Keys outside the admin allowlist are dropped. A tier name with true
// grants it for days, false revokes it; "<tier>_expires_at" (RFC 3339 or
// null) overrides the computed expiry. "status" public or verified opens a
// public window of days unless "public_expires_at" is also present;
// private closes it.
func (m *Mutator) Apply(
	ctx context.Context,
	id string,
	fields map[string]any,
	days int,
) (*principal.Principal, error) {
	changes, dropped, err := m.BuildChanges(fields, days)
	if len(dropped) > 0 {
		slog.WarnContext(ctx, "dropped non-allowlisted fields",
			"principal_id", id,
			"fields", dropped,
		)
	}
	if err != nil {
		return nil, err
	}

	p, err := m.store.UpdateFields(ctx, id, changes)
	if err != nil {
		return nil, fmt.Errorf("apply principal fields: %w", err)
	}

	for _, tier := range principal.Tiers {
		flag, ok := changes[tier.FlagField()]
		if !ok {
			continue
		}
		action := "revoke"
		if on, _ := flag.(bool); on {
			action = "grant"
		}
		core.EntitlementChanges.WithLabelValues(string(tier), action).Inc()
	}

	return p, nil
}

// BuildChanges is the pure half of Apply. It returns the column writes, the
// sorted list of keys it refused, and a validation error for malformed
// values or an empty result.
func (m *Mutator) BuildChanges(
	fields map[string]any,
	days int,
) (principal.Changes, []string, error) {
	now := m.now()
	days = m.days(days)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	changes := principal.Changes{}
	overrides := map[principal.Field]any{}
	var dropped []string

	for _, key := range keys {
		value := fields[key]

		if tier, err := principal.ParseTier(key); err == nil {
			on, ok := value.(bool)
			if !ok {
				return nil, dropped, core.NewInputError("%s must be a boolean", key)
			}
			if on {
				mergeChanges(changes, GrantChanges(tier, now, days))
			} else {
				mergeChanges(changes, RevokeChanges(tier))
			}
			continue
		}

		if tier, ok := expiryKeyTier(key); ok {
			ts, err := parseTimestamp(key, value)
			if err != nil {
				return nil, dropped, err
			}
			if ts != nil {
				if on, ok := fields[string(tier)].(bool); ok && !on {
					return nil, dropped, core.NewInputError(
						"%s cannot be set while revoking %s", key, tier)
				}
			}
			overrides[tier.ExpiryField()] = ts
			continue
		}

		switch principal.Field(key) {
		case principal.FieldStatus:
			s, ok := value.(string)
			if !ok {
				return nil, dropped, core.NewInputError("status must be a string")
			}
			status, err := principal.ParseStatus(s)
			if err != nil {
				return nil, dropped, err
			}
			changes[principal.FieldStatus] = string(status)
			if status.Exposable() {
				changes[principal.FieldPublicExpiresAt] = windowEnd(now, days)
			} else {
				changes[principal.FieldPublicExpiresAt] = nil
			}

		case principal.FieldPublicExpiresAt:
			ts, err := parseTimestamp(key, value)
			if err != nil {
				return nil, dropped, err
			}
			overrides[principal.FieldPublicExpiresAt] = ts

		case principal.FieldRole:
			s, ok := value.(string)
			if !ok {
				return nil, dropped, core.NewInputError("role must be a string")
			}
			role, err := principal.ParseRole(s)
			if err != nil {
				return nil, dropped, err
			}
			changes[principal.FieldRole] = string(role)

		case principal.FieldName, principal.FieldBio,
			principal.FieldPhone, principal.FieldCity:
			s, ok := value.(string)
			if !ok {
				return nil, dropped, core.NewInputError("%s must be a string", key)
			}
			changes[principal.Field(key)] = strings.TrimSpace(s)

		default:
			dropped = append(dropped, key)
		}
	}

	for field, value := range overrides {
		changes[field] = value
	}

	if len(changes) == 0 {
		return nil, dropped, core.NewInputError("no allowed fields to update")
	}

	return changes, dropped, nil
}

func mergeChanges(dst, src principal.Changes) {
	for k, v := range src {
		dst[k] = v
	}
}

func expiryKeyTier(key string) (principal.TierName, bool) {
	name, ok := strings.CutSuffix(key, "_expires_at")
	if !ok {
		return "", false
	}
	tier, err := principal.ParseTier(name)
	if err != nil {
		return "", false
	}
	return tier, true
}

// parseTimestamp accepts an RFC 3339 string or null. Null maps to a nil
// column value.
func parseTimestamp(key string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, core.NewInputError("%s must be an RFC 3339 timestamp or null", key)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, core.NewInputError("%s must be an RFC 3339 timestamp or null", key)
	}
	return t.UTC(), nil
}
