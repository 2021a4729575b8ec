// AngelaMos | 2026
// entity.go

package principal

import (
	"fmt"
	"time"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
)

// Principal is the account record behind every session: identity, role,
// visibility status and the per-tier entitlement pairs.
type Principal struct {
	ID              string
	Email           string
	PasswordHash    string
	Name            string
	Bio             string
	Phone           string
	City            string
	Role            Role
	Status          Status
	Tiers           [TierCount]TierState
	PublicExpiresAt *time.Time
	LastActiveAt    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Tier returns the stored (not effective) state of one tier.
func (p *Principal) Tier(name TierName) (TierState, bool) {
	idx, ok := name.index()
	if !ok {
		return TierState{}, false
	}
	return p.Tiers[idx], true
}

func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type Role string

const (
	RoleRegular  Role = "regular"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", core.NewInputError("invalid role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleRegular, RoleProvider, RoleAdmin:
		return true
	default:
		return false
	}
}

// Satisfies reports whether a principal holding r may pass a check that
// requires the given role: the exact role, or admin for anything.
func (r Role) Satisfies(required Role) bool {
	switch required {
	case RoleAdmin:
		return r == RoleAdmin
	case RoleProvider, RoleRegular:
		return r == required || r == RoleAdmin
	default:
		return false
	}
}

type Status string

const (
	StatusPrivate  Status = "private"
	StatusPublic   Status = "public"
	StatusVerified Status = "verified"
)

// ExposableStatuses is the status half of the public exposure rule. The
// in-memory classifier and the listing query both read it.
var ExposableStatuses = []Status{StatusPublic, StatusVerified}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPrivate, StatusPublic, StatusVerified:
		return st, nil
	default:
		return "", core.NewInputError("invalid status %q", s)
	}
}

func (s Status) Exposable() bool {
	for _, st := range ExposableStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func exposableStatusValues() []string {
	out := make([]string, len(ExposableStatuses))
	for i, st := range ExposableStatuses {
		out[i] = string(st)
	}
	return out
}

// Field is a writable column of the principals table.
type Field string

const (
	FieldName            Field = "name"
	FieldBio             Field = "bio"
	FieldPhone           Field = "phone"
	FieldCity            Field = "city"
	FieldRole            Field = "role"
	FieldStatus          Field = "status"
	FieldPublicExpiresAt Field = "public_expires_at"
)

// Changes is a set of column writes applied in one UPDATE. Values are
// string, bool, time.Time or nil.
type Changes map[Field]any

func (c Changes) Validate() error {
	if len(c) == 0 {
		return core.NewInputError("no fields to update")
	}
	for f := range c {
		if !f.writable() {
			return fmt.Errorf("field %q: %w", f, core.ErrInvalidInput)
		}
	}
	return nil
}

func (f Field) writable() bool {
	switch f {
	case FieldName, FieldBio, FieldPhone, FieldCity,
		FieldRole, FieldStatus, FieldPublicExpiresAt:
		return true
	}
	for _, t := range Tiers {
		if f == t.FlagField() || f == t.ExpiryField() {
			return true
		}
	}
	return false
}
