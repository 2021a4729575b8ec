// AngelaMos | 2026
// evaluator.go

package entitlement

import (
	"time"

	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

// Stored tier flags and the stored status are never authoritative on their
// own. Expiry is evaluated here, at read time, and nothing flips the stored
// columns when a window lapses. Exposure and tier decisions must come
// through these functions rather than the raw Principal fields.

// activeAt reports whether a window ending at expiresAt is still open at
// now. A nil expiry never lapses; an expiry equal to now has lapsed.
func activeAt(expiresAt *time.Time, now time.Time) bool {
	return expiresAt == nil || expiresAt.After(now)
}

func tierActive(state principal.TierState, now time.Time) bool {
	return state.Active && activeAt(state.ExpiresAt, now)
}

// EffectiveTiers returns the tiers in force at now, in principal.Tiers order.
func EffectiveTiers(p *principal.Principal, now time.Time) []principal.TierName {
	out := make([]principal.TierName, 0, principal.TierCount)
	for _, state := range p.Tiers {
		if tierActive(state, now) {
			out = append(out, state.Name)
		}
	}
	return out
}

func HasTier(p *principal.Principal, tier principal.TierName, now time.Time) bool {
	state, ok := p.Tier(tier)
	if !ok {
		return false
	}
	return tierActive(state, now)
}

// EffectiveStatus demotes public and verified to private once the public
// window is missing or has lapsed. The stored status is left untouched.
func EffectiveStatus(p *principal.Principal, now time.Time) principal.Status {
	if !p.Status.Exposable() {
		return principal.StatusPrivate
	}
	if p.PublicExpiresAt == nil || !p.PublicExpiresAt.After(now) {
		return principal.StatusPrivate
	}
	return p.Status
}

// IsPubliclyExposable decides detail pages, sitemaps and any single-record
// exposure check. Listing queries encode the same rule in SQL through
// principal.Repository.ListExposable.
func IsPubliclyExposable(p *principal.Principal, now time.Time) bool {
	return EffectiveStatus(p, now).Exposable()
}

// TierView is one tier's effective state, for rendering.
type TierView struct {
	Name      principal.TierName `json:"name"`
	Active    bool               `json:"active"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
}

// Snapshot is the effective entitlement picture of a principal at one
// instant.
type Snapshot struct {
	Status          principal.Status     `json:"status"`
	Exposable       bool                 `json:"exposable"`
	PublicExpiresAt *time.Time           `json:"public_expires_at,omitempty"`
	ActiveTiers     []principal.TierName `json:"active_tiers"`
	Tiers           []TierView           `json:"tiers"`
	EvaluatedAt     time.Time            `json:"evaluated_at"`
}

func Evaluate(p *principal.Principal, now time.Time) Snapshot {
	views := make([]TierView, 0, principal.TierCount)
	for _, state := range p.Tiers {
		active := tierActive(state, now)
		view := TierView{Name: state.Name, Active: active}
		if active {
			view.ExpiresAt = state.ExpiresAt
		}
		views = append(views, view)
	}

	status := EffectiveStatus(p, now)
	snap := Snapshot{
		Status:      status,
		Exposable:   status.Exposable(),
		ActiveTiers: EffectiveTiers(p, now),
		Tiers:       views,
		EvaluatedAt: now,
	}
	if snap.Exposable {
		snap.PublicExpiresAt = p.PublicExpiresAt
	}

	return snap
}
