// AngelaMos | 2026
// tier.go

package principal

import (
	"time"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
)

type TierName string

const (
	TierGold     TierName = "gold"
	TierSilver   TierName = "silver"
	TierFeatured TierName = "featured"
	TierTop      TierName = "top"
	TierNew      TierName = "new"
)

const TierCount = 5

// Tiers fixes the slot order of Principal.Tiers.
var Tiers = [TierCount]TierName{
	TierGold,
	TierSilver,
	TierFeatured,
	TierTop,
	TierNew,
}

// TierState is the stored pair for one tier. Active alone is not
// authoritative once ExpiresAt has passed.
type TierState struct {
	Name      TierName
	Active    bool
	ExpiresAt *time.Time
}

func ParseTier(s string) (TierName, error) {
	t := TierName(s)
	if _, ok := t.index(); !ok {
		return "", core.NewInputError("unknown tier %q", s)
	}
	return t, nil
}

func (t TierName) index() (int, bool) {
	for i, name := range Tiers {
		if name == t {
			return i, true
		}
	}
	return 0, false
}

func (t TierName) FlagField() Field {
	return Field("is_" + string(t))
}

func (t TierName) ExpiryField() Field {
	return Field(string(t) + "_expires_at")
}

func emptyTiers() [TierCount]TierState {
	var out [TierCount]TierState
	for i, name := range Tiers {
		out[i] = TierState{Name: name}
	}
	return out
}
