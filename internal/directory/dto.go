// AngelaMos | 2026
// dto.go

package directory

import (
	"time"

	"github.com/gxggeorgia/gxg-sub001/internal/entitlement"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

// PublicProfile never carries the email, the stored status or lapsed tiers.
type PublicProfile struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Bio          string               `json:"bio"`
	Phone        string               `json:"phone"`
	City         string               `json:"city"`
	Status       principal.Status     `json:"status"`
	Tiers        []principal.TierName `json:"tiers"`
	LastActiveAt *time.Time           `json:"last_active_at,omitempty"`
}

func toPublicProfile(p *principal.Principal, now time.Time) PublicProfile {
	return PublicProfile{
		ID:           p.ID,
		Name:         p.Name,
		Bio:          p.Bio,
		Phone:        p.Phone,
		City:         p.City,
		Status:       entitlement.EffectiveStatus(p, now),
		Tiers:        entitlement.EffectiveTiers(p, now),
		LastActiveAt: p.LastActiveAt,
	}
}
