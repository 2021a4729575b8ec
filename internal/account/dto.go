// AngelaMos | 2026
// dto.go

package account

import (
	"time"

	"github.com/gxggeorgia/gxg-sub001/internal/entitlement"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

// ProfileResponse is what a principal sees about itself. StoredStatus is the
// value of record; Entitlements carries the effective picture.
type ProfileResponse struct {
	ID           string               `json:"id"`
	Email        string               `json:"email"`
	Name         string               `json:"name"`
	Bio          string               `json:"bio"`
	Phone        string               `json:"phone"`
	City         string               `json:"city"`
	Role         string               `json:"role"`
	StoredStatus string               `json:"stored_status"`
	Entitlements entitlement.Snapshot `json:"entitlements"`
	LastActiveAt *time.Time           `json:"last_active_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type UpdateProfileResponse struct {
	Profile ProfileResponse `json:"profile"`
	Ignored []string        `json:"ignored_fields,omitempty"`
}

func toProfileResponse(p *principal.Principal, now time.Time) ProfileResponse {
	return ProfileResponse{
		ID:           p.ID,
		Email:        p.Email,
		Name:         p.Name,
		Bio:          p.Bio,
		Phone:        p.Phone,
		City:         p.City,
		Role:         string(p.Role),
		StoredStatus: string(p.Status),
		Entitlements: entitlement.Evaluate(p, now),
		LastActiveAt: p.LastActiveAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
