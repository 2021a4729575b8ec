// AngelaMos | 2026
// dto.go

package admin

import (
	"time"

	"github.com/gxggeorgia/gxg-sub001/internal/entitlement"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

// UpdatePrincipalRequest carries a free-form field map. Keys outside the
// administrative allowlist are ignored.
type UpdatePrincipalRequest struct {
	Fields map[string]any `json:"fields" validate:"required,min=1"`
	Days   int            `json:"days"   validate:"gte=0,lte=3650"`
}

type GrantTierRequest struct {
	Days int `json:"days" validate:"gte=0,lte=3650"`
}

// StoredTier is the raw flag and expiry pair as persisted. It can disagree
// with the effective state in Entitlements.
type StoredTier struct {
	Name      principal.TierName `json:"name"`
	Flag      bool               `json:"flag"`
	ExpiresAt *time.Time         `json:"expires_at"`
}

type PrincipalResponse struct {
	ID              string               `json:"id"`
	Email           string               `json:"email"`
	Name            string               `json:"name"`
	Bio             string               `json:"bio"`
	Phone           string               `json:"phone"`
	City            string               `json:"city"`
	Role            string               `json:"role"`
	StoredStatus    string               `json:"stored_status"`
	PublicExpiresAt *time.Time           `json:"public_expires_at"`
	StoredTiers     []StoredTier         `json:"stored_tiers"`
	Entitlements    entitlement.Snapshot `json:"entitlements"`
	LastActiveAt    *time.Time           `json:"last_active_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toPrincipalResponse(p *principal.Principal, now time.Time) PrincipalResponse {
	stored := make([]StoredTier, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		stored = append(stored, StoredTier{
			Name:      t.Name,
			Flag:      t.Active,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return PrincipalResponse{
		ID:              p.ID,
		Email:           p.Email,
		Name:            p.Name,
		Bio:             p.Bio,
		Phone:           p.Phone,
		City:            p.City,
		Role:            string(p.Role),
		StoredStatus:    string(p.Status),
		PublicExpiresAt: p.PublicExpiresAt,
		StoredTiers:     stored,
		Entitlements:    entitlement.Evaluate(p, now),
		LastActiveAt:    p.LastActiveAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toPrincipalResponseList(ps []principal.Principal, now time.Time) []PrincipalResponse {
	out := make([]PrincipalResponse, 0, len(ps))
	for i := range ps {
		out = append(out, toPrincipalResponse(&ps[i], now))
	}
	return out
}

type SystemStatsResponse struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
