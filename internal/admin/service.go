// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

type PrincipalStore interface {
	FindByID(ctx context.Context, id string) (*principal.Principal, error)
	List(ctx context.Context, params principal.ListParams) ([]principal.Principal, int, error)
	MediaKeys(ctx context.Context, id string) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Entitlements is satisfied by *entitlement.Mutator.
type Entitlements interface {
	Grant(ctx context.Context, id string, tier principal.TierName, days int) (*principal.Principal, error)
	Revoke(ctx context.Context, id string, tier principal.TierName) (*principal.Principal, error)
	Apply(ctx context.Context, id string, fields map[string]any, days int) (*principal.Principal, error)
}

type SessionRevoker interface {
	RevokeAll(ctx context.Context, principalID string) error
}

type MediaReleaser interface {
	Release(ctx context.Context, key string) error
}

type Service struct {
	principals   PrincipalStore
	entitlements Entitlements
	sessions     SessionRevoker
	media        MediaReleaser
}

func NewService(
	principals PrincipalStore,
	entitlements Entitlements,
	sessions SessionRevoker,
	media MediaReleaser,
) *Service {
	return &Service{
		principals:   principals,
		entitlements: entitlements,
		sessions:     sessions,
		media:        media,
	}
}

func (s *Service) ListPrincipals(
	ctx context.Context,
	params principal.ListParams,
) ([]principal.Principal, int, error) {
	return s.principals.List(ctx, params)
}

func (s *Service) GetPrincipal(ctx context.Context, id string) (*principal.Principal, error) {
	return s.principals.FindByID(ctx, id)
}

func (s *Service) UpdatePrincipal(
	ctx context.Context,
	id string,
	fields map[string]any,
	days int,
) (*principal.Principal, error) {
	return s.entitlements.Apply(ctx, id, fields, days)
}

func (s *Service) GrantTier(
	ctx context.Context,
	id string,
	tier principal.TierName,
	days int,
) (*principal.Principal, error) {
	return s.entitlements.Grant(ctx, id, tier, days)
}

func (s *Service) RevokeTier(
	ctx context.Context,
	id string,
	tier principal.TierName,
) (*principal.Principal, error) {
	return s.entitlements.Revoke(ctx, id, tier)
}

// ForceLogout ends every session the principal currently holds.
func (s *Service) ForceLogout(ctx context.Context, id string) error {
	if _, err := s.principals.FindByID(ctx, id); err != nil {
		return err
	}

	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	slog.InfoContext(ctx, "sessions revoked by admin", "principal_id", id)
	return nil
}

// DeletePrincipal releases owned media, then removes the record, then
// revokes outstanding sessions. A media object that cannot be released is
// logged and skipped; the record is removed regardless. The record is never
// removed before every release has been attempted.
func (s *Service) DeletePrincipal(ctx context.Context, requesterID, id string) error {
	ctx, span := core.StartSpan(ctx, "admin.delete_principal",
		attribute.String("principal.id", id),
	)
	defer span.End()

	if requesterID == id {
		return fmt.Errorf("%w: cannot delete own account", core.ErrForbidden)
	}

	if _, err := s.principals.FindByID(ctx, id); err != nil {
		return err
	}

	keys, err := s.principals.MediaKeys(ctx, id)
	if err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("list owned media: %w", err)
	}

	released := s.releaseMedia(ctx, id, keys)
	span.SetAttributes(
		attribute.Int("media.owned", len(keys)),
		attribute.Int("media.released", released),
	)

	if err := s.principals.Delete(ctx, id); err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("delete principal: %w", err)
	}

	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		slog.WarnContext(ctx, "session revocation after delete failed",
			"principal_id", id,
			"error", err,
		)
	}

	slog.InfoContext(ctx, "principal deleted",
		"principal_id", id,
		"media_owned", len(keys),
		"media_released", released,
	)

	return nil
}

func (s *Service) releaseMedia(ctx context.Context, id string, keys []string) int {
	released := 0
	for _, key := range keys {
		if err := s.media.Release(ctx, key); err != nil {
			core.MediaReleaseFailures.Inc()
			slog.WarnContext(ctx, "media release failed",
				"principal_id", id,
				"key", key,
				"error", err,
			)
			continue
		}
		released++
	}
	return released
}
