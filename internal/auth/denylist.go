// AngelaMos | 2026
// denylist.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gxggeorgia/gxg-sub001/internal/middleware"
)

const (
	revokedTokenPrefix  = "session:revoked:"
	revokedBeforePrefix = "session:revoked-before:"
)

// Denylist revokes session tokens ahead of their natural expiry. Single
// tokens are keyed by jti; "log out everywhere" stores a per-principal
// cutoff and every token issued before it is refused. Entries expire once
// the tokens they cover would have expired anyway.
type Denylist struct {
	client     *redis.Client
	sessionTTL time.Duration
	now        func() time.Time
}

func NewDenylist(client *redis.Client, sessionTTL time.Duration) *Denylist {
	return &Denylist{
		client:     client,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func (d *Denylist) Revoke(ctx context.Context, claims *middleware.SessionClaims) error {
	if claims == nil || claims.TokenID == "" {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, revokedTokenPrefix+claims.TokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAll refuses every token for the principal issued before the
// current second. Token iat has whole-second precision, so the cutoff is
// kept at the same precision; a token issued later in the same second
// stays valid.
func (d *Denylist) RevokeAll(ctx context.Context, principalID string) error {
	cutoff := d.now().Unix()

	err := d.client.Set(
		ctx,
		revokedBeforePrefix+principalID,
		strconv.FormatInt(cutoff, 10),
		d.sessionTTL,
	).Err()
	if err != nil {
		return fmt.Errorf("revoke all sessions: %w", err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, claims *middleware.SessionClaims) (bool, error) {
	vals, err := d.client.MGet(
		ctx,
		revokedTokenPrefix+claims.TokenID,
		revokedBeforePrefix+claims.PrincipalID,
	).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check denylist: %w", err)
	}

	if vals[0] != nil {
		return true, nil
	}

	raw, ok := vals[1].(string)
	if !ok {
		return false, nil
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse revocation cutoff: %w", err)
	}

	return claims.IssuedAt.Unix() < cutoff, nil
}
