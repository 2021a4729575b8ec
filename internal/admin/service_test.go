// AngelaMos | 2026
// service_test.go

package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/entitlement"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// journal records calls across fakes so tests can assert ordering.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(call string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

type fakePrincipals struct {
	j        *journal
	mu       sync.Mutex
	byID     map[string]*principal.Principal
	media    map[string][]string
	mediaErr error
}

func (f *fakePrincipals) FindByID(_ context.Context, id string) (*principal.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePrincipals) TouchLastActive(context.Context, string, time.Time) error {
	return nil
}

func (f *fakePrincipals) List(
	_ context.Context,
	params principal.ListParams,
) ([]principal.Principal, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []principal.Principal
	for _, p := range f.byID {
		if params.Role != "" && p.Role != params.Role {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakePrincipals) MediaKeys(_ context.Context, id string) ([]string, error) {
	f.j.add("media_keys:" + id)
	if f.mediaErr != nil {
		return nil, f.mediaErr
	}
	return f.media[id], nil
}

func (f *fakePrincipals) Delete(_ context.Context, id string) error {
	f.j.add("delete:" + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakePrincipals) UpdateFields(
	_ context.Context,
	id string,
	changes principal.Changes,
) (*principal.Principal, error) {
	f.j.add("update:" + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	for i, t := range p.Tiers {
		if v, ok := changes[t.Name.FlagField()]; ok {
			p.Tiers[i].Active, _ = v.(bool)
		}
		if v, ok := changes[t.Name.ExpiryField()]; ok {
			if ts, ok := v.(time.Time); ok {
				p.Tiers[i].ExpiresAt = &ts
			} else {
				p.Tiers[i].ExpiresAt = nil
			}
		}
	}
	if v, ok := changes[principal.FieldStatus]; ok {
		p.Status = principal.Status(v.(string))
	}
	if v, ok := changes[principal.FieldPublicExpiresAt]; ok {
		if ts, ok := v.(time.Time); ok {
			p.PublicExpiresAt = &ts
		} else {
			p.PublicExpiresAt = nil
		}
	}
	cp := *p
	return &cp, nil
}

type fakeSessions struct {
	j   *journal
	err error
}

func (f *fakeSessions) RevokeAll(_ context.Context, id string) error {
	f.j.add("revoke_sessions:" + id)
	return f.err
}

type fakeMedia struct {
	j    *journal
	fail map[string]bool
}

func (f *fakeMedia) Release(_ context.Context, key string) error {
	f.j.add("release:" + key)
	if f.fail[key] {
		return errors.New("storage unavailable")
	}
	return nil
}

func newPrincipal(id string, role principal.Role) *principal.Principal {
	p := &principal.Principal{ID: id, Email: id + "@example.com", Role: role, Status: principal.StatusPrivate}
	for i, name := range principal.Tiers {
		p.Tiers[i] = principal.TierState{Name: name}
	}
	return p
}

type fixture struct {
	j          *journal
	principals *fakePrincipals
	sessions   *fakeSessions
	media      *fakeMedia
	service    *Service
}

func newFixture() *fixture {
	j := &journal{}
	principals := &fakePrincipals{
		j: j,
		byID: map[string]*principal.Principal{
			"admin-1":    newPrincipal("admin-1", principal.RoleAdmin),
			"provider-1": newPrincipal("provider-1", principal.RoleProvider),
			"regular-1":  newPrincipal("regular-1", principal.RoleRegular),
		},
		media: map[string][]string{
			"provider-1": {"provider-1/a.jpg", "provider-1/b.jpg"},
		},
	}
	sessions := &fakeSessions{j: j}
	media := &fakeMedia{j: j, fail: map[string]bool{}}

	mutator := entitlement.NewMutator(principals, entitlement.DefaultGrantDays).
		WithClock(func() time.Time { return testNow })

	return &fixture{
		j:          j,
		principals: principals,
		sessions:   sessions,
		media:      media,
		service:    NewService(principals, mutator, sessions, media),
	}
}

func TestDeletePrincipal_ReleasesMediaBeforeDelete(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.service.DeletePrincipal(context.Background(), "admin-1", "provider-1"))

	assert.Equal(t, []string{
		"media_keys:provider-1",
		"release:provider-1/a.jpg",
		"release:provider-1/b.jpg",
		"delete:provider-1",
		"revoke_sessions:provider-1",
	}, f.j.list())
}

func TestDeletePrincipal_ReleaseFailureDoesNotBlock(t *testing.T) {
	f := newFixture()
	f.media.fail["provider-1/a.jpg"] = true

	require.NoError(t, f.service.DeletePrincipal(context.Background(), "admin-1", "provider-1"))

	calls := f.j.list()
	assert.Contains(t, calls, "release:provider-1/b.jpg")
	assert.Contains(t, calls, "delete:provider-1")

	_, err := f.principals.FindByID(context.Background(), "provider-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeletePrincipal_MediaLookupFailureKeepsRecord(t *testing.T) {
	f := newFixture()
	f.principals.mediaErr = errors.New("db timeout")

	err := f.service.DeletePrincipal(context.Background(), "admin-1", "provider-1")
	require.Error(t, err)

	assert.NotContains(t, f.j.list(), "delete:provider-1")
}

func TestDeletePrincipal_SessionRevocationIsBestEffort(t *testing.T) {
	f := newFixture()
	f.sessions.err = errors.New("redis down")

	assert.NoError(t, f.service.DeletePrincipal(context.Background(), "admin-1", "regular-1"))
}

func TestDeletePrincipal_Self(t *testing.T) {
	f := newFixture()

	err := f.service.DeletePrincipal(context.Background(), "admin-1", "admin-1")
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.Empty(t, f.j.list())
}

func TestDeletePrincipal_Unknown(t *testing.T) {
	f := newFixture()

	err := f.service.DeletePrincipal(context.Background(), "admin-1", "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, f.j.list())
}

func TestForceLogout(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.service.ForceLogout(context.Background(), "regular-1"))
	assert.Equal(t, []string{"revoke_sessions:regular-1"}, f.j.list())

	err := f.service.ForceLogout(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGrantTier_DefaultWindow(t *testing.T) {
	f := newFixture()

	p, err := f.service.GrantTier(context.Background(), "provider-1", principal.TierTop, 0)
	require.NoError(t, err)

	state, ok := p.Tier(principal.TierTop)
	require.True(t, ok)
	assert.True(t, state.Active)
	require.NotNil(t, state.ExpiresAt)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *state.ExpiresAt)
}
