// AngelaMos | 2026
// handler.go

package directory

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/entitlement"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

type Store interface {
	FindByID(ctx context.Context, id string) (*principal.Principal, error)
	ListExposable(
		ctx context.Context,
		params principal.DirectoryParams,
		now time.Time,
	) ([]principal.Principal, int, error)
}

// Handler serves the anonymous directory. Nothing here is reachable for a
// profile whose public window has lapsed, whatever its stored status says.
type Handler struct {
	store Store
	now   func() time.Time
}

func NewHandler(store Store) *Handler {
	return &Handler{
		store: store,
		now:   time.Now,
	}
}

func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", h.ListProfiles)
		r.Get("/{profileID}", h.GetProfile)
	})
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := principal.DirectoryParams{
		Pagination: principal.Pagination{
			Page:     parseIntQuery(r, "page", 1),
			PageSize: parseIntQuery(r, "page_size", principal.DefaultPageSize),
		},
		City: strings.TrimSpace(q.Get("city")),
	}
	params.Normalize()

	if raw := q.Get("tier"); raw != "" {
		tier, err := principal.ParseTier(raw)
		if err != nil {
			core.JSONError(w, err)
			return
		}
		params.Tier = tier
	}

	now := h.now()
	profiles, total, err := h.store.ListExposable(r.Context(), params, now)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]PublicProfile, 0, len(profiles))
	for i := range profiles {
		// The query already filtered; re-checking keeps a row that lapsed
		// between query and render from leaking.
		if !entitlement.IsPubliclyExposable(&profiles[i], now) {
			continue
		}
		out = append(out, toPublicProfile(&profiles[i], now))
	}

	core.Paginated(w, out, params.Page, params.PageSize, total)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "profileID")

	p, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "profile")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	now := h.now()
	if !entitlement.IsPubliclyExposable(p, now) {
		core.NotFound(w, "profile")
		return
	}

	core.OK(w, toPublicProfile(p, now))
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
