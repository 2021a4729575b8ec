// AngelaMos | 2026
// principals.go

package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/middleware"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

func (h *Handler) ListPrincipals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := principal.ListParams{
		Pagination: principal.Pagination{
			Page:     parseIntQuery(r, "page", 1),
			PageSize: parseIntQuery(r, "page_size", principal.DefaultPageSize),
		},
		Search: strings.TrimSpace(q.Get("search")),
	}
	params.Normalize()

	if raw := q.Get("role"); raw != "" {
		role, err := principal.ParseRole(raw)
		if err != nil {
			core.JSONError(w, err)
			return
		}
		params.Role = role
	}

	if raw := q.Get("status"); raw != "" {
		status, err := principal.ParseStatus(raw)
		if err != nil {
			core.JSONError(w, err)
			return
		}
		params.Status = status
	}

	principals, total, err := h.service.ListPrincipals(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		toPrincipalResponseList(principals, h.now()),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetPrincipal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "principalID")

	p, err := h.service.GetPrincipal(r.Context(), id)
	if err != nil {
		writePrincipalError(w, err)
		return
	}

	core.OK(w, toPrincipalResponse(p, h.now()))
}

func (h *Handler) UpdatePrincipal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "principalID")

	var req UpdatePrincipalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.UpdatePrincipal(r.Context(), id, req.Fields, req.Days)
	if err != nil {
		writePrincipalError(w, err)
		return
	}

	core.OK(w, toPrincipalResponse(p, h.now()))
}

// GrantTier accepts an empty body, in which case the default window
// applies.
func (h *Handler) GrantTier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "principalID")

	tier, err := principal.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req GrantTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.GrantTier(r.Context(), id, tier, req.Days)
	if err != nil {
		writePrincipalError(w, err)
		return
	}

	core.OK(w, toPrincipalResponse(p, h.now()))
}

func (h *Handler) RevokeTier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "principalID")

	tier, err := principal.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	p, err := h.service.RevokeTier(r.Context(), id, tier)
	if err != nil {
		writePrincipalError(w, err)
		return
	}

	core.OK(w, toPrincipalResponse(p, h.now()))
}

func (h *Handler) ForceLogout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "principalID")

	if err := h.service.ForceLogout(r.Context(), id); err != nil {
		writePrincipalError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) DeletePrincipal(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetPrincipalID(r.Context())
	id := chi.URLParam(r, "principalID")

	if err := h.service.DeletePrincipal(r.Context(), requesterID, id); err != nil {
		writePrincipalError(w, err)
		return
	}

	core.NoContent(w)
}

func writePrincipalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "principal")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "operation not permitted on this principal")
	default:
		core.JSONError(w, err)
	}
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
