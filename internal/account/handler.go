// AngelaMos | 2026
// handler.go

package account

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gxggeorgia/gxg-sub001/internal/core"
	"github.com/gxggeorgia/gxg-sub001/internal/entitlement"
	"github.com/gxggeorgia/gxg-sub001/internal/middleware"
	"github.com/gxggeorgia/gxg-sub001/internal/principal"
)

const maxProfileBody = 64 << 10

type Store interface {
	UpdateFields(
		ctx context.Context,
		id string,
		changes principal.Changes,
	) (*principal.Principal, error)
}

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

func (h *Handler) RegisterRoutes(r chi.Router, guard *middleware.Guard) {
	r.Route("/me", func(r chi.Router) {
		r.With(guard.AuthenticateAndTouch).Get("/", h.GetMe)
		r.With(guard.Authenticate).Patch("/", h.UpdateMe)
		r.With(guard.RequireProvider).Get("/entitlements", h.GetEntitlements)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, toProfileResponse(p, h.now()))
}

// UpdateMe accepts a free-form object. Only profile attributes are
// applied; anything else is reported back as ignored.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		core.Unauthorized(w, "")
		return
	}

	var fields map[string]any
	body := http.MaxBytesReader(w, r.Body, maxProfileBody)
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	changes, dropped, err := entitlement.FilterSelfUpdate(fields)
	if len(dropped) > 0 {
		slog.WarnContext(r.Context(), "self update dropped fields",
			"principal_id", p.ID,
			"fields", dropped,
		)
	}
	if err != nil {
		core.JSONError(w, err)
		return
	}

	updated, err := h.store.UpdateFields(r.Context(), p.ID, changes)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "profile")
			return
		}
		core.JSONError(w, err)
		return
	}

	core.OK(w, UpdateProfileResponse{
		Profile: toProfileResponse(updated, h.now()),
		Ignored: dropped,
	})
}

func (h *Handler) GetEntitlements(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, entitlement.Evaluate(p, h.now()))
}
