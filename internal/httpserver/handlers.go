package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Houeta/darkside-companion/internal/compare"
	"github.com/Houeta/darkside-companion/internal/storefront"
	"github.com/Houeta/darkside-companion/internal/wishlist"
)

type handlers struct {
	log  *slog.Logger
	deps Deps
}

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	h.writeJSON(w, http.StatusOK, healthzResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.deps.StartTime).Seconds(),
	})
}

// compare renders the condition table of a product as an HTML fragment.
func (h *handlers) compare(w http.ResponseWriter, r *http.Request) {
	handle := strings.ToLower(chi.URLParam(r, "handle"))

	product, err := h.deps.Products.GetProduct(r.Context(), handle)
	switch {
	case errors.Is(err, storefront.ErrProductNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "product not found"})
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "Error loading product", "handle", handle, "error", err)
		h.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "storefront unavailable"})
		return
	}

	var buf bytes.Buffer
	if err = compare.RenderHTML(&buf, product); err != nil {
		h.log.ErrorContext(r.Context(), "Error rendering comparison", "handle", handle, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "render failed"})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// wishlist returns the stored wishlist of a scope in its persisted layout.
func (h *handlers) wishlist(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")

	items := wishlist.NewLocalStore(h.log, h.deps.Storage, scope).Load(r.Context())

	w.Header().Set("Cache-Control", "no-store")
	h.writeJSON(w, http.StatusOK, items)
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("Failed to encode response", "error", err)
	}
}
