// Package handler serves the read-only viewer API for shares.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/00aj99/Hauk/internal/kv"
	sharinghandler "github.com/00aj99/Hauk/internal/sharing/handler"
	"github.com/00aj99/Hauk/internal/sharing/service"
)

// Fetcher resolves a share to its current view.
type Fetcher interface {
	Fetch(ctx context.Context, shareID string) (*service.View, error)
}

// Viewer serves share payloads to map clients.
type Viewer struct {
	fetcher Fetcher
}

// NewViewer returns a viewer backed by f.
func NewViewer(f Fetcher) *Viewer {
	return &Viewer{fetcher: f}
}

// Routes mounts GET /api/fetch?id=<share> and GET /api/fetch/{id}.
func (v *Viewer) Routes(r chi.Router) {
	r.Get("/api/fetch", v.fetch)
	r.Get("/api/fetch/{id}", v.fetch)
}

func (v *Viewer) fetch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	view, err := v.fetcher.Fetch(r.Context(), id)
	if err != nil {
		code, msg := httpStatus(err)
		if code >= http.StatusInternalServerError {
			log.Printf("viewer: fetch %s: %v", id, err)
		}
		writeError(w, code, msg)
		return
	}
	resp, err := sharinghandler.ToFetchResponse(view)
	if err != nil {
		log.Printf("viewer: encode %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

func httpStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrShareNotFound):
		return http.StatusNotFound, "share not found or expired"
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, kv.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "storage unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("viewer: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
