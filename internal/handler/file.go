package handler

import (
	"net/http"

	"github.com/CodeWithGeorg/Academic/internal/dashboard"
	"github.com/CodeWithGeorg/Academic/internal/storage"
	"github.com/go-chi/chi/v5"
)

// FileHandler redirects to attachment links. The links are derived
// locally; the backend is only contacted by the browser following them.
type FileHandler struct {
	reg *Registry
}

func NewFileHandler(reg *Registry) *FileHandler {
	return &FileHandler{reg: reg}
}

func (h *FileHandler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.With(guard).Get("/{id}/view", h.redirect(false))
	r.With(guard).Get("/{id}/download", h.redirect(true))
}

func (h *FileHandler) redirect(download bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileID, err := parsePathParam(r, "id")
		if err != nil {
			writeError(w, r, "file link", err)
			return
		}
		b, ok := browser(w, r)
		if !ok {
			return
		}
		src, err := h.reg.Sources(b)
		if err != nil {
			writeError(w, r, "file link", err)
			return
		}
		view, dl := dashboard.FileURLs(src.Files, fileID)
		target := view
		if download {
			target = dl
		}
		if target == storage.Placeholder {
			writeErrorJSON(w, http.StatusNotFound, "file link unavailable")
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}
