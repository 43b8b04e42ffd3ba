package handlers

import (
	"net/http"
	"time"

	"github.com/capactiyvirus/carebook-backend/storage"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// ServeFile streams a stored object such as a nurse license
func (h *Handlers) ServeFile(w http.ResponseWriter, r *http.Request) {
	bucket, name := chi.URLParam(r, "bucket"), chi.URLParam(r, "name")

	f, err := h.svc.Files.Open(r.Context(), bucket, name)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			respondWithError(w, http.StatusBadRequest, "Invalid file name")
			return
		}
		h.handleError(w, r, err)
		return
	}
	defer f.Close()

	modTime := time.Time{}
	if info, err := f.Stat(); err == nil {
		if info.IsDir() {
			respondWithError(w, http.StatusNotFound, "Not found")
			return
		}
		modTime = info.ModTime()
	}

	w.Header().Set("Content-Type", storage.DetectContentType("", name))
	w.Header().Set("Content-Disposition", "inline; filename=\""+name+"\"")
	http.ServeContent(w, r, name, modTime, f)
}
