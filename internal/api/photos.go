package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/inventur/internal/photo"
	"github.com/erazemk/inventur/internal/store"
)

// PhotosHandler handles item photo endpoints.
type PhotosHandler struct {
	DB             *sql.DB
	Photos         photo.Normalizer
	MaxUploadBytes int64
}

// Upload handles POST /api/upload_image (multipart: image, item_id).
func (h *PhotosHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	itemID, err := strconv.ParseInt(r.FormValue("item_id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	data, err := h.Photos.Normalize(file)
	if errors.Is(err, photo.ErrUnsupported) || errors.Is(err, photo.ErrTooLarge) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Warn("rejected photo", "item", itemID, "error", err)
		jsonError(w, http.StatusBadRequest, "could not read image")
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, itemID, data, photo.MIME); err != nil {
		storeError(w, err, "failed to save image")
		return
	}

	slog.Info("item photo uploaded", "user", actor(r), "item", itemID, "bytes", len(data))
	jsonOK(w, nil)
}

// Get handles GET /api/item_image/{id}.
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
