package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/inventur/internal/manuals"
	"github.com/erazemk/inventur/internal/model"
	"github.com/erazemk/inventur/internal/store"
)

// ManualsHandler handles PDF manual endpoints.
type ManualsHandler struct {
	DB             *sql.DB
	Files          *manuals.Store
	MaxUploadBytes int64
}

// List handles GET /api/get_pdfs/{item_id}.
func (h *ManualsHandler) List(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "item_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	list, err := store.ListManuals(r.Context(), h.DB, itemID)
	if err != nil {
		storeError(w, err, "failed to list manuals")
		return
	}
	if list == nil {
		list = []model.Manual{}
	}
	jsonResponse(w, http.StatusOK, list)
}

// Upload handles POST /api/upload_pdf (multipart: file, item_id). The file is
// written before the row; if the row cannot be stored the file is removed.
func (h *ManualsHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "no file")
		return
	}
	defer file.Close()

	item, err := store.GetItem(r.Context(), h.DB, itemID)
	if err != nil {
		storeError(w, err, "failed to load item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	name, path, err := h.Files.Save(itemID, header.Filename, file)
	if errors.Is(err, manuals.ErrNotPDF) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to store manual", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store manual")
		return
	}

	m, err := store.CreateManual(r.Context(), h.DB, itemID, name, path)
	if err != nil {
		if rmErr := h.Files.Remove(path); rmErr != nil {
			slog.Warn("failed to remove orphaned manual", "path", path, "error", rmErr)
		}
		storeError(w, err, "failed to save manual")
		return
	}

	slog.Info("manual uploaded", "user", actor(r), "item", item.NameID, "file", name)
	jsonOK(w, map[string]any{"id": m.ID, "filename": m.Filename})
}

// Delete handles POST /api/delete_pdf. The row goes first, then the file.
func (h *ManualsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := store.DeleteManual(r.Context(), h.DB, int64(req.ID))
	if err != nil {
		storeError(w, err, "failed to delete manual")
		return
	}
	if err := h.Files.Remove(m.Path); err != nil {
		slog.Warn("failed to remove manual file", "path", m.Path, "error", err)
	}

	slog.Info("manual deleted", "user", actor(r), "file", m.Filename)
	jsonOK(w, nil)
}

// Download handles GET /api/manual/{id}.
func (h *ManualsHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid manual id")
		return
	}

	m, err := store.GetManual(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to load manual")
		return
	}
	if m == nil {
		jsonError(w, http.StatusNotFound, "manual not found")
		return
	}

	f, err := h.Files.Open(m.Path)
	if err != nil {
		slog.Warn("manual file missing", "path", m.Path, "error", err)
		jsonError(w, http.StatusNotFound, "manual file missing")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Error("failed to stat manual", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to read manual")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename*=UTF-8''"+url.PathEscape(m.Filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, m.Filename, info.ModTime(), f)
}
