package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventur/internal/manuals"
	"github.com/erazemk/inventur/internal/model"
	"github.com/erazemk/inventur/internal/store"
)

// InventoryHandler handles item and group endpoints.
type InventoryHandler struct {
	DB      *sql.DB
	Manuals *manuals.Store
}

type createItemRequest struct {
	NameID string `json:"name_id"`
	Group  string `json:"group"`
}

type createGroupRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/get_inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListInventory(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list inventory")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/add_inventory. Both fields are optional.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.NameID, req.Group)
	if err != nil {
		storeError(w, err, "failed to create item")
		return
	}

	slog.Info("item created", "user", actor(r), "item", item.NameID, "id", item.ID)
	jsonOK(w, map[string]any{"id": item.ID, "item": item})
}

// Update handles POST /api/update_inventory.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req fieldUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateItemField(r.Context(), h.DB, int64(req.ID), req.Field, req.Value); err != nil {
		storeError(w, err, "failed to update item")
		return
	}
	jsonOK(w, nil)
}

// Delete handles POST /api/delete_inventory. Manual files are removed after
// the rows are gone; a file that fails to delete is only logged.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paths, err := store.DeleteItem(r.Context(), h.DB, int64(req.ID))
	if err != nil {
		storeError(w, err, "failed to delete item")
		return
	}
	for _, p := range paths {
		if err := h.Manuals.Remove(p); err != nil {
			slog.Warn("failed to remove manual file", "path", p, "error", err)
		}
	}

	slog.Info("item deleted", "user", actor(r), "id", req.ID)
	jsonOK(w, nil)
}

// ListGroups handles GET /api/get_groups.
func (h *InventoryHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := store.ListGroups(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list groups")
		return
	}
	if groups == nil {
		groups = []model.Group{}
	}
	jsonResponse(w, http.StatusOK, groups)
}

// CreateGroup handles POST /api/add_group.
func (h *InventoryHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := store.CreateGroup(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, err, "failed to create group")
		return
	}
	slog.Info("group created", "user", actor(r), "group", group.Name)
	jsonOK(w, map[string]any{"id": group.ID})
}

// DeleteGroup handles POST /api/delete_group.
func (h *InventoryHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.DeleteGroup(r.Context(), h.DB, int64(req.ID)); err != nil {
		storeError(w, err, "failed to delete group")
		return
	}
	slog.Info("group deleted", "user", actor(r), "id", req.ID)
	jsonOK(w, nil)
}
