package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventur/internal/model"
	"github.com/erazemk/inventur/internal/store"
)

// EventsHandler handles events, the active event and item assignments.
type EventsHandler struct {
	DB *sql.DB
}

type createEventRequest struct {
	Name string `json:"name"`
}

type setActiveRequest struct {
	ID *flexInt `json:"id"`
}

type assignRequest struct {
	EventID flexInt `json:"event_id"`
	ItemID  flexInt `json:"inventory_id"`
	Qty     flexInt `json:"anzahl"`
}

type assignmentQtyRequest struct {
	ID  flexInt `json:"id"`
	Qty flexInt `json:"anzahl"`
}

// List handles GET /api/get_events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := store.ListEvents(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	jsonResponse(w, http.StatusOK, events)
}

// Create handles POST /api/add_event.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := store.CreateEvent(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, err, "failed to create event")
		return
	}
	slog.Info("event created", "user", actor(r), "event", event.Name, "id", event.ID)
	jsonOK(w, map[string]any{"id": event.ID, "event": event})
}

// Update handles POST /api/update_event.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req fieldUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateEventField(r.Context(), h.DB, int64(req.ID), req.Field, req.Value); err != nil {
		storeError(w, err, "failed to update event")
		return
	}
	jsonOK(w, nil)
}

// Delete handles POST /api/delete_event.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.DeleteEvent(r.Context(), h.DB, int64(req.ID)); err != nil {
		storeError(w, err, "failed to delete event")
		return
	}
	slog.Info("event deleted", "user", actor(r), "id", req.ID)
	jsonOK(w, nil)
}

// SetActive handles POST /api/set_active_event. A null id clears the active event.
func (h *EventsHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var id *int64
	if req.ID != nil {
		v := int64(*req.ID)
		id = &v
	}

	activated, err := store.SetActiveEvent(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to set active event")
		return
	}
	if activated {
		slog.Info("event activated", "user", actor(r), "id", *id)
	} else {
		slog.Info("active event cleared", "user", actor(r))
	}
	jsonOK(w, map[string]any{"active": activated})
}

// Items handles GET /api/get_event_items/{event_id}.
func (h *EventsHandler) Items(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "event_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	items, err := store.ListEventItems(r.Context(), h.DB, eventID)
	if err != nil {
		storeError(w, err, "failed to list event items")
		return
	}
	if items == nil {
		items = []model.EventItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Assign handles POST /api/assign_item.
func (h *EventsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := store.AssignItem(r.Context(), h.DB, int64(req.EventID), int64(req.ItemID), int64(req.Qty))
	if err != nil {
		storeError(w, err, "failed to assign item")
		return
	}
	slog.Info("item assigned", "user", actor(r), "event", a.EventID, "item", a.ItemID, "quantity", a.Quantity)
	jsonOK(w, map[string]any{"id": a.ID})
}

// UpdateAssignment handles POST /api/update_assignment_qty.
func (h *EventsHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentQtyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateAssignmentQuantity(r.Context(), h.DB, int64(req.ID), int64(req.Qty)); err != nil {
		storeError(w, err, "failed to update assignment")
		return
	}
	jsonOK(w, nil)
}

// RemoveAssignment handles POST /api/remove_assignment.
func (h *EventsHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.RemoveAssignment(r.Context(), h.DB, int64(req.ID)); err != nil {
		storeError(w, err, "failed to remove assignment")
		return
	}
	jsonOK(w, nil)
}
