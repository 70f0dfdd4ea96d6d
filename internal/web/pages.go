package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/inventur/internal/model"
	"github.com/erazemk/inventur/internal/store"
)

// Home handles GET /home: the inventory with current availability.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListInventory(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list inventory", "error", err)
	}
	groups, err := store.ListGroups(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list groups", "error", err)
	}

	s.Templates.Render(w, http.StatusOK, "home.html", &struct {
		PageData
		Items  []model.Item
		Groups []model.Group
	}{
		PageData: s.page(r, "Inventory", "home"),
		Items:    items,
		Groups:   groups,
	})
}

// Events handles GET /events.
func (s *Server) Events(w http.ResponseWriter, r *http.Request) {
	events, err := store.ListEvents(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list events", "error", err)
	}
	users, err := store.ListUsernames(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list usernames", "error", err)
	}

	s.Templates.Render(w, http.StatusOK, "events.html", &struct {
		PageData
		Events    []model.Event
		Usernames []string
	}{
		PageData:  s.page(r, "Events", "events"),
		Events:    events,
		Usernames: users,
	})
}

// EventDetail handles GET /event_detail/{id}.
func (s *Server) EventDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/events", http.StatusSeeOther)
		return
	}

	event, err := store.GetEvent(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get event", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if event == nil {
		http.Redirect(w, r, "/events", http.StatusSeeOther)
		return
	}

	assigned, err := store.ListEventItems(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to list event items", "error", err)
	}
	items, err := store.ListInventory(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list inventory", "error", err)
	}

	s.Templates.Render(w, http.StatusOK, "event_detail.html", &struct {
		PageData
		Event    *model.Event
		Assigned []model.EventItem
		Items    []model.Item
	}{
		PageData: s.page(r, event.Name, "events"),
		Event:    event,
		Assigned: assigned,
		Items:    items,
	})
}

// Users handles GET /users (admin only).
func (s *Server) Users(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	s.Templates.Render(w, http.StatusOK, "users.html", &struct {
		PageData
		Users []model.User
		Roles []string
	}{
		PageData: s.page(r, "Users", "users"),
		Users:    users,
		Roles:    []string{model.RoleAdmin, model.RoleUser},
	})
}
