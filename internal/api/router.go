package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/inventur/internal/auth"
	"github.com/erazemk/inventur/internal/manuals"
	"github.com/erazemk/inventur/internal/model"
	"github.com/erazemk/inventur/internal/photo"
)

// Deps are the collaborators the API handlers share.
type Deps struct {
	DB                  *sql.DB
	Sessions            *auth.Sessions
	Manuals             *manuals.Store
	Photos              photo.Normalizer
	DefaultUserPassword string
	MaxUploadBytes      int64
}

// NewRouter creates the API router with all endpoints registered. Everything
// except login needs a session; user management needs an administrator.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, Sessions: d.Sessions}
	inventoryHandler := &InventoryHandler{DB: d.DB, Manuals: d.Manuals}
	eventsHandler := &EventsHandler{DB: d.DB}
	usersHandler := &UsersHandler{DB: d.DB, DefaultPassword: d.DefaultUserPassword}
	manualsHandler := &ManualsHandler{DB: d.DB, Files: d.Manuals, MaxUploadBytes: d.MaxUploadBytes}
	photosHandler := &PhotosHandler{DB: d.DB, Photos: d.Photos, MaxUploadBytes: d.MaxUploadBytes}

	authMW := AuthMiddleware(d.Sessions)
	requireAdmin := RequireRole(model.RoleAdmin)

	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMW(h))
	}
	handleAdmin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMW(requireAdmin(h)))
	}

	// Public: login.
	mux.HandleFunc("POST /api/login", authHandler.Login)

	// Every data endpoint needs a session, including the reads and the
	// inventory, group, event and PDF mutations that any signed-in role may use.
	handle("POST /api/logout", authHandler.Logout)
	handle("GET /api/me", authHandler.Me)
	handle("POST /api/change_password", authHandler.ChangePassword)

	handle("GET /api/get_inventory", inventoryHandler.List)
	handle("POST /api/add_inventory", inventoryHandler.Create)
	handle("POST /api/update_inventory", inventoryHandler.Update)
	handle("POST /api/delete_inventory", inventoryHandler.Delete)

	handle("GET /api/get_groups", inventoryHandler.ListGroups)
	handle("POST /api/add_group", inventoryHandler.CreateGroup)
	handle("POST /api/delete_group", inventoryHandler.DeleteGroup)

	handle("GET /api/get_events", eventsHandler.List)
	handle("POST /api/add_event", eventsHandler.Create)
	handle("POST /api/update_event", eventsHandler.Update)
	handle("POST /api/delete_event", eventsHandler.Delete)
	handle("POST /api/set_active_event", eventsHandler.SetActive)

	handle("GET /api/get_event_items/{event_id}", eventsHandler.Items)
	handle("POST /api/assign_item", eventsHandler.Assign)
	handle("POST /api/update_assignment_qty", eventsHandler.UpdateAssignment)
	handle("POST /api/remove_assignment", eventsHandler.RemoveAssignment)

	handle("GET /api/get_users", usersHandler.ListNames)
	handleAdmin("GET /api/users", usersHandler.List)
	handleAdmin("POST /api/add_user", usersHandler.Create)
	handleAdmin("POST /api/update_user", usersHandler.Update)
	handleAdmin("POST /api/delete_user", usersHandler.Delete)

	handle("GET /api/get_pdfs/{item_id}", manualsHandler.List)
	handle("POST /api/upload_pdf", manualsHandler.Upload)
	handle("POST /api/delete_pdf", manualsHandler.Delete)
	handle("GET /api/manual/{id}", manualsHandler.Download)

	handle("POST /api/upload_image", photosHandler.Upload)
	handle("GET /api/item_image/{id}", photosHandler.Get)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "unknown endpoint")
	})

	return mux
}
