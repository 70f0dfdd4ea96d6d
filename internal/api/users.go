package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventur/internal/auth"
	"github.com/erazemk/inventur/internal/model"
	"github.com/erazemk/inventur/internal/store"
)

// UsersHandler handles user management endpoints.
type UsersHandler struct {
	DB              *sql.DB
	DefaultPassword string
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ListNames handles GET /api/get_users.
func (h *UsersHandler) ListNames(w http.ResponseWriter, r *http.Request) {
	names, err := store.ListUsernames(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list users")
		return
	}
	if names == nil {
		names = []string{}
	}
	jsonResponse(w, http.StatusOK, names)
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/add_user. Every field is optional: the username
// defaults to the next free "User_N", the password to the configured default
// and the role to User.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Password == "" {
		req.Password = h.DefaultPassword
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, hash, req.Role)
	if err != nil {
		storeError(w, err, "failed to create user")
		return
	}

	slog.Info("user created", "user", actor(r), "target", user.Username, "role", user.Role)
	jsonOK(w, map[string]any{"id": user.ID, "username": user.Username})
}

// Update handles POST /api/update_user. A password is validated and hashed
// before it is stored; other fields go through the allow-list.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req fieldUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := int64(req.ID)

	if req.Field == "password" {
		password, _ := req.Value.(string)
		if err := model.ValidatePassword(password); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		if err := store.UpdateUserPassword(r.Context(), h.DB, id, hash); err != nil {
			storeError(w, err, "failed to update password")
			return
		}
		slog.Info("user password reset", "user", actor(r), "target", id)
		jsonOK(w, nil)
		return
	}

	// An administrator cannot take away their own access.
	if req.Field == "role" && id == GetClaims(r).UserID && req.Value != model.RoleAdmin {
		jsonError(w, http.StatusBadRequest, "cannot remove your own administrator role")
		return
	}

	if err := store.UpdateUserField(r.Context(), h.DB, id, req.Field, req.Value); err != nil {
		storeError(w, err, "failed to update user")
		return
	}
	slog.Info("user updated", "user", actor(r), "target", id, "field", req.Field)
	jsonOK(w, nil)
}

// Delete handles POST /api/delete_user.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if int64(req.ID) == GetClaims(r).UserID {
		jsonError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, int64(req.ID)); err != nil {
		storeError(w, err, "failed to delete user")
		return
	}
	slog.Info("user deleted", "user", actor(r), "target", req.ID)
	jsonOK(w, nil)
}
