package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sesmt-backend/internal/ctxkeys"
	"sesmt-backend/internal/models"
	"sesmt-backend/internal/repository"
)

// UserAdminStore is the persistence behind user management.
type UserAdminStore interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateRole(ctx context.Context, id, role string) (models.User, error)
	Delete(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int, error)
}

// UserManagementHandler provides admin-only user listing, role changes, and deletion.
type UserManagementHandler struct {
	users UserAdminStore
}

func NewUserManagementHandler(users UserAdminStore) *UserManagementHandler {
	return &UserManagementHandler{users: users}
}

// List returns every user.
func (h *UserManagementHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		log.Printf("Failed to list users: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": users})
}

// UpdateRole changes a user's role. The last admin cannot be demoted and
// admins cannot change their own role.
func (h *UserManagementHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}
	if id == ctxkeys.GetUserID(r.Context()) {
		JSONError(w, http.StatusForbidden, "You cannot change your own role")
		return
	}

	var req models.UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if ok := h.guardLastAdmin(ctx, w, id, req.Role); !ok {
		return
	}

	user, err := h.users.UpdateRole(ctx, id, req.Role)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Failed to update role for %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update role")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    user,
		"message": "Role updated successfully",
	})
}

// Delete removes a user account.
func (h *UserManagementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}
	if id == ctxkeys.GetUserID(r.Context()) {
		JSONError(w, http.StatusForbidden, "You cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if ok := h.guardLastAdmin(ctx, w, id, ""); !ok {
		return
	}

	err := h.users.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Failed to delete user %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"message": "User deleted successfully"})
}

// guardLastAdmin refuses to remove the admin role from the only admin.
// newRole is "" for deletions.
func (h *UserManagementHandler) guardLastAdmin(ctx context.Context, w http.ResponseWriter, id, newRole string) bool {
	target, err := h.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		JSONError(w, http.StatusNotFound, "User not found")
		return false
	}
	if err != nil {
		log.Printf("Failed to load user %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update user")
		return false
	}
	if target.Role != "admin" || newRole == "admin" {
		return true
	}

	n, err := h.users.CountAdmins(ctx)
	if err != nil {
		log.Printf("Failed to count admins: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update user")
		return false
	}
	if n <= 1 {
		JSONError(w, http.StatusConflict, "At least one admin account must remain")
		return false
	}
	return true
}
