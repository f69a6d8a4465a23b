package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sesmt-backend/internal/ctxkeys"
	"sesmt-backend/internal/middleware"
	"sesmt-backend/internal/models"
	"sesmt-backend/internal/repository"
)

// bcryptCost balances hashing time against brute-force resistance.
const bcryptCost = 12

// UserStore is the account persistence used by auth and user management.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name, role string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
}

// AuthHandler manages user registration, login, and profile retrieval.
type AuthHandler struct {
	users     UserStore
	jwtSecret []byte
}

// NewAuthHandler creates an AuthHandler with the given user store and JWT signing key.
func NewAuthHandler(users UserStore, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwtSecret: []byte(jwtSecret),
	}
}

// Register creates a new user account and returns a JWT token on success.
// New users are always "viewer"; admins promote them via user management.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.Create(ctx, req.Email, string(hashedPassword), req.Name, "viewer")
	if errors.Is(err, repository.ErrDuplicate) {
		JSONError(w, http.StatusConflict, "An account with this email already exists")
		return
	}
	if err != nil {
		log.Printf("Failed to create user: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, user.ID, user.Role, time.Now())
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		JSONError(w, http.StatusInternalServerError, "Account created but login failed")
		return
	}

	JSON(w, http.StatusCreated, models.AuthResponse{
		Token: token,
		User:  user,
	})
}

// Login authenticates a user with email + password and returns a JWT token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		validationFailed(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("Failed to load user: %v", err)
		}
		// Same message either way to prevent email enumeration
		JSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		JSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, user.ID, user.Role, time.Now())
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		JSONError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	JSON(w, http.StatusOK, models.AuthResponse{
		Token: token,
		User:  user,
	})
}

// GetMe returns the profile of the currently authenticated user.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.GetByID(ctx, ctxkeys.GetUserID(r.Context()))
	if err != nil {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}

	JSON(w, http.StatusOK, user)
}

// EnsureAdmin creates the bootstrap admin account when it doesn't exist yet.
func EnsureAdmin(ctx context.Context, users UserStore, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	_, err = users.Create(ctx, email, string(hash), "Administrator", "admin")
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	if err == nil {
		log.Printf("Created admin account %s", email)
	}
	return err
}
