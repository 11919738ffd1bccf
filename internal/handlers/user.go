package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bishop254/vts-backend/internal/auth"
	"github.com/bishop254/vts-backend/internal/db"
	"github.com/bishop254/vts-backend/internal/models"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles account requests
type UserHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service, userCollection db.UserCollection) *UserHandler {
	return &UserHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Signup registers a regular user. New accounts are active.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.authService.ValidateName(req.Name); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authService.ValidateEmail(req.Email); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err := h.userCollection.FindUserByEmail(r.Context(), req.Email)
	switch {
	case err == nil:
		writeMessage(w, http.StatusBadRequest, "Email already exists")
		return
	case !errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	now := time.Now().UTC()
	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Status:       true,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.userCollection.InsertUser(r.Context(), &user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			writeMessage(w, http.StatusBadRequest, "Email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID, "email": user.Email}).Info("User registered")
	writeMessage(w, http.StatusOK, "Successfully registered")
}

// Login exchanges email and password for a bearer token
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userCollection.FindUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}

	switch err := h.authService.Authenticate(user, req.Password); {
	case errors.Is(err, auth.ErrUserInactive):
		writeMessage(w, http.StatusUnauthorized, "Await admin approval")
		return
	case err != nil:
		writeMessage(w, http.StatusUnauthorized, "Incorrect username/password")
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:   token,
		Name:    user.Name,
		Message: "User logged in",
	})
}

// GetUsers lists the regular (non-admin) accounts
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userCollection.FindUsersByRole(r.Context(), models.RoleUser)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": users})
}

// UpdateStatus activates or deactivates an account
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID <= 0 {
		writeMessage(w, http.StatusBadRequest, "User ID is required")
		return
	}

	if err := h.userCollection.UpdateUserStatus(r.Context(), req.ID, req.Status); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User ID does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}

	log.WithFields(log.Fields{"user_id": req.ID, "status": req.Status}).Info("User status updated")
	writeMessage(w, http.StatusOK, "User updated successfully")
}

// CheckToken confirms the bearer token is still valid
func (h *UserHandler) CheckToken(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "true")
}
