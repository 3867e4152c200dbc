package handlers

import (
	"net/http"

	"marketplace-backend/application/commands"
	"marketplace-backend/application/services"
	apperrors "marketplace-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler serves /users.
type UserHandler struct {
	base
	users *services.UserService
}

func NewUserHandler(users *services.UserService, errs *apperrors.ErrorHandler, logger *zap.Logger) *UserHandler {
	return &UserHandler{base: base{errors: errs, logger: logger}, users: users}
}

// Register handles POST /users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RegisterUser
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.users.Register(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusCreated, "User registered successfully", res)
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var cmd commands.LoginUser
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.users.Login(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"userId":  res.UserID,
		"token":   res.Token,
	})
}

// Get handles GET /users/{userId}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.users.Get(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondView(w, "User retrieved successfully", view)
}

// Update handles PUT /users/{userId}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateUser
	if err := h.decode(r, &cmd); err != nil {
		h.fail(w, r, err)
		return
	}
	cmd.UserID = chi.URLParam(r, "userId")
	cmd.CallerID = callerID(r)

	res, err := h.users.Update(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "User updated successfully", res)
}

// Delete handles DELETE /users/{userId}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.users.Delete(r.Context(), commands.DeleteUser{
		UserID:   chi.URLParam(r, "userId"),
		CallerID: callerID(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondResult(w, r, http.StatusOK, "User deleted successfully", res)
}
