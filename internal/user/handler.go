package user

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"review-platform/internal/httpx"
	"review-platform/internal/validate"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type updateProfileRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Profile retrieved successfully", profile)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}

	var body updateProfileRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	body.Name = strings.TrimSpace(body.Name)

	if body.Email == "" && body.Name == "" {
		httpx.FailMessage(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	if body.Email != "" && !validate.Email(body.Email) {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if body.Name != "" && !validate.Name(body.Name) {
		httpx.FailMessage(w, http.StatusBadRequest, "Name must be at least 2 characters")
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), identity.UserID, body.Email, body.Name)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Profile updated successfully", profile)
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.RequireIdentity(w, r)
	if !ok {
		return
	}

	var body updatePasswordRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	if body.CurrentPassword == "" {
		httpx.FailMessage(w, http.StatusBadRequest, "Current password is required")
		return
	}
	if !validate.Password(body.NewPassword) {
		httpx.FailMessage(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	if err := h.service.UpdatePassword(r.Context(), identity.UserID, body.CurrentPassword, body.NewPassword); err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Password updated successfully", nil)
}

// Ban and Unban are mounted behind the admin role gate.
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.service.Ban(r.Context(), id); err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "User banned successfully", nil)
}

func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := h.service.Unban(r.Context(), id); err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "User unbanned successfully", nil)
}
