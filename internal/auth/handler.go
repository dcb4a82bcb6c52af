package auth

import (
	"net/http"
	"strings"

	"review-platform/internal/httpx"
	"review-platform/internal/validate"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	body.Name = strings.TrimSpace(body.Name)

	if !validate.Email(body.Email) {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if !validate.Password(body.Password) {
		httpx.FailMessage(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	if !validate.Name(body.Name) {
		httpx.FailMessage(w, http.StatusBadRequest, "Name must be at least 2 characters")
		return
	}

	profile, err := h.service.Register(r.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.Created(w, "Registration successful. Please check your email to verify your account.", profile)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if !validate.Email(body.Email) {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if body.Password == "" {
		httpx.FailMessage(w, http.StatusBadRequest, "Password is required")
		return
	}

	result, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Login successful", result)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.RefreshToken = strings.TrimSpace(body.RefreshToken)
	if body.RefreshToken == "" {
		httpx.FailMessage(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	tokens, err := h.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Token refreshed successfully", tokens)
}

// Logout succeeds even when no token row exists.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.RefreshToken = strings.TrimSpace(body.RefreshToken)
	if body.RefreshToken != "" {
		if err := h.service.Logout(r.Context(), body.RefreshToken); err != nil {
			httpx.Fail(w, err)
			return
		}
	}

	httpx.OK(w, "Logout successful", nil)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.Token = strings.TrimSpace(body.Token)
	if body.Token == "" {
		httpx.FailMessage(w, http.StatusBadRequest, "Verification token is required")
		return
	}

	if err := h.service.VerifyEmail(r.Context(), body.Token); err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Email verified successfully", nil)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body forgotPasswordRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if !validate.Email(body.Email) {
		httpx.FailMessage(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	if err := h.service.ForgotPassword(r.Context(), body.Email); err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Password reset email sent", nil)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetPasswordRequest
	if !httpx.DecodeJSON(w, r, &body) {
		return
	}

	body.Token = strings.TrimSpace(body.Token)
	if body.Token == "" {
		httpx.FailMessage(w, http.StatusBadRequest, "Reset token is required")
		return
	}
	if !validate.Password(body.NewPassword) {
		httpx.FailMessage(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	if err := h.service.ResetPassword(r.Context(), body.Token, body.NewPassword); err != nil {
		httpx.Fail(w, err)
		return
	}

	httpx.OK(w, "Password reset successfully", nil)
}
