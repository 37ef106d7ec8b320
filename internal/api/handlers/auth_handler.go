package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/smarttodo-be/internal/apperr"
	"github.com/isdelr/smarttodo-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ForgotPasswordMessage is returned whether or not the email has an account.
const ForgotPasswordMessage = "If an account exists for that email, a password reset link has been sent"

// AuthHandler handles HTTP requests for registration, login and password resets.
type AuthHandler struct {
	service services.AuthServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.AuthServiceProvider) *AuthHandler {
	return &AuthHandler{service: service}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordPayload defines the structure for reset requests.
type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

// ResetPasswordPayload carries the new password; the token is in the path.
type ResetPasswordPayload struct {
	NewPassword string `json:"newPassword"`
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			log.Warn().Str("email", payload.Email).Msg("Registration with an existing email")
		}
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Login handles user authentication and JWT generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindAuth) {
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		}
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetMe retrieves the currently authenticated user from the token.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := h.service.CurrentUser(r.Context(), id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			log.Warn().Str("user_id", id).Msg("User from token not found in DB")
		}
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// ForgotPassword mails a reset link. The response does not reveal whether
// the email belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload ForgotPasswordPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	err := h.service.RequestPasswordReset(r.Context(), payload.Email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		respondError(w, r, err)
		return
	}
	if err != nil {
		log.Info().Str("email", payload.Email).Msg("Password reset requested for unknown email")
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: ForgotPasswordMessage})
}

// ResetPassword sets a new password using the token from the reset link.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var payload ResetPasswordPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, payload.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Password has been reset successfully"})
}
