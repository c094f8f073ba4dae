// internal/auth/handlers.go

package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/moodlyapp/moodly-backend/internal/common/utils"
	"github.com/moodlyapp/moodly-backend/internal/otp"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Signup handles POST /api/v1/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Signup(r.Context(), &req)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, resp)
}

// Signin handles POST /api/v1/auth/signin
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Signin(r.Context(), &req, r.UserAgent(), clientIP(r))
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GoogleSignin handles POST /api/v1/auth/google
func (h *Handler) GoogleSignin(w http.ResponseWriter, r *http.Request) {
	var req GoogleSigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.GoogleSignin(r.Context(), &req, r.UserAgent(), clientIP(r))
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken, r.UserAgent(), clientIP(r))
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.respondAuthError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Signed out")
}

// Verify handles POST /api/v1/auth/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.VerifyAccount(r.Context(), userID, req.Code); err != nil {
		h.respondAuthError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Account verified")
}

// ResendCode handles POST /api/v1/auth/verify/resend
func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req ResendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ResendCode(r.Context(), userID, req.Channel); err != nil {
		h.respondAuthError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Verification code sent")
}

// RequestPasswordReset handles POST /api/v1/auth/password/forgot
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.respondAuthError(w, err)
		return
	}

	// Always report success so the endpoint cannot be used to probe emails
	utils.RespondWithMessage(w, http.StatusOK, "If the email exists, a reset code was sent")
}

// ConfirmPasswordReset handles POST /api/v1/auth/password/reset
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), &req); err != nil {
		h.respondAuthError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Password updated")
}

// Me handles GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (h *Handler) respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmailTaken):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidRefreshToken), errors.Is(err, ErrInvalidGoogleToken):
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrAccountLocked), errors.Is(err, otp.ErrTooManyAttempts):
		utils.RespondWithError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrUserNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, otp.ErrCodeInvalid), errors.Is(err, otp.ErrCodeExpired):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case utils.IsValidationError(err):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
