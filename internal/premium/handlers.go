// internal/premium/handlers.go

package premium

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moodlyapp/moodly-backend/internal/auth"
	"github.com/moodlyapp/moodly-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Plans handles GET /api/v1/premium/plans
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, h.service.Plans())
}

// Subscribe handles POST /api/v1/premium/subscribe
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.service.Subscribe(r.Context(), userID, req.PlanID)
	if err != nil {
		respondPremiumError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, sub)
}

// Cancel handles DELETE /api/v1/premium/subscription
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.Cancel(r.Context(), userID); err != nil {
		respondPremiumError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Subscription will not renew")
}

// Entitlement handles GET /api/v1/premium/entitlement
func (h *Handler) Entitlement(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ent, err := h.service.Entitlement(r.Context(), userID)
	if err != nil {
		respondPremiumError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, ent)
}

// Payments handles GET /api/v1/premium/payments
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	payments, err := h.service.Payments(r.Context(), userID)
	if err != nil {
		respondPremiumError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, payments)
}

// GhostMode handles PUT /api/v1/premium/ghost-mode
func (h *Handler) GhostMode(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req GhostModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SetGhostMode(r.Context(), userID, req.Enabled); err != nil {
		respondPremiumError(w, err)
		return
	}
	if req.Enabled {
		utils.RespondWithMessage(w, http.StatusOK, "Ghost mode on")
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Ghost mode off")
}

func respondPremiumError(w http.ResponseWriter, err error) {
	switch {
	case err == ErrPlanNotFound:
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case err == ErrAlreadySubscribed:
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case err == ErrNoSubscription:
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrPaymentFailed):
		utils.RespondWithError(w, http.StatusPaymentRequired, "Payment failed")
	case err == ErrPremiumRequired:
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case utils.IsValidationError(err):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
