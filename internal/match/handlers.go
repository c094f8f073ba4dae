// internal/match/handlers.go

package match

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/moodlyapp/moodly-backend/internal/common/utils"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Like handles POST /api/v1/likes/{id}
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	likedID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	result, err := h.service.Like(r.Context(), userID, likedID)
	if err != nil {
		respondMatchError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

// Unlike handles DELETE /api/v1/likes/{id}
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	likedID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	if err := h.service.Unlike(r.Context(), userID, likedID); err != nil {
		respondMatchError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "like removed")
}

// ReceivedLikes handles GET /api/v1/likes/received
func (h *Handler) ReceivedLikes(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	likes, err := h.service.ReceivedLikes(r.Context(), userID, limit)
	if err != nil {
		respondMatchError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, likes)
}

// ListMatches handles GET /api/v1/matches
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	matches, err := h.service.ListMatches(r.Context(), userID)
	if err != nil {
		respondMatchError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, matches)
}

// Unmatch handles DELETE /api/v1/matches/{id}
func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	matchID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	if err := h.service.Unmatch(r.Context(), userID, matchID); err != nil {
		respondMatchError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "unmatched")
}

func respondMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSelfLike):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrLikeQuota):
		utils.RespondWithError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrPremiumRequired):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrMatchNotFound), errors.Is(err, profile.ErrProfileNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotParticipant):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func userIDFrom(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value("userID").(int64)
	return id, ok
}
