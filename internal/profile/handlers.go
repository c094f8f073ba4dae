// internal/profile/handlers.go

package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/moodlyapp/moodly-backend/internal/common/utils"
)

type Handler struct {
	service      Service
	maxPhotoSize int64
}

func NewHandler(service Service, maxPhotoSize int64) *Handler {
	return &Handler{service: service, maxPhotoSize: maxPhotoSize}
}

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	p, err := h.service.GetPublic(r.Context(), targetID)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	h.service.TouchLastSeen(r.Context(), viewerID)
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Update(r.Context(), userID, &req)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateLocation(r.Context(), userID, &req); err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "location updated")
}

func (h *Handler) SetMood(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req UpdateMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.SetMood(r.Context(), userID, &req)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) ClearMood(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.service.ClearMood(r.Context(), userID); err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "mood cleared")
}

func (h *Handler) GetMoodHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.MoodHistory(r.Context(), userID, limit)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.UpdatePreferences(r.Context(), userID, &req)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxPhotoSize)
	if err := r.ParseMultipartForm(h.maxPhotoSize); err != nil {
		utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "photo too large")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" && ct != "image/png" && ct != "image/webp" {
		utils.RespondWithError(w, http.StatusBadRequest, "photo must be jpeg, png or webp")
		return
	}

	url, err := h.service.SetPhoto(r.Context(), userID, file, header)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"photo_url": url})
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.service.Deactivate(r.Context(), userID); err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "profile deactivated")
}

func (h *Handler) Reactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.service.Reactivate(r.Context(), userID); err != nil {
		respondProfileError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "profile reactivated")
}

// userIDFrom reads the id placed in the context by the auth middleware.
func userIDFrom(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value("userID").(int64)
	return id, ok
}

func respondProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "profile not found")
	case errors.Is(err, ErrProfileExists):
		utils.RespondWithError(w, http.StatusConflict, "profile already exists")
	case errors.Is(err, ErrInvalidAge),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrUnknownGender),
		errors.Is(err, ErrUnknownInterest),
		errors.Is(err, ErrUnknownMood),
		errors.Is(err, ErrInvalidAgeRange):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case utils.IsValidationError(err):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "something went wrong")
	}
}
