// internal/activity/handlers.go

package activity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/moodlyapp/moodly-backend/internal/auth"
	"github.com/moodlyapp/moodly-backend/internal/common/geo"
	"github.com/moodlyapp/moodly-backend/internal/common/utils"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/v1/activities
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		respondActivityError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, a)
}

// Get handles GET /api/v1/activities/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	a, err := h.service.Get(r.Context(), id, userID)
	if err != nil {
		respondActivityError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, a)
}

// Update handles PUT /api/v1/activities/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Update(r.Context(), id, userID, &req)
	if err != nil {
		respondActivityError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, a)
}

// Cancel handles DELETE /api/v1/activities/{id}
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	if err := h.service.Cancel(r.Context(), id, userID); err != nil {
		respondActivityError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Activity cancelled")
}

// Nearby handles GET /api/v1/activities/nearby
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	q, err := parseNearbyQuery(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	activities, err := h.service.Nearby(r.Context(), userID, *q)
	if err != nil {
		respondActivityError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, activities)
}

// Mine handles GET /api/v1/activities/mine
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	mine, err := h.service.Mine(r.Context(), userID)
	if err != nil {
		respondActivityError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, mine)
}

// Join handles POST /api/v1/activities/{id}/join
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	if err := h.service.Join(r.Context(), id, userID); err != nil {
		respondActivityError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Joined")
}

// Members handles GET /api/v1/activities/{id}/members
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	members, err := h.service.Members(r.Context(), id, userID)
	if err != nil {
		respondActivityError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, members)
}

// Leave handles DELETE /api/v1/activities/{id}/join
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	if err := h.service.Leave(r.Context(), id, userID); err != nil {
		respondActivityError(w, err)
		return
	}
	utils.RespondWithMessage(w, http.StatusOK, "Left activity")
}

func parseNearbyQuery(r *http.Request) (*NearbyQuery, error) {
	q := &NearbyQuery{}
	values := r.URL.Query()

	latStr, lngStr := values.Get("lat"), values.Get("lng")
	if latStr != "" || lngStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, utils.NewValidationError("lat must be a number")
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return nil, utils.NewValidationError("lng must be a number")
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return nil, utils.NewValidationError("lat/lng out of range")
		}
		q.Center = &geo.Point{Lat: lat, Lng: lng}
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"radius", &q.RadiusMeters},
		{"limit", &q.Limit},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, utils.NewValidationError("%s must be an integer", p.name)
		}
		*p.dst = v
	}
	q.Category = values.Get("category")
	return q, nil
}

func respondActivityError(w http.ResponseWriter, err error) {
	switch {
	case err == ErrActivityNotFound || err == profile.ErrProfileNotFound:
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case err == ErrNotHost || err == ErrHostCannotLeave:
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case err == ErrActivityFull || err == ErrActivityClosed:
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case err == ErrUnknownCategory || err == ErrPastStart || err == ErrNoLocation:
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case utils.IsValidationError(err):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
