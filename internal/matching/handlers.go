// internal/matching/handlers.go

package matching

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

// Discover handles GET /api/v1/discover. All query parameters are
// optional: radius (meters), age_min, age_max, mood, limit.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	opts, err := parseOptions(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := h.service.FindCandidates(r.Context(), userID, opts)
	if err != nil {
		respondMatchingError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, candidates)
}

// Compatibility handles GET /api/v1/discover/compatibility/{id}.
func (h *Handler) Compatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	otherID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	result, err := h.service.CheckCompatibility(r.Context(), userID, otherID)
	if err != nil {
		respondMatchingError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func parseOptions(r *http.Request) (Options, error) {
	var opts Options
	q := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"radius", &opts.MaxDistanceMeters},
		{"age_min", &opts.AgeMin},
		{"age_max", &opts.AgeMax},
		{"limit", &opts.Limit},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Options{}, utils.NewValidationError("%s must be an integer", p.name)
		}
		*p.dst = &v
	}

	if mood := q.Get("mood"); mood != "" {
		if !profile.ValidMood(mood) {
			return Options{}, utils.NewValidationError("unknown mood %q", mood)
		}
		opts.Mood = &mood
	}

	return opts, nil
}

func respondMatchingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQueryState):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidRange):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStorageUnavailable):
		utils.RespondWithError(w, http.StatusServiceUnavailable, "discovery temporarily unavailable")
	case errors.Is(err, profile.ErrProfileNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "profile not found")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func userIDFrom(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value("userID").(int64)
	return id, ok
}
