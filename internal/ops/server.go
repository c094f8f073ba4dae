// internal/ops/server.go

// Package ops is the private operational surface: health and readiness
// probes, Prometheus metrics, and token-guarded moderation endpoints.
// It listens on its own port and is never exposed publicly.
package ops

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/moodlyapp/moodly-backend/internal/common/utils"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

// Probes holds the backends the readiness check pings. Nil entries are
// skipped, matching whatever the deployment actually runs.
type Probes struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Mongo *mongo.Client
}

// NewRouter builds the ops router. internalToken guards the moderation
// endpoints; an empty token disables them.
func NewRouter(probes Probes, profiles profile.Service, internalToken string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Get("/ready", handleReady(probes))
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/internal", func(r chi.Router) {
		r.Use(requireInternalToken(internalToken))
		r.Post("/users/{id}/ban", handleSetBanned(profiles, true))
		r.Delete("/users/{id}/ban", handleSetBanned(profiles, false))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(probes Probes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true

		if probes.DB != nil {
			if err := probes.DB.PingContext(ctx); err != nil {
				checks["postgres"] = err.Error()
				ready = false
			} else {
				checks["postgres"] = "ok"
			}
		}
		if probes.Redis != nil {
			if err := probes.Redis.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				ready = false
			} else {
				checks["redis"] = "ok"
			}
		}
		if probes.Mongo != nil {
			if err := probes.Mongo.Ping(ctx, readpref.Primary()); err != nil {
				checks["mongo"] = err.Error()
				ready = false
			} else {
				checks["mongo"] = "ok"
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		utils.RespondWithJSON(w, status, checks)
	}
}

func requireInternalToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				utils.RespondWithError(w, http.StatusForbidden, "Internal endpoints disabled")
				return
			}
			got := r.Header.Get("X-Internal-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid internal token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleSetBanned(profiles profile.Service, banned bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		if err := profiles.SetBanned(r.Context(), userID, banned); err != nil {
			if err == profile.ErrProfileNotFound {
				utils.RespondWithError(w, http.StatusNotFound, err.Error())
				return
			}
			utils.RespondWithError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}

		logrus.WithFields(logrus.Fields{"user_id": userID, "banned": banned}).Info("moderation flag updated")
		if banned {
			utils.RespondWithMessage(w, http.StatusOK, "User banned")
			return
		}
		utils.RespondWithMessage(w, http.StatusOK, "User unbanned")
	}
}
