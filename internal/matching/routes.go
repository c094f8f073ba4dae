// internal/matching/routes.go

package matching

import (
	"github.com/gorilla/mux"

	"github.com/moodlyapp/moodly-backend/internal/auth"
)

// RegisterRoutes mounts discovery under /discover on the given router.
// Discovery is for verified accounts only.
func RegisterRoutes(api *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	r := api.PathPrefix("/discover").Subrouter()
	r.Use(authMiddleware.Authenticate)
	r.Use(authMiddleware.RequireVerified)

	r.HandleFunc("", handler.Discover).Methods("GET")
	r.HandleFunc("/compatibility/{id:[0-9]+}", handler.Compatibility).Methods("GET")
}
