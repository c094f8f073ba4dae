// internal/premium/routes.go

package premium

import (
	"github.com/gorilla/mux"

	"github.com/moodlyapp/moodly-backend/internal/auth"
)

// RegisterRoutes mounts the premium endpoints under /premium.
func RegisterRoutes(api *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	r := api.PathPrefix("/premium").Subrouter()
	r.Use(authMiddleware.Authenticate)

	r.HandleFunc("/plans", handler.Plans).Methods("GET")
	r.HandleFunc("/subscribe", handler.Subscribe).Methods("POST")
	r.HandleFunc("/subscription", handler.Cancel).Methods("DELETE")
	r.HandleFunc("/entitlement", handler.Entitlement).Methods("GET")
	r.HandleFunc("/payments", handler.Payments).Methods("GET")
	r.HandleFunc("/ghost-mode", handler.GhostMode).Methods("PUT")
}
