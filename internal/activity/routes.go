// internal/activity/routes.go

package activity

import (
	"github.com/gorilla/mux"

	"github.com/moodlyapp/moodly-backend/internal/auth"
)

// RegisterRoutes mounts the activity endpoints under /activities.
// Every route requires authentication.
func RegisterRoutes(api *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	r := api.PathPrefix("/activities").Subrouter()
	r.Use(authMiddleware.Authenticate)

	r.HandleFunc("", handler.Create).Methods("POST")
	r.HandleFunc("/nearby", handler.Nearby).Methods("GET")
	r.HandleFunc("/mine", handler.Mine).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}", handler.Get).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}", handler.Update).Methods("PUT")
	r.HandleFunc("/{id:[0-9]+}", handler.Cancel).Methods("DELETE")
	r.HandleFunc("/{id:[0-9]+}/join", handler.Join).Methods("POST")
	r.HandleFunc("/{id:[0-9]+}/join", handler.Leave).Methods("DELETE")
	r.HandleFunc("/{id:[0-9]+}/members", handler.Members).Methods("GET")
}
