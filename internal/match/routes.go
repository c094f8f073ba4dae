// internal/match/routes.go

package match

import (
	"github.com/gorilla/mux"

	"github.com/moodlyapp/moodly-backend/internal/auth"
)

// RegisterRoutes mounts likes and matches on the given router. Both
// surfaces are for verified accounts only.
func RegisterRoutes(api *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	likes := api.PathPrefix("/likes").Subrouter()
	likes.Use(authMiddleware.Authenticate)
	likes.Use(authMiddleware.RequireVerified)
	likes.HandleFunc("/received", handler.ReceivedLikes).Methods("GET")
	likes.HandleFunc("/{id:[0-9]+}", handler.Like).Methods("POST")
	likes.HandleFunc("/{id:[0-9]+}", handler.Unlike).Methods("DELETE")

	matches := api.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware.Authenticate)
	matches.Use(authMiddleware.RequireVerified)
	matches.HandleFunc("", handler.ListMatches).Methods("GET")
	matches.HandleFunc("/{id:[0-9]+}", handler.Unmatch).Methods("DELETE")
}
