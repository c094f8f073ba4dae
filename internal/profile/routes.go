// internal/profile/routes.go

package profile

import (
	"github.com/gorilla/mux"

	"github.com/moodlyapp/moodly-backend/internal/auth"
)

// RegisterRoutes mounts the profile endpoints under /profile.
func RegisterRoutes(api *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	r := api.PathPrefix("/profile").Subrouter()
	r.Use(authMiddleware.Authenticate)

	r.HandleFunc("", handler.CreateProfile).Methods("POST")
	r.HandleFunc("", handler.GetOwnProfile).Methods("GET")
	r.HandleFunc("", handler.UpdateProfile).Methods("PUT")
	r.HandleFunc("", handler.Deactivate).Methods("DELETE")
	r.HandleFunc("/reactivate", handler.Reactivate).Methods("POST")

	r.HandleFunc("/location", handler.UpdateLocation).Methods("PUT")
	r.HandleFunc("/mood", handler.SetMood).Methods("PUT")
	r.HandleFunc("/mood", handler.ClearMood).Methods("DELETE")
	r.HandleFunc("/mood/history", handler.GetMoodHistory).Methods("GET")
	r.HandleFunc("/preferences", handler.UpdatePreferences).Methods("PUT")
	r.HandleFunc("/photo", handler.UploadPhoto).Methods("POST")

	r.HandleFunc("/{id:[0-9]+}", handler.GetProfile).Methods("GET")
}
