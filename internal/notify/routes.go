// internal/notify/routes.go

package notify

import (
	"github.com/gorilla/mux"

	"github.com/moodlyapp/moodly-backend/internal/auth"
)

// RegisterRoutes mounts the notification endpoints, including the
// websocket upgrade, under /notifications.
func RegisterRoutes(api *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	r := api.PathPrefix("/notifications").Subrouter()
	r.Use(authMiddleware.Authenticate)

	r.HandleFunc("/ws", handler.Socket).Methods("GET")
	r.HandleFunc("", handler.List).Methods("GET")
	r.HandleFunc("/read", handler.MarkRead).Methods("POST")
	r.HandleFunc("/read-all", handler.MarkAllRead).Methods("POST")
	r.HandleFunc("/unread-count", handler.UnreadCount).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}", handler.Delete).Methods("DELETE")
	r.HandleFunc("/devices", handler.RegisterDevice).Methods("POST")
	r.HandleFunc("/devices/{token}", handler.RemoveDevice).Methods("DELETE")
}
