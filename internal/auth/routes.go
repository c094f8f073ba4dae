// internal/auth/routes.go

package auth

import "github.com/gorilla/mux"

// RegisterRoutes mounts the auth endpoints under /auth on the given router.
func RegisterRoutes(api *mux.Router, handler *Handler, middleware *Middleware) {
	r := api.PathPrefix("/auth").Subrouter()

	r.HandleFunc("/signup", handler.Signup).Methods("POST")
	r.HandleFunc("/signin", handler.Signin).Methods("POST")
	r.HandleFunc("/google", handler.GoogleSignin).Methods("POST")
	r.HandleFunc("/refresh", handler.Refresh).Methods("POST")
	r.HandleFunc("/logout", handler.Logout).Methods("POST")
	r.HandleFunc("/password/forgot", handler.RequestPasswordReset).Methods("POST")
	r.HandleFunc("/password/reset", handler.ConfirmPasswordReset).Methods("POST")

	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.Authenticate)
	protected.HandleFunc("/me", handler.Me).Methods("GET")
	protected.HandleFunc("/verify", handler.Verify).Methods("POST")
	protected.HandleFunc("/verify/resend", handler.ResendCode).Methods("POST")
}
