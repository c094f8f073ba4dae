// internal/common/utils/response.go

package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Response is the JSON envelope every API handler writes.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondWithJSON writes payload inside the envelope with the given status.
func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	respond(w, status, Response{Success: status < 400, Data: payload})
}

// RespondWithMessage writes a data-less success envelope.
func RespondWithMessage(w http.ResponseWriter, status int, message string) {
	respond(w, status, Response{Success: true, Message: message})
}

// RespondWithError writes an error envelope.
func RespondWithError(w http.ResponseWriter, status int, message string) {
	respond(w, status, Response{Success: false, Error: message})
}

func respond(w http.ResponseWriter, status int, resp Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
