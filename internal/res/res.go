// Package res writes JSON responses.
package res

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// MessageBody is the JSON shape of responses that carry only a message.
type MessageBody struct {
	Message string `json:"message"`
}

func Json(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, msg string, statusCode int) {
	Json(w, ErrorBody{Error: msg}, statusCode)
}

func ErrorDetails(w http.ResponseWriter, msg, details string, statusCode int) {
	Json(w, ErrorBody{Error: msg, Details: details}, statusCode)
}

func Message(w http.ResponseWriter, msg string, statusCode int) {
	Json(w, MessageBody{Message: msg}, statusCode)
}
