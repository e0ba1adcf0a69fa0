// Package handlers exposes the HTTP surface: session lifecycle,
// turn resolution, and health.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON body for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respond(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respond(w, logger, status, ErrorResponse{Error: message})
}
