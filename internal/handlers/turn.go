package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Batatao343/rpg-ia-master/internal/worker"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
)

// turnTimeout bounds a whole turn, including every model call the
// agents make along the way.
const turnTimeout = 120 * time.Second

// TurnResolver resolves one player turn against a stored session.
type TurnResolver interface {
	ProcessTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error)
}

type TurnHandler struct {
	resolver TurnResolver
	logger   *slog.Logger
}

func NewTurnHandler(resolver TurnResolver, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{resolver: resolver, logger: logger}
}

// ServeHTTP handles POST /v1/turn.
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint", "method", r.Method)
		respond(w, h.logger, http.StatusMethodNotAllowed,
			chat.TurnResponse{Error: "Method not allowed. Only POST is supported."})
		return
	}

	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		respond(w, h.logger, http.StatusBadRequest,
			chat.TurnResponse{Error: "Invalid request body. Expected JSON with 'session_id' and 'message' fields."})
		return
	}

	if err := req.Validate(); err != nil {
		respond(w, h.logger, http.StatusBadRequest, chat.TurnResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()

	resp, err := h.resolver.ProcessTurn(ctx, req)
	if err != nil {
		if errors.Is(err, worker.ErrSessionNotFound) {
			respond(w, h.logger, http.StatusNotFound,
				chat.TurnResponse{SessionID: req.SessionID, Error: "Session not found"})
			return
		}
		h.logger.Error("Turn processing failed", "error", err, "session_id", req.SessionID.String())
		respond(w, h.logger, http.StatusInternalServerError,
			chat.TurnResponse{SessionID: req.SessionID, Error: "Failed to process turn"})
		return
	}

	respond(w, h.logger, http.StatusOK, resp)
}
