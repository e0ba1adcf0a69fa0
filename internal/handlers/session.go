package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Batatao343/rpg-ia-master/internal/storage"
	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

const openingLocation = "Taverna do Javali Dourado"

// CreateSessionRequest is the character submitted when starting a new
// adventure. Class picks the starting stat block; unknown classes get
// the adventurer baseline.
type CreateSessionRequest struct {
	Name  string `json:"name"`
	Class string `json:"class,omitempty"`
	Race  string `json:"race,omitempty"`
}

// classPreset is a starting stat block for one character class.
type classPreset struct {
	HP, Mana, Stamina    int
	Defense, AttackBonus int
	Stats                actor.Stats
	Abilities            []string
	Inventory            []string
}

var classPresets = map[string]classPreset{
	"guerreiro": {
		HP: 24, Mana: 4, Stamina: 12, Defense: 15, AttackBonus: 3,
		Stats:     actor.Stats{Strength: 16, Dexterity: 12, Constitution: 14, Intelligence: 8, Wisdom: 10, Charisma: 10},
		Abilities: []string{"golpe-poderoso", "postura-defensiva"},
		Inventory: []string{"espada-curta", "escudo-de-madeira", "pocao-de-cura"},
	},
	"mago": {
		HP: 16, Mana: 14, Stamina: 6, Defense: 11, AttackBonus: 1,
		Stats:     actor.Stats{Strength: 8, Dexterity: 12, Constitution: 10, Intelligence: 16, Wisdom: 13, Charisma: 11},
		Abilities: []string{"misseis-magicos", "escudo-arcano"},
		Inventory: []string{"adaga-enferrujada", "pocao-de-mana", "tocha"},
	},
	"ladino": {
		HP: 18, Mana: 6, Stamina: 12, Defense: 14, AttackBonus: 2,
		Stats:     actor.Stats{Strength: 10, Dexterity: 16, Constitution: 12, Intelligence: 13, Wisdom: 10, Charisma: 14},
		Abilities: []string{"ataque-furtivo", "escapar"},
		Inventory: []string{"adaga-enferrujada", "corda-de-canamo", "pocao-de-cura"},
	},
}

// adventurer is the fallback preset for unrecognized classes.
var adventurer = classPreset{
	HP: 20, Mana: 8, Stamina: 10, Defense: 12, AttackBonus: 2,
	Stats:     actor.Stats{Strength: 12, Dexterity: 12, Constitution: 12, Intelligence: 12, Wisdom: 12, Charisma: 12},
	Inventory: []string{"adaga-enferrujada", "tocha", "racao-de-viagem"},
}

type SessionHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSessionHandler(storage storage.Storage, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{storage: storage, logger: logger}
}

// ServeHTTP handles session lifecycle requests.
// Routes:
// POST /v1/sessions        - Create a new session
// GET /v1/sessions/{id}    - Read session by ID
// DELETE /v1/sessions/{id} - Delete session by ID
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/sessions")
	var sessionID uuid.UUID
	var err error

	if path != "" && path != "/" {
		idStr := strings.Trim(path, "/")
		sessionID, err = uuid.Parse(idStr)
		if err != nil {
			h.logger.Warn("Invalid session ID", "id", idStr, "error", err)
			respondError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)

	case http.MethodGet:
		if sessionID == uuid.Nil {
			respondError(w, h.logger, http.StatusBadRequest, "Session ID is required for GET requests")
			return
		}
		h.handleRead(w, r, sessionID)

	case http.MethodDelete:
		if sessionID == uuid.Nil {
			respondError(w, h.logger, http.StatusBadRequest, "Session ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, sessionID)

	default:
		h.logger.Warn("Method not allowed for sessions endpoint", "method", r.Method)
		respondError(w, h.logger, http.StatusMethodNotAllowed,
			"Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		respondError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, h.logger, http.StatusBadRequest, "name field is required")
		return
	}

	class := strings.ToLower(strings.TrimSpace(req.Class))
	preset, ok := classPresets[class]
	if !ok {
		preset = adventurer
		if class == "" {
			class = "aventureiro"
		}
	}

	race := strings.TrimSpace(req.Race)
	if race == "" {
		race = "humano"
	}

	player := &actor.PlayerState{
		Name:  req.Name,
		Class: class,
		Race:  race,
		Level: 1,

		HP: preset.HP, MaxHP: preset.HP,
		Mana: preset.Mana, MaxMana: preset.Mana,
		Stamina: preset.Stamina, MaxStamina: preset.Stamina,
		Gold: 10,

		Defense:     preset.Defense,
		AttackBonus: preset.AttackBonus,
		Stats:       preset.Stats,
		Abilities:   append([]string(nil), preset.Abilities...),
		Inventory:   append([]string(nil), preset.Inventory...),
	}

	gs := state.NewGameState(player)
	gs.World.Location = openingLocation
	gs.World.MarkVisited(openingLocation)
	gs.History = append(gs.History, chat.Assistant(fmt.Sprintf(
		"%s chega à %s ao cair da tarde. O salão cheira a cerveja e lenha queimada, "+
			"e conversas baixas morrem quando a porta se fecha. O que você faz?",
		player.Name, openingLocation)))

	if err := h.storage.SaveGameState(r.Context(), gs); err != nil {
		h.logger.Error("Failed to save new session", "error", err, "id", gs.ID.String())
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Debug("Session created", "id", gs.ID.String(), "player", player.Name, "class", player.Class)
	respond(w, h.logger, http.StatusCreated, gs)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", sessionID.String())
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if gs == nil {
		respondError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	respond(w, h.logger, http.StatusOK, gs)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	if err := h.storage.DeleteGameState(r.Context(), sessionID); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "id", sessionID.String())
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.logger.Debug("Session deleted", "id", sessionID.String())
	w.WriteHeader(http.StatusNoContent)
}
