package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Batatao343/rpg-ia-master/internal/storage"
	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func TestSessionHandler_Create(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	handler := NewSessionHandler(mockStorage, testLogger())

	reqBody := `{"name":"Kael","class":"Guerreiro","race":"anão"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var gs state.GameState
	if err := json.NewDecoder(rr.Body).Decode(&gs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if gs.ID == uuid.Nil {
		t.Error("Expected a session ID")
	}
	if gs.Player.Name != "Kael" || gs.Player.Class != "guerreiro" || gs.Player.Race != "anão" {
		t.Errorf("Player fields wrong: %+v", gs.Player)
	}
	if gs.Player.HP != 24 || gs.Player.HP != gs.Player.MaxHP {
		t.Errorf("Warrior preset not applied: hp=%d max=%d", gs.Player.HP, gs.Player.MaxHP)
	}
	if !gs.Player.HasItem("espada-curta") {
		t.Errorf("Starting inventory missing: %v", gs.Player.Inventory)
	}
	if gs.World.Location != openingLocation {
		t.Errorf("Expected opening location, got %q", gs.World.Location)
	}
	if len(gs.History) != 1 || gs.History[0].Content == "" {
		t.Errorf("Expected opening narrative in history, got %+v", gs.History)
	}

	// The session must be persisted, not just returned.
	saved, err := mockStorage.LoadGameState(context.Background(), gs.ID)
	if err != nil || saved == nil {
		t.Fatalf("Session was not persisted: %v", err)
	}
}

func TestSessionHandler_CreateUnknownClass(t *testing.T) {
	handler := NewSessionHandler(storage.NewMockStorage(), testLogger())

	reqBody := `{"name":"Pip","class":"bardo"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rr.Code)
	}
	var gs state.GameState
	if err := json.NewDecoder(rr.Body).Decode(&gs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if gs.Player.HP != adventurer.HP {
		t.Errorf("Unknown class should get adventurer baseline, hp=%d", gs.Player.HP)
	}
}

func TestSessionHandler_CreateValidation(t *testing.T) {
	handler := NewSessionHandler(storage.NewMockStorage(), testLogger())

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"class":"mago"}`},
		{"blank name", `{"name":"   "}`},
		{"malformed json", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rr.Code)
			}
		})
	}
}

func TestSessionHandler_ReadAndDelete(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	handler := NewSessionHandler(mockStorage, testLogger())

	gs := state.NewGameState(&actor.PlayerState{Name: "Kael"})
	if err := mockStorage.SaveGameState(context.Background(), gs); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+gs.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+gs.ID.String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+gs.ID.String(), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", rr.Code)
	}
}

func TestSessionHandler_InvalidID(t *testing.T) {
	handler := NewSessionHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestSessionHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSessionHandler(storage.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodPatch, "/v1/sessions", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}
