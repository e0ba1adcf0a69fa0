package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

func testSession() *state.GameState {
	gs := state.NewGameState(&actor.PlayerState{Name: "Kael", HP: 20, MaxHP: 20})
	gs.World.Location = "Taverna do Javali"
	gs.NPCs = map[string]*actor.NPC{
		"borin": {ID: "borin", Name: "Borin", Location: "Taverna do Javali"},
	}
	gs.History = append(gs.History, chat.Assistant("Você entra na taverna."))
	return gs
}

// decisionLLM returns a mock whose GenerateJSON fills the given decision.
func decisionLLM(d Decision) *services.MockLLM {
	llm := services.NewMockLLM()
	llm.GenerateJSONFunc = func(_ context.Context, _ string, _ []chat.Message, out any) error {
		raw, _ := json.Marshal(d)
		return json.Unmarshal(raw, out)
	}
	return llm
}

func testRouter(llm services.LLMService) *Router {
	return New(llm, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRouteEmptyHistory(t *testing.T) {
	llm := services.NewMockLLM()
	gs := state.NewGameState(&actor.PlayerState{Name: "Kael"})

	res := testRouter(llm).Route(context.Background(), gs, "olá")
	if res.Route != state.RouteStoryteller {
		t.Errorf("route = %q, want storyteller for fresh session", res.Route)
	}
	if len(llm.GenerateJSONCalls) != 0 {
		t.Error("short-circuit must not call the model")
	}
}

func TestRouteEndedSession(t *testing.T) {
	gs := testSession()
	gs.Ended = true

	res := testRouter(services.NewMockLLM()).Route(context.Background(), gs, "ataco")
	if res.Route != state.RouteEnd || res.Reply == "" {
		t.Errorf("ended session should short-circuit with a reply, got %+v", res)
	}
}

func TestRouteActiveCombatShortCircuit(t *testing.T) {
	llm := services.NewMockLLM()
	gs := testSession()
	gs.Enemies = []*actor.Enemy{{ID: "goblin-1", Name: "Goblin", HP: 5, MaxHP: 7, Status: actor.StatusActive}}
	gs.CombatTarget = "goblin-1"

	res := testRouter(llm).Route(context.Background(), gs, "tento fugir")
	if res.Route != state.RouteCombat || res.Target != "goblin-1" {
		t.Errorf("active combat should route to combat, got %+v", res)
	}
	if len(llm.GenerateJSONCalls) != 0 {
		t.Error("combat short-circuit must not call the model")
	}
}

func TestRoutePendingLoot(t *testing.T) {
	gs := testSession()
	gs.LootSource = "goblin-1"

	res := testRouter(services.NewMockLLM()).Route(context.Background(), gs, "pego as coisas")
	if res.Route != state.RouteLoot || res.Target != "goblin-1" {
		t.Errorf("pending loot should route to loot, got %+v", res)
	}
}

func TestRouteLowConfidence(t *testing.T) {
	llm := decisionLLM(Decision{Route: state.RouteCombat, Confidence: 0.3})

	res := testRouter(llm).Route(context.Background(), testSession(), "faço a coisa")
	if res.Reply == "" {
		t.Error("low confidence should ask for clarification")
	}
	if res.Marker != nil {
		t.Error("clarification must not start combat")
	}
}

func TestRouteNPCPresent(t *testing.T) {
	llm := decisionLLM(Decision{Route: state.RouteNPC, Target: "Borin", Confidence: 0.9})

	res := testRouter(llm).Route(context.Background(), testSession(), "falo com Borin")
	if res.Route != state.RouteNPC {
		t.Fatalf("route = %q, want npc", res.Route)
	}
	if res.Target != "borin" {
		t.Errorf("target should resolve to the NPC ID, got %q", res.Target)
	}
}

func TestRouteNPCAbsent(t *testing.T) {
	llm := decisionLLM(Decision{Route: state.RouteNPC, Target: "Mira", Confidence: 0.9})

	res := testRouter(llm).Route(context.Background(), testSession(), "falo com Mira")
	if res.Route != state.RouteStoryteller {
		t.Errorf("absent NPC must fall back to storyteller, got %q", res.Route)
	}
}

func TestRouteCombatMarker(t *testing.T) {
	llm := decisionLLM(Decision{Route: state.RouteCombat, Target: "goblin", Confidence: 0.95})

	res := testRouter(llm).Route(context.Background(), testSession(), "ataco o goblin")
	if res.Route != state.RouteCombat {
		t.Fatalf("route = %q, want combat", res.Route)
	}
	if res.Marker == nil || res.Marker.Role != chat.RoleSystem {
		t.Errorf("combat should produce a system marker, got %+v", res.Marker)
	}
}

func TestRouteUnknownValue(t *testing.T) {
	llm := decisionLLM(Decision{Route: "dance_party", Confidence: 0.9})

	res := testRouter(llm).Route(context.Background(), testSession(), "danço")
	if res.Route != state.RouteStoryteller {
		t.Errorf("unknown route should degrade to storyteller, got %q", res.Route)
	}
}

func TestRouteProviderFailure(t *testing.T) {
	llm := services.NewMockLLM()
	llm.GenerateJSONFunc = func(context.Context, string, []chat.Message, any) error {
		return errors.New("connection refused")
	}

	res := testRouter(llm).Route(context.Background(), testSession(), "exploro")
	if res.Route != state.RouteStoryteller {
		t.Errorf("provider failure should fall back to storyteller, got %q", res.Route)
	}
	if res.Reply != "" {
		t.Error("fallback must not end the turn")
	}
}
