package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/internal/storage"
	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/dice"
	"github.com/Batatao343/rpg-ia-master/pkg/router"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProcessor(store storage.Storage, llm services.LLMService) *TurnProcessor {
	return NewTurnProcessor(store, llm, nil, dice.NewRoller(1), testLogger())
}

// seedSession stores a mid-adventure session with one live goblin.
func seedSession(t *testing.T, store storage.Storage) *state.GameState {
	t.Helper()

	gs := state.NewGameState(&actor.PlayerState{
		Name: "Kael", Class: "guerreiro", Level: 1,
		HP: 20, MaxHP: 20, Gold: 5,
		Defense: 14, AttackBonus: 2,
		Stats: actor.Stats{Strength: 16, Dexterity: 12, Constitution: 14, Intelligence: 10, Wisdom: 10, Charisma: 10},
	})
	gs.World.Location = "Floresta Sombria"
	gs.Campaign = &state.CampaignPlan{
		Theme:     "goblins na estrada",
		Beats:     []string{"emboscada", "rastro", "covil"},
		Climax:    "o chefe goblin",
		PlannedAt: "Floresta Sombria",
	}
	gs.Enemies = []*actor.Enemy{{
		ID: "goblin-1", Name: "Goblin", HP: 7, MaxHP: 7,
		Defense: 13, Status: actor.StatusActive,
		Loot: []string{"Adaga Enferrujada"},
	}}
	gs.History = append(gs.History,
		chat.User("sigo pela estrada"),
		chat.Assistant("Um goblin salta do mato, adaga em punho!"))

	if err := store.SaveGameState(context.Background(), gs); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return gs
}

// TestProcessTurnGoblinFight drives a full combat-then-loot sequence
// through the processor and checks the persisted session after each
// turn.
func TestProcessTurnGoblinFight(t *testing.T) {
	store := storage.NewMockStorage()
	gs := seedSession(t, store)
	ctx := context.Background()

	round := 0
	llm := &services.MockLLM{
		ChatWithToolsFunc: func(ctx context.Context, system string, messages []chat.Message, tools []services.ToolDefinition) (chat.Message, error) {
			round++
			if round == 1 {
				return chat.Message{
					Role: chat.RoleAssistant,
					ToolCalls: []chat.ToolCall{
						{ID: "c1", Name: "roll_dice", Args: json.RawMessage(`{"formula":"1d20+5"}`)},
						{ID: "c2", Name: "update_hp", Args: json.RawMessage(`{"target":"goblin-1","amount":-7}`)},
					},
				}, nil
			}
			return chat.Assistant("Sua lâmina atravessa o goblin, que tomba sem vida."), nil
		},
		ChatFunc: func(ctx context.Context, system string, messages []chat.Message) (string, error) {
			return "Você recolhe a adaga e algumas moedas dos restos do goblin.", nil
		},
	}
	p := newProcessor(store, llm)

	// Turn 1: attack. The live goblin forces the combat route.
	resp, err := p.ProcessTurn(ctx, chat.TurnRequest{SessionID: gs.ID, Message: "Ataco o goblin com minha espada"})
	if err != nil {
		t.Fatalf("turn 1 failed: %v", err)
	}
	if resp.Route != state.RouteCombat {
		t.Errorf("expected combat route, got %q", resp.Route)
	}
	if resp.Message != "Sua lâmina atravessa o goblin, que tomba sem vida." {
		t.Errorf("unexpected narrative: %q", resp.Message)
	}

	loaded, err := store.LoadGameState(ctx, gs.ID)
	if err != nil || loaded == nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if loaded.Turn != 1 {
		t.Errorf("turn counter = %d, want 1", loaded.Turn)
	}
	if loaded.Enemies[0].Status != actor.StatusDead || loaded.Enemies[0].HP != 0 {
		t.Errorf("goblin should be dead: %+v", loaded.Enemies[0])
	}
	if loaded.Next != state.RouteLoot || loaded.LootSource != "goblin-1" {
		t.Errorf("victory should hand off to loot, got next=%q source=%q", loaded.Next, loaded.LootSource)
	}
	if loaded.CombatTarget != "" {
		t.Errorf("combat target should be cleared, got %q", loaded.CombatTarget)
	}
	last := loaded.History[len(loaded.History)-1]
	if !last.IsNarrative() {
		t.Errorf("history must end on narrative, got %+v", last)
	}

	// Turn 2: search the body. The pending loot source takes the turn.
	resp, err = p.ProcessTurn(ctx, chat.TurnRequest{SessionID: gs.ID, Message: "Vasculho o corpo do goblin"})
	if err != nil {
		t.Fatalf("turn 2 failed: %v", err)
	}
	if resp.Route != state.RouteLoot {
		t.Errorf("expected loot route, got %q", resp.Route)
	}

	loaded, err = store.LoadGameState(ctx, gs.ID)
	if err != nil || loaded == nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if loaded.Turn != 2 {
		t.Errorf("turn counter = %d, want 2", loaded.Turn)
	}
	if loaded.Player.XP != 14 {
		t.Errorf("goblin kill should award 14 XP, got %d", loaded.Player.XP)
	}
	if loaded.Player.Gold <= 5 {
		t.Errorf("gold should have increased, got %d", loaded.Player.Gold)
	}
	if !loaded.Player.HasItem("adaga-enferrujada") {
		t.Errorf("drop missing from inventory: %v", loaded.Player.Inventory)
	}
	if len(loaded.Enemies[0].Loot) != 0 {
		t.Errorf("drops should be claimed once, got %v", loaded.Enemies[0].Loot)
	}
	if loaded.LootSource != "" {
		t.Errorf("loot source should be cleared, got %q", loaded.LootSource)
	}
}

func TestProcessTurnClarification(t *testing.T) {
	store := storage.NewMockStorage()
	gs := seedSession(t, store)
	gs.Enemies = nil // no combat short-circuit
	if err := store.SaveGameState(context.Background(), gs); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}

	llm := &services.MockLLM{
		GenerateJSONFunc: func(ctx context.Context, system string, messages []chat.Message, out any) error {
			if d, ok := out.(*router.Decision); ok {
				*d = router.Decision{Route: state.RouteStoryteller, Confidence: 0.2}
			}
			return nil
		},
	}
	p := newProcessor(store, llm)

	resp, err := p.ProcessTurn(context.Background(), chat.TurnRequest{SessionID: gs.ID, Message: "hmm"})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if resp.Message == "" {
		t.Error("clarification reply should not be empty")
	}

	loaded, _ := store.LoadGameState(context.Background(), gs.ID)
	if loaded.Player.XP != 0 || loaded.Player.Gold != 5 {
		t.Errorf("clarification must not touch the player: %+v", loaded.Player)
	}
	if len(loaded.History) != 4 {
		t.Errorf("expected question and reply appended, history has %d messages", len(loaded.History))
	}
}

// TestProcessTurnLethalBlowEndsSession checks that a turn dropping the
// player to 0 HP terminates the session, and the next turn is refused.
func TestProcessTurnLethalBlowEndsSession(t *testing.T) {
	store := storage.NewMockStorage()
	gs := seedSession(t, store)
	ctx := context.Background()

	round := 0
	llm := &services.MockLLM{
		ChatWithToolsFunc: func(ctx context.Context, system string, messages []chat.Message, tools []services.ToolDefinition) (chat.Message, error) {
			round++
			if round == 1 {
				return chat.Message{
					Role: chat.RoleAssistant,
					ToolCalls: []chat.ToolCall{
						{ID: "c1", Name: "roll_dice", Args: json.RawMessage(`{"formula":"1d20+3"}`)},
						{ID: "c2", Name: "update_hp", Args: json.RawMessage(`{"target":"Kael","amount":-20}`)},
					},
				}, nil
			}
			return chat.Assistant("A adaga do goblin encontra seu coração. Tudo escurece."), nil
		},
	}
	p := newProcessor(store, llm)

	resp, err := p.ProcessTurn(ctx, chat.TurnRequest{SessionID: gs.ID, Message: "Avanço sem defesa"})
	if err != nil {
		t.Fatalf("lethal turn failed: %v", err)
	}
	if resp.Route != state.RouteCombat {
		t.Errorf("expected combat route, got %q", resp.Route)
	}

	loaded, err := store.LoadGameState(ctx, gs.ID)
	if err != nil || loaded == nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if loaded.Player.HP != 0 {
		t.Errorf("player HP = %d, want 0", loaded.Player.HP)
	}
	if !loaded.Ended {
		t.Fatal("session must end when the player falls")
	}

	// The dead do not take turns.
	resp, err = p.ProcessTurn(ctx, chat.TurnRequest{SessionID: gs.ID, Message: "me levanto"})
	if err != nil {
		t.Fatalf("post-death turn failed: %v", err)
	}
	if resp.Route != state.RouteEnd {
		t.Errorf("expected END route after death, got %q", resp.Route)
	}
}

func TestProcessTurnEndedSession(t *testing.T) {
	store := storage.NewMockStorage()
	gs := seedSession(t, store)
	gs.Ended = true
	if err := store.SaveGameState(context.Background(), gs); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}

	p := newProcessor(store, services.NewMockLLM())
	resp, err := p.ProcessTurn(context.Background(), chat.TurnRequest{SessionID: gs.ID, Message: "continuo"})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if resp.Route != state.RouteEnd {
		t.Errorf("expected END route, got %q", resp.Route)
	}

	loaded, _ := store.LoadGameState(context.Background(), gs.ID)
	if !loaded.Ended {
		t.Error("session must stay ended")
	}
}

func TestProcessTurnSessionNotFound(t *testing.T) {
	p := newProcessor(storage.NewMockStorage(), services.NewMockLLM())

	_, err := p.ProcessTurn(context.Background(), chat.TurnRequest{SessionID: uuid.New(), Message: "olá"})
	if err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestProcessTurnStorageFailure(t *testing.T) {
	store := storage.NewMockStorage()
	store.FailAll = true
	p := newProcessor(store, services.NewMockLLM())

	_, err := p.ProcessTurn(context.Background(), chat.TurnRequest{SessionID: uuid.New(), Message: "olá"})
	if err == nil {
		t.Error("expected storage error")
	}
}
