package state

import (
	"testing"

	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
)

func testGameState() *GameState {
	gs := NewGameState(&actor.PlayerState{
		Name: "Kael", HP: 20, MaxHP: 20, Gold: 50,
	})
	gs.World.Location = "Taverna do Javali"
	gs.Party = []*actor.Companion{{Name: "Lira", HP: 12, MaxHP: 12, Active: true}}
	gs.Enemies = []*actor.Enemy{
		{ID: "goblin-1", Name: "Goblin", HP: 7, MaxHP: 7, Status: actor.StatusActive},
		{ID: "goblin-2", Name: "Goblin", HP: 0, MaxHP: 7, Status: actor.StatusDead},
	}
	gs.NPCs = map[string]*actor.NPC{
		"borin": {ID: "borin", Name: "Borin", Location: "Taverna do Javali"},
		"mira":  {ID: "mira", Name: "Mira", Location: "Mercado"},
	}
	return gs
}

func TestDeepCopyIsolation(t *testing.T) {
	gs := testGameState()
	gs.History = append(gs.History, chat.User("olá"))

	cp := gs.DeepCopy()
	cp.Player.AdjustHP(-20)
	cp.Enemies[0].TakeDamage(7)
	cp.NPCs["borin"].AdjustRelationship(5)
	cp.History = append(cp.History, chat.Assistant("..."))
	cp.World.Flags = map[string]bool{"porta_aberta": true}

	if gs.Player.HP != 20 {
		t.Errorf("copy mutation leaked into player HP: %d", gs.Player.HP)
	}
	if gs.Enemies[0].IsDefeated() {
		t.Error("copy mutation leaked into enemies")
	}
	if gs.NPCs["borin"].Relationship != 0 {
		t.Error("copy mutation leaked into NPCs")
	}
	if len(gs.History) != 1 {
		t.Errorf("copy mutation leaked into history: %d messages", len(gs.History))
	}
	if gs.World.Flags != nil {
		t.Error("copy mutation leaked into world flags")
	}
}

func TestHistoryTail(t *testing.T) {
	gs := testGameState()
	for i := 0; i < 15; i++ {
		gs.History = append(gs.History, chat.User("msg"))
	}
	if got := len(gs.HistoryTail(10)); got != 10 {
		t.Errorf("expected 10 messages, got %d", got)
	}
	if got := len(gs.HistoryTail(100)); got != 15 {
		t.Errorf("expected full history, got %d", got)
	}
}

func TestActiveEnemies(t *testing.T) {
	gs := testGameState()
	active := gs.ActiveEnemies()
	if len(active) != 1 || active[0].ID != "goblin-1" {
		t.Errorf("expected only goblin-1 active, got %v", active)
	}
}

func TestNPCsPresent(t *testing.T) {
	gs := testGameState()
	present := gs.NPCsPresent()
	if len(present) != 1 || present[0].Name != "Borin" {
		t.Fatalf("expected only Borin present, got %v", present)
	}
}

func TestFindNPC(t *testing.T) {
	gs := testGameState()

	if n := gs.FindNPC("borin"); n == nil || n.Name != "Borin" {
		t.Error("expected substring match on present NPC")
	}
	if n := gs.FindNPC("o ferreiro Borin"); n == nil {
		t.Error("expected match when target contains the NPC name")
	}
	if n := gs.FindNPC("mira"); n != nil {
		t.Error("NPC in another location must not resolve")
	}
	if n := gs.FindNPC(""); n != nil {
		t.Error("empty target must not resolve")
	}
}

func TestLastNarrative(t *testing.T) {
	gs := testGameState()
	if got := gs.LastNarrative(); got != "" {
		t.Errorf("empty history should yield empty narrative, got %q", got)
	}

	gs.History = append(gs.History,
		chat.Assistant("Você entra na taverna."),
		chat.User("ataco o goblin"),
		chat.Message{Role: chat.RoleAssistant, ToolCalls: []chat.ToolCall{{ID: "1", Name: "roll_dice"}}},
	)
	if got := gs.LastNarrative(); got != "Você entra na taverna." {
		t.Errorf("expected last plain assistant message, got %q", got)
	}
}

func TestCampaignExhausted(t *testing.T) {
	var p *CampaignPlan
	if !p.Exhausted() {
		t.Error("nil plan counts as exhausted")
	}
	p = &CampaignPlan{Beats: []string{"a", "b"}, CurrentBeat: 1}
	if p.Exhausted() {
		t.Error("plan with beats remaining is not exhausted")
	}
	p.CurrentBeat = 2
	if !p.Exhausted() {
		t.Error("plan past its last beat is exhausted")
	}
}
