package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

func campaignSession() *state.GameState {
	gs := state.NewGameState(&actor.PlayerState{Name: "Kael", Class: "Guerreiro", Level: 1})
	gs.World.Location = "Vilarejo"
	return gs
}

func TestNeedsReplan(t *testing.T) {
	m := NewCampaignManager(services.NewMockLLM(), discardLogger())
	gs := campaignSession()

	if !m.NeedsReplan(gs) {
		t.Error("missing plan needs replan")
	}

	gs.Campaign = &state.CampaignPlan{
		Beats: []string{"a", "b", "c"}, Climax: "x", PlannedAt: "Vilarejo",
	}
	if m.NeedsReplan(gs) {
		t.Error("fresh plan should not replan")
	}

	gs.Campaign.TurnsOld = ReplanAfterTurns
	if !m.NeedsReplan(gs) {
		t.Error("stale plan needs replan")
	}
	gs.Campaign.TurnsOld = 0

	gs.Campaign.CurrentBeat = 3
	if !m.NeedsReplan(gs) {
		t.Error("exhausted plan needs replan")
	}
	gs.Campaign.CurrentBeat = 0

	gs.Campaign.NeedsReplan = true
	if !m.NeedsReplan(gs) {
		t.Error("flagged plan needs replan")
	}
	gs.Campaign.NeedsReplan = false

	gs.World.Location = "Floresta"
	if !m.NeedsReplan(gs) {
		t.Error("location change needs replan")
	}
}

func TestEnsureGeneratesPlan(t *testing.T) {
	llm := jsonLLM(`{"theme": "a mina amaldiçoada",
		"beats": ["rumores", "a entrada", "as profundezas", "o guardião"],
		"climax": "selar a maldição"}`)
	m := NewCampaignManager(llm, discardLogger())

	plan := m.Ensure(context.Background(), campaignSession())
	if plan == nil || len(plan.Beats) != 4 || plan.Climax != "selar a maldição" {
		t.Fatalf("plan wrong: %+v", plan)
	}
	if plan.PlannedAt != "Vilarejo" {
		t.Errorf("plan should record where it was drawn, got %q", plan.PlannedAt)
	}
}

func TestEnsureClampsBeatCount(t *testing.T) {
	llm := jsonLLM(`{"theme": "t", "beats": ["1","2","3","4","5","6","7"], "climax": "c"}`)
	m := NewCampaignManager(llm, discardLogger())

	plan := m.Ensure(context.Background(), campaignSession())
	if len(plan.Beats) != 5 {
		t.Errorf("beats should clamp to 5, got %d", len(plan.Beats))
	}
}

func TestEnsureFallbackOnFailure(t *testing.T) {
	llm := services.NewMockLLM()
	llm.GenerateJSONFunc = func(context.Context, string, []chat.Message, any) error {
		return errors.New("provider down")
	}
	m := NewCampaignManager(llm, discardLogger())

	plan := m.Ensure(context.Background(), campaignSession())
	if plan == nil || len(plan.Beats) < 3 || plan.Climax == "" {
		t.Fatalf("fallback plan must be complete, got %+v", plan)
	}
}

func TestEnsureFallbackOnIncompletePlan(t *testing.T) {
	llm := jsonLLM(`{"theme": "t", "beats": ["só um"], "climax": ""}`)
	m := NewCampaignManager(llm, discardLogger())

	plan := m.Ensure(context.Background(), campaignSession())
	if len(plan.Beats) < 3 {
		t.Errorf("incomplete generation must fall back, got %+v", plan)
	}
}

func TestEnsureKeepsCurrentPlan(t *testing.T) {
	llm := services.NewMockLLM()
	m := NewCampaignManager(llm, discardLogger())

	gs := campaignSession()
	gs.Campaign = &state.CampaignPlan{Beats: []string{"a", "b", "c"}, Climax: "x", PlannedAt: "Vilarejo"}

	plan := m.Ensure(context.Background(), gs)
	if plan != gs.Campaign {
		t.Error("valid plan must be kept as-is")
	}
	if len(llm.GenerateJSONCalls) != 0 {
		t.Error("no replan means no model call")
	}
}
