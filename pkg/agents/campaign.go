package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

// ReplanAfterTurns forces a fresh campaign plan after this many turns,
// keeping the arc responsive to how the session actually went.
const ReplanAfterTurns = 10

const campaignPrompt = `Você é o planejador de campanha de um RPG de mesa em português.
Com base no estado da sessão, proponha um arco narrativo curto.
Responda somente com JSON:
{"theme": "...", "beats": ["3 a 5 momentos da história, em ordem"], "climax": "..."}`

// CampaignManager keeps every session holding a usable narrative plan.
// It replans when the plan is missing, stale, exhausted, flagged, or
// when the player has moved on from where it was drawn up.
type CampaignManager struct {
	llm    services.LLMService
	logger *slog.Logger
}

func NewCampaignManager(llm services.LLMService, logger *slog.Logger) *CampaignManager {
	return &CampaignManager{llm: llm, logger: logger}
}

// NeedsReplan reports whether the session's plan should be redrawn.
func (m *CampaignManager) NeedsReplan(gs *state.GameState) bool {
	plan := gs.Campaign
	switch {
	case plan == nil:
		return true
	case plan.NeedsReplan:
		return true
	case plan.Exhausted():
		return true
	case plan.TurnsOld >= ReplanAfterTurns:
		return true
	case plan.PlannedAt != "" && plan.PlannedAt != gs.World.Location:
		return true
	}
	return false
}

// Ensure returns the session's plan, replanning first if needed. The
// caller assigns the result to the session; plans are meta-state and
// do not travel through turn deltas.
func (m *CampaignManager) Ensure(ctx context.Context, gs *state.GameState) *state.CampaignPlan {
	if !m.NeedsReplan(gs) {
		return gs.Campaign
	}

	plan, err := m.replan(ctx, gs)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("campaign replan failed, using fallback plan",
				"error", err, "session_id", gs.ID.String())
		}
		plan = fallbackPlan(gs)
	}
	if m.logger != nil {
		m.logger.Info("campaign plan drawn up",
			"session_id", gs.ID.String(), "beats", len(plan.Beats), "theme", plan.Theme)
	}
	return plan
}

func (m *CampaignManager) replan(ctx context.Context, gs *state.GameState) (*state.CampaignPlan, error) {
	summary := fmt.Sprintf("Jogador: %s, %s nível %d.\nLocal atual: %s.\nÚltima cena: %s",
		gs.Player.Name, gs.Player.Class, gs.Player.Level, gs.World.Location, gs.LastNarrative())

	var gen struct {
		Theme  string   `json:"theme"`
		Beats  []string `json:"beats"`
		Climax string   `json:"climax"`
	}
	if err := services.GenerateJSONWithRetry(ctx, m.llm, m.logger, campaignPrompt, []chat.Message{chat.User(summary)}, &gen); err != nil {
		return nil, err
	}
	if len(gen.Beats) < 3 || gen.Climax == "" {
		return nil, fmt.Errorf("incomplete plan: %d beats, climax %q", len(gen.Beats), gen.Climax)
	}
	if len(gen.Beats) > 5 {
		gen.Beats = gen.Beats[:5]
	}

	return &state.CampaignPlan{
		Theme:     gen.Theme,
		Beats:     gen.Beats,
		Climax:    gen.Climax,
		PlannedAt: gs.World.Location,
	}, nil
}

// fallbackPlan is the deterministic arc used when planning is
// unavailable. Generic on purpose: it fits any scene.
func fallbackPlan(gs *state.GameState) *state.CampaignPlan {
	return &state.CampaignPlan{
		Theme: "uma ameaça ronda a região",
		Beats: []string{
			"rumores de perigo chegam até o jogador",
			"uma pista concreta aponta o caminho",
			"um confronto revela a verdadeira ameaça",
		},
		Climax:    "enfrentar a origem da ameaça",
		PlannedAt: gs.World.Location,
	}
}
