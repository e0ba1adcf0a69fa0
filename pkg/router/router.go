// Package router classifies the player's free-form input into the
// specialist agent that should handle the turn.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

// ConfidenceThreshold is the minimum classifier confidence accepted
// before the router asks the player to clarify instead of guessing.
const ConfidenceThreshold = 0.5

const systemPrompt = `Você é o roteador de um RPG de mesa narrado por IA.
Classifique a ação do jogador em exatamente uma rota:
- "storyteller": exploração, descrição, avanço da história
- "combat": ataque ou ação hostil contra um inimigo
- "npc": conversa com um personagem presente na cena
- "loot": coletar recompensas, abrir baús, vasculhar corpos

Responda somente com JSON:
{"route": "...", "target": "...", "reasoning": "...", "confidence": 0.0}

"target" é o nome do inimigo ou NPC quando houver. "confidence" entre 0 e 1.`

const clarificationText = "Não entendi bem o que você quer fazer. " +
	"Pode descrever sua ação de outra forma?"

// Decision is the structured classification produced by the model.
type Decision struct {
	Route      string  `json:"route"`
	Target     string  `json:"target,omitempty"`
	Reasoning  string  `json:"reasoning,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Result is the post-processed routing outcome. When Reply is set the
// turn is answered directly and no agent runs.
type Result struct {
	Decision
	Reply  string        // direct response ending the turn
	Marker *chat.Message // system marker to append (combat start)
}

// Router wraps the structured classification call plus the validation
// rules that keep the model honest about who is actually in the scene.
type Router struct {
	llm    services.LLMService
	logger *slog.Logger
}

func New(llm services.LLMService, logger *slog.Logger) *Router {
	return &Router{llm: llm, logger: logger}
}

// Route picks the agent for the player's input. It never fails: any
// classification problem falls back to the storyteller, which can
// handle arbitrary input.
func (r *Router) Route(ctx context.Context, gs *state.GameState, input string) Result {
	if gs.Ended {
		return Result{
			Decision: Decision{Route: state.RouteEnd, Confidence: 1},
			Reply:    "A aventura chegou ao fim. Crie uma nova sessão para jogar novamente.",
		}
	}

	// A brand-new session always opens with the storyteller.
	if len(gs.History) == 0 {
		return Result{Decision: Decision{Route: state.RouteStoryteller, Confidence: 1}}
	}

	// Mid-combat turns stay in combat until the field is clear.
	if len(gs.ActiveEnemies()) > 0 {
		return Result{Decision: Decision{Route: state.RouteCombat, Confidence: 1, Target: gs.CombatTarget}}
	}

	// A defeated enemy awaiting loot resolution takes precedence.
	if gs.LootSource != "" {
		return Result{Decision: Decision{Route: state.RouteLoot, Confidence: 1, Target: gs.LootSource}}
	}

	decision, err := r.classify(ctx, gs, input)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("router classification failed, falling back to storyteller",
				"error", err, "session_id", gs.ID.String())
		}
		return Result{Decision: Decision{Route: state.RouteStoryteller}}
	}

	return r.validate(gs, decision)
}

func (r *Router) classify(ctx context.Context, gs *state.GameState, input string) (Decision, error) {
	messages := append(gs.HistoryTail(6), chat.User(input))

	var decision Decision
	if err := services.GenerateJSONWithRetry(ctx, r.llm, r.logger, r.contextPrompt(gs), messages, &decision); err != nil {
		return Decision{}, fmt.Errorf("failed to classify input: %w", err)
	}
	return decision, nil
}

// contextPrompt extends the base prompt with who is actually present,
// so the model grounds its target field in the scene.
func (r *Router) contextPrompt(gs *state.GameState) string {
	sb := strings.Builder{}
	sb.WriteString(systemPrompt)

	if present := gs.NPCsPresent(); len(present) > 0 {
		names := make([]string, len(present))
		for i, n := range present {
			names[i] = n.Name
		}
		sb.WriteString("\n\nNPCs presentes na cena: " + strings.Join(names, ", "))
	} else {
		sb.WriteString("\n\nNão há NPCs presentes na cena.")
	}
	return sb.String()
}

// validate applies the trust rules on top of the raw classification.
func (r *Router) validate(gs *state.GameState, d Decision) Result {
	if d.Confidence < ConfidenceThreshold {
		if r.logger != nil {
			r.logger.Debug("low routing confidence, asking for clarification",
				"confidence", d.Confidence, "route", d.Route)
		}
		return Result{Decision: d, Reply: clarificationText}
	}

	switch d.Route {
	case state.RouteStoryteller, state.RouteLoot:
		return Result{Decision: d}

	case state.RouteNPC:
		// The model may only talk to NPCs who are really here.
		if npc := gs.FindNPC(d.Target); npc != nil {
			d.Target = npc.ID
			return Result{Decision: d}
		}
		if r.logger != nil {
			r.logger.Debug("routed NPC not present, falling back to storyteller",
				"target", d.Target, "location", gs.World.Location)
		}
		d.Route = state.RouteStoryteller
		return Result{Decision: d}

	case state.RouteCombat:
		marker := chat.System(fmt.Sprintf("Combate iniciado. Alvo: %s.", d.Target))
		return Result{Decision: d, Marker: &marker}

	default:
		// Unknown route values degrade to the storyteller.
		d.Route = state.RouteStoryteller
		return Result{Decision: d}
	}
}
