package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/prompts"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

const npcPersonaTemplate = `Você interpreta %s, um(a) %s, em um RPG de mesa em português.
Personalidade: %s
Relação com o jogador: %d/10 (0 = hostil, 10 = devotado).
Responda em primeira pessoa, na voz do personagem, em no máximo dois parágrafos.
Mantenha-se fiel ao que o personagem sabe e sente; nunca narre pelo jogador.`

const conversationExtractPrompt = `Avalie a conversa abaixo do ponto de vista do NPC.
Responda somente com JSON:
{"relationship_delta": 0, "memory": "fato curto que o NPC guardará, ou vazio"}
"relationship_delta" entre -2 e 2.`

const npcFallbackReply = "%s olha para você, mas parece distraído(a) demais para responder agora."

// NPCActor plays a co-located NPC in conversation. After each reply it
// scores the exchange, producing a bounded relationship change and at
// most one remembered fact.
type NPCActor struct {
	llm    services.LLMService
	logger *slog.Logger
}

func NewNPCActor(llm services.LLMService, logger *slog.Logger) *NPCActor {
	return &NPCActor{llm: llm, logger: logger}
}

// Converse handles one conversation turn with the given NPC.
func (a *NPCActor) Converse(ctx context.Context, gs *state.GameState, npcID, input string) *state.TurnDelta {
	npc, ok := gs.NPCs[npcID]
	if !ok {
		// The router validates presence, so this is a routing bug.
		if a.logger != nil {
			a.logger.Error("conversation routed to unknown NPC",
				"session_id", gs.ID.String(), "npc_id", npcID)
		}
		return &state.TurnDelta{
			Messages: []chat.Message{
				chat.User(input),
				chat.Assistant("Você olha ao redor, mas não encontra com quem falar."),
			},
		}
	}

	persona := fmt.Sprintf(npcPersonaTemplate, npc.Name, npc.Role, npc.Persona, npc.Relationship)
	system := prompts.New(persona).
		WithGameState(gs).
		WithSection("Memórias do Personagem", strings.Join(npc.Memory, "\n")).
		Build()

	messages := append(gs.HistoryTail(historyWindow), chat.User(input))
	reply, err := a.llm.Chat(ctx, system, messages)
	if err != nil || reply == "" {
		if a.logger != nil {
			a.logger.Error("npc reply failed", "error", err, "npc_id", npcID)
		}
		reply = fmt.Sprintf(npcFallbackReply, npc.Name)
	}

	delta := &state.TurnDelta{
		Messages: []chat.Message{chat.User(input), chat.Assistant(reply)},
		Route:    state.RouteNPC,
	}

	if upd, ok := a.scoreExchange(ctx, npc.Name, input, reply); ok {
		upd.ID = npcID
		delta.NPCUpdates = append(delta.NPCUpdates, upd)
	}
	return delta
}

// scoreExchange is best-effort; a failed extraction changes nothing.
func (a *NPCActor) scoreExchange(ctx context.Context, npcName, input, reply string) (state.NPCUpdate, bool) {
	var outcome struct {
		RelationshipDelta int    `json:"relationship_delta"`
		Memory            string `json:"memory"`
	}
	convo := fmt.Sprintf("Jogador: %s\n%s: %s", input, npcName, reply)
	if err := services.GenerateJSONWithRetry(ctx, a.llm, a.logger, conversationExtractPrompt, []chat.Message{chat.User(convo)}, &outcome); err != nil {
		if a.logger != nil {
			a.logger.Debug("conversation scoring failed", "error", err, "npc", npcName)
		}
		return state.NPCUpdate{}, false
	}

	// The extractor is asked for [-2, 2]; enforce it anyway.
	if outcome.RelationshipDelta > 2 {
		outcome.RelationshipDelta = 2
	}
	if outcome.RelationshipDelta < -2 {
		outcome.RelationshipDelta = -2
	}

	upd := state.NPCUpdate{RelationshipDelta: outcome.RelationshipDelta}
	if outcome.Memory != "" {
		upd.Memories = []string{outcome.Memory}
	}
	return upd, true
}
