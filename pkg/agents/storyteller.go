package agents

import (
	"context"
	"log/slog"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/prompts"
	"github.com/Batatao343/rpg-ia-master/pkg/rag"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

const storytellerPersona = `Você é o narrador de um RPG de mesa em português.
Narre em segunda pessoa, com descrições vívidas e concisas (2 a 4 parágrafos).
Nunca decida ações pelo jogador e nunca revele mecânicas internas do jogo.
Termine cada narração em um ponto que convide o jogador a agir.`

const sceneExtractPrompt = `Extraia da narração abaixo as mudanças de cena.
Responda somente com JSON:
{"location": "novo local ou vazio se não mudou",
 "new_npcs": ["nomes de NPCs apresentados pela primeira vez"],
 "beat_concluded": false}`

const storytellerFallback = "O mundo ao redor parece suspenso por um momento... " +
	"(O narrador está temporariamente indisponível. Tente novamente.)"

// Storyteller handles exploration and story-advancing turns. Besides
// narrating, it extracts scene changes from its own output so the
// session tracks location moves and newly introduced NPCs.
type Storyteller struct {
	llm       services.LLMService
	retriever rag.Retriever
	designer  *Designer
	logger    *slog.Logger
}

func NewStoryteller(llm services.LLMService, retriever rag.Retriever, designer *Designer, logger *slog.Logger) *Storyteller {
	if retriever == nil {
		retriever = rag.Noop{}
	}
	return &Storyteller{llm: llm, retriever: retriever, designer: designer, logger: logger}
}

// Respond narrates one exploration turn and returns its delta.
func (s *Storyteller) Respond(ctx context.Context, gs *state.GameState, input string) *state.TurnDelta {
	lore, err := s.retriever.Query(ctx, input, rag.IndexLore, gs.ID.String())
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("lore retrieval failed", "error", err, "session_id", gs.ID.String())
		}
		lore = ""
	}

	system := prompts.New(storytellerPersona).
		WithGameState(gs).
		WithLore(lore).
		Build()

	messages := append(gs.HistoryTail(historyWindow), chat.User(input))
	narrative, err := s.llm.Chat(ctx, system, messages)
	if err != nil || narrative == "" {
		if s.logger != nil {
			s.logger.Error("storyteller narration failed", "error", err, "session_id", gs.ID.String())
		}
		narrative = storytellerFallback
	}

	delta := &state.TurnDelta{
		Messages: []chat.Message{chat.User(input), chat.Assistant(narrative)},
		Route:    state.RouteStoryteller,
	}
	s.extractScene(ctx, gs, narrative, delta)
	return delta
}

// extractScene asks the backend model what changed in the narration.
// Extraction is best-effort: failures leave the delta as narrative only.
func (s *Storyteller) extractScene(ctx context.Context, gs *state.GameState, narrative string, delta *state.TurnDelta) {
	var scene struct {
		Location      string   `json:"location"`
		NewNPCs       []string `json:"new_npcs"`
		BeatConcluded bool     `json:"beat_concluded"`
	}
	err := services.GenerateJSONWithRetry(ctx, s.llm, s.logger, sceneExtractPrompt, []chat.Message{chat.User(narrative)}, &scene)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("scene extraction failed", "error", err, "session_id", gs.ID.String())
		}
		return
	}

	if scene.Location != "" && scene.Location != gs.World.Location {
		delta.Location = scene.Location
	}
	delta.AdvanceBeat = scene.BeatConcluded

	location := gs.World.Location
	if delta.Location != "" {
		location = delta.Location
	}
	for _, name := range scene.NewNPCs {
		if gs.FindNPC(name) != nil {
			continue
		}
		if npc := s.designer.DesignNPC(ctx, name, location); npc != nil {
			delta.NewNPCs = append(delta.NewNPCs, npc)
		}
	}
}
