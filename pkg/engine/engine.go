package engine

import (
	"context"
	"log/slog"
	"slices"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/dice"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

const (
	// MaxSteps bounds the tool loop per turn. The model gets this many
	// chances to call tools before the engine forces a narrative close.
	MaxSteps = 8

	// HistoryWindow is how many prior messages accompany the prompt.
	HistoryWindow = 20
)

// fallbackNarrative is returned to the player when the provider is
// unreachable. Game state already mutated this turn is kept.
const fallbackNarrative = "O narrador faz uma pausa, perdido em pensamentos... " +
	"(O serviço de narração está temporariamente indisponível. Tente novamente em instantes.)"

// closeInstruction forces a plain narrative when the step budget runs
// out with tool results still unanswered.
const closeInstruction = "Narre o desfecho das ações acima em um parágrafo. " +
	"Não chame mais ferramentas."

// Engine runs the tool-calling resolution loop for one player action.
// It never returns an error: every failure path degrades to a
// narrative so a turn always ends with something to show the player.
type Engine struct {
	llm      services.LLMService
	catalog  ItemCatalog
	roller   *dice.Roller
	logger   *slog.Logger
	maxSteps int
}

func New(llm services.LLMService, catalog ItemCatalog, roller *dice.Roller, logger *slog.Logger) *Engine {
	return &Engine{
		llm:      llm,
		catalog:  catalog,
		roller:   roller,
		logger:   logger,
		maxSteps: MaxSteps,
	}
}

// ResolveTurn runs the loop: offer tools, execute whatever the model
// calls against working copies, feed results back, and repeat until
// the model answers with plain text or the step budget runs out. The
// returned delta holds the mutated working set plus every message
// produced after the turn started; the caller merges it.
func (e *Engine) ResolveTurn(ctx context.Context, system string, gs *state.GameState, input string) *state.TurnDelta {
	ws := state.NewWorkingSet(gs)
	dispatcher := NewDispatcher(ws, e.catalog, e.roller, e.logger)

	delta := &state.TurnDelta{
		Working:  ws,
		Messages: []chat.Message{chat.User(input)},
	}
	convo := append(slices.Clone(gs.HistoryTail(HistoryWindow)), delta.Messages...)
	tools := ToolDefinitions()

	for step := 0; step < e.maxSteps; step++ {
		msg, err := e.llm.ChatWithTools(ctx, system, convo, tools)
		if err != nil {
			// One tool-free attempt to narrate what happened so far;
			// the canned fallback only goes out if that fails too.
			e.logError("llm call failed mid-turn", err, gs)
			return e.closeTurn(ctx, system, convo, delta)
		}

		convo = append(convo, msg)
		delta.Messages = append(delta.Messages, msg)

		if !msg.HasToolCalls() {
			// Plain text ends the turn. An empty reply still owes the
			// player a narrative.
			if msg.Content == "" {
				return e.closeTurn(ctx, system, convo, delta)
			}
			return delta
		}

		for _, call := range msg.ToolCalls {
			result := dispatcher.Execute(call)
			toolMsg := chat.ToolResult(call.ID, result)
			convo = append(convo, toolMsg)
			delta.Messages = append(delta.Messages, toolMsg)
		}
	}

	// Budget exhausted with tool results pending.
	if e.logger != nil {
		e.logger.Warn("step budget exhausted, forcing narrative close",
			"session_id", gs.ID.String(), "steps", e.maxSteps)
	}
	return e.closeTurn(ctx, system, convo, delta)
}

// closeTurn makes one tool-free call so the turn always ends on
// narrative text. If even that fails, the canned fallback goes out.
func (e *Engine) closeTurn(ctx context.Context, system string, convo []chat.Message, delta *state.TurnDelta) *state.TurnDelta {
	convo = append(convo, chat.System(closeInstruction))
	text, err := e.llm.Chat(ctx, system, convo)
	if err != nil || text == "" {
		if err != nil {
			e.logError("narrative close failed", err, nil)
		}
		text = fallbackNarrative
	}
	delta.Messages = append(delta.Messages, chat.Assistant(text))
	return delta
}

func (e *Engine) logError(msg string, err error, gs *state.GameState) {
	if e.logger == nil {
		return
	}
	if gs != nil {
		e.logger.Error(msg, "error", err, "session_id", gs.ID.String())
		return
	}
	e.logger.Error(msg, "error", err)
}
