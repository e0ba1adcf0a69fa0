package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/internal/storage"
	"github.com/Batatao343/rpg-ia-master/pkg/agents"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/dice"
	"github.com/Batatao343/rpg-ia-master/pkg/engine"
	"github.com/Batatao343/rpg-ia-master/pkg/rag"
	"github.com/Batatao343/rpg-ia-master/pkg/router"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

// ErrSessionNotFound is returned when a turn references a session that
// does not exist or has expired.
var ErrSessionNotFound = errors.New("session not found")

// TurnProcessor resolves one player turn end to end: load the session,
// route the input to a specialist agent, merge the agent's delta back
// into the session, and persist. Sessions are single-threaded: turns
// for the same session are serialized with a per-session mutex.
type TurnProcessor struct {
	storage  storage.Storage
	llm      services.LLMService
	roller   *dice.Roller
	router   *router.Router
	campaign *agents.CampaignManager
	story    *agents.Storyteller
	npcs     *agents.NPCActor
	loot     *agents.Loot
	designer *agents.Designer
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewTurnProcessor wires the router and agents around shared services.
func NewTurnProcessor(
	store storage.Storage,
	llm services.LLMService,
	retriever rag.Retriever,
	roller *dice.Roller,
	logger *slog.Logger,
) *TurnProcessor {
	designer := agents.NewDesigner(llm, store, logger)
	return &TurnProcessor{
		storage:  store,
		llm:      llm,
		roller:   roller,
		router:   router.New(llm, logger),
		campaign: agents.NewCampaignManager(llm, logger),
		story:    agents.NewStoryteller(llm, retriever, designer, logger),
		npcs:     agents.NewNPCActor(llm, logger),
		loot:     agents.NewLoot(llm, designer, roller, logger),
		designer: designer,
		logger:   logger,
	}
}

// ProcessTurn resolves a single turn. The only errors it returns are
// infrastructure failures (missing session, storage down); narrative
// problems are absorbed by the agents and surface as fallback text.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	lock := p.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	gs, err := p.storage.LoadGameState(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if gs == nil {
		return nil, ErrSessionNotFound
	}

	gs.Campaign = p.campaign.Ensure(ctx, gs)

	res := p.router.Route(ctx, gs, req.Message)
	p.logger.Debug("turn routed",
		"session_id", gs.ID.String(),
		"route", res.Route,
		"target", res.Target,
		"confidence", res.Confidence)

	delta := p.dispatch(ctx, gs, req.Message, res)

	state.NewMergeWorker(gs, delta, p.logger).Apply()

	if err := p.storage.SaveGameState(ctx, gs); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &chat.TurnResponse{
		SessionID: gs.ID,
		Message:   gs.LastNarrative(),
		Route:     res.Route,
	}, nil
}

// dispatch runs the agent the router selected and returns its delta.
func (p *TurnProcessor) dispatch(ctx context.Context, gs *state.GameState, input string, res router.Result) *state.TurnDelta {
	// Direct replies (clarification, ended adventure) skip the agents.
	if res.Reply != "" {
		return &state.TurnDelta{
			Messages: []chat.Message{chat.User(input), chat.Assistant(res.Reply)},
			Route:    res.Route,
		}
	}

	var delta *state.TurnDelta
	switch res.Route {
	case state.RouteCombat:
		// The combat agent needs an engine bound to this request's
		// context for catalog lookups during tool dispatch.
		eng := engine.New(p.llm, storage.NewCatalog(ctx, p.storage), p.roller, p.logger)
		combat := agents.NewCombat(eng, p.designer, p.logger)
		delta = combat.Resolve(ctx, gs, res.Target, input)

	case state.RouteNPC:
		delta = p.npcs.Converse(ctx, gs, res.Target, input)

	case state.RouteLoot:
		delta = p.loot.Resolve(ctx, gs, res.Target, input)

	default:
		delta = p.story.Respond(ctx, gs, input)
	}

	if res.Marker != nil && delta != nil {
		delta.Messages = append([]chat.Message{*res.Marker}, delta.Messages...)
	}
	return delta
}

// sessionLock returns the mutex serializing turns for one session.
func (p *TurnProcessor) sessionLock(id uuid.UUID) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.locks == nil {
		p.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	lock, ok := p.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[id] = lock
	}
	return lock
}
