package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/engine"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

// Storage is the persistence contract: session state plus the
// generated-content template caches. Lookups return (nil, nil) for
// not-found so callers can distinguish misses from failures.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveGameState(ctx context.Context, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	GetEnemyTemplate(ctx context.Context, slug string) (*actor.Enemy, error)
	SaveEnemyTemplate(ctx context.Context, tmpl *actor.Enemy) error
	GetNPCTemplate(ctx context.Context, slug string) (*actor.NPC, error)
	SaveNPCTemplate(ctx context.Context, tmpl *actor.NPC) error
	GetItem(ctx context.Context, slug string) (*engine.Item, error)
	SaveItem(ctx context.Context, item *engine.Item) error
}

// Catalog adapts a Storage to the engine's synchronous item lookup.
// The context is captured per turn; misses and errors both read as
// "not in catalog", which the dispatcher reports without mutating.
type Catalog struct {
	ctx   context.Context
	store Storage
}

func NewCatalog(ctx context.Context, store Storage) *Catalog {
	return &Catalog{ctx: ctx, store: store}
}

func (c *Catalog) Item(id string) (*engine.Item, bool) {
	item, err := c.store.GetItem(c.ctx, id)
	if err != nil || item == nil {
		return nil, false
	}
	return item, true
}
