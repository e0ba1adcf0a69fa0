package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/engine"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

// MockStorage is an in-memory Storage for tests. Sessions round-trip
// through JSON so serialization bugs surface here too.
type MockStorage struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID][]byte
	enemies  map[string]*actor.Enemy
	npcs     map[string]*actor.NPC
	items    map[string]*engine.Item

	// FailAll makes every operation error, for failure-path tests.
	FailAll bool
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID][]byte),
		enemies:  make(map[string]*actor.Enemy),
		npcs:     make(map[string]*actor.NPC),
		items:    make(map[string]*engine.Item),
	}
}

func (m *MockStorage) fail() error {
	if m.FailAll {
		return fmt.Errorf("mock storage failure")
	}
	return nil
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.fail() }
func (m *MockStorage) Close() error                   { return nil }

func (m *MockStorage) SaveGameState(ctx context.Context, gs *state.GameState) error {
	if err := m.fail(); err != nil {
		return err
	}
	data, err := json.Marshal(gs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[gs.ID] = data
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStorage) GetEnemyTemplate(ctx context.Context, slug string) (*actor.Enemy, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enemies[slug], nil
}

func (m *MockStorage) SaveEnemyTemplate(ctx context.Context, tmpl *actor.Enemy) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enemies[tmpl.ID] = tmpl
	return nil
}

func (m *MockStorage) GetNPCTemplate(ctx context.Context, slug string) (*actor.NPC, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.npcs[slug], nil
}

func (m *MockStorage) SaveNPCTemplate(ctx context.Context, tmpl *actor.NPC) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.npcs[tmpl.ID] = tmpl
	return nil
}

func (m *MockStorage) GetItem(ctx context.Context, slug string) (*engine.Item, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[slug], nil
}

func (m *MockStorage) SaveItem(ctx context.Context, item *engine.Item) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}
