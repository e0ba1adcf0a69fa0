package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/engine"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

// Key prefixes. Sessions expire; generated templates are kept, they
// are the accumulated content library.
const (
	sessionKeyPrefix  = "session:"
	bestiaryKeyPrefix = "bestiary:"
	npcKeyPrefix      = "npc:"
	itemKeyPrefix     = "item:"

	sessionTTL = 24 * time.Hour
)

// RedisStorage implements Storage on Redis.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{
		client: redis.NewClient(&redis.Options{Addr: redisURL}),
		logger: logger,
	}
}

// NewRedisStorageWithClient wraps an existing client (used in tests).
func NewRedisStorageWithClient(client *redis.Client, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{client: client, logger: logger}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("failed to close redis connection", "error", err)
		return err
	}
	return nil
}

// WaitForConnection blocks until Redis answers (used during startup).
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	const maxRetries = 30
	const retryDelay = 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err == nil {
			r.logger.Info("redis connection established")
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
		case <-time.After(retryDelay):
		}
	}
	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStorage) SaveGameState(ctx context.Context, gs *state.GameState) error {
	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	key := sessionKeyPrefix + gs.ID.String()
	if err := r.client.Set(ctx, key, data, sessionTTL).Err(); err != nil {
		r.logger.Error("failed to save session", "session_id", gs.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal([]byte(data), &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &gs, nil
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Template caches. All three follow the same shape: JSON blob under a
// prefixed slug key, (nil, nil) on miss.

func (r *RedisStorage) GetEnemyTemplate(ctx context.Context, slug string) (*actor.Enemy, error) {
	var tmpl actor.Enemy
	ok, err := r.getJSON(ctx, bestiaryKeyPrefix+slug, &tmpl)
	if err != nil || !ok {
		return nil, err
	}
	return &tmpl, nil
}

func (r *RedisStorage) SaveEnemyTemplate(ctx context.Context, tmpl *actor.Enemy) error {
	return r.setJSON(ctx, bestiaryKeyPrefix+tmpl.ID, tmpl)
}

func (r *RedisStorage) GetNPCTemplate(ctx context.Context, slug string) (*actor.NPC, error) {
	var tmpl actor.NPC
	ok, err := r.getJSON(ctx, npcKeyPrefix+slug, &tmpl)
	if err != nil || !ok {
		return nil, err
	}
	return &tmpl, nil
}

func (r *RedisStorage) SaveNPCTemplate(ctx context.Context, tmpl *actor.NPC) error {
	return r.setJSON(ctx, npcKeyPrefix+tmpl.ID, tmpl)
}

func (r *RedisStorage) GetItem(ctx context.Context, slug string) (*engine.Item, error) {
	var item engine.Item
	ok, err := r.getJSON(ctx, itemKeyPrefix+slug, &item)
	if err != nil || !ok {
		return nil, err
	}
	return &item, nil
}

func (r *RedisStorage) SaveItem(ctx context.Context, item *engine.Item) error {
	return r.setJSON(ctx, itemKeyPrefix+item.ID, item)
}

func (r *RedisStorage) getJSON(ctx context.Context, key string, out any) (bool, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStorage) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// SeedCatalog inserts the starter item table without overwriting
// entries the designer has already refined.
func (r *RedisStorage) SeedCatalog(ctx context.Context) error {
	for _, item := range starterItems {
		existing, err := r.GetItem(ctx, item.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := r.SaveItem(ctx, item); err != nil {
			return err
		}
	}
	r.logger.Info("item catalog seeded", "items", len(starterItems))
	return nil
}

// starterItems is the common-loot table every fresh deployment gets.
var starterItems = []*engine.Item{
	{ID: "pocao-de-cura", Name: "Poção de Cura", Description: "Restaura 2d4+2 pontos de vida.", Price: 10, Rarity: "comum"},
	{ID: "pocao-de-mana", Name: "Poção de Mana", Description: "Restaura 2d4 pontos de mana.", Price: 12, Rarity: "comum"},
	{ID: "espada-curta", Name: "Espada Curta", Description: "Lâmina simples e confiável. Dano 1d6.", Price: 25, Rarity: "comum"},
	{ID: "escudo-de-madeira", Name: "Escudo de Madeira", Description: "+1 de defesa.", Price: 15, Rarity: "comum"},
	{ID: "adaga-enferrujada", Name: "Adaga Enferrujada", Description: "Melhor que nada. Dano 1d4.", Price: 2, Rarity: "comum"},
	{ID: "corda-de-canamo", Name: "Corda de Cânhamo", Description: "15 metros de corda resistente.", Price: 1, Rarity: "comum"},
	{ID: "tocha", Name: "Tocha", Description: "Ilumina por uma hora.", Price: 1, Rarity: "comum"},
	{ID: "racao-de-viagem", Name: "Ração de Viagem", Description: "Comida para um dia de estrada.", Price: 2, Rarity: "comum"},
}
