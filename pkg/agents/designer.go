package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/engine"
)

// TemplateStore is the cache the designer consults before generating
// content. A (nil, nil) return means a cache miss.
type TemplateStore interface {
	GetEnemyTemplate(ctx context.Context, slug string) (*actor.Enemy, error)
	SaveEnemyTemplate(ctx context.Context, tmpl *actor.Enemy) error
	GetNPCTemplate(ctx context.Context, slug string) (*actor.NPC, error)
	SaveNPCTemplate(ctx context.Context, tmpl *actor.NPC) error
	GetItem(ctx context.Context, slug string) (*engine.Item, error)
	SaveItem(ctx context.Context, item *engine.Item) error
}

const enemyDesignPrompt = `Você é o designer de bestiário de um RPG de mesa.
Crie uma ficha coerente e equilibrada para a criatura pedida.
Responda somente com JSON:
{"name": "...", "description": "...", "max_hp": 0, "defense": 0, "attack_bonus": 0,
 "attacks": [{"name": "...", "bonus": 0, "damage": "1d6+2"}],
 "loot": ["..."], "boss": false}`

const npcDesignPrompt = `Você é o designer de personagens de um RPG de mesa.
Crie um NPC memorável para o local indicado.
Responda somente com JSON:
{"name": "...", "role": "...", "persona": "...", "description": "..."}`

const itemDesignPrompt = `Você é o designer de itens de um RPG de mesa.
Crie um item coerente com o nome pedido.
Responda somente com JSON:
{"name": "...", "description": "...", "price": 0, "rarity": "comum"}`

// Designer generates bestiary entries, NPCs, and items on demand.
// Generation is check-first: the template cache is consulted before
// the model, and every generated record is cached under its slug.
// Generation never fails outward; a malformed or unavailable model
// yields a hard-coded safe record instead.
type Designer struct {
	llm    services.LLMService
	store  TemplateStore
	logger *slog.Logger
}

func NewDesigner(llm services.LLMService, store TemplateStore, logger *slog.Logger) *Designer {
	return &Designer{llm: llm, store: store, logger: logger}
}

// DesignEnemy returns the bestiary template for the named creature.
func (d *Designer) DesignEnemy(ctx context.Context, name string) *actor.Enemy {
	slug := Slug(name)
	if slug == "" {
		slug = "criatura-desconhecida"
	}

	if d.store != nil {
		if tmpl, err := d.store.GetEnemyTemplate(ctx, slug); err == nil && tmpl != nil {
			return tmpl
		} else if err != nil {
			d.logWarn("enemy template lookup failed", err, slug)
		}
	}

	var gen struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		MaxHP       int            `json:"max_hp"`
		Defense     int            `json:"defense"`
		AttackBonus int            `json:"attack_bonus"`
		Attacks     []actor.Attack `json:"attacks"`
		Loot        []string       `json:"loot"`
		Boss        bool           `json:"boss"`
	}
	err := services.GenerateJSONWithRetry(ctx, d.llm, d.logger, enemyDesignPrompt,
		[]chat.Message{chat.User(fmt.Sprintf("Criatura: %s", name))}, &gen)
	if err != nil || gen.MaxHP <= 0 {
		d.logWarn("enemy generation failed, using fallback", err, slug)
		return d.save(ctx, fallbackEnemy(slug, name))
	}

	tmpl := &actor.Enemy{
		ID:          slug,
		Name:        orDefault(gen.Name, DisplayName(name)),
		Description: gen.Description,
		HP:          gen.MaxHP,
		MaxHP:       gen.MaxHP,
		Defense:     gen.Defense,
		AttackBonus: gen.AttackBonus,
		Attacks:     gen.Attacks,
		Loot:        gen.Loot,
		Boss:        gen.Boss,
		Status:      actor.StatusActive,
	}
	return d.save(ctx, tmpl)
}

// DesignNPC returns the template for an NPC at the given location.
func (d *Designer) DesignNPC(ctx context.Context, name, location string) *actor.NPC {
	slug := Slug(name)
	if slug == "" {
		slug = "desconhecido"
	}

	if d.store != nil {
		if tmpl, err := d.store.GetNPCTemplate(ctx, slug); err == nil && tmpl != nil {
			npc := tmpl.Clone()
			npc.Location = location
			return npc
		} else if err != nil {
			d.logWarn("npc template lookup failed", err, slug)
		}
	}

	var gen struct {
		Name        string `json:"name"`
		Role        string `json:"role"`
		Persona     string `json:"persona"`
		Description string `json:"description"`
	}
	err := services.GenerateJSONWithRetry(ctx, d.llm, d.logger, npcDesignPrompt,
		[]chat.Message{chat.User(fmt.Sprintf("NPC: %s\nLocal: %s", name, location))}, &gen)
	if err != nil || gen.Name == "" {
		d.logWarn("npc generation failed, using fallback", err, slug)
		return d.saveNPC(ctx, fallbackNPC(slug, name, location))
	}

	npc := &actor.NPC{
		ID:           slug,
		Name:         gen.Name,
		Role:         gen.Role,
		Persona:      gen.Persona,
		Description:  gen.Description,
		Location:     location,
		Relationship: actor.RelationshipNeutral,
	}
	return d.saveNPC(ctx, npc)
}

// DesignItem returns the catalog record for the named item.
func (d *Designer) DesignItem(ctx context.Context, name string) *engine.Item {
	slug := Slug(name)
	if slug == "" {
		slug = "item-desconhecido"
	}

	if d.store != nil {
		if item, err := d.store.GetItem(ctx, slug); err == nil && item != nil {
			return item
		} else if err != nil {
			d.logWarn("item lookup failed", err, slug)
		}
	}

	var gen struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       int    `json:"price"`
		Rarity      string `json:"rarity"`
	}
	err := services.GenerateJSONWithRetry(ctx, d.llm, d.logger, itemDesignPrompt,
		[]chat.Message{chat.User(fmt.Sprintf("Item: %s", name))}, &gen)
	if err != nil || gen.Price < 0 {
		d.logWarn("item generation failed, using fallback", err, slug)
		return d.saveItem(ctx, fallbackItem(slug, name))
	}

	item := &engine.Item{
		ID:          slug,
		Name:        orDefault(gen.Name, DisplayName(name)),
		Description: gen.Description,
		Price:       gen.Price,
		Rarity:      orDefault(gen.Rarity, "comum"),
	}
	return d.saveItem(ctx, item)
}

func (d *Designer) save(ctx context.Context, tmpl *actor.Enemy) *actor.Enemy {
	if d.store != nil {
		if err := d.store.SaveEnemyTemplate(ctx, tmpl); err != nil {
			d.logWarn("failed to cache enemy template", err, tmpl.ID)
		}
	}
	return tmpl
}

func (d *Designer) saveNPC(ctx context.Context, npc *actor.NPC) *actor.NPC {
	if d.store != nil {
		if err := d.store.SaveNPCTemplate(ctx, npc); err != nil {
			d.logWarn("failed to cache npc template", err, npc.ID)
		}
	}
	return npc
}

func (d *Designer) saveItem(ctx context.Context, item *engine.Item) *engine.Item {
	if d.store != nil {
		if err := d.store.SaveItem(ctx, item); err != nil {
			d.logWarn("failed to cache item", err, item.ID)
		}
	}
	return item
}

func (d *Designer) logWarn(msg string, err error, slug string) {
	if d.logger != nil {
		d.logger.Warn(msg, "error", err, "slug", slug)
	}
}

// Safe records used when generation is unavailable. They keep the game
// playable, if unremarkable.

func fallbackEnemy(slug, name string) *actor.Enemy {
	return &actor.Enemy{
		ID:      slug,
		Name:    DisplayName(name),
		HP:      10,
		MaxHP:   10,
		Defense: 12,
		Attacks: []actor.Attack{{Name: "Golpe", Bonus: 3, Damage: "1d6+1"}},
		Status:  actor.StatusActive,
	}
}

func fallbackNPC(slug, name, location string) *actor.NPC {
	return &actor.NPC{
		ID:           slug,
		Name:         DisplayName(name),
		Role:         "morador local",
		Persona:      "Pessoa simples e reservada, de poucas palavras.",
		Location:     location,
		Relationship: actor.RelationshipNeutral,
	}
}

func fallbackItem(slug, name string) *engine.Item {
	return &engine.Item{
		ID:     slug,
		Name:   DisplayName(name),
		Price:  5,
		Rarity: "comum",
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
