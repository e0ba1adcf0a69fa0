package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/engine"
	"github.com/Batatao343/rpg-ia-master/pkg/prompts"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

const combatPersona = `Você é o mestre de combate de um RPG de mesa em português.
Resolva a ação do jogador mecanicamente e narre o resultado com impacto.
Regras obrigatórias:
1. Sempre chame roll_dice antes de aplicar qualquer dano com update_hp.
2. Use update_hp para todo dano e cura; nunca apenas narre mudanças de HP.
3. Depois da ação do jogador, resolva o contra-ataque dos inimigos ativos.
4. Termine com uma narração curta do estado do combate.`

// Combat resolves hostile turns through the tool-calling engine. When
// the scene has no live enemies yet it asks the designer for the
// target's stat block and spawns an instance before resolution.
type Combat struct {
	engine   *engine.Engine
	designer *Designer
	logger   *slog.Logger
}

func NewCombat(eng *engine.Engine, designer *Designer, logger *slog.Logger) *Combat {
	return &Combat{engine: eng, designer: designer, logger: logger}
}

// Resolve runs one combat turn and returns its delta.
func (c *Combat) Resolve(ctx context.Context, gs *state.GameState, target, input string) *state.TurnDelta {
	// The engine builds its working set from the session it receives,
	// so spawning happens on a copy to keep the original pristine
	// until merge.
	combatGS := gs
	if len(gs.ActiveEnemies()) == 0 && target != "" {
		combatGS = gs.DeepCopy()
		tmpl := c.designer.DesignEnemy(ctx, target)
		inst := actor.NewEnemy(tmpl, fmt.Sprintf("%s-%d", tmpl.ID, len(gs.Enemies)+1))
		combatGS.Enemies = append(combatGS.Enemies, inst)
		if c.logger != nil {
			c.logger.Info("spawned enemy for encounter",
				"session_id", gs.ID.String(), "enemy_id", inst.ID)
		}
	}

	system := prompts.New(combatPersona).
		WithGameState(combatGS).
		WithSection("Capacidade de Combate do Jogador", c.playerCombatProfile(combatGS.Player)).
		Build()

	delta := c.engine.ResolveTurn(ctx, system, combatGS, input)

	c.settle(combatGS, delta, target)
	return delta
}

// playerCombatProfile derives the player's effective melee numbers
// from the runtime sheet so the model grounds its rolls.
func (c *Combat) playerCombatProfile(p *actor.PlayerState) string {
	meleeBonus := p.AttackBonus
	defense := p.Defense

	if sheet, err := p.Sheet(); err == nil {
		if str, ok := sheet.Attribute("strength"); ok {
			meleeBonus += actor.AbilityMod(str)
		}
		defense = sheet.AC()
	} else if c.logger != nil {
		c.logger.Warn("failed to build player sheet", "error", err)
	}

	return fmt.Sprintf("Ataque corpo a corpo: 1d20%+d | Defesa: %d", meleeBonus, defense)
}

// settle decides where the session goes after the exchange: stay in
// combat, or hand the defeated target to the loot agent.
func (c *Combat) settle(gs *state.GameState, delta *state.TurnDelta, target string) {
	if delta.Working == nil {
		return
	}

	if len(delta.Working.ActiveEnemies()) == 0 {
		var lastDown string
		for _, e := range delta.Working.Enemies {
			if e.IsDefeated() {
				lastDown = e.ID
			}
		}
		delta.Route = state.RouteLoot
		delta.LootSource = lastDown
		delta.CombatTarget = ""
		return
	}

	delta.Route = state.RouteCombat
	delta.CombatTarget = target
}
