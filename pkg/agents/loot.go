package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/dice"
	"github.com/Batatao343/rpg-ia-master/pkg/prompts"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

// BossXPMultiplier scales the reward for boss kills.
const BossXPMultiplier = 5

// xpTable holds the total XP required to reach each level; index 0 is
// level 1. Past the table's end there is no further progression.
var xpTable = []int{0, 100, 300, 600, 1000, 1500, 2100, 2800, 3600, 4500}

// XPForEnemy computes the XP award for a defeated enemy.
func XPForEnemy(e *actor.Enemy) int {
	xp := 2 * e.MaxHP
	if e.Boss {
		xp *= BossXPMultiplier
	}
	return xp
}

// GrantXP credits xp to the player and applies any level-ups. Each
// level gained fully heals the player. Returns the number of levels
// gained.
func GrantXP(p *actor.PlayerState, xp int) int {
	if xp <= 0 {
		return 0
	}
	p.XP += xp

	gained := 0
	for p.Level < len(xpTable) && p.XP >= xpTable[p.Level] {
		p.Level++
		gained++
	}
	if gained > 0 {
		p.HP = p.MaxHP
	}
	return gained
}

const lootPersona = `Você é o narrador de recompensas de um RPG de mesa em português.
Descreva em um parágrafo curto o que o jogador encontra ao vasculhar,
incorporando exatamente os ganhos listados. Não invente recompensas extras.`

// Loot settles the aftermath of a victory: XP, level-ups, gold, and
// the defeated enemy's drops. Rewards are computed mechanically first;
// the model only narrates the result it is given.
type Loot struct {
	llm      services.LLMService
	designer *Designer
	roller   *dice.Roller
	logger   *slog.Logger
}

func NewLoot(llm services.LLMService, designer *Designer, roller *dice.Roller, logger *slog.Logger) *Loot {
	return &Loot{llm: llm, designer: designer, roller: roller, logger: logger}
}

// Resolve applies the rewards for the defeated source enemy.
func (l *Loot) Resolve(ctx context.Context, gs *state.GameState, sourceID, input string) *state.TurnDelta {
	ws := state.NewWorkingSet(gs)
	delta := &state.TurnDelta{
		Working:  ws,
		Messages: []chat.Message{chat.User(input)},
	}

	source := findEnemy(ws.Enemies, sourceID)
	if source == nil || !source.IsDefeated() {
		delta.Messages = append(delta.Messages,
			chat.Assistant("Você vasculha os arredores, mas não encontra nada de valor."))
		return delta
	}

	var gains []string

	xp := XPForEnemy(source)
	levels := GrantXP(ws.Player, xp)
	gains = append(gains, fmt.Sprintf("%d XP", xp))
	if levels > 0 {
		gains = append(gains, fmt.Sprintf("subiu para o nível %d (vida totalmente recuperada)", ws.Player.Level))
	}

	gold := l.goldDrop(source)
	if gold > 0 {
		ws.Player.AddGold(gold)
		gains = append(gains, fmt.Sprintf("%d moedas de ouro", gold))
	}

	for _, drop := range source.Loot {
		item := l.designer.DesignItem(ctx, drop)
		ws.Player.AddItem(item.ID)
		gains = append(gains, item.Name)
	}
	source.Loot = nil // drops are claimed once

	delta.Messages = append(delta.Messages, chat.Assistant(l.narrate(ctx, gs, gains)))
	return delta
}

// goldDrop rolls coinage scaled by the enemy's size.
func (l *Loot) goldDrop(e *actor.Enemy) int {
	formula := "2d6"
	if e.Boss {
		formula = "10d10"
	}
	result := l.roller.Resolve(formula, dice.DefaultSaveBonus)

	// The roller reports "Total: N [...]"; parse N back out.
	var gold int
	if _, err := fmt.Sscanf(result, "Total: %d", &gold); err != nil {
		return e.MaxHP // deterministic floor if the format ever changes
	}
	return gold
}

func (l *Loot) narrate(ctx context.Context, gs *state.GameState, gains []string) string {
	summary := "Ganhos: " + strings.Join(gains, ", ")
	system := prompts.New(lootPersona).WithGameState(gs).Build()

	narrative, err := l.llm.Chat(ctx, system, []chat.Message{chat.User(summary)})
	if err != nil || narrative == "" {
		if l.logger != nil {
			l.logger.Warn("loot narration failed, using summary", "error", err)
		}
		return "Entre os restos do combate você recupera: " + strings.Join(gains, ", ") + "."
	}
	return narrative
}

func findEnemy(enemies []*actor.Enemy, id string) *actor.Enemy {
	for _, e := range enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}
