package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
	"github.com/Batatao343/rpg-ia-master/pkg/dice"
	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

// Per-tool argument shapes. Decoding is strict: unknown fields fail,
// so a hallucinated payload never reaches game state.
type rollArgs struct {
	Formula string `json:"formula"`
}

type hpArgs struct {
	Target string `json:"target"`
	Amount int    `json:"amount"`
}

type txnArgs struct {
	Action string `json:"action"`
	ItemID string `json:"item_id"`
}

func decodeArgs(raw json.RawMessage, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// Dispatcher executes tool calls against the turn's working set. It is
// the only component allowed to mutate actor state during resolution.
// Every call returns a result string for the model; failures are
// reported in the string and never mutate anything.
type Dispatcher struct {
	ws      *state.WorkingSet
	catalog ItemCatalog
	roller  *dice.Roller
	logger  *slog.Logger

	// rolls performed this turn; damage without a prior roll is refused.
	rolls int
}

// NewDispatcher creates a dispatcher for a single turn. The rolls
// counter starts at zero, so each turn re-earns the right to deal
// damage.
func NewDispatcher(ws *state.WorkingSet, catalog ItemCatalog, roller *dice.Roller, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{ws: ws, catalog: catalog, roller: roller, logger: logger}
}

// Execute runs one tool call and returns the result text.
func (d *Dispatcher) Execute(call chat.ToolCall) string {
	switch call.Name {
	case ToolRollDice:
		return d.rollDice(call.Args)
	case ToolUpdateHP:
		return d.updateHP(call.Args)
	case ToolTransaction:
		return d.transaction(call.Args)
	default:
		return fmt.Sprintf("Unknown tool %q; no changes applied.", call.Name)
	}
}

func (d *Dispatcher) rollDice(raw json.RawMessage) string {
	var args rollArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fmt.Sprintf("roll_dice failed: %v", err)
	}
	d.rolls++
	result := d.roller.Resolve(args.Formula, dice.DefaultSaveBonus)
	if d.logger != nil {
		d.logger.Debug("dice rolled", "formula", args.Formula, "result", result)
	}
	return result
}

func (d *Dispatcher) updateHP(raw json.RawMessage) string {
	var args hpArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fmt.Sprintf("update_hp failed: %v", err)
	}
	if strings.TrimSpace(args.Target) == "" {
		return "update_hp failed: target is required; no changes applied."
	}
	if args.Amount < 0 && d.rolls == 0 {
		return "Damage refused: no dice were rolled this turn. Call roll_dice first, then apply damage based on the result."
	}

	// Target resolution priority: player, then party, then enemies.
	target := strings.ToLower(strings.TrimSpace(args.Target))

	if matchesName(target, "player", d.ws.Player.Name) {
		hp := d.ws.Player.AdjustHP(args.Amount)
		note := ""
		if d.ws.Player.IsDead() {
			note = " The player has fallen."
		}
		return fmt.Sprintf("%s: %d/%d HP.%s", d.ws.Player.Name, hp, d.ws.Player.MaxHP, note)
	}

	for _, c := range d.ws.Party {
		if !matchesName(target, c.Name) {
			continue
		}
		if args.Amount < 0 {
			c.TakeDamage(-args.Amount)
		} else {
			c.Heal(args.Amount)
		}
		note := ""
		if c.IsDown() {
			note = " They are down."
		}
		return fmt.Sprintf("%s: %d/%d HP.%s", c.Name, c.HP, c.MaxHP, note)
	}

	for _, e := range d.ws.Enemies {
		if !matchesName(target, e.Name, e.ID) {
			continue
		}
		if e.IsDefeated() && args.Amount > 0 {
			return fmt.Sprintf("%s is already dead (%s); healing has no effect.", e.Name, actor.StatusDead)
		}
		if args.Amount < 0 {
			e.TakeDamage(-args.Amount)
		} else {
			e.Heal(args.Amount)
		}
		return fmt.Sprintf("%s (%s): %d/%d HP [%s].", e.Name, e.ID, e.HP, e.MaxHP, e.Status)
	}

	return fmt.Sprintf("Target %q not found; no changes applied.", args.Target)
}

func (d *Dispatcher) transaction(raw json.RawMessage) string {
	var args txnArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fmt.Sprintf("transaction failed: %v", err)
	}
	if d.catalog == nil {
		return "transaction failed: no item catalog available; no changes applied."
	}

	item, ok := d.catalog.Item(args.ItemID)
	if !ok {
		return fmt.Sprintf("Item %q not found in catalog; no changes applied.", args.ItemID)
	}

	p := d.ws.Player
	switch args.Action {
	case "buy":
		if !p.SpendGold(item.Price) {
			return fmt.Sprintf("Cannot afford %s (%d gold); the player has %d gold. No changes applied.",
				item.Name, item.Price, p.Gold)
		}
		p.AddItem(item.ID)
		return fmt.Sprintf("Bought %s for %d gold. Gold remaining: %d.", item.Name, item.Price, p.Gold)

	case "sell":
		if !p.RemoveItem(item.ID) {
			return fmt.Sprintf("The player does not carry %q; no changes applied.", args.ItemID)
		}
		p.AddGold(item.Price)
		return fmt.Sprintf("Sold %s for %d gold. Gold now: %d.", item.Name, item.Price, p.Gold)

	default:
		return fmt.Sprintf("Unknown transaction action %q; no changes applied.", args.Action)
	}
}

// matchesName reports whether the lowercased target refers to any of
// the candidate names by case-insensitive substring in either
// direction.
func matchesName(target string, candidates ...string) bool {
	for _, c := range candidates {
		c = strings.ToLower(c)
		if c == "" {
			continue
		}
		if strings.Contains(c, target) || strings.Contains(target, c) {
			return true
		}
	}
	return false
}
