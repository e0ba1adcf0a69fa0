package actor

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jwebster45206/d20"
)

// Stats represents the six core ability scores.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// ToAttributes converts Stats to a map for d20.Actor compatibility.
func (s *Stats) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

// AbilityMod returns the ability modifier for a score, rounding down.
func AbilityMod(score int) int {
	diff := score - 10
	if diff >= 0 {
		return diff / 2
	}
	return (diff - 1) / 2
}

// PlayerState is the full serializable record of the player character.
// All HP and resource mutation goes through the Adjust* methods, which
// clamp to [0, max]; nothing else should write those fields.
type PlayerState struct {
	Name  string `json:"name"`
	Class string `json:"class,omitempty"`
	Race  string `json:"race,omitempty"`
	Level int    `json:"level"`
	XP    int    `json:"xp"`

	HP         int `json:"hp"`
	MaxHP      int `json:"max_hp"`
	Mana       int `json:"mana"`
	MaxMana    int `json:"max_mana"`
	Stamina    int `json:"stamina"`
	MaxStamina int `json:"max_stamina"`
	Gold       int `json:"gold"`

	Defense     int `json:"defense"`
	AttackBonus int `json:"attack_bonus"`

	Stats      Stats          `json:"stats"`
	Attributes map[string]int `json:"attributes,omitempty"` // skills, proficiencies, etc.
	Inventory  []string       `json:"inventory,omitempty"`
	Abilities  []string       `json:"abilities,omitempty"`
	Conditions []string       `json:"conditions,omitempty"`
}

// AdjustHP applies a signed delta and clamps the result to [0, MaxHP].
// Returns the HP value after clamping.
func (p *PlayerState) AdjustHP(n int) int {
	p.HP += n
	if p.HP < 0 {
		p.HP = 0
	}
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	return p.HP
}

// AdjustMana applies a signed delta and clamps the result to [0, MaxMana].
func (p *PlayerState) AdjustMana(n int) int {
	p.Mana += n
	if p.Mana < 0 {
		p.Mana = 0
	}
	if p.Mana > p.MaxMana {
		p.Mana = p.MaxMana
	}
	return p.Mana
}

// AdjustStamina applies a signed delta and clamps the result to [0, MaxStamina].
func (p *PlayerState) AdjustStamina(n int) int {
	p.Stamina += n
	if p.Stamina < 0 {
		p.Stamina = 0
	}
	if p.Stamina > p.MaxStamina {
		p.Stamina = p.MaxStamina
	}
	return p.Stamina
}

// SpendGold deducts the amount if the player can afford it.
// Returns false and leaves Gold untouched otherwise.
func (p *PlayerState) SpendGold(n int) bool {
	if n < 0 || p.Gold < n {
		return false
	}
	p.Gold -= n
	return true
}

// AddGold credits the amount, ignoring negative values.
func (p *PlayerState) AddGold(n int) {
	if n > 0 {
		p.Gold += n
	}
}

// IsDead returns true when the player is at 0 HP.
func (p *PlayerState) IsDead() bool {
	return p.HP <= 0
}

// AddItem appends an item ID to the inventory.
func (p *PlayerState) AddItem(id string) {
	p.Inventory = append(p.Inventory, id)
}

// RemoveItem removes the first occurrence of the item ID.
// Returns false if the player does not hold it.
func (p *PlayerState) RemoveItem(id string) bool {
	for i, it := range p.Inventory {
		if it == id {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// HasItem reports whether the item ID is in the inventory.
func (p *PlayerState) HasItem(id string) bool {
	return slices.Contains(p.Inventory, id)
}

// Clone returns a deep copy. Turn resolution mutates a working copy and
// merges it back only after the turn completes.
func (p *PlayerState) Clone() *PlayerState {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Attributes = maps.Clone(p.Attributes)
	cp.Inventory = slices.Clone(p.Inventory)
	cp.Abilities = slices.Clone(p.Abilities)
	cp.Conditions = slices.Clone(p.Conditions)
	return &cp
}

// Sheet builds a d20.Actor from the current state for derived combat
// math (ability lookups, AC). The sheet is ephemeral; state changes are
// not written back through it.
func (p *PlayerState) Sheet() (*d20.Actor, error) {
	allAttrs := p.Stats.ToAttributes()
	maps.Copy(allAttrs, p.Attributes)

	actor, err := d20.NewActor(p.Name).
		WithHP(p.MaxHP).
		WithAC(p.Defense).
		WithAttributes(allAttrs).
		WithCombatModifiers(map[string]int{"attack": p.AttackBonus}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor sheet: %w", err)
	}

	if p.HP != p.MaxHP && p.HP > 0 {
		if err := actor.SetHP(p.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}
