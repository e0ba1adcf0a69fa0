package actor

import (
	"maps"
	"slices"
)

// Companion is a party member traveling with the player. Companions do
// not die permanently: at 0 HP they go inactive until healed out of it.
type Companion struct {
	Name        string `json:"name"`
	Class       string `json:"class,omitempty"`
	Description string `json:"description,omitempty"`

	HP     int  `json:"hp"`
	MaxHP  int  `json:"max_hp"`
	Active bool `json:"active"`

	Stats     map[string]int `json:"stats,omitempty"`
	Abilities []string       `json:"abilities,omitempty"`
}

// TakeDamage reduces HP by n, clamped at 0. A companion at 0 HP is
// knocked out of the fight.
func (c *Companion) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	c.HP -= n
	if c.HP <= 0 {
		c.HP = 0
		c.Active = false
	}
}

// Heal increases HP by n, clamped at MaxHP, and brings a downed
// companion back into the party.
func (c *Companion) Heal(n int) {
	if n <= 0 {
		return
	}
	c.HP += n
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	if c.HP > 0 {
		c.Active = true
	}
}

// IsDown returns true while the companion is out of action.
func (c *Companion) IsDown() bool {
	return !c.Active || c.HP <= 0
}

// Clone returns a deep copy of the companion.
func (c *Companion) Clone() *Companion {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Stats = maps.Clone(c.Stats)
	cp.Abilities = slices.Clone(c.Abilities)
	return &cp
}
