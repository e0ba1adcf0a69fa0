package actor

import (
	"maps"
	"slices"
)

// Enemy status values. These exact strings appear in prompts and saved
// sessions, so they are part of the wire format.
const (
	StatusActive = "ativo"
	StatusDead   = "morto"
)

// Attack is one attack option on an enemy's stat block. Damage is a
// dice formula resolved by pkg/dice when the attack lands.
type Attack struct {
	Name   string `json:"name"`
	Bonus  int    `json:"bonus,omitempty"`
	Damage string `json:"damage"`
	SaveDC int    `json:"save_dc,omitempty"` // 0 means attack roll, not save
}

// Enemy represents a hostile creature in an encounter. Instances are
// spawned from bestiary templates and tracked per session.
type Enemy struct {
	ID          string `json:"id"`
	TemplateID  string `json:"template_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	HP          int `json:"hp"`
	MaxHP       int `json:"max_hp"`
	Defense     int `json:"defense"`
	AttackBonus int `json:"attack_bonus,omitempty"`

	Attributes map[string]int `json:"attributes,omitempty"`
	Attacks    []Attack       `json:"attacks,omitempty"`
	Loot       []string       `json:"loot,omitempty"`
	Boss       bool           `json:"boss,omitempty"`

	Status     string   `json:"status"`
	Conditions []string `json:"conditions,omitempty"`
}

// NewEnemy creates an encounter instance from a bestiary template.
// The instance gets its own ID and full HP; the template is not mutated.
func NewEnemy(template *Enemy, id string) *Enemy {
	if template == nil {
		return nil
	}
	e := *template
	e.ID = id
	e.TemplateID = template.ID
	if e.MaxHP > 0 && e.HP == 0 {
		e.HP = e.MaxHP
	}
	e.Status = StatusActive
	e.Attributes = maps.Clone(template.Attributes)
	e.Attacks = slices.Clone(template.Attacks)
	e.Loot = slices.Clone(template.Loot)
	e.Conditions = slices.Clone(template.Conditions)
	return &e
}

// TakeDamage reduces HP by n, clamped at 0. Reaching 0 marks the enemy
// dead; the status transition is one-way.
func (e *Enemy) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	e.HP -= n
	if e.HP <= 0 {
		e.HP = 0
		e.Status = StatusDead
	}
}

// Heal increases HP by n, clamped at MaxHP. Dead enemies are never
// reanimated: healing a corpse is a no-op.
func (e *Enemy) Heal(n int) {
	if n <= 0 || e.IsDefeated() {
		return
	}
	e.HP += n
	if e.HP > e.MaxHP {
		e.HP = e.MaxHP
	}
}

// IsDefeated returns true once the enemy has been marked dead.
func (e *Enemy) IsDefeated() bool {
	return e.Status == StatusDead || e.HP <= 0
}

// Clone returns a deep copy of the enemy.
func (e *Enemy) Clone() *Enemy {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Attributes = maps.Clone(e.Attributes)
	cp.Attacks = slices.Clone(e.Attacks)
	cp.Loot = slices.Clone(e.Loot)
	cp.Conditions = slices.Clone(e.Conditions)
	return &cp
}
