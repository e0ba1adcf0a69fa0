package state

import (
	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
)

// WorkingSet holds the deep copies of combat-relevant entities that a
// turn mutates. The originals stay untouched until the merge worker
// applies the delta, so a failed turn cannot corrupt the session.
type WorkingSet struct {
	Player  *actor.PlayerState
	Party   []*actor.Companion
	Enemies []*actor.Enemy
}

// NewWorkingSet deep-copies the session's mutable entities.
func NewWorkingSet(gs *GameState) *WorkingSet {
	ws := &WorkingSet{
		Player:  gs.Player.Clone(),
		Party:   make([]*actor.Companion, len(gs.Party)),
		Enemies: make([]*actor.Enemy, len(gs.Enemies)),
	}
	for i, c := range gs.Party {
		ws.Party[i] = c.Clone()
	}
	for i, e := range gs.Enemies {
		ws.Enemies[i] = e.Clone()
	}
	return ws
}

// ActiveEnemies returns the working copies still standing.
func (ws *WorkingSet) ActiveEnemies() []*actor.Enemy {
	var out []*actor.Enemy
	for _, e := range ws.Enemies {
		if !e.IsDefeated() {
			out = append(out, e)
		}
	}
	return out
}

// NPCUpdate is a bounded change to one NPC produced by a conversation
// turn. Relationship deltas are clamped and memory is append-only when
// the merge worker applies them.
type NPCUpdate struct {
	ID                string
	RelationshipDelta int
	Memories          []string
}

// TurnDelta is everything one resolved turn wants to change on the
// session: the mutated working copies plus the messages produced after
// the turn started. Fields left zero mean "no change".
type TurnDelta struct {
	Working  *WorkingSet
	Messages []chat.Message

	NPCUpdates []NPCUpdate
	NewNPCs    []*actor.NPC
	NewEnemies []*actor.Enemy

	Route        string
	CombatTarget string
	LootSource   string
	Location     string
	Flags        map[string]bool
	AdvanceBeat  bool
	Ended        bool
}

// IsEmpty reports whether the delta carries no changes at all.
func (d *TurnDelta) IsEmpty() bool {
	return d == nil || (d.Working == nil &&
		len(d.Messages) == 0 &&
		len(d.NPCUpdates) == 0 &&
		len(d.NewNPCs) == 0 &&
		len(d.NewEnemies) == 0 &&
		d.Route == "" &&
		d.Location == "" &&
		len(d.Flags) == 0 &&
		!d.Ended)
}
