package actor

import (
	"slices"
	"strings"
)

// Relationship bounds. 0 is hostile, 10 is devoted; new NPCs start neutral.
const (
	RelationshipMin     = 0
	RelationshipMax     = 10
	RelationshipNeutral = 5
)

// NPC is a named non-player character the player can talk to. Memory
// is append-only: facts learned in conversation are never rewritten.
type NPC struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"` // merchant, quest giver, etc.
	Persona     string `json:"persona,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location"`

	Relationship int      `json:"relationship"`
	Memory       []string `json:"memory,omitempty"`
}

// AdjustRelationship applies a signed delta and clamps the result to
// [RelationshipMin, RelationshipMax]. Returns the value after clamping.
func (n *NPC) AdjustRelationship(delta int) int {
	n.Relationship += delta
	if n.Relationship < RelationshipMin {
		n.Relationship = RelationshipMin
	}
	if n.Relationship > RelationshipMax {
		n.Relationship = RelationshipMax
	}
	return n.Relationship
}

// Remember appends a fact to the NPC's memory. Empty and duplicate
// facts are dropped.
func (n *NPC) Remember(fact string) {
	fact = strings.TrimSpace(fact)
	if fact == "" || slices.Contains(n.Memory, fact) {
		return
	}
	n.Memory = append(n.Memory, fact)
}

// IsAt reports whether the NPC is in the given location
// (case-insensitive).
func (n *NPC) IsAt(location string) bool {
	return strings.EqualFold(n.Location, location)
}

// Clone returns a deep copy of the NPC.
func (n *NPC) Clone() *NPC {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Memory = slices.Clone(n.Memory)
	return &cp
}
