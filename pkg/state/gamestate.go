package state

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Batatao343/rpg-ia-master/pkg/actor"
	"github.com/Batatao343/rpg-ia-master/pkg/chat"
)

// Routing destinations produced by the router and recorded on the
// session between turns.
const (
	RouteStoryteller = "storyteller"
	RouteCombat      = "combat"
	RouteNPC         = "npc"
	RouteLoot        = "loot"
	RouteEnd         = "END"
)

// WorldState tracks where the player is and what the world looks like.
type WorldState struct {
	Location  string          `json:"location"`
	TimeOfDay string          `json:"time_of_day,omitempty"`
	Weather   string          `json:"weather,omitempty"`
	Flags     map[string]bool `json:"flags,omitempty"`
	Visited   []string        `json:"visited,omitempty"`
}

// MarkVisited records the current location once.
func (w *WorldState) MarkVisited(location string) {
	if location == "" || slices.Contains(w.Visited, location) {
		return
	}
	w.Visited = append(w.Visited, location)
}

// CampaignPlan is the narrative arc the campaign manager steers toward.
type CampaignPlan struct {
	Theme       string   `json:"theme,omitempty"`
	Beats       []string `json:"beats"` // 3 to 5 story beats
	Climax      string   `json:"climax"`
	CurrentBeat int      `json:"current_beat"`
	PlannedAt   string   `json:"planned_at,omitempty"` // location when planned
	TurnsOld    int      `json:"turns_old"`
	NeedsReplan bool     `json:"needs_replan,omitempty"`
}

// Exhausted reports whether every beat has been played through.
func (p *CampaignPlan) Exhausted() bool {
	return p == nil || p.CurrentBeat >= len(p.Beats)
}

// GameState is the complete persisted record of one game session.
// A session is single-threaded: one turn mutates it at a time.
type GameState struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turn      int       `json:"turn"`

	Player  *actor.PlayerState    `json:"player"`
	Party   []*actor.Companion    `json:"party,omitempty"`
	Enemies []*actor.Enemy        `json:"enemies,omitempty"`
	NPCs    map[string]*actor.NPC `json:"npcs,omitempty"`

	World    WorldState    `json:"world"`
	Campaign *CampaignPlan `json:"campaign,omitempty"`

	History []chat.Message `json:"history"`

	// Routing state carried between turns.
	Next         string `json:"next,omitempty"`
	CombatTarget string `json:"combat_target,omitempty"`
	LootSource   string `json:"loot_source,omitempty"` // enemy ID awaiting loot resolution
	Ended        bool   `json:"ended,omitempty"`
}

// NewGameState creates a fresh session for the given character.
func NewGameState(player *actor.PlayerState) *GameState {
	now := time.Now().UTC()
	return &GameState{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Player:    player,
		NPCs:      make(map[string]*actor.NPC),
		History:   make([]chat.Message, 0),
	}
}

// HistoryTail returns the most recent n messages for prompt context.
func (gs *GameState) HistoryTail(n int) []chat.Message {
	if n <= 0 || len(gs.History) <= n {
		return gs.History
	}
	return gs.History[len(gs.History)-n:]
}

// LastNarrative returns the most recent plain assistant message, or an
// empty string when the session has none yet.
func (gs *GameState) LastNarrative() string {
	for i := len(gs.History) - 1; i >= 0; i-- {
		if gs.History[i].IsNarrative() {
			return gs.History[i].Content
		}
	}
	return ""
}

// ActiveEnemies returns the enemies still standing.
func (gs *GameState) ActiveEnemies() []*actor.Enemy {
	var out []*actor.Enemy
	for _, e := range gs.Enemies {
		if !e.IsDefeated() {
			out = append(out, e)
		}
	}
	return out
}

// NPCsPresent returns the NPCs co-located with the player.
func (gs *GameState) NPCsPresent() []*actor.NPC {
	var out []*actor.NPC
	for _, n := range gs.NPCs {
		if n.IsAt(gs.World.Location) {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b *actor.NPC) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// FindNPC resolves a free-form target name against known NPCs by
// case-insensitive substring match.
func (gs *GameState) FindNPC(target string) *actor.NPC {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return nil
	}
	for _, n := range gs.NPCsPresent() {
		name := strings.ToLower(n.Name)
		if strings.Contains(name, target) || strings.Contains(target, name) {
			return n
		}
	}
	return nil
}

// DeepCopy returns an independent copy of the session. Mutating the
// copy never touches the original.
func (gs *GameState) DeepCopy() *GameState {
	cp := *gs
	cp.Player = gs.Player.Clone()
	cp.Party = make([]*actor.Companion, len(gs.Party))
	for i, c := range gs.Party {
		cp.Party[i] = c.Clone()
	}
	cp.Enemies = make([]*actor.Enemy, len(gs.Enemies))
	for i, e := range gs.Enemies {
		cp.Enemies[i] = e.Clone()
	}
	cp.NPCs = make(map[string]*actor.NPC, len(gs.NPCs))
	for id, n := range gs.NPCs {
		cp.NPCs[id] = n.Clone()
	}
	cp.World.Flags = maps.Clone(gs.World.Flags)
	cp.World.Visited = slices.Clone(gs.World.Visited)
	if gs.Campaign != nil {
		plan := *gs.Campaign
		plan.Beats = slices.Clone(gs.Campaign.Beats)
		cp.Campaign = &plan
	}
	cp.History = slices.Clone(gs.History)
	return &cp
}
