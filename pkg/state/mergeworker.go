package state

import (
	"log/slog"
	"time"

	"github.com/Batatao343/rpg-ia-master/pkg/actor"
)

// MergeWorker applies a TurnDelta back onto the authoritative session.
// It is the single write path into a GameState after a turn: it
// re-clamps every HP and resource value, refuses to reanimate the
// dead, and appends history without ever reordering or dropping
// messages. Fields the delta does not mention are left intact.
type MergeWorker struct {
	gs     *GameState
	delta  *TurnDelta
	logger *slog.Logger
}

// NewMergeWorker creates a merge worker for one resolved turn.
func NewMergeWorker(gs *GameState, delta *TurnDelta, logger *slog.Logger) *MergeWorker {
	return &MergeWorker{gs: gs, delta: delta, logger: logger}
}

// Apply merges the delta into the session and advances the turn
// counter. It never fails: suspect values are clamped or dropped and
// logged instead.
func (mw *MergeWorker) Apply() {
	if mw.delta == nil {
		return
	}
	mw.applyActors()
	mw.applyIntroductions()
	mw.appendHistory()
	mw.applyWorld()
	mw.applyRouting()

	mw.gs.Turn++
	mw.gs.UpdatedAt = time.Now().UTC()
}

func (mw *MergeWorker) applyActors() {
	ws := mw.delta.Working
	if ws == nil {
		return
	}

	if ws.Player != nil {
		clampPlayer(ws.Player)
		mw.gs.Player = ws.Player
	}

	if ws.Party != nil {
		mw.gs.Party = mw.mergeParty(ws.Party)
	}
	if ws.Enemies != nil {
		mw.gs.Enemies = mw.mergeEnemies(ws.Enemies)
	}
}

func (mw *MergeWorker) mergeParty(working []*actor.Companion) []*actor.Companion {
	byName := make(map[string]*actor.Companion, len(mw.gs.Party))
	for _, c := range mw.gs.Party {
		byName[c.Name] = c
	}

	merged := make([]*actor.Companion, 0, len(working))
	for _, wc := range working {
		clampCompanion(wc)
		merged = append(merged, wc)
		delete(byName, wc.Name)
	}
	// Companions absent from the working set survive unchanged.
	for _, c := range mw.gs.Party {
		if _, kept := byName[c.Name]; kept {
			merged = append(merged, c)
		}
	}
	return merged
}

func (mw *MergeWorker) mergeEnemies(working []*actor.Enemy) []*actor.Enemy {
	original := make(map[string]*actor.Enemy, len(mw.gs.Enemies))
	for _, e := range mw.gs.Enemies {
		original[e.ID] = e
	}

	merged := make([]*actor.Enemy, 0, len(working))
	for _, we := range working {
		clampEnemy(we)

		// Death is one-way. A delta claiming a previously dead enemy
		// is alive again is a model hallucination; keep the corpse.
		if prev, ok := original[we.ID]; ok && prev.IsDefeated() && !we.IsDefeated() {
			if mw.logger != nil {
				mw.logger.Warn("refusing to reanimate dead enemy",
					"session_id", mw.gs.ID.String(),
					"enemy_id", we.ID)
			}
			merged = append(merged, prev)
			delete(original, we.ID)
			continue
		}
		merged = append(merged, we)
		delete(original, we.ID)
	}
	// Enemies absent from the working set survive unchanged.
	for _, e := range mw.gs.Enemies {
		if _, kept := original[e.ID]; kept {
			merged = append(merged, e)
		}
	}
	return merged
}

// applyIntroductions merges newly designed NPCs and enemies, then
// applies NPC conversation outcomes. The actor methods enforce the
// bounds: relationship stays in range and memory only grows.
func (mw *MergeWorker) applyIntroductions() {
	for _, n := range mw.delta.NewNPCs {
		if n == nil || n.ID == "" {
			continue
		}
		if _, exists := mw.gs.NPCs[n.ID]; exists {
			continue
		}
		if mw.gs.NPCs == nil {
			mw.gs.NPCs = make(map[string]*actor.NPC)
		}
		mw.gs.NPCs[n.ID] = n
	}

	for _, e := range mw.delta.NewEnemies {
		if e != nil && e.ID != "" {
			mw.gs.Enemies = append(mw.gs.Enemies, e)
		}
	}

	for _, upd := range mw.delta.NPCUpdates {
		npc, ok := mw.gs.NPCs[upd.ID]
		if !ok {
			if mw.logger != nil {
				mw.logger.Warn("dropping update for unknown NPC",
					"session_id", mw.gs.ID.String(), "npc_id", upd.ID)
			}
			continue
		}
		npc.AdjustRelationship(upd.RelationshipDelta)
		for _, fact := range upd.Memories {
			npc.Remember(fact)
		}
	}
}

func (mw *MergeWorker) appendHistory() {
	mw.gs.History = append(mw.gs.History, mw.delta.Messages...)
}

func (mw *MergeWorker) applyWorld() {
	if mw.delta.Location != "" && mw.delta.Location != mw.gs.World.Location {
		mw.gs.World.Location = mw.delta.Location
		mw.gs.World.MarkVisited(mw.delta.Location)
	}
	for k, v := range mw.delta.Flags {
		if mw.gs.World.Flags == nil {
			mw.gs.World.Flags = make(map[string]bool)
		}
		mw.gs.World.Flags[k] = v
	}
	if mw.gs.Campaign != nil {
		mw.gs.Campaign.TurnsOld++
		if mw.delta.AdvanceBeat {
			mw.gs.Campaign.CurrentBeat++
		}
	}
}

func (mw *MergeWorker) applyRouting() {
	mw.gs.Next = mw.delta.Route
	mw.gs.CombatTarget = mw.delta.CombatTarget
	mw.gs.LootSource = mw.delta.LootSource
	if mw.delta.Ended {
		mw.gs.Ended = true
	}

	// A dead player ends the session, whatever route the turn took.
	if mw.gs.Player != nil && mw.gs.Player.IsDead() && !mw.gs.Ended {
		mw.gs.Ended = true
		if mw.logger != nil {
			mw.logger.Info("session ended, player has fallen",
				"session_id", mw.gs.ID.String(), "turn", mw.gs.Turn)
		}
	}
}

func clampPlayer(p *actor.PlayerState) {
	p.AdjustHP(0)
	p.AdjustMana(0)
	p.AdjustStamina(0)
	if p.Gold < 0 {
		p.Gold = 0
	}
}

func clampCompanion(c *actor.Companion) {
	if c.HP < 0 {
		c.HP = 0
	}
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	if c.HP == 0 {
		c.Active = false
	}
}

func clampEnemy(e *actor.Enemy) {
	if e.HP < 0 {
		e.HP = 0
	}
	if e.HP > e.MaxHP {
		e.HP = e.MaxHP
	}
	if e.HP == 0 {
		e.Status = actor.StatusDead
	}
}
