// Package agents holds the specialist agents a routed turn can land
// on: storyteller, combat, NPC conversation, loot, and the campaign
// manager, plus the content designer they share. Each agent produces a
// state.TurnDelta; none of them writes to the session directly.
package agents

// historyWindow is how many prior messages accompany agent prompts.
const historyWindow = 20
