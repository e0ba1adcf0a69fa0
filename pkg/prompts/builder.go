// Package prompts assembles system prompts for the specialist agents.
// Each agent supplies its persona; the builder layers the session
// context (character sheet, scene, combatants, campaign beat) on top
// in a fixed order so prompts stay stable across turns.
package prompts

import (
	"fmt"
	"strings"

	"github.com/Batatao343/rpg-ia-master/pkg/state"
)

// Builder constructs an agent system prompt using a fluent interface.
type Builder struct {
	persona  string
	gs       *state.GameState
	lore     string
	sections []string
}

// New creates a builder seeded with the agent's persona text.
func New(persona string) *Builder {
	return &Builder{persona: persona}
}

// WithGameState attaches the session whose context should be rendered.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithLore attaches retrieved world lore. Empty lore is skipped.
func (b *Builder) WithLore(lore string) *Builder {
	b.lore = strings.TrimSpace(lore)
	return b
}

// WithSection appends a custom titled section after the standard ones.
func (b *Builder) WithSection(title, body string) *Builder {
	body = strings.TrimSpace(body)
	if body != "" {
		b.sections = append(b.sections, fmt.Sprintf("## %s\n%s", title, body))
	}
	return b
}

// Build renders the final system prompt.
func (b *Builder) Build() string {
	parts := []string{strings.TrimSpace(b.persona)}

	if b.gs != nil {
		parts = append(parts, playerSection(b.gs), worldSection(b.gs))
		if s := partySection(b.gs); s != "" {
			parts = append(parts, s)
		}
		if s := enemySection(b.gs); s != "" {
			parts = append(parts, s)
		}
		if s := npcSection(b.gs); s != "" {
			parts = append(parts, s)
		}
		if s := campaignSection(b.gs); s != "" {
			parts = append(parts, s)
		}
	}

	if b.lore != "" {
		parts = append(parts, "## Conhecimento do Mundo\n"+b.lore)
	}
	parts = append(parts, b.sections...)

	return strings.Join(parts, "\n\n")
}

func playerSection(gs *state.GameState) string {
	p := gs.Player
	sb := strings.Builder{}
	sb.WriteString("## Personagem do Jogador\n")
	sb.WriteString(fmt.Sprintf("%s, %s %s nível %d.\n", p.Name, p.Race, p.Class, p.Level))
	sb.WriteString(fmt.Sprintf("HP %d/%d | Mana %d/%d | Vigor %d/%d | Ouro %d\n",
		p.HP, p.MaxHP, p.Mana, p.MaxMana, p.Stamina, p.MaxStamina, p.Gold))
	sb.WriteString(fmt.Sprintf("Defesa %d | Bônus de ataque %+d", p.Defense, p.AttackBonus))
	if len(p.Inventory) > 0 {
		sb.WriteString("\nInventário: " + strings.Join(p.Inventory, ", "))
	}
	if len(p.Abilities) > 0 {
		sb.WriteString("\nHabilidades: " + strings.Join(p.Abilities, ", "))
	}
	if len(p.Conditions) > 0 {
		sb.WriteString("\nCondições: " + strings.Join(p.Conditions, ", "))
	}
	return sb.String()
}

func worldSection(gs *state.GameState) string {
	w := gs.World
	sb := strings.Builder{}
	sb.WriteString("## Cena Atual\n")
	sb.WriteString("Local: " + w.Location)
	if w.TimeOfDay != "" {
		sb.WriteString(" | Hora: " + w.TimeOfDay)
	}
	if w.Weather != "" {
		sb.WriteString(" | Clima: " + w.Weather)
	}
	return sb.String()
}

func partySection(gs *state.GameState) string {
	if len(gs.Party) == 0 {
		return ""
	}
	lines := []string{"## Grupo"}
	for _, c := range gs.Party {
		status := "em combate"
		if c.IsDown() {
			status = "caído"
		}
		lines = append(lines, fmt.Sprintf("- %s: %d/%d HP (%s)", c.Name, c.HP, c.MaxHP, status))
	}
	return strings.Join(lines, "\n")
}

func enemySection(gs *state.GameState) string {
	if len(gs.Enemies) == 0 {
		return ""
	}
	lines := []string{"## Inimigos"}
	for _, e := range gs.Enemies {
		lines = append(lines, fmt.Sprintf("- %s (%s): %d/%d HP, Defesa %d [%s]",
			e.Name, e.ID, e.HP, e.MaxHP, e.Defense, e.Status))
	}
	return strings.Join(lines, "\n")
}

func npcSection(gs *state.GameState) string {
	present := gs.NPCsPresent()
	if len(present) == 0 {
		return ""
	}
	lines := []string{"## NPCs Presentes"}
	for _, n := range present {
		line := fmt.Sprintf("- %s (%s), relação %d/10", n.Name, n.Role, n.Relationship)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func campaignSection(gs *state.GameState) string {
	plan := gs.Campaign
	if plan == nil || plan.Exhausted() {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("## Arco da Campanha\n")
	sb.WriteString("Próximo momento da história: " + plan.Beats[plan.CurrentBeat])
	if plan.Climax != "" {
		sb.WriteString("\nClímax planejado: " + plan.Climax)
	}
	return sb.String()
}
