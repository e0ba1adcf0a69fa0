// Package dice parses free-form roll instructions coming from the LLM
// (e.g. "1d20+5", "DC 15 Dex, 8d6 fire") and resolves them into concrete
// numbers. The output string is the ground truth the engine hands back to
// the model as a tool result; it is never parsed again.
package dice

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// "DC 15", "CD: 12", "dc15" — difficulty-class checks. CD is the
	// Portuguese form kept for prompt compatibility.
	saveRe = regexp.MustCompile(`(?i)(?:DC|CD)\s*:?\s*(\d+)`)

	// "<count>d<sides>" with an optional "+n" / "- n" modifier.
	termRe = regexp.MustCompile(`(\d+)d(\d+)(?:\s*([+-])\s*(\d+))?`)
)

// DefaultSaveBonus is the flat bonus applied to an opposing save roll
// when the formula does not name the defender's real modifier.
const DefaultSaveBonus = 3

// Roller resolves formulas against an injectable random source so tests
// can pin a seed and replay identical outcomes.
type Roller struct {
	rng *rand.Rand
}

// NewRoller returns a roller seeded deterministically.
func NewRoller(seed int64) *Roller {
	return &Roller{rng: rand.New(rand.NewSource(seed))}
}

// NewDefaultRoller returns a time-seeded roller for production use.
func NewDefaultRoller() *Roller {
	return NewRoller(time.Now().UnixNano())
}

func (r *Roller) die(sides int) int {
	return r.rng.Intn(sides) + 1
}

// Resolve evaluates every recognizable pattern in formula and returns a
// composite human-readable summary. Order of parts: save check first,
// then the dice total with per-die breakdowns. When nothing in the input
// is recognizable the result degrades to a single plain d20 so the
// caller always receives a usable ruling.
func (r *Roller) Resolve(formula string, saveBonus int) string {
	var parts []string

	saveMatch := saveRe.FindStringSubmatch(formula)
	if saveMatch != nil {
		dc, _ := strconv.Atoi(saveMatch[1])
		roll := r.die(20)
		total := roll + saveBonus

		status := "FAIL (full damage)"
		if total >= dc {
			status = "SUCCESS (half damage)"
		}
		parts = append(parts, fmt.Sprintf("Enemy Save: %d (d20:%d%+d) vs DC %d -> %s",
			total, roll, saveBonus, dc, status))
	}

	total := 0
	var details []string
	for _, m := range termRe.FindAllStringSubmatch(formula, -1) {
		count, _ := strconv.Atoi(m[1])
		sides, _ := strconv.Atoi(m[2])
		if count <= 0 || sides <= 0 {
			continue
		}

		mod := 0
		if m[4] != "" {
			mod, _ = strconv.Atoi(m[4])
			if m[3] == "-" {
				mod = -mod
			}
		}

		rolls := make([]int, count)
		subtotal := 0
		for i := range rolls {
			rolls[i] = r.die(sides)
			subtotal += rolls[i]
		}
		subtotal += mod

		desc := fmt.Sprintf("%dd%d", count, sides)
		if mod != 0 {
			desc = fmt.Sprintf("%s%+d", desc, mod)
		}

		total += subtotal
		details = append(details, fmt.Sprintf("[%s: %d %v]", desc, subtotal, rolls))
	}

	switch {
	case len(details) > 0:
		parts = append(parts, fmt.Sprintf("Total: %d %s", total, strings.Join(details, " ")))
	case saveMatch == nil:
		// Nothing parseable; roll a generic d20 so the game never stalls.
		parts = append(parts, fmt.Sprintf("Generic roll (d20): %d", r.die(20)))
	}

	return strings.Join(parts, " | ")
}
