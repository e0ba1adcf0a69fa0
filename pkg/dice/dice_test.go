package dice

import (
	"regexp"
	"strings"
	"testing"
)

func TestResolveDeterministic(t *testing.T) {
	first := NewRoller(42).Resolve("3d6+2", DefaultSaveBonus)
	for i := 0; i < 5; i++ {
		got := NewRoller(42).Resolve("3d6+2", DefaultSaveBonus)
		if got != first {
			t.Fatalf("seed 42 run %d produced %q, want %q", i, got, first)
		}
	}

	if !strings.Contains(first, "3d6+2") {
		t.Errorf("expected term description in output, got %q", first)
	}
}

func TestResolveFallback(t *testing.T) {
	for _, formula := range []string{"", "attack the goblin", "swing wildly"} {
		got := NewRoller(7).Resolve(formula, DefaultSaveBonus)
		if got == "" {
			t.Fatalf("Resolve(%q) returned empty result", formula)
		}
		if !strings.Contains(got, "Generic roll (d20)") {
			t.Errorf("Resolve(%q) = %q, want generic d20 fallback", formula, got)
		}
	}
}

func TestResolveSaveCheck(t *testing.T) {
	got := NewRoller(1).Resolve("DC 15 Dex", DefaultSaveBonus)
	if !strings.Contains(got, "vs DC 15") {
		t.Fatalf("expected save summary, got %q", got)
	}
	if !strings.Contains(got, "SUCCESS") && !strings.Contains(got, "FAIL") {
		t.Errorf("save summary missing outcome: %q", got)
	}
	// A lone save check must not trigger the generic fallback.
	if strings.Contains(got, "Generic roll") {
		t.Errorf("save-only formula should not add a generic roll: %q", got)
	}
}

func TestResolveSaveCDAlias(t *testing.T) {
	got := NewRoller(1).Resolve("CD: 10 Con", DefaultSaveBonus)
	if !strings.Contains(got, "vs DC 10") {
		t.Errorf("CD alias not recognized: %q", got)
	}
}

func TestResolveMultipleTerms(t *testing.T) {
	got := NewRoller(3).Resolve("1d8+2 slashing and 2d6 fire", DefaultSaveBonus)
	if !strings.Contains(got, "[1d8+2:") || !strings.Contains(got, "[2d6:") {
		t.Fatalf("expected both term breakdowns, got %q", got)
	}
	if strings.Count(got, "Total:") != 1 {
		t.Errorf("expected a single running total, got %q", got)
	}
}

func TestResolveBounds(t *testing.T) {
	// Extract the summed total and check it stays inside [count+mod, count*sides+mod].
	totalRe := regexp.MustCompile(`Total: (-?\d+)`)
	for seed := int64(0); seed < 50; seed++ {
		got := NewRoller(seed).Resolve("4d6-3", DefaultSaveBonus)
		m := totalRe.FindStringSubmatch(got)
		if m == nil {
			t.Fatalf("no total in %q", got)
		}
		total := atoi(t, m[1])
		if total < 4-3 || total > 24-3 {
			t.Errorf("seed %d: total %d out of range for 4d6-3", seed, total)
		}
	}
}

func TestResolveNegativeModifier(t *testing.T) {
	got := NewRoller(11).Resolve("1d10 - 2", DefaultSaveBonus)
	if !strings.Contains(got, "1d10-2") {
		t.Errorf("negative modifier not normalized in description: %q", got)
	}
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	n := 0
	neg := false
	for i, c := range s {
		if i == 0 && c == '-' {
			neg = true
			continue
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		return -n
	}
	return n
}
