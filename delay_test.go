package respondsdk

import (
	"strings"
	"testing"
)

// ══════════════════════════════════════════════
// Delay bounds
// ══════════════════════════════════════════════

func TestPlanDelay_Bounds(t *testing.T) {
	cfg := DefaultTypingConfig()
	rng := NewSeededRNG(1)

	inputs := []string{
		"",
		"hi",
		"a somewhat longer message with quite a few words in it to read",
		strings.Repeat("word ", 500),
	}
	for _, in := range inputs {
		for i := 0; i < 200; i++ {
			plan := PlanDelay(in, in, cfg, rng)
			if plan.ReadDelayMS < cfg.Read.MinMS || plan.ReadDelayMS > cfg.Read.MaxMS {
				t.Fatalf("read delay %d outside [%d,%d] for %q",
					plan.ReadDelayMS, cfg.Read.MinMS, cfg.Read.MaxMS, in)
			}
			if plan.ThinkDelayMS < cfg.Think.MinMS || plan.ThinkDelayMS > cfg.Think.MaxMS {
				t.Fatalf("think delay %d outside [%d,%d]", plan.ThinkDelayMS, cfg.Think.MinMS, cfg.Think.MaxMS)
			}
			if plan.TypeDelayMS < 0 || plan.TypeDelayMS > cfg.Type.MaxMS {
				t.Fatalf("type delay %d outside [0,%d]", plan.TypeDelayMS, cfg.Type.MaxMS)
			}
			if plan.TotalMS != plan.ReadDelayMS+plan.ThinkDelayMS+plan.TypeDelayMS {
				t.Fatal("total must be the sum of the phases")
			}
		}
	}
}

func TestPlanDelay_ScalesWithLength(t *testing.T) {
	cfg := DefaultTypingConfig()
	// Kill jitter sources so only the deterministic parts remain.
	cfg.Think = ThinkDelayConfig{MinMS: 1000, MaxMS: 1000}
	rng := fixedRNG{v: 0.5} // jitter factor exactly 1.0

	short := PlanDelay("hi", "ok", cfg, rng)
	long := PlanDelay("hi", strings.Repeat("x", 200), cfg, rng)

	if long.TypeDelayMS <= short.TypeDelayMS {
		t.Fatalf("longer reply must type longer: %d vs %d", long.TypeDelayMS, short.TypeDelayMS)
	}
	// 1000 base + 200 chars × 50ms, no jitter.
	if long.TypeDelayMS != 11000 {
		t.Fatalf("expected 11000ms, got %d", long.TypeDelayMS)
	}
}

func TestPlanDelay_ReadClamp(t *testing.T) {
	cfg := DefaultTypingConfig()
	rng := fixedRNG{v: 0.5}

	short := PlanDelay("", "ok", cfg, rng)
	if short.ReadDelayMS != cfg.Read.MinMS {
		t.Fatalf("empty message must read at min, got %d", short.ReadDelayMS)
	}
	long := PlanDelay(strings.Repeat("word ", 100), "ok", cfg, rng)
	if long.ReadDelayMS != cfg.Read.MaxMS {
		t.Fatalf("wall of text must read at max, got %d", long.ReadDelayMS)
	}
}

func TestPlanDelay_SeedReproducible(t *testing.T) {
	cfg := DefaultTypingConfig()
	a := NewSeededRNG(99)
	b := NewSeededRNG(99)
	for i := 0; i < 50; i++ {
		pa := PlanDelay("how are you", "fine thanks", cfg, a)
		pb := PlanDelay("how are you", "fine thanks", cfg, b)
		if pa != pb {
			t.Fatalf("same seed diverged at step %d: %+v vs %+v", i, pa, pb)
		}
	}
}
