package respondsdk

import (
	"strings"
	"unicode/utf8"
)

// ──────────────────────────────────────────────
// DelaySynthesizer — human-like timing, pure function
// ──────────────────────────────────────────────

// ReadDelayConfig bounds the simulated "reading the message" phase.
type ReadDelayConfig struct {
	BaseMS    int `json:"base_ms"`
	PerWordMS int `json:"per_word_ms"`
	MinMS     int `json:"min_ms"`
	MaxMS     int `json:"max_ms"`
}

// ThinkDelayConfig bounds the pause between reading and typing.
type ThinkDelayConfig struct {
	MinMS int `json:"min_ms"`
	MaxMS int `json:"max_ms"`
}

// TypeDelayConfig bounds the simulated typing phase.
type TypeDelayConfig struct {
	BaseMS    int `json:"base_ms"`
	PerCharMS int `json:"per_char_ms"`
	MaxMS     int `json:"max_ms"`
}

// TypingConfig groups all delay bounds.
type TypingConfig struct {
	Read  ReadDelayConfig  `json:"read"`
	Think ThinkDelayConfig `json:"think"`
	Type  TypeDelayConfig  `json:"type"`
}

// DefaultTypingConfig returns the production defaults.
func DefaultTypingConfig() TypingConfig {
	return TypingConfig{
		Read:  ReadDelayConfig{BaseMS: 500, PerWordMS: 150, MinMS: 500, MaxMS: 3000},
		Think: ThinkDelayConfig{MinMS: 500, MaxMS: 2500},
		Type:  TypeDelayConfig{BaseMS: 1000, PerCharMS: 50, MaxMS: 20000},
	}
}

// typeJitter is the ± fraction applied to the typing delay.
const typeJitter = 0.3

// DelayPlan is a derived value: how long to pretend to read, think and
// type. The caller schedules the actual waits (and must keep them
// cancelable); this package never sleeps.
type DelayPlan struct {
	ReadDelayMS  int `json:"read_delay_ms"`
	ThinkDelayMS int `json:"think_delay_ms"`
	TypeDelayMS  int `json:"type_delay_ms"`
	TotalMS      int `json:"total_ms"`
}

// PlanDelay computes a DelayPlan for a reply to incoming text. Reproducible
// under a fixed-seed RNG.
func PlanDelay(incoming, reply string, cfg TypingConfig, rng RNG) DelayPlan {
	words := len(strings.Fields(incoming))
	read := clampInt(cfg.Read.BaseMS+words*cfg.Read.PerWordMS, cfg.Read.MinMS, cfg.Read.MaxMS)

	think := cfg.Think.MinMS
	if span := cfg.Think.MaxMS - cfg.Think.MinMS; span > 0 {
		think += rng.IntN(span + 1)
	}

	chars := utf8.RuneCountInString(reply)
	typeMS := float64(cfg.Type.BaseMS + chars*cfg.Type.PerCharMS)
	// jitter in [1-typeJitter, 1+typeJitter)
	typeMS *= 1 + typeJitter*(2*rng.Float64()-1)
	typed := clampInt(int(typeMS), 0, cfg.Type.MaxMS)

	return DelayPlan{
		ReadDelayMS:  read,
		ThinkDelayMS: think,
		TypeDelayMS:  typed,
		TotalMS:      read + think + typed,
	}
}

func clampInt(v, lo, hi int) int {
	if hi > 0 && v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
