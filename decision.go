package respondsdk

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// ──────────────────────────────────────────────
// DecisionEngine — probability computation + cooldown gates
// ──────────────────────────────────────────────

// ResponseMode is the upstream pre-filter applied before any gate.
type ResponseMode string

const (
	ModeAll           ResponseMode = "all"
	ModeSpecificUsers ResponseMode = "specific_users"
	ModeProbability   ResponseMode = "probability"
	ModeMentioned     ResponseMode = "mentioned"
)

// QuietHours reduces the response probability during a configured window.
// The window may wrap midnight (e.g. 23:00–08:00).
type QuietHours struct {
	StartHour  int     `json:"start_hour"`
	EndHour    int     `json:"end_hour"`
	Multiplier float64 `json:"multiplier"`
}

// Contains reports whether hour falls inside the quiet window.
func (q QuietHours) Contains(hour int) bool {
	if q.StartHour == q.EndHour {
		return false
	}
	if q.StartHour > q.EndHour {
		// Wraps midnight: 23-8 means 23,0,1..7.
		return hour >= q.StartHour || hour < q.EndHour
	}
	return hour >= q.StartHour && hour < q.EndHour
}

// TopicRules adjust the probability when keyword topics are detected.
type TopicRules struct {
	Interesting     []string `json:"interesting"`
	Boring          []string `json:"boring"`
	InterestingMult float64  `json:"interesting_multiplier"`
	BoringMult      float64  `json:"boring_multiplier"`
}

// CooldownConfig bounds response frequency per chat.
type CooldownConfig struct {
	MinInterval    time.Duration `json:"min_interval"`
	MaxConsecutive int           `json:"max_consecutive"`
	ResetWindow    time.Duration `json:"reset_window"`
}

// DecisionConfig holds every knob of the decision engine.
type DecisionConfig struct {
	ResponseMode            ResponseMode                  `json:"response_mode"`
	BaseProbability         float64                       `json:"base_probability"`
	AllowedUsers            []string                      `json:"allowed_users,omitempty"` // for specific_users mode
	RelationshipMultipliers map[RelationshipLevel]float64 `json:"relationship_multipliers"`
	QuietHours              QuietHours                    `json:"quiet_hours"`
	Topics                  TopicRules                    `json:"topics"`
	Cooldown                CooldownConfig                `json:"cooldown"`
}

// DefaultDecisionConfig returns the production defaults.
func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		ResponseMode:    ModeProbability,
		BaseProbability: 0.3,
		RelationshipMultipliers: map[RelationshipLevel]float64{
			LevelOwner:        1.0,
			LevelCloseFriend:  0.9,
			LevelFriend:       0.7,
			LevelAcquaintance: 0.5,
			LevelStranger:     0.3,
		},
		QuietHours: QuietHours{StartHour: 23, EndHour: 8, Multiplier: 0.2},
		Topics: TopicRules{
			Interesting:     []string{"music", "музыка"},
			Boring:          []string{"weather", "погода"},
			InterestingMult: 1.5,
			BoringMult:      0.4,
		},
		Cooldown: CooldownConfig{
			MinInterval:    30 * time.Second,
			MaxConsecutive: 3,
			ResetWindow:    5 * time.Minute,
		},
	}
}

// Factor is one contribution to the final probability, in application order.
// Defaulted marks values substituted for missing configuration.
type Factor struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Defaulted bool    `json:"defaulted,omitempty"`
}

// Outcome is the result of one decision, with the full audit trail.
type Outcome struct {
	ShouldRespond bool     `json:"should_respond"`
	Score         float64  `json:"score"` // final probability, or forced 0/1
	Draw          float64  `json:"draw"`  // uniform sample; -1 when no draw happened
	Factors       []Factor `json:"factors"`
	BlockReason   string   `json:"block_reason,omitempty"` // set when a gate forced the skip
}

// Reasoning renders the audit trail in one log-friendly line.
func (o *Outcome) Reasoning() string {
	parts := make([]string, 0, len(o.Factors))
	for _, f := range o.Factors {
		s := fmt.Sprintf("%s (%.2fx)", f.Name, f.Value)
		if f.Defaulted {
			s += " [default]"
		}
		parts = append(parts, s)
	}
	verdict := "SKIP"
	if o.ShouldRespond {
		verdict = "RESPOND"
	}
	line := strings.Join(parts, " × ") + fmt.Sprintf(" = %.3f", o.Score)
	if o.BlockReason != "" {
		line += " | BLOCKED: " + o.BlockReason
	} else if o.Draw >= 0 {
		line += fmt.Sprintf(" | random=%.3f", o.Draw)
	}
	return line + " | " + verdict
}

// DecisionEngine applies the gates in order: mode pre-filter, hard cooldown
// gates, then the probabilistic gate. It mutates the chat's CooldownState
// only on a positive decision.
type DecisionEngine struct {
	config DecisionConfig
	allow  map[string]bool
}

// NewDecisionEngine creates an engine. Zero-value config fields fall back
// to defaults so a partial config never breaks a decision.
func NewDecisionEngine(config DecisionConfig) *DecisionEngine {
	def := DefaultDecisionConfig()
	if config.ResponseMode == "" {
		config.ResponseMode = def.ResponseMode
	}
	if config.BaseProbability <= 0 {
		config.BaseProbability = def.BaseProbability
	}
	if config.Cooldown.ResetWindow <= 0 {
		config.Cooldown.ResetWindow = def.Cooldown.ResetWindow
	}
	allow := make(map[string]bool, len(config.AllowedUsers))
	for _, u := range config.AllowedUsers {
		allow[u] = true
	}
	return &DecisionEngine{config: config, allow: allow}
}

// Config returns a copy of the effective configuration.
func (e *DecisionEngine) Config() DecisionConfig {
	return e.config
}

func blocked(reason string) *Outcome {
	return &Outcome{
		ShouldRespond: false,
		Score:         0,
		Draw:          -1,
		Factors:       []Factor{{Name: reason, Value: 0}},
		BlockReason:   reason,
	}
}

// Decide runs the full gate chain for one message. The caller must hold the
// chat's single-writer lock; state is mutated in place on a positive
// decision (burst window refresh happens regardless).
func (e *DecisionEngine) Decide(profile *UserProfile, event MessageEvent, state *CooldownState, now time.Time, rng RNG) *Outcome {
	// Mode pre-filter.
	switch e.config.ResponseMode {
	case ModeMentioned:
		if !event.IsMention && !event.IsReply {
			return blocked("mode-mentioned")
		}
	case ModeSpecificUsers:
		if !e.allow[event.UserID] {
			return blocked("mode-specific-users")
		}
	}

	// Hard gates: deterministic, no randomness.
	state.resetIfExpired(now, e.config.Cooldown.ResetWindow)
	if iv := e.config.Cooldown.MinInterval; iv > 0 && !state.LastResponseAt.IsZero() {
		if now.Sub(state.LastResponseAt) < iv {
			return blocked("cooldown-interval")
		}
	}
	if limit := e.config.Cooldown.MaxConsecutive; limit > 0 && state.ConsecutiveCount >= limit {
		return blocked("cooldown-burst")
	}

	// Probabilistic gate.
	out := &Outcome{Draw: -1}
	finalP := 1.0
	if e.config.ResponseMode == ModeAll {
		out.Factors = append(out.Factors, Factor{Name: "mode-all", Value: 1.0})
	} else {
		finalP = e.config.BaseProbability
		out.Factors = append(out.Factors, Factor{Name: "base", Value: e.config.BaseProbability})

		relMult, f := e.relationshipFactor(profile)
		out.Factors = append(out.Factors, f)
		finalP *= relMult

		timeMult, tf := e.timeFactor(now)
		out.Factors = append(out.Factors, tf)
		finalP *= timeMult

		topicMult, pf := e.topicFactor(event.Text)
		out.Factors = append(out.Factors, pf)
		finalP *= topicMult

		finalP = clampRange(finalP, 0, 1)
	}
	out.Score = finalP

	out.Draw = rng.Float64()
	out.ShouldRespond = out.Draw < finalP

	if out.ShouldRespond {
		state.recordResponse(now)
	}
	return out
}

func (e *DecisionEngine) relationshipFactor(profile *UserProfile) (float64, Factor) {
	level := LevelStranger
	if profile != nil {
		level = profile.RelationshipLevel
	}
	mult, ok := e.config.RelationshipMultipliers[level]
	if !ok {
		// Unrecognized level: neutral default, flagged for the audit trail.
		log.Printf("[DECISION] no multiplier for level %q, defaulting to 1.0", level)
		return 1.0, Factor{Name: "relationship:" + string(level), Value: 1.0, Defaulted: true}
	}
	return mult, Factor{Name: "relationship:" + string(level), Value: mult}
}

func (e *DecisionEngine) timeFactor(now time.Time) (float64, Factor) {
	q := e.config.QuietHours
	if q.Multiplier > 0 && q.Contains(now.Hour()) {
		return q.Multiplier, Factor{Name: "quiet_hours", Value: q.Multiplier}
	}
	return 1.0, Factor{Name: "active_hours", Value: 1.0}
}

func (e *DecisionEngine) topicFactor(text string) (float64, Factor) {
	lower := strings.ToLower(text)
	t := e.config.Topics
	for _, topic := range t.Boring {
		if topic != "" && strings.Contains(lower, strings.ToLower(topic)) && t.BoringMult > 0 {
			return t.BoringMult, Factor{Name: "topic:boring", Value: t.BoringMult}
		}
	}
	for _, topic := range t.Interesting {
		if topic != "" && strings.Contains(lower, strings.ToLower(topic)) && t.InterestingMult > 0 {
			return t.InterestingMult, Factor{Name: "topic:interesting", Value: t.InterestingMult}
		}
	}
	return 1.0, Factor{Name: "topic:neutral", Value: 1.0}
}
