package respondsdk

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// ──────────────────────────────────────────────
// DecisionRecord — the orchestrator's output
// ──────────────────────────────────────────────

// DecisionRecord is the immutable result of processing one MessageEvent.
// Downstream collaborators (generation, transport) consume it by value.
type DecisionRecord struct {
	ID            string     `json:"id"`
	ChatID        string     `json:"chat_id"`
	UserID        string     `json:"user_id"`
	Timestamp     time.Time  `json:"timestamp"`
	ShouldRespond bool       `json:"should_respond"`
	Score         float64    `json:"score"`
	Factors       []Factor   `json:"factors"`
	Reasoning     string     `json:"reasoning"`
	BlockReason   string     `json:"block_reason,omitempty"`
	PersonaChosen string     `json:"persona_chosen,omitempty"`
	PersonaReason string     `json:"persona_reason,omitempty"`
	DelayPlan     *DelayPlan `json:"delay_plan,omitempty"`
	LevelUpgraded bool       `json:"level_upgraded,omitempty"`
}

// Config groups the engine configuration consumed from the outside.
type Config struct {
	Decision DecisionConfig `json:"decision"`
	Persona  PersonaConfig  `json:"persona"`
	Typing   TypingConfig   `json:"typing"`
	Markers  TrustMarkers   `json:"trust_markers"`
	Analyzer AnalyzerConfig `json:"owner_learning"`
}

// DefaultConfig returns the production defaults for every component.
func DefaultConfig() Config {
	return Config{
		Decision: DefaultDecisionConfig(),
		Persona:  DefaultPersonaConfig(),
		Typing:   DefaultTypingConfig(),
		Markers:  DefaultTrustMarkers(),
		Analyzer: DefaultAnalyzerConfig(),
	}
}

// Stats is a snapshot of the orchestrator counters.
type Stats struct {
	EventsSeen          int64 `json:"events_seen"`
	ResponsesApproved   int64 `json:"responses_approved"`
	ResponsesSuppressed int64 `json:"responses_suppressed"`
	InvalidEvents       int64 `json:"invalid_events"`
}

// ──────────────────────────────────────────────
// Orchestrator
// ──────────────────────────────────────────────

// Orchestrator sequences the engine per incoming message: record the
// interaction, decide, and on a positive decision pick a persona and a
// delay plan. Events for the same chat are serialized behind a per-chat
// lock; distinct chats never block each other. No method here performs
// network I/O or sleeps — persistence, generation and transport are the
// caller's collaborators.
type Orchestrator struct {
	profiles *ProfileStore
	engine   *DecisionEngine
	selector *PersonaSelector
	analyzer *StyleAnalyzer
	typing   TypingConfig

	// Now, Rng and Sink may be replaced before the first HandleMessage
	// call (tests inject a fixed clock and a seeded RNG).
	Now  func() time.Time
	Rng  RNG
	Sink DecisionSink

	pipeline *EventPipeline

	mu        sync.Mutex
	chatLocks map[string]*sync.Mutex
	cooldowns map[string]*CooldownState

	style atomic.Pointer[OwnerStyleProfile]

	eventsSeen          atomic.Int64
	responsesApproved   atomic.Int64
	responsesSuppressed atomic.Int64
	invalidEvents       atomic.Int64
}

// NewOrchestrator wires the core components. A nil registry gets a
// registry holding only the safe fallback persona; a nil repository means
// in-memory profiles.
func NewOrchestrator(config Config, registry *PersonaRegistry, repo ProfileRepository) *Orchestrator {
	return &Orchestrator{
		profiles:  NewProfileStore(repo, config.Markers),
		engine:    NewDecisionEngine(config.Decision),
		selector:  NewPersonaSelector(registry, config.Persona),
		analyzer:  NewStyleAnalyzer(config.Analyzer),
		typing:    config.Typing,
		Now:       time.Now,
		Rng:       NewSeededRNG(time.Now().UnixNano()),
		Sink:      NullDecisionSink{},
		pipeline:  NewEventPipeline(),
		chatLocks: make(map[string]*sync.Mutex),
		cooldowns: make(map[string]*CooldownState),
	}
}

// Use appends an event middleware. Middleware runs after validation and
// before the decision core; one that never calls next() intercepts the
// event. Register everything before the first HandleMessage call.
func (o *Orchestrator) Use(mw MiddlewareFunc) {
	o.pipeline.Use(mw)
}

// Profiles exposes the profile store (owner assignment, persona prefs).
func (o *Orchestrator) Profiles() *ProfileStore {
	return o.profiles
}

func (o *Orchestrator) chatLock(chatID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.chatLocks[chatID]
	if !ok {
		l = &sync.Mutex{}
		o.chatLocks[chatID] = l
	}
	return l
}

func (o *Orchestrator) cooldown(chatID string) *CooldownState {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.cooldowns[chatID]
	if !ok {
		c = &CooldownState{}
		o.cooldowns[chatID] = c
	}
	return c
}

// HandleMessage processes one inbound message and produces the decision
// record. A repository failure is returned as a recoverable error while the
// record stands: the decision is authoritative the moment it is computed.
func (o *Orchestrator) HandleMessage(event MessageEvent) (DecisionRecord, error) {
	o.eventsSeen.Inc()
	if err := event.Validate(); err != nil {
		o.invalidEvents.Inc()
		return DecisionRecord{}, err
	}

	var record DecisionRecord
	var err error
	ctx := &EventContext{Event: event, Extra: make(map[string]interface{})}
	o.pipeline.Execute(ctx, func() {
		ctx.Handled = true
		record, err = o.process(ctx.Event)
		ctx.Record = &record
	})
	if !ctx.Handled {
		// A middleware intercepted the event before the decision core.
		o.responsesSuppressed.Inc()
		record = DecisionRecord{
			ID:          uuid.NewString(),
			ChatID:      event.ChatID,
			UserID:      event.UserID,
			Timestamp:   o.Now(),
			BlockReason: "pipeline-drop",
			Reasoning:   "intercepted by middleware | SKIP",
		}
	}
	o.Sink.Record(record)
	return record, err
}

func (o *Orchestrator) process(event MessageEvent) (DecisionRecord, error) {
	// Single-writer discipline per chat key.
	l := o.chatLock(event.ChatID)
	l.Lock()
	defer l.Unlock()

	now := o.Now()

	profile, perr := o.profiles.GetOrCreate(event.UserID, event.Username, now)
	ownerCandidate := profile.RelationshipLevel == LevelOwner

	profile, rerr := o.profiles.RecordInteraction(event.UserID, event.Username, event.Text, ownerCandidate, now)
	if perr == nil {
		perr = rerr
	}
	profile, upgraded, uerr := o.profiles.TryUpgrade(event.UserID)
	if perr == nil {
		perr = uerr
	}

	state := o.cooldown(event.ChatID)
	outcome := o.engine.Decide(profile, event, state, now, o.Rng)

	record := DecisionRecord{
		ID:            uuid.NewString(),
		ChatID:        event.ChatID,
		UserID:        event.UserID,
		Timestamp:     now,
		ShouldRespond: outcome.ShouldRespond,
		Score:         outcome.Score,
		Factors:       outcome.Factors,
		Reasoning:     outcome.Reasoning(),
		BlockReason:   outcome.BlockReason,
		LevelUpgraded: upgraded,
	}

	if outcome.ShouldRespond {
		persona, reason := o.selector.Select(profile, event.ChatID)
		plan := PlanDelay(event.Text, event.Text, o.typing, o.Rng)
		record.PersonaChosen = persona.Name
		record.PersonaReason = reason
		record.DelayPlan = &plan
		o.responsesApproved.Inc()
	} else {
		o.responsesSuppressed.Inc()
	}

	log.Printf("[ORCH] chat=%s user=%s %s", event.ChatID, event.UserID, record.Reasoning)
	if perr != nil {
		// The in-memory transition already happened; persistence catches up
		// or the caller retries. Never roll back.
		log.Printf("[ORCH] persistence degraded for user %s: %v", event.UserID, perr)
	}
	return record, perr
}

// ──────────────────────────────────────────────
// Owner style learning
// ──────────────────────────────────────────────

// RefreshOwnerStyle re-analyzes the corpus and atomically swaps in the new
// profile. The previous snapshot stays valid for readers that hold it.
func (o *Orchestrator) RefreshOwnerStyle(source StyleCorpusSource) (*OwnerStyleProfile, error) {
	samples, err := source.LoadSamples()
	if err != nil {
		return nil, err
	}
	profile := o.analyzer.Analyze(samples)
	o.style.Store(profile)
	log.Printf("[ORCH] owner style refreshed: samples=%d fallback=%v", profile.SampleCount, profile.IsFallback)
	return profile, nil
}

// OwnerStyle returns the current style snapshot, or nil before the first
// refresh.
func (o *Orchestrator) OwnerStyle() *OwnerStyleProfile {
	return o.style.Load()
}

// ──────────────────────────────────────────────
// Cooldown snapshots (for persistence adapters)
// ──────────────────────────────────────────────

// CooldownSnapshot returns a copy of a chat's cooldown state.
func (o *Orchestrator) CooldownSnapshot(chatID string) CooldownState {
	l := o.chatLock(chatID)
	l.Lock()
	defer l.Unlock()
	return *o.cooldown(chatID)
}

// RestoreCooldown seeds a chat's cooldown state, e.g. from storage on
// startup. Overwrites whatever is in memory for that chat.
func (o *Orchestrator) RestoreCooldown(chatID string, state CooldownState) {
	l := o.chatLock(chatID)
	l.Lock()
	defer l.Unlock()
	*o.cooldown(chatID) = state
}

// Stats returns a snapshot of the processing counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		EventsSeen:          o.eventsSeen.Load(),
		ResponsesApproved:   o.responsesApproved.Load(),
		ResponsesSuppressed: o.responsesSuppressed.Load(),
		InvalidEvents:       o.invalidEvents.Load(),
	}
}
