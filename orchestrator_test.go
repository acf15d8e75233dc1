package respondsdk

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

var eventTime = time.Date(2025, 6, 15, 13, 59, 0, 0, time.UTC)

func newTestOrchestrator(cfg Config) *Orchestrator {
	o := NewOrchestrator(cfg, testRegistry(), nil)
	o.Now = func() time.Time { return time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC) }
	o.Rng = NewSeededRNG(1)
	return o
}

func alwaysRespondConfig() Config {
	cfg := DefaultConfig()
	cfg.Decision.ResponseMode = ModeAll
	cfg.Decision.Cooldown.MinInterval = 0
	cfg.Decision.Cooldown.MaxConsecutive = 0
	return cfg
}

// ══════════════════════════════════════════════
// Pipeline
// ══════════════════════════════════════════════

func TestOrchestrator_PositiveDecisionRecord(t *testing.T) {
	o := newTestOrchestrator(alwaysRespondConfig())

	rec, err := o.HandleMessage(MessageEvent{
		ChatID: "c1", UserID: "u1", Username: "alice", Text: "hello", Timestamp: eventTime,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.ShouldRespond {
		t.Fatalf("mode all must respond, got %+v", rec)
	}
	if rec.ID == "" {
		t.Fatal("record must carry an id")
	}
	if rec.PersonaChosen != "alphasnob" || rec.PersonaReason != "default" {
		t.Fatalf("expected default persona, got %s/%s", rec.PersonaChosen, rec.PersonaReason)
	}
	if rec.DelayPlan == nil || rec.DelayPlan.TotalMS <= 0 {
		t.Fatalf("positive decision must carry a delay plan, got %+v", rec.DelayPlan)
	}
	if rec.Reasoning == "" {
		t.Fatal("record must carry the reasoning line")
	}
}

func TestOrchestrator_NegativeDecisionOmitsPersonaAndDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Decision.ResponseMode = ModeMentioned
	o := newTestOrchestrator(cfg)

	rec, err := o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u1", Text: "hi", Timestamp: eventTime})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ShouldRespond {
		t.Fatal("unmentioned event must be suppressed")
	}
	if rec.PersonaChosen != "" || rec.DelayPlan != nil {
		t.Fatalf("suppressed decision must not pick persona or delay, got %+v", rec)
	}
	if rec.BlockReason != "mode-mentioned" {
		t.Fatalf("expected mode-mentioned, got %q", rec.BlockReason)
	}
}

func TestOrchestrator_InvalidEvent(t *testing.T) {
	o := newTestOrchestrator(DefaultConfig())
	_, err := o.HandleMessage(MessageEvent{UserID: "u1", Text: "hi", Timestamp: eventTime})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if got := o.Stats().InvalidEvents; got != 1 {
		t.Fatalf("expected 1 invalid event, got %d", got)
	}
}

func TestOrchestrator_RelationshipFeedsDecision(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Decision.Cooldown.MinInterval = 0
	cfg.Decision.Cooldown.MaxConsecutive = 0
	o := newTestOrchestrator(cfg)

	var rec DecisionRecord
	for i := 0; i < ThresholdAcquaintance; i++ {
		rec, _ = o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u1", Text: "hi", Timestamp: eventTime})
	}
	if !rec.LevelUpgraded {
		t.Fatalf("interaction %d must upgrade to acquaintance", ThresholdAcquaintance)
	}
	var found bool
	for _, f := range rec.Factors {
		if f.Name == "relationship:acquaintance" {
			found = true
			if f.Value != 0.5 {
				t.Fatalf("expected acquaintance multiplier 0.5, got %f", f.Value)
			}
		}
	}
	if !found {
		t.Fatalf("upgraded level must feed the same decision, factors: %v", rec.Factors)
	}
}

func TestOrchestrator_CooldownIsPerChat(t *testing.T) {
	cfg := alwaysRespondConfig()
	cfg.Decision.Cooldown.MinInterval = 30 * time.Second
	o := newTestOrchestrator(cfg)

	first, _ := o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u1", Text: "hi", Timestamp: eventTime})
	if !first.ShouldRespond {
		t.Fatalf("first message must respond, got %q", first.BlockReason)
	}
	// Same chat, inside min interval.
	second, _ := o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u2", Text: "hi", Timestamp: eventTime})
	if second.ShouldRespond || second.BlockReason != "cooldown-interval" {
		t.Fatalf("expected interval block in same chat, got %+v", second)
	}
	// Different chat is unaffected.
	other, _ := o.HandleMessage(MessageEvent{ChatID: "c2", UserID: "u1", Text: "hi", Timestamp: eventTime})
	if !other.ShouldRespond {
		t.Fatalf("other chat must not share cooldown, got %q", other.BlockReason)
	}
}

func TestOrchestrator_RepositoryFailureReturnsRecord(t *testing.T) {
	cfg := alwaysRespondConfig()
	cfg.Decision.Cooldown.MinInterval = 30 * time.Second
	o := NewOrchestrator(cfg, testRegistry(), failingRepo{})
	o.Now = func() time.Time { return time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC) }
	o.Rng = NewSeededRNG(1)

	rec, err := o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u1", Text: "hi", Timestamp: eventTime})
	if !errors.Is(err, ErrRepository) {
		t.Fatalf("expected ErrRepository, got %v", err)
	}
	if !rec.ShouldRespond {
		t.Fatal("decision must stand despite the repository failure")
	}

	// State advanced in memory: the next message hits the interval gate.
	rec, _ = o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u1", Text: "hi", Timestamp: eventTime})
	if rec.BlockReason != "cooldown-interval" {
		t.Fatalf("cooldown state must not roll back, got %+v", rec)
	}
}

func TestOrchestrator_Stats(t *testing.T) {
	o := newTestOrchestrator(alwaysRespondConfig())

	o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u1", Text: "hi", Timestamp: eventTime})
	o.HandleMessage(MessageEvent{ChatID: "", UserID: "u1", Text: "hi", Timestamp: eventTime})

	s := o.Stats()
	if s.EventsSeen != 2 || s.ResponsesApproved != 1 || s.InvalidEvents != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestOrchestrator_ConcurrentChats(t *testing.T) {
	o := newTestOrchestrator(alwaysRespondConfig())

	const chats, perChat = 8, 50
	var wg sync.WaitGroup
	for c := 0; c < chats; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			chatID := fmt.Sprintf("c%d", c)
			for i := 0; i < perChat; i++ {
				if _, err := o.HandleMessage(MessageEvent{
					ChatID: chatID, UserID: fmt.Sprintf("u%d", c), Text: "hi", Timestamp: eventTime,
				}); err != nil {
					t.Errorf("chat %s: %v", chatID, err)
					return
				}
			}
		}(c)
	}
	wg.Wait()

	s := o.Stats()
	if s.EventsSeen != chats*perChat || s.ResponsesApproved != chats*perChat {
		t.Fatalf("unexpected stats after concurrent run: %+v", s)
	}
}

// ══════════════════════════════════════════════
// Owner style and cooldown snapshots
// ══════════════════════════════════════════════

func TestOrchestrator_RefreshOwnerStyle(t *testing.T) {
	o := newTestOrchestrator(DefaultConfig())
	if o.OwnerStyle() != nil {
		t.Fatal("no style before the first refresh")
	}

	p, err := o.RefreshOwnerStyle(SliceCorpusSource(styleCorpus(100)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.IsFallback {
		t.Fatal("100 samples must produce a full profile")
	}
	if got := o.OwnerStyle(); got != p {
		t.Fatal("snapshot must be the freshly stored profile")
	}
}

func TestOrchestrator_CooldownSnapshotRoundTrip(t *testing.T) {
	o := newTestOrchestrator(alwaysRespondConfig())
	o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u1", Text: "hi", Timestamp: eventTime})

	snap := o.CooldownSnapshot("c1")
	if snap.ConsecutiveCount != 1 || snap.LastResponseAt.IsZero() {
		t.Fatalf("snapshot missing response state: %+v", snap)
	}

	fresh := newTestOrchestrator(alwaysRespondConfig())
	fresh.RestoreCooldown("c1", snap)
	if got := fresh.CooldownSnapshot("c1"); got != snap {
		t.Fatalf("restore mismatch: %+v vs %+v", got, snap)
	}
}
