package respondsdk

import (
	"log"
	"sync"
)

// ──────────────────────────────────────────────
// Decision sinks and history
// ──────────────────────────────────────────────

// DecisionSink receives every DecisionRecord the orchestrator produces.
// Implementations must not block: they run inline on the message path.
type DecisionSink interface {
	Record(rec DecisionRecord)
}

// NullDecisionSink discards all records.
type NullDecisionSink struct{}

func (NullDecisionSink) Record(rec DecisionRecord) {}

// ConsoleDecisionSink prints records to log.
type ConsoleDecisionSink struct{}

func (ConsoleDecisionSink) Record(rec DecisionRecord) {
	verdict := "SKIP"
	if rec.ShouldRespond {
		verdict = "RESPOND"
	}
	log.Printf("[HISTORY] chat=%s user=%s %s score=%.3f persona=%s",
		rec.ChatID, rec.UserID, verdict, rec.Score, rec.PersonaChosen)
}

// CallbackDecisionSink calls a function for each record.
type CallbackDecisionSink struct {
	Fn func(rec DecisionRecord)
}

func (s CallbackDecisionSink) Record(rec DecisionRecord) {
	if s.Fn != nil {
		s.Fn(rec)
	}
}

// DecisionHistory is a DecisionSink keeping the last N records in memory,
// for ops inspection and debugging of skip reasons.
type DecisionHistory struct {
	mu       sync.Mutex
	capacity int
	entries  []DecisionRecord
	next     int
	filled   bool
}

// NewDecisionHistory creates a ring holding up to capacity records.
func NewDecisionHistory(capacity int) *DecisionHistory {
	if capacity <= 0 {
		capacity = 100
	}
	return &DecisionHistory{
		capacity: capacity,
		entries:  make([]DecisionRecord, capacity),
	}
}

// Record appends one record, evicting the oldest when full.
func (h *DecisionHistory) Record(rec DecisionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.next] = rec
	h.next++
	if h.next == h.capacity {
		h.next = 0
		h.filled = true
	}
}

// Len returns the number of records currently held.
func (h *DecisionHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.filled {
		return h.capacity
	}
	return h.next
}

// Recent returns up to n records, newest first.
func (h *DecisionHistory) Recent(n int) []DecisionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	size := h.next
	if h.filled {
		size = h.capacity
	}
	if n > size {
		n = size
	}
	out := make([]DecisionRecord, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + h.capacity) % h.capacity
		out = append(out, h.entries[idx])
	}
	return out
}

// ForChat returns up to n records for one chat, newest first.
func (h *DecisionHistory) ForChat(chatID string, n int) []DecisionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	size := h.next
	if h.filled {
		size = h.capacity
	}
	out := make([]DecisionRecord, 0, n)
	for i := 1; i <= size && len(out) < n; i++ {
		idx := (h.next - i + h.capacity) % h.capacity
		if h.entries[idx].ChatID == chatID {
			out = append(out, h.entries[idx])
		}
	}
	return out
}
