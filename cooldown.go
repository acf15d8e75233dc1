package respondsdk

import "time"

// ──────────────────────────────────────────────
// CooldownState — per-chat rate-limiting state machine
// ──────────────────────────────────────────────

// CooldownState tracks when and how often the bot last spoke in one chat.
// Each chat has its own instance; the orchestrator serializes access per
// chat key so two messages can never race past the gates together.
type CooldownState struct {
	LastResponseAt   time.Time `json:"last_response_at"`
	ConsecutiveCount int       `json:"consecutive_response_count"`
	WindowStartedAt  time.Time `json:"window_started_at"`
}

// WindowExpired reports whether the burst window has elapsed.
// A zero window start means no burst is in progress.
func (c *CooldownState) WindowExpired(now time.Time, resetWindow time.Duration) bool {
	if c.WindowStartedAt.IsZero() {
		return true
	}
	return now.Sub(c.WindowStartedAt) > resetWindow
}

// resetIfExpired clears the burst counter once the window has elapsed.
func (c *CooldownState) resetIfExpired(now time.Time, resetWindow time.Duration) {
	if !c.WindowStartedAt.IsZero() && c.WindowExpired(now, resetWindow) {
		c.ConsecutiveCount = 0
		c.WindowStartedAt = time.Time{}
	}
}

// recordResponse commits the state transition for a positive decision.
func (c *CooldownState) recordResponse(now time.Time) {
	c.LastResponseAt = now
	if c.WindowStartedAt.IsZero() {
		c.WindowStartedAt = now
	}
	c.ConsecutiveCount++
}
