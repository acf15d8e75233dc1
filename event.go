package respondsdk

import (
	"fmt"
	"time"
)

// ──────────────────────────────────────────────
// MessageEvent — inbound message from the transport collaborator
// ──────────────────────────────────────────────

// MessageEvent is one incoming conversational message. The transport layer
// (Telegram, Discord, ...) builds these; the orchestrator consumes them.
type MessageEvent struct {
	ChatID    string    `json:"chat_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsMention bool      `json:"is_mention"` // the bot was @mentioned
	IsReply   bool      `json:"is_reply"`   // message replies to the bot
}

// Validate rejects malformed events before any engine state is touched.
// A rejected event is fatal to that event only, never to the loop.
func (e MessageEvent) Validate() error {
	if e.ChatID == "" {
		return fmt.Errorf("%w: empty chat_id", ErrInvalidEvent)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: empty user_id", ErrInvalidEvent)
	}
	if e.Timestamp.IsZero() || e.Timestamp.Unix() < 0 {
		return fmt.Errorf("%w: bad timestamp %v", ErrInvalidEvent, e.Timestamp)
	}
	return nil
}
