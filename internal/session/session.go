// Package session keeps per-user conversation state: the recent transcript and
// the timestamps the schedulers use to decide on follow-ups, reminders, and
// promos.
package session

import "time"

// MaxTranscript is the number of transcript entries kept per user (the last
// ten user/assistant turns).
const MaxTranscript = 20

// MaxFollowUps bounds FollowUpCount.
const MaxFollowUps = 3

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Reminder is a one-shot message scheduled by the user.
type Reminder struct {
	FireAt time.Time `json:"fire_at"`
	Text   string    `json:"text"`
}

// Session is one user's conversation state. Values handed out by a Store are
// copies; mutate through Store.Update or Store.Scan.
type Session struct {
	UserID              string    `json:"user_id"`
	Transcript          []Turn    `json:"transcript"`
	LastMessageTime     time.Time `json:"last_message_time"`
	FollowUpCount       int       `json:"follow_up_count"`
	LastPromoTime       time.Time `json:"last_promo_time"` // zero: never sent
	PendingReminder     *Reminder `json:"pending_reminder,omitempty"`
	LastOutboundMessage string    `json:"last_outbound_message,omitempty"`
}

// AppendTurn adds a transcript entry and drops the oldest entries beyond
// MaxTranscript.
func (s *Session) AppendTurn(role Role, content string) {
	s.Transcript = append(s.Transcript, Turn{Role: role, Content: content})
	if n := len(s.Transcript); n > MaxTranscript {
		s.Transcript = append([]Turn(nil), s.Transcript[n-MaxTranscript:]...)
	}
}

// MarkInbound records activity from the user: the follow-up cycle restarts.
func (s *Session) MarkInbound(now time.Time) {
	s.LastMessageTime = now
	s.FollowUpCount = 0
}

func (s Session) clone() Session {
	c := s
	c.Transcript = append([]Turn(nil), s.Transcript...)
	if s.PendingReminder != nil {
		r := *s.PendingReminder
		c.PendingReminder = &r
	}
	return c
}
