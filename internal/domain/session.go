package domain

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a turn is appended to a session id
// that was never created. Callers recover by creating the session first.
var ErrSessionNotFound = errors.New("session not found")

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message within a session. Once committed it is never
// mutated or deleted.
type Turn struct {
	Seq       int       `json:"seq"` // 1-based, strictly increasing, no gaps
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Domain    Domain    `json:"domain,omitempty"` // specialist attribution; empty for user turns
	CreatedAt time.Time `json:"created_at"`
}

// Session is the durable state of one conversation. Turns holds the
// recent window loaded for the current read; TurnCount is authoritative
// for sequence assignment.
type Session struct {
	ID         string    `json:"id"`
	TurnCount  int       `json:"turn_count"`
	LastDomain Domain    `json:"last_domain,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Turns      []Turn    `json:"turns,omitempty"`
}
