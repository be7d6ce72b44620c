package domain

import "time"

// InboundMessage is one user message arriving from a channel.
type InboundMessage struct {
	Channel   string
	ChatID    string
	SenderID  string
	Content   string
	Timestamp time.Time
}

// OutboundMessage is a reply delivered back through a channel.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
	Failed  bool // true when this is an error reply rather than an answer
}
