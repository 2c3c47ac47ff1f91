package cache

import (
	"context"
	"time"
)

// Record is the durable freshness state for one conversation: the newest
// message marker seen and when it was recorded.
type Record struct {
	TeamID         string
	ConversationID string
	Kind           string
	Name           string
	LastMessage    string
	LastUpdate     time.Time
}

// Freshness decides whether a conversation is worth re-fetching at bootstrap.
type Freshness interface {
	// Lookup returns the record for (team, conversation), or nil when absent.
	Lookup(ctx context.Context, teamID, conversationID string) (*Record, error)

	// Record upserts the freshness state for (team, conversation).
	Record(ctx context.Context, teamID, conversationID, name, kind, lastMessage string) error
}
