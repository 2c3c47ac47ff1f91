package directory

import "context"

// Identity is one workspace member as returned by the directory source.
type Identity struct {
	ID       string
	Name     string
	RealName string
	Deleted  bool
}

// IdentityPage is one page of the bulk identity listing.
type IdentityPage struct {
	Identities []Identity
	NextCursor string // empty when the listing is drained
}

// ConversationEntry is one row of the bulk conversation listing.
// IsOpen is a pointer because the source omits the flag for plain channels.
type ConversationEntry struct {
	ID            string
	Name          string
	IsChannel     bool
	IsGroup       bool
	IsIM          bool
	IsMPIM        bool
	IsMember      bool
	IsOpen        *bool
	IsUserDeleted bool
	LastRead      string
	UserID        string // peer for direct conversations
	Members       []string
}

// ConversationPage is one page of the bulk conversation listing.
type ConversationPage struct {
	Conversations []ConversationEntry
	NextCursor    string
}

// ConversationDetail is the result of a per-conversation lookup.
type ConversationDetail struct {
	ID     string
	Name   string
	IsIM   bool
	IsMPIM bool
	UserID string
}

// HistoryMessage carries only the position marker of a message; the engine
// never needs message content.
type HistoryMessage struct {
	TS string
}

// Client is the external directory source: paginated bulk listings plus
// on-demand lookups. Every call is network-bound and independently failing.
type Client interface {
	ListIdentities(ctx context.Context, cursor string) (IdentityPage, error)
	ListConversations(ctx context.Context, cursor string) (ConversationPage, error)
	Identity(ctx context.Context, id string) (Identity, error)
	ConversationInfo(ctx context.Context, id string) (ConversationDetail, error)
	ConversationMembers(ctx context.Context, id string) ([]string, error)

	// ConversationHistory returns messages newer than oldest. When inclusive
	// is set, a message exactly at oldest is included. An empty oldest returns
	// the most recent window.
	ConversationHistory(ctx context.Context, id, oldest string, inclusive bool) ([]HistoryMessage, error)
}
