package core

import "github.com/holmosapien/slattice/internal/directory"

// EventKind identifies what happened.
type EventKind int

const (
	// EventAuthenticated marks a successful workspace connection and starts
	// the bootstrap sweeps.
	EventAuthenticated EventKind = iota
	// EventMessage is a posted, edited, deleted, or archived message variant,
	// distinguished by subtype.
	EventMessage
	// EventUserTyping is a typing pulse for one conversation.
	EventUserTyping
	// EventChannelMarked advances the read marker of a channel.
	EventChannelMarked
	// EventGroupMarked advances the read marker of a private group.
	EventGroupMarked
	// EventMPIMMarked advances the read marker of a multi-person message.
	EventMPIMMarked
	// EventIMMarked advances the read marker of a direct message.
	EventIMMarked
	// EventChannelJoined replaces a channel with a fresh record.
	EventChannelJoined
	// EventGroupJoined replaces a group with a fresh record.
	EventGroupJoined
	// EventPong is the liveness pulse; it only decays the typing view.
	EventPong
	// EventRefresh re-announces the current views unconditionally, without
	// mutating state. Duplicate connect attempts use it.
	EventRefresh

	// Completions of asynchronous directory fetches. They re-enter the
	// session loop so every registry write stays on one timeline.

	// EventIdentityPage delivers one page of the bootstrap identity sweep.
	EventIdentityPage
	// EventConversationPage delivers one page of the bootstrap conversation sweep.
	EventConversationPage
	// EventBootstrapDone marks both sweeps as drained.
	EventBootstrapDone
	// EventIdentityInfo delivers a lazily-fetched identity.
	EventIdentityInfo
	// EventConversationInfo delivers a conversation detail lookup.
	EventConversationInfo
	// EventConversationMembers delivers a membership lookup.
	EventConversationMembers
	// EventConversationHistory delivers a bounded history lookup.
	EventConversationHistory
)

// Message subtypes with special handling. Anything else falls through to the
// ordinary new-message path.
const (
	subtypeMessageChanged = "message_changed"
	subtypeMessageDeleted = "message_deleted"
	subtypeChannelArchive = "channel_archive"
)

// AuthenticatedEvent carries the workspace identity from the gateway.
type AuthenticatedEvent struct {
	TeamName string
}

// MessageEvent carries the fields of a live message event.
type MessageEvent struct {
	Channel string
	Subtype string
	TS      Marker
	// PreviousTS is the marker of the message before a deleted one, when the
	// source supplied it.
	PreviousTS Marker
}

// TypingEvent carries a typing pulse.
type TypingEvent struct {
	Channel string
}

// MarkedEvent carries a read-marker advance. UnreadCount is authoritative
// for channel, group, and multi-person variants and ignored for direct ones.
type MarkedEvent struct {
	Channel     string
	TS          Marker
	UnreadCount int
}

// JoinedEvent carries the conversation payload of a join event.
type JoinedEvent struct {
	Channel  string
	Name     string
	LastRead Marker
	Latest   Marker
}

// MembersResult is a membership lookup completion.
type MembersResult struct {
	Channel string
	Members []string
}

// HistoryResult is a history lookup completion.
type HistoryResult struct {
	Channel  string
	Messages []directory.HistoryMessage
}

// Event is the tagged union flowing through a session. Exactly one payload
// field matching Kind is set.
type Event struct {
	Kind EventKind

	Authenticated    *AuthenticatedEvent
	Message          *MessageEvent
	Typing           *TypingEvent
	Marked           *MarkedEvent
	Joined           *JoinedEvent
	IdentityPage     *directory.IdentityPage
	ConversationPage *directory.ConversationPage
	IdentityInfo     *directory.Identity
	ConversationInfo *directory.ConversationDetail
	Members          *MembersResult
	History          *HistoryResult
}
