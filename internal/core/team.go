package core

import (
	"strings"
	"time"
)

// TeamStatus tracks how far a workspace connection has progressed.
type TeamStatus string

const (
	TeamUnauthenticated TeamStatus = "unauthenticated"
	TeamLoading         TeamStatus = "loading"
	TeamReady           TeamStatus = "ready"
)

// ConversationKind classifies a conversation.
type ConversationKind string

const (
	KindChannel ConversationKind = "channel"
	KindGroup   ConversationKind = "group"
	KindMPIM    ConversationKind = "mpim"
	KindIM      ConversationKind = "im"
)

// Identity is one known workspace member.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
	RealName    string `json:"realName"`
}

// makeIdentity derives the display name: real name when present, else handle.
func makeIdentity(id, name, realName string) Identity {
	displayName := realName
	if displayName == "" {
		displayName = name
	}
	return Identity{
		ID:          id,
		DisplayName: displayName,
		Name:        name,
		RealName:    realName,
	}
}

// Conversation is the engine's record of one channel, group, multi-person
// message, or direct message thread. Name stays equal to the id until a
// lookup or the identity resolver supplies a real one.
type Conversation struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Kind        ConversationKind `json:"kind"`
	IsMember    bool             `json:"isMember"`
	IsOpen      bool             `json:"isOpen"`
	UserDeleted bool             `json:"userDeleted"`
	LastMessage Marker           `json:"lastMessage"`
	LastRead    Marker           `json:"lastRead"`
	UnreadCount int              `json:"unreadCount"`
	Members     []string         `json:"members,omitempty"` // multi-person only
	UserID      string           `json:"userId,omitempty"`  // direct peer only
}

// Unread reports whether the conversation satisfies the unread predicate.
func (c Conversation) Unread() bool {
	return !c.LastMessage.IsZero() && c.LastMessage.After(c.LastRead)
}

// ConversationPatch is a partial conversation update. Nil fields leave the
// existing value untouched.
type ConversationPatch struct {
	Name        *string
	Kind        *ConversationKind
	IsMember    *bool
	IsOpen      *bool
	UserDeleted *bool
	LastMessage *Marker
	LastRead    *Marker
	UnreadCount *int
	Members     []string
	UserID      *string
}

// applyConversationPatch merges a patch into an existing record. Pure; the
// registry is the only caller.
func applyConversationPatch(existing Conversation, patch ConversationPatch) Conversation {
	updated := existing

	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Kind != nil {
		updated.Kind = *patch.Kind
	}
	if patch.IsMember != nil {
		updated.IsMember = *patch.IsMember
	}
	if patch.IsOpen != nil {
		updated.IsOpen = *patch.IsOpen
	}
	if patch.UserDeleted != nil {
		updated.UserDeleted = *patch.UserDeleted
	}
	if patch.LastMessage != nil {
		updated.LastMessage = *patch.LastMessage
	}
	if patch.LastRead != nil {
		updated.LastRead = *patch.LastRead
	}
	if patch.UnreadCount != nil {
		updated.UnreadCount = *patch.UnreadCount
	}
	if patch.Members != nil {
		updated.Members = append([]string(nil), patch.Members...)
	}
	if patch.UserID != nil {
		updated.UserID = *patch.UserID
	}

	return updated
}

// newConversation returns the defaulted record a patch is applied onto when
// the conversation is first seen.
func newConversation(id string) Conversation {
	return Conversation{
		ID:       id,
		Name:     id,
		Kind:     KindChannel,
		IsOpen:   true,
		LastRead: MarkerNone,
	}
}

// UnreadEntry is one row of the unread view.
type UnreadEntry struct {
	Name        string `json:"name"`
	UnreadCount int    `json:"unreadCount"`
}

// TypingEntry is one row of the typing view.
type TypingEntry struct {
	Name string    `json:"name"`
	TS   time.Time `json:"ts"`
}

// Team is the authoritative state for one connected workspace.
type Team struct {
	ID            string
	Name          string
	Token         string
	Status        TeamStatus
	Identities    map[string]Identity
	Conversations map[string]Conversation
	Unread        map[string]UnreadEntry
	Typing        map[string]TypingEntry
}

// makeGroupName joins member display names with " / ", falling back to the
// raw id for members that have not been resolved yet.
func makeGroupName(members []string, identities map[string]Identity) string {
	if len(members) == 0 {
		return "Unknown"
	}

	names := make([]string, 0, len(members))
	for _, userID := range members {
		if ident, ok := identities[userID]; ok {
			names = append(names, ident.DisplayName)
		} else {
			names = append(names, userID)
		}
	}

	return strings.Join(names, " / ")
}
