package core

import (
	"context"

	"github.com/holmosapien/slattice/internal/directory"
)

func (s *Session) handleAuthenticated(ctx context.Context, ev *AuthenticatedEvent) {
	s.log.Info().Str("team_name", ev.TeamName).Msg("authenticated")

	s.registry.SetStatus(s.teamID, TeamLoading)
	go s.bootstrap(ctx)
}

// handleMessage applies one live message event. Unknown subtypes are treated
// as ordinary new messages.
func (s *Session) handleMessage(ctx context.Context, ev *MessageEvent) {
	rollback := false
	lastMessage := ev.TS

	switch ev.Subtype {
	case subtypeMessageChanged:
		// Edits don't move the last-message marker.
		return
	case subtypeChannelArchive:
		s.registry.RemoveConversation(s.teamID, ev.Channel)
		s.processUnread()
		return
	case subtypeMessageDeleted:
		// Roll the marker back to the previous message.
		rollback = true
		lastMessage = ev.PreviousTS
		if lastMessage.IsZero() {
			lastMessage = MarkerNone
		}
	}

	conv, known := s.registry.Conversation(s.teamID, ev.Channel)

	unread := 1
	if known {
		unread = conv.UnreadCount + 1
	}
	if rollback {
		unread = 0
		if known && conv.UnreadCount > 0 {
			unread = conv.UnreadCount - 1
		}
	}

	if _, ok := s.registry.UpsertConversation(s.teamID, ev.Channel, ConversationPatch{
		LastMessage: &lastMessage,
		UnreadCount: &unread,
	}); !ok {
		s.log.Warn().Str("conversation_id", ev.Channel).Msg("message for unknown team dropped")
		return
	}

	if !known {
		// First sighting: the defaulted record has a placeholder name, so
		// ask the directory who this is.
		s.fetchConversationInfo(ctx, ev.Channel)
	}

	s.processUnread()
}

// handleMarked applies an authoritative read-marker advance for channels,
// groups, and multi-person messages.
func (s *Session) handleMarked(ev *MarkedEvent) {
	if _, ok := s.registry.Conversation(s.teamID, ev.Channel); !ok {
		s.log.Warn().Str("conversation_id", ev.Channel).Msg("mark for unknown conversation dropped")
		return
	}

	s.registry.UpsertConversation(s.teamID, ev.Channel, ConversationPatch{
		LastRead:    &ev.TS,
		UnreadCount: &ev.UnreadCount,
	})

	s.processUnread()
}

// handleIMMarked applies a direct-message read-marker advance. The count is
// forced to zero and then recomputed from a history fetch bounded to the new
// marker, because messages may have arrived between the mark and the fetch.
func (s *Session) handleIMMarked(ctx context.Context, ev *MarkedEvent) {
	if _, ok := s.registry.Conversation(s.teamID, ev.Channel); !ok {
		s.log.Warn().Str("conversation_id", ev.Channel).Msg("mark for unknown direct conversation dropped")
		return
	}

	zero := 0
	s.registry.UpsertConversation(s.teamID, ev.Channel, ConversationPatch{
		LastRead:    &ev.TS,
		UnreadCount: &zero,
	})

	s.fetchConversationHistory(ctx, ev.Channel, ev.TS, true)
}

// handleJoined replaces the conversation wholesale with a record derived
// from the join event.
func (s *Session) handleJoined(ev *JoinedEvent, kind ConversationKind) {
	lastRead := ev.LastRead
	if lastRead.IsZero() {
		lastRead = MarkerNone
	}

	s.registry.ReplaceConversation(s.teamID, Conversation{
		ID:          ev.Channel,
		Name:        ev.Name,
		Kind:        kind,
		IsMember:    true,
		IsOpen:      true,
		LastMessage: ev.Latest,
		LastRead:    lastRead,
		UnreadCount: 0,
	})

	s.processUnread()
}

// handleConversationInfo merges a detail lookup. The conversation may have
// been created by an event that raced ahead of the fetch, or not exist at
// all (typing in an unseen conversation); either way the merge is a patch.
func (s *Session) handleConversationInfo(ctx context.Context, detail *directory.ConversationDetail) {
	switch {
	case detail.IsIM:
		kind := KindIM
		patch := ConversationPatch{Kind: &kind, UserID: &detail.UserID}

		ident, known := s.registry.Identity(s.teamID, detail.UserID)
		if known {
			patch.Name = &ident.DisplayName
		} else {
			patch.Name = &detail.UserID
		}
		s.registry.UpsertConversation(s.teamID, detail.ID, patch)

		if !known {
			s.fetchIdentity(ctx, detail.UserID)
			return
		}
	case detail.IsMPIM:
		kind := KindMPIM
		s.registry.UpsertConversation(s.teamID, detail.ID, ConversationPatch{Kind: &kind})
		s.fetchConversationMembers(ctx, detail.ID)
		return
	default:
		s.registry.UpsertConversation(s.teamID, detail.ID, ConversationPatch{Name: &detail.Name})
	}

	s.refreshViews(ctx)
}

// handleConversationMembers stores a multi-person membership and derives the
// joined display name from it.
func (s *Session) handleConversationMembers(ctx context.Context, res *MembersResult) {
	identities := s.registry.Identities(s.teamID)
	name := makeGroupName(res.Members, identities)

	s.registry.UpsertConversation(s.teamID, res.Channel, ConversationPatch{
		Name:    &name,
		Members: res.Members,
	})

	s.refreshViews(ctx)
}

// handleConversationHistory recomputes the exact unread count from a bounded
// history fetch and records the newest marker in the freshness cache.
func (s *Session) handleConversationHistory(ctx context.Context, res *HistoryResult) {
	conv, ok := s.registry.Conversation(s.teamID, res.Channel)
	if !ok {
		s.log.Warn().Str("conversation_id", res.Channel).Msg("history for unknown conversation dropped")
		return
	}

	var newest Marker
	for _, msg := range res.Messages {
		ts := Marker(msg.TS)
		if ts.After(newest) {
			newest = ts
		}
	}

	count := len(res.Messages)
	s.registry.UpsertConversation(s.teamID, res.Channel, ConversationPatch{
		LastMessage: &newest,
		UnreadCount: &count,
	})

	if err := s.fresh.Record(ctx, s.teamID, res.Channel, conv.Name, string(conv.Kind), string(newest)); err != nil {
		s.log.Error().Err(err).Str("conversation_id", res.Channel).Msg("freshness record failed")
	}

	s.processUnread()
}
