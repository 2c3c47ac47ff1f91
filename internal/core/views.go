package core

import (
	"context"
	"maps"
	"time"
)

// typingWindow is how long a typing pulse stays visible without a refresh.
const typingWindow = 10 * time.Second

// placeholderTypingName is shown while a typing conversation's real name is
// still being fetched.
const placeholderTypingName = "-"

func (s *Session) refreshViews(ctx context.Context) {
	s.processUnread()
	s.processTyping(ctx, "")
}

// processUnread recomputes the unread view from scratch. The predicate
// depends on two independently-changing fields, so the view is never patched
// incrementally. A notification goes out only when the view changed.
func (s *Session) processUnread() {
	conversations := s.registry.Conversations(s.teamID)

	unread := make(map[string]UnreadEntry)
	for id, conv := range conversations {
		if conv.Unread() {
			unread[id] = UnreadEntry{Name: conv.Name, UnreadCount: conv.UnreadCount}
		}
	}

	previous := s.registry.UnreadView(s.teamID)
	if maps.Equal(previous, unread) {
		return
	}

	s.registry.SetUnreadView(s.teamID, unread)
	s.sendTeamUpdate()
}

// processTyping recomputes the typing view: expired entries and the
// refreshed conversation are dropped, then the refreshed conversation is
// re-added with the current time. A decay-only pass (empty channelID)
// notifies only on change; a directed pulse always notifies, so stop-typing
// transitions surface even when the map is structurally unchanged.
func (s *Session) processTyping(ctx context.Context, channelID string) {
	now := s.now()
	previous := s.registry.TypingView(s.teamID)

	typing := make(map[string]TypingEntry)
	for id, entry := range previous {
		if now.Sub(entry.TS) > typingWindow {
			continue
		}
		if channelID != "" && id == channelID {
			continue
		}
		typing[id] = entry
	}

	if channelID != "" {
		name := placeholderTypingName
		if conv, ok := s.registry.Conversation(s.teamID, channelID); ok {
			name = conv.Name
		} else {
			s.fetchConversationInfo(ctx, channelID)
		}
		typing[channelID] = TypingEntry{Name: name, TS: now}
	}

	changed := !maps.Equal(previous, typing)
	if changed {
		s.registry.SetTypingView(s.teamID, typing)
	}
	if changed || channelID != "" {
		s.sendTeamUpdate()
	}
}

func (s *Session) sendTeamUpdate() {
	snap, ok := s.registry.Snapshot(s.teamID)
	if !ok {
		return
	}

	update := TeamUpdate{
		TeamID: s.teamID,
		Name:   snap.Name,
		Unread: snap.Unread,
		Typing: snap.Typing,
	}

	s.log.Debug().
		Int("unread", len(update.Unread)).
		Int("typing", len(update.Typing)).
		Msg("sending team update")

	s.notify.TeamUpdated(update)
}
