package core

import (
	"context"
	"time"

	"github.com/holmosapien/slattice/internal/directory"
)

// freshnessWindow bounds how far back a conversation's newest message may be
// before bootstrap skips re-fetching its detail and history. Workspaces
// accumulate hundreds of idle multi-person conversations; anything quiet for
// over a month is not worth the API calls.
const freshnessWindow = 31 * 24 * time.Hour

// bootstrap drains the two paginated sweeps, identities first, feeding every
// page back into the session loop so registry writes stay on the single
// workspace timeline. A failed page ends its sweep; the other proceeds.
func (s *Session) bootstrap(ctx context.Context) {
	cursor := ""
	for {
		page, err := s.dir.ListIdentities(ctx, cursor)
		if err != nil {
			s.log.Error().Err(err).Str("cursor", cursor).Msg("identity page fetch failed")
			break
		}
		s.Enqueue(ctx, &Event{Kind: EventIdentityPage, IdentityPage: &page})
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	cursor = ""
	for {
		page, err := s.dir.ListConversations(ctx, cursor)
		if err != nil {
			s.log.Error().Err(err).Str("cursor", cursor).Msg("conversation page fetch failed")
			break
		}
		s.Enqueue(ctx, &Event{Kind: EventConversationPage, ConversationPage: &page})
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	s.Enqueue(ctx, &Event{Kind: EventBootstrapDone})
}

func (s *Session) handleIdentityPage(page *directory.IdentityPage) {
	for _, ident := range page.Identities {
		if ident.Deleted {
			continue
		}
		s.registry.UpsertIdentity(s.teamID, ident.ID, ident.Name, ident.RealName)
	}
}

func (s *Session) handleConversationPage(ctx context.Context, page *directory.ConversationPage) {
	for _, entry := range page.Conversations {
		s.bootstrapConversation(ctx, entry)
	}
}

// bootstrapConversation classifies one bulk-listing entry, stores it when it
// passes the membership/open-ness filter, and decides via the freshness
// policy whether its detail and history are worth fetching.
func (s *Session) bootstrapConversation(ctx context.Context, entry directory.ConversationEntry) {
	kind := classifyKind(entry)

	// The source omits is_open for plain channels.
	isOpen := true
	if entry.IsOpen != nil {
		isOpen = *entry.IsOpen
	}

	switch kind {
	case KindChannel, KindGroup:
		if !entry.IsMember {
			return
		}
	case KindMPIM:
		if !entry.IsMember || !isOpen {
			return
		}
	case KindIM:
		if !isOpen || entry.IsUserDeleted {
			return
		}
	}

	name := entry.Name
	var identityUnknown bool
	if kind == KindIM {
		// Seed with the peer id; the resolver fills in the display name.
		name = entry.UserID
		if ident, ok := s.registry.Identity(s.teamID, entry.UserID); ok {
			name = ident.DisplayName
		} else {
			identityUnknown = true
		}
	}
	if kind == KindMPIM && len(entry.Members) > 0 {
		name = makeGroupName(entry.Members, s.registry.Identities(s.teamID))
	}

	lastRead := Marker(entry.LastRead)
	if lastRead.IsZero() {
		lastRead = MarkerNone
	}

	patch := ConversationPatch{
		Name:        &name,
		Kind:        &kind,
		IsMember:    &entry.IsMember,
		IsOpen:      &isOpen,
		UserDeleted: &entry.IsUserDeleted,
		LastRead:    &lastRead,
	}
	if kind == KindIM {
		patch.UserID = &entry.UserID
	}
	if kind == KindMPIM {
		patch.Members = entry.Members
	}
	s.registry.UpsertConversation(s.teamID, entry.ID, patch)

	if !s.shouldFetch(ctx, entry.ID) {
		return
	}

	s.fetchConversationHistory(ctx, entry.ID, lastRead, false)

	if identityUnknown {
		s.fetchIdentity(ctx, entry.UserID)
	}
	if kind == KindMPIM && len(entry.Members) == 0 {
		s.fetchConversationMembers(ctx, entry.ID)
	}
}

// shouldFetch is the freshness policy: fetch when the cache has never seen
// the conversation or when its newest message is more recent than the
// freshness window; skip otherwise. Cache errors count as "never seen".
func (s *Session) shouldFetch(ctx context.Context, convID string) bool {
	rec, err := s.fresh.Lookup(ctx, s.teamID, convID)
	if err != nil {
		s.log.Error().Err(err).Str("conversation_id", convID).Msg("freshness lookup failed")
		return true
	}
	if rec == nil || rec.LastMessage == "" {
		return true
	}

	age := s.now().Sub(Marker(rec.LastMessage).Time())
	return age < freshnessWindow
}

func (s *Session) handleBootstrapDone(ctx context.Context) {
	s.registry.SetStatus(s.teamID, TeamReady)
	s.log.Info().Msg("bootstrap complete")
	s.refreshViews(ctx)
}

func classifyKind(entry directory.ConversationEntry) ConversationKind {
	switch {
	case entry.IsIM:
		return KindIM
	case entry.IsMPIM:
		return KindMPIM
	case entry.IsGroup:
		return KindGroup
	default:
		return KindChannel
	}
}
