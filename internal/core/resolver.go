package core

import (
	"context"
	"slices"

	"github.com/holmosapien/slattice/internal/directory"
)

// handleIdentityInfo stores a lazily-resolved identity and backfills the
// display name of every conversation that was waiting on it: direct
// conversations with a matching peer and multi-person conversations listing
// the member.
func (s *Session) handleIdentityInfo(ctx context.Context, info *directory.Identity) {
	ident, ok := s.registry.UpsertIdentity(s.teamID, info.ID, info.Name, info.RealName)
	if !ok {
		return
	}

	identities := s.registry.Identities(s.teamID)

	for convID, conv := range s.registry.Conversations(s.teamID) {
		var name string
		switch {
		case conv.UserID != "" && conv.UserID == ident.ID:
			name = ident.DisplayName
		case len(conv.Members) > 0 && slices.Contains(conv.Members, ident.ID):
			name = makeGroupName(conv.Members, identities)
		default:
			continue
		}

		s.registry.UpsertConversation(s.teamID, convID, ConversationPatch{Name: &name})
	}

	s.refreshViews(ctx)
}
