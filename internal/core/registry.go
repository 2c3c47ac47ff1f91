package core

import (
	"maps"
	"sync"
)

// Registry owns the in-memory state for every connected workspace. It is
// constructed once and injected; nothing mutates team state except through
// its methods. Writes for one team always come from that team's session
// goroutine, while snapshot readers may run concurrently.
type Registry struct {
	mu    sync.RWMutex
	teams map[string]*Team
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{teams: make(map[string]*Team)}
}

// Connect registers a workspace. Reconnecting an existing team id keeps the
// accumulated state and only refreshes name and token.
func (r *Registry) Connect(teamID, name, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if team, ok := r.teams[teamID]; ok {
		team.Name = name
		team.Token = token
		return
	}

	r.teams[teamID] = &Team{
		ID:            teamID,
		Name:          name,
		Token:         token,
		Status:        TeamUnauthenticated,
		Identities:    make(map[string]Identity),
		Conversations: make(map[string]Conversation),
		Unread:        make(map[string]UnreadEntry),
		Typing:        make(map[string]TypingEntry),
	}
}

// Disconnect removes a workspace and all of its state.
func (r *Registry) Disconnect(teamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.teams, teamID)
}

// TeamByToken returns the id of the workspace connected with token.
func (r *Registry) TeamByToken(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, team := range r.teams {
		if team.Token == token {
			return id, true
		}
	}
	return "", false
}

// SetStatus updates the connection status of a workspace.
func (r *Registry) SetStatus(teamID string, status TeamStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if team, ok := r.teams[teamID]; ok {
		team.Status = status
	}
}

// UpsertIdentity stores an identity, recomputing the display name wholesale.
func (r *Registry) UpsertIdentity(teamID, id, name, realName string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return Identity{}, false
	}

	ident := makeIdentity(id, name, realName)
	team.Identities[id] = ident
	return ident, true
}

// Identity returns one identity by id.
func (r *Registry) Identity(teamID, id string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[teamID]
	if !ok {
		return Identity{}, false
	}
	ident, ok := team.Identities[id]
	return ident, ok
}

// Identities returns a copy of the identity map.
func (r *Registry) Identities(teamID string) map[string]Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[teamID]
	if !ok {
		return nil
	}
	return maps.Clone(team.Identities)
}

// UpsertConversation merges a patch into the existing conversation, creating
// a defaulted record when the conversation is first seen.
func (r *Registry) UpsertConversation(teamID, convID string, patch ConversationPatch) (Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return Conversation{}, false
	}

	existing, ok := team.Conversations[convID]
	if !ok {
		existing = newConversation(convID)
	}

	updated := applyConversationPatch(existing, patch)
	team.Conversations[convID] = updated
	return updated, true
}

// ReplaceConversation overwrites a conversation wholesale. Only the join
// path uses this; everything else merges patches.
func (r *Registry) ReplaceConversation(teamID string, conv Conversation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return false
	}
	team.Conversations[conv.ID] = conv
	return true
}

// RemoveConversation deletes a conversation (archive).
func (r *Registry) RemoveConversation(teamID, convID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if team, ok := r.teams[teamID]; ok {
		delete(team.Conversations, convID)
	}
}

// Conversation returns one conversation by id.
func (r *Registry) Conversation(teamID, convID string) (Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[teamID]
	if !ok {
		return Conversation{}, false
	}
	conv, ok := team.Conversations[convID]
	return conv, ok
}

// Conversations returns a copy of the conversation map.
func (r *Registry) Conversations(teamID string) map[string]Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[teamID]
	if !ok {
		return nil
	}
	return maps.Clone(team.Conversations)
}

// UnreadView returns the current unread view.
func (r *Registry) UnreadView(teamID string) map[string]UnreadEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[teamID]
	if !ok {
		return nil
	}
	return maps.Clone(team.Unread)
}

// SetUnreadView replaces the unread view.
func (r *Registry) SetUnreadView(teamID string, unread map[string]UnreadEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if team, ok := r.teams[teamID]; ok {
		team.Unread = unread
	}
}

// TypingView returns the current typing view.
func (r *Registry) TypingView(teamID string) map[string]TypingEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[teamID]
	if !ok {
		return nil
	}
	return maps.Clone(team.Typing)
}

// SetTypingView replaces the typing view.
func (r *Registry) SetTypingView(teamID string, typing map[string]TypingEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if team, ok := r.teams[teamID]; ok {
		team.Typing = typing
	}
}

// TeamSnapshot is a read-only copy of workspace state for consumers.
type TeamSnapshot struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Status        TeamStatus             `json:"status"`
	Conversations int                    `json:"conversations"`
	Identities    int                    `json:"identities"`
	Unread        map[string]UnreadEntry `json:"unread"`
	Typing        map[string]TypingEntry `json:"typing"`
}

// Snapshot returns a copy of one workspace's consumer-facing state.
func (r *Registry) Snapshot(teamID string) (TeamSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[teamID]
	if !ok {
		return TeamSnapshot{}, false
	}
	return snapshotLocked(team), true
}

// Snapshots returns copies of every connected workspace's state.
func (r *Registry) Snapshots() []TeamSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]TeamSnapshot, 0, len(r.teams))
	for _, team := range r.teams {
		snaps = append(snaps, snapshotLocked(team))
	}
	return snaps
}

func snapshotLocked(team *Team) TeamSnapshot {
	return TeamSnapshot{
		ID:            team.ID,
		Name:          team.Name,
		Status:        team.Status,
		Conversations: len(team.Conversations),
		Identities:    len(team.Identities),
		Unread:        maps.Clone(team.Unread),
		Typing:        maps.Clone(team.Typing),
	}
}
