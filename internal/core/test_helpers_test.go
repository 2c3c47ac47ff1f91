package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/holmosapien/slattice/internal/cache"
	"github.com/holmosapien/slattice/internal/directory"
)

const testTeamID = "T100"

// fakeDirectory serves canned pages and lookups and records which
// conversations had their history fetched.
type fakeDirectory struct {
	mu sync.Mutex

	identityPages     []directory.IdentityPage
	conversationPages []directory.ConversationPage
	identities        map[string]directory.Identity
	details           map[string]directory.ConversationDetail
	members           map[string][]string
	history           map[string][]directory.HistoryMessage

	historyCalls []historyCall
}

type historyCall struct {
	Channel   string
	Oldest    string
	Inclusive bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		identities: make(map[string]directory.Identity),
		details:    make(map[string]directory.ConversationDetail),
		members:    make(map[string][]string),
		history:    make(map[string][]directory.HistoryMessage),
	}
}

func (f *fakeDirectory) ListIdentities(ctx context.Context, cursor string) (directory.IdentityPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, page := range f.identityPages {
		want := ""
		if i > 0 {
			want = f.identityPages[i-1].NextCursor
		}
		if cursor == want {
			return page, nil
		}
	}
	return directory.IdentityPage{}, nil
}

func (f *fakeDirectory) ListConversations(ctx context.Context, cursor string) (directory.ConversationPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, page := range f.conversationPages {
		want := ""
		if i > 0 {
			want = f.conversationPages[i-1].NextCursor
		}
		if cursor == want {
			return page, nil
		}
	}
	return directory.ConversationPage{}, nil
}

func (f *fakeDirectory) Identity(ctx context.Context, id string) (directory.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identities[id], nil
}

func (f *fakeDirectory) ConversationInfo(ctx context.Context, id string) (directory.ConversationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details[id], nil
}

func (f *fakeDirectory) ConversationMembers(ctx context.Context, id string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[id], nil
}

func (f *fakeDirectory) ConversationHistory(ctx context.Context, id, oldest string, inclusive bool) ([]directory.HistoryMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls = append(f.historyCalls, historyCall{Channel: id, Oldest: oldest, Inclusive: inclusive})
	return f.history[id], nil
}

func (f *fakeDirectory) historyCallsFor(channel string) []historyCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []historyCall
	for _, c := range f.historyCalls {
		if c.Channel == channel {
			calls = append(calls, c)
		}
	}
	return calls
}

// fakeFreshness is an in-memory cache.Freshness.
type fakeFreshness struct {
	mu      sync.Mutex
	records map[string]cache.Record
}

func newFakeFreshness() *fakeFreshness {
	return &fakeFreshness{records: make(map[string]cache.Record)}
}

func (f *fakeFreshness) Lookup(ctx context.Context, teamID, conversationID string) (*cache.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[teamID+"/"+conversationID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeFreshness) Record(ctx context.Context, teamID, conversationID, name, kind, lastMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records[teamID+"/"+conversationID] = cache.Record{
		TeamID:         teamID,
		ConversationID: conversationID,
		Name:           name,
		Kind:           kind,
		LastMessage:    lastMessage,
		LastUpdate:     time.Now(),
	}
	return nil
}

func (f *fakeFreshness) seed(teamID, conversationID, lastMessage string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records[teamID+"/"+conversationID] = cache.Record{
		TeamID:         teamID,
		ConversationID: conversationID,
		LastMessage:    lastMessage,
		LastUpdate:     time.Now(),
	}
}

// recordingNotifier captures every outbound update.
type recordingNotifier struct {
	mu      sync.Mutex
	updates []TeamUpdate
}

func (n *recordingNotifier) TeamUpdated(update TeamUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, update)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.updates)
}

func (n *recordingNotifier) last() TeamUpdate {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.updates) == 0 {
		return TeamUpdate{}
	}
	return n.updates[len(n.updates)-1]
}

func newTestSession(t *testing.T, dir directory.Client, fresh cache.Freshness) (*Session, *Registry, *recordingNotifier) {
	t.Helper()

	registry := NewRegistry()
	registry.Connect(testTeamID, "acme", "token-1")

	notifier := &recordingNotifier{}
	session := NewSession(testTeamID, registry, dir, fresh, notifier, zerolog.Nop())
	return session, registry, notifier
}

// drainEvents dispatches everything already queued plus anything the
// asynchronous fetch helpers feed back, stopping after a quiet interval.
func drainEvents(t *testing.T, ctx context.Context, s *Session) {
	t.Helper()

	for {
		select {
		case ev := <-s.events:
			s.dispatch(ctx, ev)
		case <-time.After(200 * time.Millisecond):
			return
		}
	}
}

func markerPtr(m Marker) *Marker { return &m }
func intPtr(n int) *int          { return &n }
func strPtr(s string) *string    { return &s }
func boolPtr(b bool) *bool       { return &b }
