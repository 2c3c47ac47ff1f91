package core

import (
	"context"
	"testing"
	"time"

	"github.com/holmosapien/slattice/internal/directory"
)

func TestTyping_DirectedPulseAlwaysNotifies(t *testing.T) {
	ctx := context.Background()
	s, registry, notifier := newTestSession(t, newFakeDirectory(), newFakeFreshness())

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	registry.UpsertConversation(testTeamID, "C1", ConversationPatch{Name: strPtr("general")})

	s.dispatch(ctx, &Event{Kind: EventUserTyping, Typing: &TypingEvent{Channel: "C1"}})

	view := registry.TypingView(testTeamID)
	if entry, ok := view["C1"]; !ok || entry.Name != "general" || !entry.TS.Equal(now) {
		t.Fatalf("typing view = %+v", view)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one update, got %d", notifier.count())
	}

	// A second pulse at the same instant leaves the view identical but must
	// still notify: the consumer resets its own display timer on every pulse.
	s.dispatch(ctx, &Event{Kind: EventUserTyping, Typing: &TypingEvent{Channel: "C1"}})
	if notifier.count() != 2 {
		t.Errorf("directed pulse with unchanged view should still notify, got %d", notifier.count())
	}
}

func TestTyping_DecaysAfterWindow(t *testing.T) {
	ctx := context.Background()
	s, registry, notifier := newTestSession(t, newFakeDirectory(), newFakeFreshness())

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	registry.UpsertConversation(testTeamID, "C1", ConversationPatch{Name: strPtr("general")})
	s.dispatch(ctx, &Event{Kind: EventUserTyping, Typing: &TypingEvent{Channel: "C1"}})

	// Within the window a pong keeps the entry.
	now = base.Add(9 * time.Second)
	s.dispatch(ctx, &Event{Kind: EventPong})
	if view := registry.TypingView(testTeamID); len(view) != 1 {
		t.Fatalf("entry decayed too early: %+v", view)
	}

	// Past the window it decays, and the change notifies.
	before := notifier.count()
	now = base.Add(11 * time.Second)
	s.dispatch(ctx, &Event{Kind: EventPong})
	if view := registry.TypingView(testTeamID); len(view) != 0 {
		t.Fatalf("entry should have decayed: %+v", view)
	}
	if notifier.count() != before+1 {
		t.Errorf("decay should notify once, got %d -> %d", before, notifier.count())
	}

	// A pong with nothing to decay stays silent.
	before = notifier.count()
	s.dispatch(ctx, &Event{Kind: EventPong})
	if notifier.count() != before {
		t.Errorf("idle pong should not notify, got %d -> %d", before, notifier.count())
	}
}

func TestTyping_RefreshExtendsEntry(t *testing.T) {
	ctx := context.Background()
	s, registry, _ := newTestSession(t, newFakeDirectory(), newFakeFreshness())

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	registry.UpsertConversation(testTeamID, "C1", ConversationPatch{Name: strPtr("general")})
	s.dispatch(ctx, &Event{Kind: EventUserTyping, Typing: &TypingEvent{Channel: "C1"}})

	// A refresh at 8s carries the entry past the original deadline.
	now = base.Add(8 * time.Second)
	s.dispatch(ctx, &Event{Kind: EventUserTyping, Typing: &TypingEvent{Channel: "C1"}})

	now = base.Add(15 * time.Second)
	s.dispatch(ctx, &Event{Kind: EventPong})
	if view := registry.TypingView(testTeamID); len(view) != 1 {
		t.Errorf("refreshed entry should survive the original deadline: %+v", view)
	}
}

func TestTyping_UnknownConversationUsesPlaceholder(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.details["C7"] = directory.ConversationDetail{ID: "C7", Name: "random"}

	s, registry, _ := newTestSession(t, dir, newFakeFreshness())

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.dispatch(ctx, &Event{Kind: EventUserTyping, Typing: &TypingEvent{Channel: "C7"}})

	if view := registry.TypingView(testTeamID); view["C7"].Name != "-" {
		t.Fatalf("unknown conversation should show the placeholder: %+v", view)
	}

	// The detail fetch lands; the next pulse picks up the real name.
	drainEvents(t, ctx, s)
	s.dispatch(ctx, &Event{Kind: EventUserTyping, Typing: &TypingEvent{Channel: "C7"}})

	if view := registry.TypingView(testTeamID); view["C7"].Name != "random" {
		t.Errorf("resolved name should replace the placeholder: %+v", view)
	}
}

func TestRefresh_ReannouncesWithoutChange(t *testing.T) {
	ctx := context.Background()
	s, registry, notifier := newTestSession(t, newFakeDirectory(), newFakeFreshness())

	registry.UpsertConversation(testTeamID, "C1", ConversationPatch{
		Name:        strPtr("general"),
		LastMessage: markerPtr("200.0"),
		LastRead:    markerPtr("100.0"),
		UnreadCount: intPtr(1),
	})

	s.processUnread()
	before := notifier.count()

	s.dispatch(ctx, &Event{Kind: EventRefresh})
	if notifier.count() != before+1 {
		t.Fatalf("refresh should announce even without a change, got %d -> %d", before, notifier.count())
	}

	update := notifier.last()
	if update.TeamID != testTeamID || update.Unread["C1"].UnreadCount != 1 {
		t.Errorf("update = %+v", update)
	}

	s.dispatch(ctx, &Event{Kind: EventRefresh})
	if notifier.count() != before+2 {
		t.Errorf("every refresh should announce, got %d", notifier.count())
	}
}
