package core

import "testing"

func TestConversationUnread(t *testing.T) {
	cases := []struct {
		name string
		conv Conversation
		want bool
	}{
		{"never seen a message", Conversation{LastRead: MarkerNone}, false},
		{"message after marker", Conversation{LastMessage: "200.0", LastRead: "100.0"}, true},
		{"message at marker", Conversation{LastMessage: "100.0", LastRead: "100.0"}, false},
		{"message before marker", Conversation{LastMessage: "100.0", LastRead: "200.0"}, false},
		{"message with sentinel marker", Conversation{LastMessage: "100.0", LastRead: MarkerNone}, true},
		{"rolled back to sentinel", Conversation{LastMessage: MarkerNone, LastRead: MarkerNone}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.conv.Unread(); got != tc.want {
				t.Errorf("Unread() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApplyConversationPatch_NilFieldsUntouched(t *testing.T) {
	existing := Conversation{
		ID:          "C1",
		Name:        "general",
		Kind:        KindChannel,
		IsMember:    true,
		IsOpen:      true,
		LastMessage: "100.0",
		LastRead:    "50.0",
		UnreadCount: 3,
	}

	updated := applyConversationPatch(existing, ConversationPatch{
		LastRead:    markerPtr("100.0"),
		UnreadCount: intPtr(0),
	})

	if updated.LastRead != "100.0" || updated.UnreadCount != 0 {
		t.Errorf("patched fields not applied: %+v", updated)
	}
	if updated.Name != "general" || updated.Kind != KindChannel || updated.LastMessage != "100.0" {
		t.Errorf("unpatched fields changed: %+v", updated)
	}
}

func TestApplyConversationPatch_CopiesMembers(t *testing.T) {
	members := []string{"U1", "U2"}
	updated := applyConversationPatch(Conversation{ID: "G1"}, ConversationPatch{Members: members})

	members[0] = "mutated"
	if updated.Members[0] != "U1" {
		t.Error("patch should copy the member slice, not alias it")
	}
}

func TestNewConversationDefaults(t *testing.T) {
	conv := newConversation("C9")

	if conv.Name != "C9" {
		t.Errorf("name should default to the id, got %q", conv.Name)
	}
	if conv.Kind != KindChannel {
		t.Errorf("kind should default to channel, got %q", conv.Kind)
	}
	if !conv.IsOpen {
		t.Error("conversations default to open")
	}
	if conv.LastRead != MarkerNone {
		t.Errorf("last read should default to the sentinel, got %q", conv.LastRead)
	}
	if conv.Unread() {
		t.Error("a fresh record has nothing unread")
	}
}

func TestMakeIdentity_PrefersRealName(t *testing.T) {
	if got := makeIdentity("U1", "alice", "Alice Liddell"); got.DisplayName != "Alice Liddell" {
		t.Errorf("DisplayName = %q, want real name", got.DisplayName)
	}
	if got := makeIdentity("U1", "alice", ""); got.DisplayName != "alice" {
		t.Errorf("DisplayName = %q, want handle fallback", got.DisplayName)
	}
}

func TestMakeGroupName(t *testing.T) {
	identities := map[string]Identity{
		"U1": {ID: "U1", DisplayName: "Alice"},
		"U2": {ID: "U2", DisplayName: "Bob"},
	}

	if got := makeGroupName([]string{"U1", "U2"}, identities); got != "Alice / Bob" {
		t.Errorf("makeGroupName = %q", got)
	}
	if got := makeGroupName([]string{"U1", "U9"}, identities); got != "Alice / U9" {
		t.Errorf("unresolved member should fall back to its id, got %q", got)
	}
	if got := makeGroupName(nil, identities); got != "Unknown" {
		t.Errorf("empty membership should yield Unknown, got %q", got)
	}
}
