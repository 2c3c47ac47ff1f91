package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/holmosapien/slattice/internal/cache"
	"github.com/holmosapien/slattice/internal/directory"
)

const eventBuffer = 64

// TeamUpdate is the single outbound notification type: the consumer-facing
// projection of one workspace, sent only when it changed.
type TeamUpdate struct {
	TeamID string                 `json:"teamId"`
	Name   string                 `json:"name"`
	Unread map[string]UnreadEntry `json:"unread"`
	Typing map[string]TypingEntry `json:"typing"`
}

// Notifier receives view updates. Implementations push them to the
// presentation layer.
type Notifier interface {
	TeamUpdated(update TeamUpdate)
}

// Session is the single writer for one workspace. Typed events arrive on one
// channel and are applied strictly in arrival order; asynchronous directory
// fetches re-enter the loop as completion events, so a fetch finishing late
// merges as a patch instead of clobbering newer state.
type Session struct {
	teamID   string
	registry *Registry
	dir      directory.Client
	fresh    cache.Freshness
	notify   Notifier
	log      zerolog.Logger
	events   chan *Event

	// now is swappable for typing-decay and freshness tests.
	now func() time.Time
}

// NewSession builds a session for one workspace. The team must already be
// connected in the registry.
func NewSession(teamID string, registry *Registry, dir directory.Client, fresh cache.Freshness, notify Notifier, logger zerolog.Logger) *Session {
	return &Session{
		teamID:   teamID,
		registry: registry,
		dir:      dir,
		fresh:    fresh,
		notify:   notify,
		log:      logger.With().Str("team_id", teamID).Logger(),
		events:   make(chan *Event, eventBuffer),
		now:      time.Now,
	}
}

// TeamID returns the workspace this session owns.
func (s *Session) TeamID() string {
	return s.teamID
}

// Enqueue delivers an event into the session loop, preserving arrival order.
// It drops the event once the context is gone.
func (s *Session) Enqueue(ctx context.Context, ev *Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// Run drains the event channel until the context is cancelled.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.dispatch(ctx, ev)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, ev *Event) {
	switch ev.Kind {
	case EventAuthenticated:
		s.handleAuthenticated(ctx, ev.Authenticated)
	case EventMessage:
		s.handleMessage(ctx, ev.Message)
	case EventUserTyping:
		s.processTyping(ctx, ev.Typing.Channel)
	case EventChannelMarked, EventGroupMarked, EventMPIMMarked:
		s.handleMarked(ev.Marked)
	case EventIMMarked:
		s.handleIMMarked(ctx, ev.Marked)
	case EventChannelJoined:
		s.handleJoined(ev.Joined, KindChannel)
	case EventGroupJoined:
		s.handleJoined(ev.Joined, KindGroup)
	case EventPong:
		s.processTyping(ctx, "")
	case EventRefresh:
		s.sendTeamUpdate()
	case EventIdentityPage:
		s.handleIdentityPage(ev.IdentityPage)
	case EventConversationPage:
		s.handleConversationPage(ctx, ev.ConversationPage)
	case EventBootstrapDone:
		s.handleBootstrapDone(ctx)
	case EventIdentityInfo:
		s.handleIdentityInfo(ctx, ev.IdentityInfo)
	case EventConversationInfo:
		s.handleConversationInfo(ctx, ev.ConversationInfo)
	case EventConversationMembers:
		s.handleConversationMembers(ctx, ev.Members)
	case EventConversationHistory:
		s.handleConversationHistory(ctx, ev.History)
	default:
		s.log.Warn().Int("kind", int(ev.Kind)).Msg("unhandled event kind")
	}
}

// Fetch helpers. Each runs the directory call off the session goroutine and
// feeds the result back as an event; a failure is logged and abandoned,
// leaving the last-known-good state (no retry).

func (s *Session) fetchIdentity(ctx context.Context, userID string) {
	go func() {
		ident, err := s.dir.Identity(ctx, userID)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("identity fetch failed")
			return
		}
		s.Enqueue(ctx, &Event{Kind: EventIdentityInfo, IdentityInfo: &ident})
	}()
}

func (s *Session) fetchConversationInfo(ctx context.Context, convID string) {
	go func() {
		detail, err := s.dir.ConversationInfo(ctx, convID)
		if err != nil {
			s.log.Error().Err(err).Str("conversation_id", convID).Msg("conversation info fetch failed")
			return
		}
		s.Enqueue(ctx, &Event{Kind: EventConversationInfo, ConversationInfo: &detail})
	}()
}

func (s *Session) fetchConversationMembers(ctx context.Context, convID string) {
	go func() {
		members, err := s.dir.ConversationMembers(ctx, convID)
		if err != nil {
			s.log.Error().Err(err).Str("conversation_id", convID).Msg("conversation members fetch failed")
			return
		}
		s.Enqueue(ctx, &Event{Kind: EventConversationMembers, Members: &MembersResult{Channel: convID, Members: members}})
	}()
}

func (s *Session) fetchConversationHistory(ctx context.Context, convID string, oldest Marker, inclusive bool) {
	go func() {
		messages, err := s.dir.ConversationHistory(ctx, convID, historyOldest(oldest), inclusive)
		if err != nil {
			s.log.Error().Err(err).Str("conversation_id", convID).Msg("conversation history fetch failed")
			return
		}
		s.Enqueue(ctx, &Event{Kind: EventConversationHistory, History: &HistoryResult{Channel: convID, Messages: messages}})
	}()
}

// historyOldest converts a read marker into the history lower bound: the
// sentinel and absent markers mean "no bound".
func historyOldest(m Marker) string {
	if m.IsZero() || !m.After(MarkerNone) {
		return ""
	}
	return string(m)
}
