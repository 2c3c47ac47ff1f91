package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/holmosapien/slattice/internal/core"
)

const heartbeatInterval = 25 * time.Second

// Gateway bridges one workspace's websocket event stream into its session.
// It owns no state beyond the connection; reconnect policy belongs to the
// caller.
type Gateway struct {
	url      string
	teamName string
	session  *core.Session
	log      zerolog.Logger
}

// New builds a gateway for one workspace event stream.
func New(url, teamName string, session *core.Session, logger zerolog.Logger) *Gateway {
	connID := uuid.NewString()
	return &Gateway{
		url:      url,
		teamName: teamName,
		session:  session,
		log: logger.With().
			Str("team_id", session.TeamID()).
			Str("connection_id", connID).
			Logger(),
	}
}

// Run dials the stream and pumps events into the session until the context
// is cancelled or the connection dies.
func (g *Gateway) Run(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, g.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- g.readLoop(ctx, conn)
	}()
	go func() {
		errCh <- g.pingLoop(ctx, conn)
	}()

	err = <-errCh
	cancel()
	<-errCh

	if err != nil && !errors.Is(err, context.Canceled) {
		g.log.Warn().Err(err).Msg("gateway connection closed with error")
		conn.Close(websocket.StatusInternalError, "closing")
		return err
	}

	conn.Close(websocket.StatusNormalClosure, "closing")
	return nil
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			return err
		}
		g.handleFrame(ctx, raw)
	}
}

func (g *Gateway) pingLoop(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	id := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			id++
			if err := wsjson.Write(ctx, conn, pingRequest{ID: id, Type: "ping"}); err != nil {
				return err
			}
		}
	}
}

// handleFrame decodes one wire frame and enqueues the matching typed event.
func (g *Gateway) handleFrame(ctx context.Context, raw json.RawMessage) {
	var ev rawEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		g.log.Warn().Err(err).Msg("undecodable gateway frame")
		return
	}

	g.log.Debug().Str("type", ev.Type).Str("subtype", ev.Subtype).Msg("gateway event")

	switch ev.Type {
	case typeHello:
		g.session.Enqueue(ctx, &core.Event{
			Kind:          core.EventAuthenticated,
			Authenticated: &core.AuthenticatedEvent{TeamName: g.teamName},
		})
	case typeMessage:
		msg := &core.MessageEvent{
			Channel: ev.channelID(),
			Subtype: ev.Subtype,
			TS:      core.Marker(ev.TS),
		}
		if ev.PreviousMessage != nil {
			msg.PreviousTS = core.Marker(ev.PreviousMessage.TS)
		}
		g.session.Enqueue(ctx, &core.Event{Kind: core.EventMessage, Message: msg})
	case typeUserTyping:
		g.session.Enqueue(ctx, &core.Event{
			Kind:   core.EventUserTyping,
			Typing: &core.TypingEvent{Channel: ev.channelID()},
		})
	case typeChannelMarked, typeGroupMarked, typeMPIMMarked, typeIMMarked:
		g.session.Enqueue(ctx, &core.Event{
			Kind: markedKind(ev.Type),
			Marked: &core.MarkedEvent{
				Channel:     ev.channelID(),
				TS:          core.Marker(ev.TS),
				UnreadCount: ev.UnreadCount,
			},
		})
	case typeChannelJoined, typeGroupJoined:
		ch, ok := ev.joinedChannel()
		if !ok {
			g.log.Warn().Str("type", ev.Type).Msg("join event without channel payload")
			return
		}
		joined := &core.JoinedEvent{
			Channel:  ch.ID,
			Name:     ch.Name,
			LastRead: core.Marker(ch.LastRead),
		}
		if ch.Latest != nil {
			joined.Latest = core.Marker(ch.Latest.TS)
		}
		kind := core.EventChannelJoined
		if ev.Type == typeGroupJoined {
			kind = core.EventGroupJoined
		}
		g.session.Enqueue(ctx, &core.Event{Kind: kind, Joined: joined})
	case typePong:
		g.session.Enqueue(ctx, &core.Event{Kind: core.EventPong})
	default:
		// Plenty of stream types carry nothing this engine tracks.
	}
}

func markedKind(eventType string) core.EventKind {
	switch eventType {
	case typeIMMarked:
		return core.EventIMMarked
	case typeMPIMMarked:
		return core.EventMPIMMarked
	case typeGroupMarked:
		return core.EventGroupMarked
	default:
		return core.EventChannelMarked
	}
}
