package http

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/holmosapien/slattice/internal/core"
)

const subscriberBuffer = 16

// UpdateEnvelope is the wire shape of one pushed notification.
type UpdateEnvelope struct {
	Type string          `json:"type"`
	Data core.TeamUpdate `json:"data"`
}

// UpdateHub fans team updates out to websocket subscribers. It implements
// core.Notifier, so sessions push into it directly.
type UpdateHub struct {
	mu   sync.Mutex
	subs map[chan core.TeamUpdate]struct{}
	log  *zerolog.Logger
}

// NewUpdateHub builds an empty hub.
func NewUpdateHub(logger *zerolog.Logger) *UpdateHub {
	return &UpdateHub{
		subs: make(map[chan core.TeamUpdate]struct{}),
		log:  logger,
	}
}

// TeamUpdated broadcasts an update to every subscriber.
func (h *UpdateHub) TeamUpdated(update core.TeamUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- update:
		default:
			// Drop if slow consumer.
		}
	}
}

func (h *UpdateHub) subscribe() chan core.TeamUpdate {
	ch := make(chan core.TeamUpdate, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *UpdateHub) unsubscribe(ch chan core.TeamUpdate) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// HandleUpdates upgrades the connection and streams team updates until the
// client goes away.
// GET /ws/updates
func (h *UpdateHub) HandleUpdates(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx := c.Request.Context()
	updates := h.subscribe()
	defer h.unsubscribe(updates)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "closing")
			return
		case update := <-updates:
			envelope := UpdateEnvelope{Type: "teamUpdate", Data: update}
			if err := wsjson.Write(ctx, conn, envelope); err != nil {
				h.log.Warn().Err(err).Msg("write team update")
				return
			}
		}
	}
}
