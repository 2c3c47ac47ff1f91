package gateway

import "encoding/json"

// Event types delivered by the gateway stream.
const (
	typeHello         = "hello"
	typeMessage       = "message"
	typeUserTyping    = "user_typing"
	typeChannelMarked = "channel_marked"
	typeIMMarked      = "im_marked"
	typeMPIMMarked    = "mpim_marked"
	typeGroupMarked   = "group_marked"
	typeChannelJoined = "channel_joined"
	typeGroupJoined   = "group_joined"
	typePong          = "pong"
)

// rawEvent is the flat wire shape shared by most gateway events. Channel is
// raw because join events carry an object where everything else carries an id.
type rawEvent struct {
	Type            string          `json:"type"`
	Subtype         string          `json:"subtype"`
	Channel         json.RawMessage `json:"channel"`
	TS              string          `json:"ts"`
	UnreadCount     int             `json:"unread_count"`
	PreviousMessage *struct {
		TS string `json:"ts"`
	} `json:"previous_message"`
}

// joinedChannel is the conversation object inside channel_joined and
// group_joined events.
type joinedChannel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastRead string `json:"last_read"`
	Latest   *struct {
		TS string `json:"ts"`
	} `json:"latest"`
}

// pingRequest is the keepalive sent on the heartbeat interval.
type pingRequest struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

func (e *rawEvent) channelID() string {
	var id string
	if err := json.Unmarshal(e.Channel, &id); err != nil {
		return ""
	}
	return id
}

func (e *rawEvent) joinedChannel() (joinedChannel, bool) {
	var ch joinedChannel
	if err := json.Unmarshal(e.Channel, &ch); err != nil {
		return joinedChannel{}, false
	}
	return ch, ch.ID != ""
}
