// Package transport connects the bot to a WhatsApp bridge over WebSocket.
// The bridge process speaks the actual WhatsApp protocol; this side only
// exchanges JSON frames and keeps the connection alive.
package transport

// ConnState is the bridge connection lifecycle state.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateFatallyStopped
)

// String returns the lowercase state name.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFatallyStopped:
		return "fatally_stopped"
	default:
		return "disconnected"
	}
}

// inboundFrame is a JSON frame received from the bridge.
// Message frames: {"type":"message","from":...,"chat":...,"content":...,
// "id":...,"from_name":...,"mentions":[...],"timestamp":<unix ms>}. Media
// messages put their caption in "caption" and leave "content" empty.
// Reaction frames: {"type":"reaction","from":...,"chat":...,"id":<target
// message id>,"reaction":<emoji>}.
// Membership frames: {"type":"membership","chat":...,"action":"add"|
// "remove","participants":[...]}.
// Status frames: {"type":"status","status":"logged_out"|...}.
type inboundFrame struct {
	Type         string   `json:"type"`
	From         string   `json:"from,omitempty"`
	Chat         string   `json:"chat,omitempty"`
	Content      string   `json:"content,omitempty"`
	Caption      string   `json:"caption,omitempty"`
	ID           string   `json:"id,omitempty"`
	QuoteID      string   `json:"quote_id,omitempty"`
	Reaction     string   `json:"reaction,omitempty"`
	FromSelf     bool     `json:"from_self,omitempty"`
	FromName     string   `json:"from_name,omitempty"`
	Mentions     []string `json:"mentions,omitempty"`
	Action       string   `json:"action,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Timestamp    int64    `json:"timestamp,omitempty"`
	Status       string   `json:"status,omitempty"`
}

// outboundFrame is a JSON frame sent to the bridge. Reaction frames carry
// an emoji and the target message ID instead of text content.
type outboundFrame struct {
	Type     string `json:"type"`
	To       string `json:"to"`
	Content  string `json:"content,omitempty"`
	QuoteID  string `json:"quote_id,omitempty"`
	Reaction string `json:"reaction,omitempty"`
}

// Frame type discriminators.
const (
	frameMessage    = "message"
	frameReaction   = "reaction"
	frameMembership = "membership"
	frameStatus     = "status"
)

// statusLoggedOut is the bridge's signal that the WhatsApp session was
// invalidated. Reconnecting cannot help; a human has to re-pair.
const statusLoggedOut = "logged_out"
