package bus

import "context"

// InboundMessage is a normalized event received from the transport bridge.
// Reaction events carry the emoji in Reaction and the reacted-to message in
// QuotedID, with an empty Content.
type InboundMessage struct {
	SenderID  string            `json:"sender_id"`
	ChatID    string            `json:"chat_id"`
	MessageID string            `json:"message_id"`
	Content   string            `json:"content"`
	PeerKind  string            `json:"peer_kind,omitempty"` // "direct" or "group"
	Mentioned bool              `json:"mentioned,omitempty"` // bot was @-mentioned in the body
	QuotedID  string            `json:"quoted_id,omitempty"` // message this one replies or reacts to
	Reaction  string            `json:"reaction,omitempty"`  // emoji for reaction events
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Peer kind constants for InboundMessage.PeerKind.
const (
	PeerDirect = "direct"
	PeerGroup  = "group"
)

// OutboundMessage is a message to be delivered through the transport bridge.
type OutboundMessage struct {
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	QuotedID string            `json:"quoted_id,omitempty"` // reply-reference to a message ID
	Reaction string            `json:"reaction,omitempty"`  // emoji reaction instead of text
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsGroup reports whether the message originated in a group conversation.
func (m InboundMessage) IsGroup() bool { return m.PeerKind == PeerGroup }

// MessageRouter abstracts inbound/outbound message routing between the
// transport layer and the dispatch pipeline.
type MessageRouter interface {
	PublishInbound(msg InboundMessage)
	ConsumeInbound(ctx context.Context) (InboundMessage, bool)
	PublishOutbound(msg OutboundMessage)
	SubscribeOutbound(ctx context.Context) (OutboundMessage, bool)
}
