package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Irfan430/wp-bot/internal/bus"
	"github.com/Irfan430/wp-bot/internal/config"
)

const (
	initialBackoff   = time.Second
	maxBackoff       = 30 * time.Second
	handshakeTimeout = 10 * time.Second
)

// ErrLoggedOut means the bridge reported a dead WhatsApp session.
// Reconnecting is pointless until the device is paired again.
var ErrLoggedOut = errors.New("bridge session logged out")

// Bridge maintains the WebSocket connection to the WhatsApp bridge,
// normalizes inbound frames onto the bus and delivers outbound messages
// with a send throttle. Reconnects with doubling backoff up to the
// configured attempt limit, then stops fatally.
type Bridge struct {
	cfg    config.TransportConfig
	botID  string
	router bus.MessageRouter

	limiter *rate.Limiter

	mu    sync.Mutex
	conn  *websocket.Conn
	state ConnState
}

// NewBridge creates a bridge client. botID is used to flag @-mentions on
// inbound messages.
func NewBridge(cfg config.TransportConfig, botID string, router bus.MessageRouter) (*Bridge, error) {
	if cfg.BridgeURL == "" {
		return nil, fmt.Errorf("transport bridge_url is required")
	}
	perSecond := cfg.SendRatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Bridge{
		cfg:     cfg,
		botID:   botID,
		router:  router,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		state:   StateDisconnected,
	}, nil
}

// State returns the current connection state.
func (b *Bridge) State() ConnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) setState(s ConnState) {
	b.mu.Lock()
	prev := b.state
	b.state = s
	b.mu.Unlock()
	if prev != s {
		slog.Info("bridge state changed", "from", prev, "to", s)
	}
}

// Run connects and serves until ctx is cancelled or the connection fails
// fatally. The outbound delivery loop runs alongside the read loop.
func (b *Bridge) Run(ctx context.Context) error {
	go b.sendLoop(ctx)

	backoff := initialBackoff
	attempts := 0
	maxAttempts := b.cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	for {
		if ctx.Err() != nil {
			b.setState(StateDisconnected)
			return ctx.Err()
		}

		b.setState(StateConnecting)
		if err := b.connect(ctx); err != nil {
			attempts++
			if attempts >= maxAttempts {
				b.setState(StateFatallyStopped)
				return fmt.Errorf("bridge unreachable after %d attempts: %w", attempts, err)
			}
			slog.Warn("bridge connection failed, retrying",
				"attempt", attempts, "max", maxAttempts, "backoff", backoff, "error", err)
			select {
			case <-ctx.Done():
				b.setState(StateDisconnected)
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		attempts = 0
		backoff = initialBackoff
		b.setState(StateConnected)

		err := b.readLoop(ctx)
		b.closeConn()
		if errors.Is(err, ErrLoggedOut) {
			b.setState(StateFatallyStopped)
			return err
		}
		if ctx.Err() != nil {
			b.setState(StateDisconnected)
			return ctx.Err()
		}
		b.setState(StateDisconnected)
		slog.Warn("bridge connection lost, reconnecting", "error", err)
	}
}

func (b *Bridge) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	var header http.Header
	if b.cfg.Token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + b.cfg.Token}}
	}

	conn, resp, err := dialer.DialContext(ctx, b.cfg.BridgeURL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial bridge %s: %w", b.cfg.BridgeURL, err)
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
	slog.Info("bridge connected", "url", b.cfg.BridgeURL)
	return nil
}

func (b *Bridge) closeConn() {
	b.mu.Lock()
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
	b.mu.Unlock()
}

// readLoop reads frames until the connection drops or a fatal status
// frame arrives.
func (b *Bridge) readLoop(ctx context.Context) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Warn("invalid bridge frame", "error", err)
			continue
		}

		switch frame.Type {
		case frameMessage:
			b.handleMessage(frame)
		case frameReaction:
			b.handleReaction(frame)
		case frameMembership:
			b.handleMembership(frame)
		case frameStatus:
			if frame.Status == statusLoggedOut {
				slog.Error("bridge reports session logged out, manual re-pairing required")
				return ErrLoggedOut
			}
			slog.Info("bridge status", "status", frame.Status)
		default:
			slog.Debug("ignoring bridge frame", "type", frame.Type)
		}
	}
}

// handleMessage normalizes one message frame onto the bus. The bot's own
// echoed messages are dropped here so they never reach the pipeline.
func (b *Bridge) handleMessage(frame inboundFrame) {
	if frame.From == "" || frame.FromSelf {
		return
	}
	chatID := frame.Chat
	if chatID == "" {
		chatID = frame.From
	}

	content := frame.Content
	if content == "" {
		content = frame.Caption
	}

	mentioned := false
	for _, id := range frame.Mentions {
		if id == b.botID {
			mentioned = true
			break
		}
	}

	metadata := map[string]string{}
	if frame.FromName != "" {
		metadata["push_name"] = frame.FromName
	}
	if frame.Timestamp > 0 {
		metadata["timestamp"] = strconv.FormatInt(frame.Timestamp, 10)
	}

	b.router.PublishInbound(bus.InboundMessage{
		SenderID:  frame.From,
		ChatID:    chatID,
		MessageID: frame.ID,
		Content:   content,
		PeerKind:  peerKindFor(chatID),
		Mentioned: mentioned,
		QuotedID:  frame.QuoteID,
		Metadata:  metadata,
	})
}

// handleReaction normalizes a reaction frame: empty content, the emoji in
// Reaction and the reacted-to message in QuotedID.
func (b *Bridge) handleReaction(frame inboundFrame) {
	if frame.From == "" || frame.FromSelf || frame.Reaction == "" {
		return
	}
	chatID := frame.Chat
	if chatID == "" {
		chatID = frame.From
	}
	b.router.PublishInbound(bus.InboundMessage{
		SenderID: frame.From,
		ChatID:   chatID,
		PeerKind: peerKindFor(chatID),
		QuotedID: frame.ID,
		Reaction: frame.Reaction,
	})
}

// handleMembership publishes one event per affected participant with the
// action recorded in metadata, so the pipeline can greet or record leavers.
func (b *Bridge) handleMembership(frame inboundFrame) {
	if frame.Chat == "" || (frame.Action != "add" && frame.Action != "remove") {
		return
	}
	for _, participant := range frame.Participants {
		if participant == "" || participant == b.botID {
			continue
		}
		b.router.PublishInbound(bus.InboundMessage{
			SenderID: participant,
			ChatID:   frame.Chat,
			PeerKind: peerKindFor(frame.Chat),
			Metadata: map[string]string{"membership": frame.Action},
		})
	}
}

func peerKindFor(chatID string) string {
	if strings.HasSuffix(chatID, "@g.us") {
		return bus.PeerGroup
	}
	return bus.PeerDirect
}

// sendLoop delivers outbound messages, throttled so the account does not
// look like a spam bot to the platform. Messages arriving while offline
// are dropped with a warning; command replies are not worth queueing past
// a reconnect.
func (b *Bridge) sendLoop(ctx context.Context) {
	for {
		msg, ok := b.router.SubscribeOutbound(ctx)
		if !ok {
			return
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return
		}
		if err := b.Send(msg); err != nil {
			slog.Warn("outbound delivery failed", "chat", msg.ChatID, "error", err)
		}
	}
}

// Send writes one outbound message to the bridge.
func (b *Bridge) Send(msg bus.OutboundMessage) error {
	frame := outboundFrame{
		Type:    frameMessage,
		To:      msg.ChatID,
		Content: msg.Content,
		QuoteID: msg.QuotedID,
	}
	if msg.Reaction != "" {
		frame.Type = frameReaction
		frame.Content = ""
		frame.Reaction = msg.Reaction
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return errors.New("bridge not connected")
	}
	if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close tears down the connection.
func (b *Bridge) Close() error {
	b.closeConn()
	b.setState(StateDisconnected)
	return nil
}
