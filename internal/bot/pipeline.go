package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/Irfan430/wp-bot/internal/bus"
	"github.com/Irfan430/wp-bot/internal/command"
	"github.com/Irfan430/wp-bot/internal/config"
	"github.com/Irfan430/wp-bot/internal/lang"
	"github.com/Irfan430/wp-bot/internal/permissions"
	"github.com/Irfan430/wp-bot/internal/store"
)

// Dispatcher consumes normalized inbound messages and runs them through
// the admission gates: flood guard, disable lists, bans, permission,
// cooldown. Only a message that clears every gate reaches a handler.
type Dispatcher struct {
	cfg      *config.Config
	db       *store.Database
	state    *RuntimeState
	registry *command.Registry
	resolver *lang.Resolver
	router   bus.MessageRouter
	spam     *SpamGuard
}

// NewDispatcher wires the pipeline. The registry snapshot is fixed for
// the dispatcher's lifetime.
func NewDispatcher(cfg *config.Config, db *store.Database, state *RuntimeState, registry *command.Registry, resolver *lang.Resolver, router bus.MessageRouter) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		db:       db,
		state:    state,
		registry: registry,
		resolver: resolver,
		router:   router,
		spam:     NewSpamGuard(cfg.AntiSpam.Window(), cfg.AntiSpam.MaxMessages),
	}
}

// Run consumes inbound messages until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	slog.Info("dispatcher started", "commands", d.registry.Len())
	for {
		msg, ok := d.router.ConsumeInbound(ctx)
		if !ok {
			return ctx.Err()
		}
		d.HandleMessage(ctx, msg)
	}
}

// HandleMessage processes one inbound message end to end. Exported so
// tests can drive the pipeline without a transport.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg bus.InboundMessage) {
	if msg.SenderID == "" || msg.ChatID == "" {
		return
	}
	now := time.Now()
	d.state.CountMessage()

	// Bookkeeping happens for every message, command or not.
	user := d.db.GetUser(msg.SenderID, msg.Metadata["push_name"])
	d.db.UpdateUser(msg.SenderID, func(u *store.UserRecord) {
		u.LastSeen = now
		u.LastMessage = now
	})

	var thread *store.ThreadRecord
	if msg.IsGroup() {
		t := d.db.GetThread(msg.ChatID)
		thread = &t
		d.db.UpdateThread(msg.ChatID, func(rec *store.ThreadRecord) {
			rec.Data.TotalMessages++
		})
	}

	language := d.resolveLanguage(user, thread)

	if action := msg.Metadata["membership"]; action != "" {
		d.handleMembership(msg, thread, language, action)
		return
	}

	if msg.Reaction != "" {
		d.routeReaction(ctx, msg, thread, language)
		return
	}

	// Gate 1: flood guard. Tripping it suppresses the message entirely;
	// the first trip of an episode may send one localized warning.
	if d.antiSpamEnabled(thread) {
		spamming, warn := d.spam.Record(msg.SenderID+"|"+msg.ChatID, now)
		if spamming {
			if warn && d.cfg.AntiSpam.Warn {
				d.router.PublishOutbound(bus.OutboundMessage{
					ChatID:   msg.ChatID,
					Content:  d.resolver.Text(language, "spamWarning", nil),
					QuotedID: msg.MessageID,
				})
			}
			slog.Debug("message suppressed by flood guard", "sender", msg.SenderID, "chat", msg.ChatID)
			return
		}
	}

	prefix := d.state.EffectivePrefix(threadID(msg))
	inv, isCommand := resolveInvocation(msg, prefix, d.cfg.Prefix, d.cfg.Bot.ID)
	if !isCommand {
		d.routeReply(ctx, msg, thread, language)
		return
	}

	handler, ok := d.registry.Resolve(inv.word)
	if !ok {
		// Unknown words are ignored silently so ordinary chat that happens
		// to start with the prefix never draws an error. It may still be an
		// awaited follow-up reply.
		slog.Debug("unknown command word", "word", inv.word)
		d.routeReply(ctx, msg, thread, language)
		return
	}
	desc := handler.Describe()

	// Gate 2: disable lists, global then per-chat then per-thread record.
	if d.state.CommandDisabled(desc.Name, msg.ChatID) {
		slog.Debug("command disabled", "command", desc.Name, "chat", msg.ChatID)
		return
	}
	if thread != nil && containsWord(thread.DisabledCommands, desc.Name) {
		slog.Debug("command disabled in thread", "command", desc.Name, "thread", thread.ID)
		return
	}

	// Gate 3: bans. Banned subjects are ignored without feedback.
	if d.state.ThreadBanned(threadID(msg), now) {
		return
	}
	if d.state.UserBanned(msg.SenderID, now) {
		return
	}

	// Gate 4: permission.
	role := d.senderRole(msg.SenderID, thread)
	if !permissions.Allows(desc.Role, role) {
		d.router.PublishOutbound(bus.OutboundMessage{
			ChatID:   msg.ChatID,
			Content:  d.resolver.Text(language, "permissionDenied", nil),
			QuotedID: msg.MessageID,
		})
		return
	}

	// Gate 5: cooldown, rounded up to whole seconds in the notice.
	cooldown := d.effectiveCooldown(desc)
	if remaining := d.state.CooldownRemaining(msg.SenderID, desc.Name, cooldown, now); remaining > 0 {
		secs := int64((remaining + time.Second - 1) / time.Second)
		d.router.PublishOutbound(bus.OutboundMessage{
			ChatID:   msg.ChatID,
			Content:  d.resolver.Text(language, "cooldown", map[string]string{"time": strconv.FormatInt(secs, 10)}),
			QuotedID: msg.MessageID,
		})
		return
	}
	d.state.MarkCooldown(msg.SenderID, desc.Name, now)
	d.db.CountCommand(msg.SenderID, threadID(msg))

	cctx := d.buildContext(ctx, msg, desc, inv.args, prefix, thread, role, language)
	d.execute(cctx, func() error { return handler.OnStart(cctx) })
}

func (d *Dispatcher) buildContext(ctx context.Context, msg bus.InboundMessage, desc command.Descriptor, args []string, prefix string, thread *store.ThreadRecord, role permissions.Role, language string) *command.Context {
	cctx := &command.Context{
		Ctx:      ctx,
		Message:  msg,
		Command:  desc,
		Args:     args,
		Prefix:   prefix,
		User:     d.db.GetUser(msg.SenderID, ""),
		Thread:   thread,
		Role:     role,
		DB:       d.db,
		Registry: d.registry,
		Runtime:  d.state,
		Language: language,
	}
	cctx.Bind(d.router, d.resolver)
	return cctx
}

// routeReply delivers a non-command message to a command that armed reply
// routing for this sender in this chat.
func (d *Dispatcher) routeReply(ctx context.Context, msg bus.InboundMessage, thread *store.ThreadRecord, language string) {
	name, ok := d.state.TakePendingReply(msg.ChatID, msg.SenderID)
	if !ok {
		return
	}
	handler, found := d.registry.Resolve(name)
	if !found {
		return
	}
	replier, implements := handler.(command.ReplyHandler)
	if !implements {
		slog.Warn("command armed reply routing without OnReply", "command", name)
		return
	}

	role := d.senderRole(msg.SenderID, thread)
	prefix := d.state.EffectivePrefix(threadID(msg))
	cctx := d.buildContext(ctx, msg, handler.Describe(), strings.Fields(msg.Content), prefix, thread, role, language)
	d.execute(cctx, func() error { return replier.OnReply(cctx) })
}

// routeReaction delivers a reaction event to a command that armed
// reaction routing for this sender in this chat.
func (d *Dispatcher) routeReaction(ctx context.Context, msg bus.InboundMessage, thread *store.ThreadRecord, language string) {
	name, ok := d.state.TakePendingReaction(msg.ChatID, msg.SenderID)
	if !ok {
		return
	}
	handler, found := d.registry.Resolve(name)
	if !found {
		return
	}
	reactor, implements := handler.(command.ReactionHandler)
	if !implements {
		slog.Warn("command armed reaction routing without OnReaction", "command", name)
		return
	}

	role := d.senderRole(msg.SenderID, thread)
	prefix := d.state.EffectivePrefix(threadID(msg))
	cctx := d.buildContext(ctx, msg, handler.Describe(), nil, prefix, thread, role, language)
	d.execute(cctx, func() error { return reactor.OnReaction(cctx) })
}

// handleMembership updates the thread roster and greets or sees off the
// participant when the thread has those notices enabled.
func (d *Dispatcher) handleMembership(msg bus.InboundMessage, thread *store.ThreadRecord, language, action string) {
	if thread == nil {
		return
	}

	joined := action == "add"
	d.db.UpdateThread(thread.ID, func(rec *store.ThreadRecord) {
		if joined {
			if !containsWord(rec.Data.Members, msg.SenderID) {
				rec.Data.Members = append(rec.Data.Members, msg.SenderID)
			}
		} else {
			kept := rec.Data.Members[:0]
			for _, id := range rec.Data.Members {
				if id != msg.SenderID {
					kept = append(kept, id)
				}
			}
			rec.Data.Members = kept
		}
	})

	name := msg.Metadata["push_name"]
	if name == "" {
		name = msg.SenderID
	}
	vars := map[string]string{"name": name}
	if joined && thread.Settings.Welcome {
		d.router.PublishOutbound(bus.OutboundMessage{
			ChatID:  msg.ChatID,
			Content: d.resolver.Text(language, "welcome", vars),
		})
	}
	if !joined && thread.Settings.Goodbye {
		d.router.PublishOutbound(bus.OutboundMessage{
			ChatID:  msg.ChatID,
			Content: d.resolver.Text(language, "goodbye", vars),
		})
	}
}

// execute runs a handler entry point with panic isolation. A panicking or
// failing plugin produces one localized error reply and a log entry, never
// a crashed process. Counts the execution either way.
func (d *Dispatcher) execute(cctx *command.Context, invoke func() error) {
	d.state.CountExecution()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("command panicked",
				"command", cctx.Command.Name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			cctx.Reply(d.resolver.Text(cctx.Language, "commandError", nil))
		}
	}()

	start := time.Now()
	if err := invoke(); err != nil {
		slog.Error("command failed",
			"command", cctx.Command.Name,
			"sender", cctx.Message.SenderID,
			"error", err,
		)
		cctx.Reply(d.resolver.Text(cctx.Language, "commandError", nil))
		return
	}
	slog.Info("command executed",
		"command", cctx.Command.Name,
		"sender", cctx.Message.SenderID,
		"chat", cctx.Message.ChatID,
		"took", time.Since(start),
	)
}

// resolveLanguage picks the language for one invocation: thread preference
// first when allowed, then the sender's own, then the configured default.
func (d *Dispatcher) resolveLanguage(user store.UserRecord, thread *store.ThreadRecord) string {
	if thread != nil && d.cfg.Language.AllowPerThread && thread.Language != "" {
		return thread.Language
	}
	if d.cfg.Language.AllowPerUser && user.Language != "" {
		return user.Language
	}
	return d.cfg.Language.Default
}

func (d *Dispatcher) antiSpamEnabled(thread *store.ThreadRecord) bool {
	if !d.cfg.AntiSpam.Enabled {
		return false
	}
	if thread != nil && !thread.Settings.AntiSpam {
		return false
	}
	return true
}

func (d *Dispatcher) senderRole(senderID string, thread *store.ThreadRecord) permissions.Role {
	var admins []string
	if thread != nil {
		admins = thread.Data.Admins
	}
	return d.state.Policy().Resolve(senderID, admins)
}

func (d *Dispatcher) effectiveCooldown(desc command.Descriptor) time.Duration {
	secs := desc.Cooldown
	if secs <= 0 {
		secs = d.cfg.Commands.DefaultCooldown
	}
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func threadID(msg bus.InboundMessage) string {
	if msg.IsGroup() {
		return msg.ChatID
	}
	return ""
}

func containsWord(list []string, word string) bool {
	word = normalizeWord(word)
	for _, item := range list {
		if normalizeWord(item) == word {
			return true
		}
	}
	return false
}
