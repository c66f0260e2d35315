// Package command defines the plugin contract for chat commands and the
// execution context they run in. Plugins are discovered once at startup;
// the registry snapshot never changes while the bot runs.
package command

import (
	"time"

	"github.com/Irfan430/wp-bot/internal/permissions"
)

// Descriptor declares a command's identity and admission requirements.
// Cooldown is in seconds; zero means the configured default applies.
// Langs carries command-local strings keyed by language code then by text
// key, consulted before the shared catalogs.
type Descriptor struct {
	Name     string
	Aliases  []string
	Role     permissions.Role
	Cooldown int
	Category string
	Guide    string // usage template, {p} expands to the active prefix
	Langs    map[string]map[string]string
}

// Valid reports whether the descriptor can be registered.
func (d Descriptor) Valid() bool { return d.Name != "" }

// Handler is the interface every command plugin implements.
type Handler interface {
	Describe() Descriptor
	OnStart(ctx *Context) error
}

// ReplyHandler is implemented by commands that want replies to their own
// messages routed back to them.
type ReplyHandler interface {
	OnReply(ctx *Context) error
}

// ReactionHandler is implemented by commands that want reactions to their
// own messages routed back to them.
type ReactionHandler interface {
	OnReaction(ctx *Context) error
}

// Source produces handlers for registry discovery. Discovery runs once at
// startup; handlers added to a source afterwards are never seen.
type Source interface {
	Commands() []Handler
}

// Runtime is the live bot state surface exposed to command handlers.
type Runtime interface {
	Uptime() time.Duration
	EffectivePrefix(threadID string) string
	SetThreadPrefix(threadID, prefix string)
	BanUser(id, reason string, duration time.Duration)
	UnbanUser(id string) bool
	BanThread(id, reason string, duration time.Duration)
	UnbanThread(id string) bool

	// ExpectReply routes the sender's next non-command message in the chat
	// to the named command's OnReply. ExpectReaction does the same for the
	// sender's next reaction.
	ExpectReply(chatID, senderID, cmd string)
	ExpectReaction(chatID, senderID, cmd string)
}
