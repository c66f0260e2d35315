package command

import (
	"context"

	"github.com/Irfan430/wp-bot/internal/bus"
	"github.com/Irfan430/wp-bot/internal/lang"
	"github.com/Irfan430/wp-bot/internal/permissions"
	"github.com/Irfan430/wp-bot/internal/store"
)

// Context carries everything a handler needs for one invocation. Built by
// the dispatcher after all admission gates pass; handlers must not retain
// it past the call.
type Context struct {
	Ctx     context.Context
	Message bus.InboundMessage
	Command Descriptor
	Args    []string // tokens after the command word
	Prefix  string   // effective prefix for this conversation

	User   store.UserRecord
	Thread *store.ThreadRecord // nil in direct chats
	Role   permissions.Role    // sender's resolved role

	DB       *store.Database
	Registry *Registry
	Runtime  Runtime

	Language string // resolved preference for this invocation

	router   bus.MessageRouter
	resolver *lang.Resolver
}

// Bind attaches the routing and localization plumbing. Called by the
// dispatcher; exported so tests can construct contexts directly.
func (c *Context) Bind(router bus.MessageRouter, resolver *lang.Resolver) {
	c.router = router
	c.resolver = resolver
}

// Reply sends text into the conversation quoting the triggering message.
func (c *Context) Reply(text string) {
	c.router.PublishOutbound(bus.OutboundMessage{
		ChatID:   c.Message.ChatID,
		Content:  text,
		QuotedID: c.Message.MessageID,
	})
}

// Send sends text into the conversation without quoting.
func (c *Context) Send(text string) {
	c.router.PublishOutbound(bus.OutboundMessage{
		ChatID:  c.Message.ChatID,
		Content: text,
	})
}

// React attaches an emoji reaction to the triggering message.
func (c *Context) React(emoji string) {
	c.router.PublishOutbound(bus.OutboundMessage{
		ChatID:   c.Message.ChatID,
		QuotedID: c.Message.MessageID,
		Reaction: emoji,
	})
}

// Lang resolves a text key for this invocation's language. Command-local
// strings win over the shared catalogs; unresolvable keys come back as the
// literal key so a missing translation is visible, never fatal.
func (c *Context) Lang(key string, vars map[string]string) string {
	if c.Command.Langs != nil {
		if text, ok := c.Command.Langs[c.Language][key]; ok {
			return lang.Substitute(text, vars)
		}
		if text, ok := c.Command.Langs[lang.BaseLanguage][key]; ok {
			return lang.Substitute(text, vars)
		}
	}
	if c.resolver != nil {
		return c.resolver.Text(c.Language, key, vars)
	}
	return key
}

// ExpectReply arms follow-up routing: the sender's next plain message in
// this chat is delivered to the command's OnReply.
func (c *Context) ExpectReply() {
	c.Runtime.ExpectReply(c.Message.ChatID, c.Message.SenderID, c.Command.Name)
}

// ExpectReaction arms follow-up routing for the sender's next reaction in
// this chat, delivered to the command's OnReaction.
func (c *Context) ExpectReaction() {
	c.Runtime.ExpectReaction(c.Message.ChatID, c.Message.SenderID, c.Command.Name)
}

// HasLanguage reports whether a catalog for the given code is loaded.
func (c *Context) HasLanguage(code string) bool {
	return c.resolver != nil && c.resolver.Has(code)
}

// Languages lists the loaded catalog codes.
func (c *Context) Languages() []string {
	if c.resolver == nil {
		return nil
	}
	return c.resolver.Languages()
}
