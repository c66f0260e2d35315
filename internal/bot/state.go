// Package bot implements the dispatch pipeline: normalization, admission
// gates and command execution. All mutable runtime state lives in an
// explicit RuntimeState value owned by the dispatcher.
package bot

import (
	"sync"
	"time"

	"github.com/Irfan430/wp-bot/internal/config"
	"github.com/Irfan430/wp-bot/internal/permissions"
	"github.com/Irfan430/wp-bot/internal/store"
)

// RuntimeState is the in-process mirror of dispatch-relevant state: ban
// sets for O(1) gate checks, per-thread prefix overrides, cooldown stamps
// and disable lists. Seeded from the database at startup, kept in sync by
// the mutating operations. Safe for concurrent use.
type RuntimeState struct {
	started time.Time
	cfg     *config.Config
	db      *store.Database
	policy  *permissions.PolicyEngine

	mu             sync.Mutex
	bannedUsers    map[string]bool
	bannedThreads  map[string]bool
	threadPrefixes map[string]string
	cooldowns      map[string]time.Time // "<user>|<command>" -> last run
	disabledGlobal map[string]bool
	disabledChat   map[string]map[string]bool // chat ID -> command -> disabled

	pendingReplies   map[string]string // "<chat>|<sender>" -> command name
	pendingReactions map[string]string

	messagesProcessed int64
	commandsExecuted  int64
}

// NewRuntimeState builds the runtime mirror from config and the loaded
// database.
func NewRuntimeState(cfg *config.Config, db *store.Database) *RuntimeState {
	s := &RuntimeState{
		started:        time.Now(),
		cfg:            cfg,
		db:             db,
		policy:         permissions.NewPolicyEngine(cfg.Bot.OwnerIDs),
		bannedUsers:    make(map[string]bool),
		bannedThreads:  make(map[string]bool),
		threadPrefixes: make(map[string]string),
		cooldowns:      make(map[string]time.Time),
		disabledGlobal: make(map[string]bool),
		disabledChat:   make(map[string]map[string]bool),

		pendingReplies:   make(map[string]string),
		pendingReactions: make(map[string]string),
	}

	now := time.Now()
	for _, id := range db.BannedUserIDs(now) {
		s.bannedUsers[id] = true
	}
	for _, id := range db.BannedThreadIDs(now) {
		s.bannedThreads[id] = true
	}
	for _, name := range cfg.Commands.DisableGlobal {
		s.disabledGlobal[normalizeWord(name)] = true
	}
	for chatID, names := range cfg.Commands.DisablePerChat {
		set := make(map[string]bool, len(names))
		for _, name := range names {
			set[normalizeWord(name)] = true
		}
		s.disabledChat[chatID] = set
	}
	return s
}

// Uptime reports time since the runtime was constructed.
func (s *RuntimeState) Uptime() time.Duration { return time.Since(s.started) }

// Policy returns the role resolution engine.
func (s *RuntimeState) Policy() *permissions.PolicyEngine { return s.policy }

// EffectivePrefix returns the prefix in force for a conversation: the
// thread override when one exists, the global prefix otherwise.
func (s *RuntimeState) EffectivePrefix(threadID string) string {
	if threadID != "" {
		s.mu.Lock()
		p, ok := s.threadPrefixes[threadID]
		s.mu.Unlock()
		if ok && p != "" {
			return p
		}
		if p := s.db.ThreadPrefix(threadID); p != "" {
			s.mu.Lock()
			s.threadPrefixes[threadID] = p
			s.mu.Unlock()
			return p
		}
	}
	return s.cfg.Prefix.Global
}

// SetThreadPrefix updates the in-process prefix mirror. The caller is
// responsible for persisting the record change.
func (s *RuntimeState) SetThreadPrefix(threadID, prefix string) {
	s.mu.Lock()
	s.threadPrefixes[threadID] = prefix
	s.mu.Unlock()
}

// BanUser records the ban and mirrors it for gate checks.
func (s *RuntimeState) BanUser(id, reason string, duration time.Duration) {
	s.db.BanUser(id, reason, duration)
	s.mu.Lock()
	s.bannedUsers[id] = true
	s.mu.Unlock()
}

// UnbanUser clears the ban from the ledger and the mirror.
func (s *RuntimeState) UnbanUser(id string) bool {
	found := s.db.UnbanUser(id)
	s.mu.Lock()
	delete(s.bannedUsers, id)
	s.mu.Unlock()
	return found
}

// BanThread records the thread ban and mirrors it.
func (s *RuntimeState) BanThread(id, reason string, duration time.Duration) {
	s.db.BanThread(id, reason, duration)
	s.mu.Lock()
	s.bannedThreads[id] = true
	s.mu.Unlock()
}

// UnbanThread clears the thread ban from the ledger and the mirror.
func (s *RuntimeState) UnbanThread(id string) bool {
	found := s.db.UnbanThread(id)
	s.mu.Lock()
	delete(s.bannedThreads, id)
	s.mu.Unlock()
	return found
}

// UserBanned reports whether the sender has an active ban. Expired bans
// are evicted from the mirror on first sight.
func (s *RuntimeState) UserBanned(id string, now time.Time) bool {
	s.mu.Lock()
	banned := s.bannedUsers[id]
	s.mu.Unlock()
	if !banned {
		return false
	}
	if s.db.GetUser(id, "").Ban.Active(now) {
		return true
	}
	s.mu.Lock()
	delete(s.bannedUsers, id)
	s.mu.Unlock()
	return false
}

// ThreadBanned reports whether the thread has an active ban.
func (s *RuntimeState) ThreadBanned(id string, now time.Time) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	banned := s.bannedThreads[id]
	s.mu.Unlock()
	if !banned {
		return false
	}
	if s.db.GetThread(id).Ban.Active(now) {
		return true
	}
	s.mu.Lock()
	delete(s.bannedThreads, id)
	s.mu.Unlock()
	return false
}

// CommandDisabled reports whether a command is switched off globally or
// for the given chat. Thread-level disable lists from the record are
// checked by the dispatcher, which has the record at hand.
func (s *RuntimeState) CommandDisabled(name, chatID string) bool {
	name = normalizeWord(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabledGlobal[name] {
		return true
	}
	if set, ok := s.disabledChat[chatID]; ok && set[name] {
		return true
	}
	return false
}

// CooldownRemaining reports how long the sender must still wait before
// running the command again. Zero means clear to run.
func (s *RuntimeState) CooldownRemaining(userID, cmd string, cooldown time.Duration, now time.Time) time.Duration {
	if cooldown <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.cooldowns[userID+"|"+cmd]
	if !ok {
		return 0
	}
	if remaining := cooldown - now.Sub(last); remaining > 0 {
		return remaining
	}
	return 0
}

// MarkCooldown stamps the command as run now for the sender. Stamped
// before the handler executes so a slow handler cannot be re-entered.
func (s *RuntimeState) MarkCooldown(userID, cmd string, now time.Time) {
	s.mu.Lock()
	s.cooldowns[userID+"|"+cmd] = now
	s.mu.Unlock()
}

// ExpectReply arms reply routing for one sender in one chat.
func (s *RuntimeState) ExpectReply(chatID, senderID, cmd string) {
	s.mu.Lock()
	s.pendingReplies[chatID+"|"+senderID] = cmd
	s.mu.Unlock()
}

// ExpectReaction arms reaction routing for one sender in one chat.
func (s *RuntimeState) ExpectReaction(chatID, senderID, cmd string) {
	s.mu.Lock()
	s.pendingReactions[chatID+"|"+senderID] = cmd
	s.mu.Unlock()
}

// TakePendingReply consumes an armed reply route, if any. One-shot: the
// handler must re-arm to keep the conversation going.
func (s *RuntimeState) TakePendingReply(chatID, senderID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := chatID + "|" + senderID
	cmd, ok := s.pendingReplies[key]
	if ok {
		delete(s.pendingReplies, key)
	}
	return cmd, ok
}

// TakePendingReaction consumes an armed reaction route, if any.
func (s *RuntimeState) TakePendingReaction(chatID, senderID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := chatID + "|" + senderID
	cmd, ok := s.pendingReactions[key]
	if ok {
		delete(s.pendingReactions, key)
	}
	return cmd, ok
}

// CountMessage bumps the processed-message counter.
func (s *RuntimeState) CountMessage() {
	s.mu.Lock()
	s.messagesProcessed++
	s.mu.Unlock()
}

// CountExecution bumps the executed-command counter.
func (s *RuntimeState) CountExecution() {
	s.mu.Lock()
	s.commandsExecuted++
	s.mu.Unlock()
}

// Counters reports messages processed and commands executed since start.
func (s *RuntimeState) Counters() (messages, commands int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesProcessed, s.commandsExecuted
}
