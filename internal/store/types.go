package store

import "time"

// BanState is the ban flag mirrored onto a user or thread record for O(1)
// gate checks. The authoritative history lives in the ban ledger.
type BanState struct {
	IsBanned bool       `json:"isBanned"`
	Reason   string     `json:"reason,omitempty"`
	Expires  *time.Time `json:"expires,omitempty"`
}

// Active reports whether the ban is in effect at the given time.
func (b BanState) Active(now time.Time) bool {
	if !b.IsBanned {
		return false
	}
	if b.Expires != nil && now.After(*b.Expires) {
		return false
	}
	return true
}

// UserSettings are per-user feature toggles.
type UserSettings struct {
	AutoRead bool `json:"autoRead,omitempty"`
	NSFW     bool `json:"nsfw,omitempty"`
}

// UserData is the mutable progression data commands operate on.
type UserData struct {
	Exp          int64      `json:"exp"`
	Level        int        `json:"level"`
	Money        int64      `json:"money"`
	Daily        *time.Time `json:"daily,omitempty"` // last daily claim
	CommandsUsed int64      `json:"commandsUsed"`
}

// UserRecord is the persisted state for one sender. Created lazily on the
// first observed message; never destroyed, only soft-deleted via the ban flag.
type UserRecord struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Registered  time.Time    `json:"registered"`
	Language    string       `json:"language,omitempty"`
	Settings    UserSettings `json:"settings"`
	Data        UserData     `json:"data"`
	LastSeen    time.Time    `json:"lastSeen"`
	LastMessage time.Time    `json:"lastMessage"`
	Ban         BanState     `json:"bans"`
}

// ThreadSettings are per-thread feature flags.
type ThreadSettings struct {
	NSFW     bool `json:"nsfw,omitempty"`
	AntiSpam bool `json:"antiSpam"`
	Welcome  bool `json:"welcome"`
	Goodbye  bool `json:"goodbye"`
	AutoKick bool `json:"autoKick,omitempty"`
}

// ThreadData is the mutable bookkeeping for one group conversation.
type ThreadData struct {
	Members       []string  `json:"members,omitempty"`
	Admins        []string  `json:"admins,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	TotalMessages int64     `json:"totalMessages"`
	CommandsUsed  int64     `json:"commandsUsed"`
}

// ThreadRecord is the persisted state for one group conversation. Created
// lazily on the first observed group message.
type ThreadRecord struct {
	ID               string         `json:"id"`
	Name             string         `json:"name,omitempty"`
	Prefix           string         `json:"prefix,omitempty"` // override of the global prefix
	Language         string         `json:"language,omitempty"`
	Settings         ThreadSettings `json:"settings"`
	Data             ThreadData     `json:"data"`
	Ban              BanState       `json:"bans"`
	DisabledCommands []string       `json:"disabledCommands,omitempty"`
}

// BanRecord is one entry in the append-only ban ledger.
type BanRecord struct {
	SubjectID       string     `json:"subjectId"`
	Reason          string     `json:"reason"`
	Timestamp       time.Time  `json:"timestamp"`
	DurationSeconds int64      `json:"durationSeconds,omitempty"` // 0 = permanent
	Expires         *time.Time `json:"expires,omitempty"`
}

// BanLedger is the bans collection: append-only histories for users and
// threads. Unban removes the live entry but the subject record keeps its
// cleared BanState.
type BanLedger struct {
	Users   []BanRecord `json:"users"`
	Threads []BanRecord `json:"threads"`
}

// Settings is the settings collection: process-wide persisted metadata.
type Settings struct {
	Version     string     `json:"version,omitempty"`
	Initialized time.Time  `json:"initialized"`
	Stats       StatTotals `json:"stats"`
}

// StatTotals are cumulative counters persisted across restarts.
type StatTotals struct {
	TotalUsers    int   `json:"totalUsers"`
	TotalThreads  int   `json:"totalThreads"`
	TotalCommands int64 `json:"totalCommands"`
}
