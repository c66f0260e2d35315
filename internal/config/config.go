// Package config defines the wp-bot configuration model. Config is loaded
// from a JSON5 file, then overlaid with WPBOT_* environment variables; env
// always wins. Secrets (the bridge auth token) are env-only and never
// persisted to disk.
package config

import "time"

// Config is the root configuration for the bot runtime.
type Config struct {
	Bot       BotConfig       `json:"bot"`
	Prefix    PrefixConfig    `json:"prefix"`
	Language  LanguageConfig  `json:"language"`
	AntiSpam  AntiSpamConfig  `json:"anti_spam"`
	Commands  CommandsConfig  `json:"commands"`
	Database  DatabaseConfig  `json:"database"`
	Transport TransportConfig `json:"transport"`
}

// BotConfig identifies the bot account and its owners.
type BotConfig struct {
	Name     string   `json:"name"`
	ID       string   `json:"id,omitempty"`        // platform account ID, used for mention detection
	OwnerIDs []string `json:"owner_ids,omitempty"` // sender IDs granted the owner role
}

// PrefixConfig controls how a message body is recognized as a command.
type PrefixConfig struct {
	Global          string `json:"global"`                      // default command prefix, e.g. "!"
	MentionAsPrefix bool   `json:"mention_as_prefix,omitempty"` // "@<botID> cmd" invokes cmd
	AllowNoPrefix   bool   `json:"allow_no_prefix,omitempty"`   // bare registered name invokes cmd
}

// LanguageConfig controls localization lookup.
type LanguageConfig struct {
	Default        string `json:"default"`                    // process-wide default language code
	CatalogDir     string `json:"catalog_dir,omitempty"`      // directory of <code>.json catalogs
	AllowPerThread bool   `json:"allow_per_thread,omitempty"` // honor thread language preference
	AllowPerUser   bool   `json:"allow_per_user,omitempty"`   // honor user language preference
}

// AntiSpamConfig tunes the sliding-window flood gate.
type AntiSpamConfig struct {
	Enabled       bool `json:"enabled"`
	WindowSeconds int  `json:"window_seconds,omitempty"` // sliding window length (default 10)
	MaxMessages   int  `json:"max_messages,omitempty"`   // messages allowed within the window (default 5)
	Warn          bool `json:"warn,omitempty"`           // send a localized warning on trip
}

// Window returns the configured sliding window as a duration.
func (a AntiSpamConfig) Window() time.Duration {
	secs := a.WindowSeconds
	if secs <= 0 {
		secs = 10
	}
	return time.Duration(secs) * time.Second
}

// CommandsConfig holds dispatch policy shared by all commands.
type CommandsConfig struct {
	DefaultCooldown int                 `json:"default_cooldown,omitempty"` // seconds, for descriptors without one
	DisableGlobal   []string            `json:"disable_global,omitempty"`   // command names disabled everywhere
	DisablePerChat  map[string][]string `json:"disable_per_chat,omitempty"` // chat ID -> disabled command names
}

// DatabaseConfig selects and tunes the persistence store.
type DatabaseConfig struct {
	Driver           string `json:"driver,omitempty"`             // "file" (default) or "sqlite"
	Path             string `json:"path"`                         // data directory (file) or db file parent (sqlite)
	AutoSaveInterval string `json:"auto_save_interval,omitempty"` // Go duration, "" or "0" disables autosave
	BackupSchedule   string `json:"backup_schedule,omitempty"`    // cron expression for periodic backups
	BackupRetain     int    `json:"backup_retain,omitempty"`      // archives to keep (default 10)
}

// AutoSave returns the parsed autosave interval, 0 when disabled.
func (d DatabaseConfig) AutoSave() time.Duration {
	if d.AutoSaveInterval == "" {
		return 0
	}
	iv, err := time.ParseDuration(d.AutoSaveInterval)
	if err != nil || iv < 0 {
		return 0
	}
	return iv
}

// TransportConfig configures the WhatsApp bridge connection.
type TransportConfig struct {
	BridgeURL            string  `json:"bridge_url"`
	Token                string  `json:"-"` // from env WPBOT_BRIDGE_TOKEN only
	MaxReconnectAttempts int     `json:"max_reconnect_attempts,omitempty"` // default 10
	SendRatePerSecond    float64 `json:"send_rate_per_second,omitempty"`   // outbound throttle (default 1)
}
