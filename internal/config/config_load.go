package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Bot: BotConfig{
			Name: "wp-bot",
		},
		Prefix: PrefixConfig{
			Global:          "!",
			MentionAsPrefix: true,
		},
		Language: LanguageConfig{
			Default:        "en",
			CatalogDir:     "languages",
			AllowPerThread: true,
			AllowPerUser:   true,
		},
		AntiSpam: AntiSpamConfig{
			Enabled:       true,
			WindowSeconds: 10,
			MaxMessages:   5,
			Warn:          true,
		},
		Commands: CommandsConfig{
			DefaultCooldown: 3,
		},
		Database: DatabaseConfig{
			Driver:           "file",
			Path:             "data",
			AutoSaveInterval: "5m",
			BackupRetain:     10,
		},
		Transport: TransportConfig{
			MaxReconnectAttempts: 10,
			SendRatePerSecond:    1,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("WPBOT_BRIDGE_URL", &c.Transport.BridgeURL)
	envStr("WPBOT_BRIDGE_TOKEN", &c.Transport.Token)
	envStr("WPBOT_BOT_ID", &c.Bot.ID)
	envStr("WPBOT_PREFIX", &c.Prefix.Global)
	envStr("WPBOT_LANGUAGE", &c.Language.Default)
	envStr("WPBOT_DATA_DIR", &c.Database.Path)
	envStr("WPBOT_DB_DRIVER", &c.Database.Driver)

	// Owner IDs from env (comma-separated)
	if v := os.Getenv("WPBOT_OWNER_IDS"); v != "" {
		c.Bot.OwnerIDs = strings.Split(v, ",")
	}

	if v := os.Getenv("WPBOT_MAX_RECONNECT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Transport.MaxReconnectAttempts = n
		}
	}
}

// Save writes the config to a JSON file. The bridge token is tagged json:"-"
// and never lands on disk.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ExpandHome replaces leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
