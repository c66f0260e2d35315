package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Prefix.Global != "!" {
		t.Errorf("default prefix = %q", cfg.Prefix.Global)
	}
	if cfg.Language.Default != "en" {
		t.Errorf("default language = %q", cfg.Language.Default)
	}
	if cfg.AntiSpam.Window() != 10*time.Second {
		t.Errorf("antispam window = %v", cfg.AntiSpam.Window())
	}
	if cfg.Database.AutoSave() != 5*time.Minute {
		t.Errorf("autosave = %v", cfg.Database.AutoSave())
	}
	if cfg.Database.BackupRetain != 10 {
		t.Errorf("backup retain = %d", cfg.Database.BackupRetain)
	}
	if cfg.Transport.MaxReconnectAttempts != 10 {
		t.Errorf("max reconnect = %d", cfg.Transport.MaxReconnectAttempts)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Prefix.Global != "!" {
		t.Errorf("prefix = %q", cfg.Prefix.Global)
	}
}

func TestLoadJSON5WithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		// the command prefix
		prefix: { global: "?" },
		bot: { name: "testbot", owner_ids: ["o1"] },
		anti_spam: { enabled: false },
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prefix.Global != "?" {
		t.Errorf("prefix = %q", cfg.Prefix.Global)
	}
	if cfg.Bot.Name != "testbot" {
		t.Errorf("name = %q", cfg.Bot.Name)
	}
	if cfg.AntiSpam.Enabled {
		t.Error("anti_spam.enabled should be overridden to false")
	}
	// Untouched sections keep their defaults.
	if cfg.Database.Driver != "file" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("WPBOT_PREFIX", "#")
	t.Setenv("WPBOT_BRIDGE_TOKEN", "secret")
	t.Setenv("WPBOT_OWNER_IDS", "a@x,b@x")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prefix.Global != "#" {
		t.Errorf("env prefix not applied: %q", cfg.Prefix.Global)
	}
	if cfg.Transport.Token != "secret" {
		t.Error("env token not applied")
	}
	if len(cfg.Bot.OwnerIDs) != 2 || cfg.Bot.OwnerIDs[1] != "b@x" {
		t.Errorf("owner ids = %v", cfg.Bot.OwnerIDs)
	}
}

func TestSaveNeverWritesToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Transport.Token = "supersecret"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("empty config written")
	}
	if strings.Contains(string(data), "supersecret") {
		t.Error("token leaked to disk")
	}
}
