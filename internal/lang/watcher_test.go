package lang

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsChangedCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fr.json")
	if err := os.WriteFile(path, []byte(`{"ping": "pong v1"}`), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver("en", dir)
	if got := r.Text("fr", "ping", nil); got != "pong v1" {
		t.Fatalf("initial load: %q", got)
	}

	w, err := NewWatcher(r)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	if err := os.WriteFile(path, []byte(`{"ping": "pong v2"}`), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if r.Text("fr", "ping", nil) == "pong v2" {
			return
		}
		select {
		case <-deadline:
			t.Fatal("catalog change not picked up")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcherRejectsMissingDir(t *testing.T) {
	r := NewResolver("en", filepath.Join(t.TempDir(), "absent"))
	if _, err := NewWatcher(r); err == nil {
		t.Fatal("expected error for unwatchable directory")
	}
}
