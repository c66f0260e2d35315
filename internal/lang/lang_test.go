package lang

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFallbackChain(t *testing.T) {
	r := NewResolver("bn", "")

	t.Run("preferred language wins", func(t *testing.T) {
		got := r.Text("bn", "ping", nil)
		if got == "" || got == "ping" {
			t.Errorf("bn catalog should have ping, got %q", got)
		}
	})

	t.Run("missing key falls back to default then base", func(t *testing.T) {
		// bn has no prefixCurrent entry; default is bn too, so the base
		// English tier must serve it.
		got := r.Text("bn", "prefixCurrent", map[string]string{"prefix": "!"})
		if got != "Current prefix: !" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("unknown language falls back to default", func(t *testing.T) {
		got := r.Text("xx", "ping", nil)
		if got == "ping" {
			t.Errorf("expected a catalog hit via fallback, got literal key")
		}
	})

	t.Run("unknown key everywhere returns literal key", func(t *testing.T) {
		if got := r.Text("bn", "noSuchKey", nil); got != "noSuchKey" {
			t.Errorf("got %q, want literal key", got)
		}
	})
}

func TestSubstitute(t *testing.T) {
	got := Substitute("wait {time}s, {user}", map[string]string{"time": "5", "user": "Alice"})
	if got != "wait 5s, Alice" {
		t.Errorf("got %q", got)
	}

	// Unmatched placeholders survive verbatim.
	got = Substitute("hello {name}", nil)
	if got != "hello {name}" {
		t.Errorf("got %q", got)
	}
}

func TestLoadFileMergesOverEmbedded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.json")
	if err := os.WriteFile(path, []byte(`{"ping": "custom pong", "extra": "hi"}`), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver("en", dir)
	if got := r.Text("en", "ping", nil); got != "custom pong" {
		t.Errorf("file entry should override embedded: %q", got)
	}
	if got := r.Text("en", "extra", nil); got != "hi" {
		t.Errorf("new file entry missing: %q", got)
	}
	// Embedded keys absent from the file survive the merge.
	if got := r.Text("en", "permissionDenied", nil); got == "permissionDenied" {
		t.Error("embedded entry lost after merge")
	}
}

func TestHasAndLanguages(t *testing.T) {
	r := NewResolver("en", "")
	if !r.Has("en") {
		t.Error("embedded en catalog should be present")
	}
	if r.Has("zz") {
		t.Error("unknown catalog reported present")
	}
	if len(r.Languages()) == 0 {
		t.Error("no catalogs listed")
	}
}

func TestMissingCatalogDirIsNotFatal(t *testing.T) {
	r := NewResolver("en", filepath.Join(t.TempDir(), "absent"))
	if got := r.Text("en", "ping", nil); got == "ping" {
		t.Error("embedded catalog should still serve with a missing dir")
	}
}
