// Package lang resolves localized message text. Catalogs are flat
// key -> string JSON files named <code>.json in a configured directory; an
// embedded English catalog is always present as the base fallback tier.
//
// Lookup never fails: a key missing from every tier resolves to the key
// itself so the pipeline can always produce a reply.
package lang

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed catalogs/*.json
var embedded embed.FS

// BaseLanguage is the hardcoded last-resort catalog tier.
const BaseLanguage = "en"

// Resolver resolves message keys through the fallback chain
// preferred -> default -> base -> literal key.
type Resolver struct {
	mu          sync.RWMutex
	catalogs    map[string]map[string]string
	defaultLang string
	dir         string
}

// NewResolver creates a resolver with the embedded base catalog loaded and,
// when dir is non-empty, all <code>.json catalogs found there. Catalog files
// override embedded entries of the same language.
func NewResolver(defaultLang, dir string) *Resolver {
	r := &Resolver{
		catalogs:    make(map[string]map[string]string),
		defaultLang: defaultLang,
		dir:         dir,
	}
	r.loadEmbedded()
	if dir != "" {
		if err := r.LoadDir(); err != nil {
			slog.Warn("language catalog directory not loaded", "dir", dir, "error", err)
		}
	}
	return r
}

func (r *Resolver) loadEmbedded() {
	entries, err := embedded.ReadDir("catalogs")
	if err != nil {
		return
	}
	for _, e := range entries {
		data, err := embedded.ReadFile("catalogs/" + e.Name())
		if err != nil {
			continue
		}
		code := strings.TrimSuffix(e.Name(), ".json")
		var cat map[string]string
		if err := json.Unmarshal(data, &cat); err != nil {
			continue
		}
		r.catalogs[code] = cat
	}
}

// LoadDir loads every <code>.json catalog from the configured directory.
func (r *Resolver) LoadDir() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return err
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := r.LoadFile(filepath.Join(r.dir, e.Name())); err != nil {
			slog.Warn("failed to load language catalog", "file", e.Name(), "error", err)
			continue
		}
		loaded++
	}

	slog.Info("language catalogs loaded", "dir", r.dir, "count", loaded)
	return nil
}

// LoadFile loads or reloads a single catalog file. The language code is the
// file name without extension. Entries merge over any embedded catalog of
// the same language.
func (r *Resolver) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var cat map[string]string
	if err := json.Unmarshal(data, &cat); err != nil {
		return fmt.Errorf("parse catalog %s: %w", filepath.Base(path), err)
	}

	code := strings.TrimSuffix(filepath.Base(path), ".json")

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := make(map[string]string, len(cat))
	for k, v := range r.catalogs[code] {
		merged[k] = v
	}
	for k, v := range cat {
		merged[k] = v
	}
	r.catalogs[code] = merged
	return nil
}

// Languages returns the codes of all loaded catalogs.
func (r *Resolver) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.catalogs))
	for code := range r.catalogs {
		codes = append(codes, code)
	}
	return codes
}

// Has reports whether a catalog for the given language code is loaded.
func (r *Resolver) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.catalogs[code]
	return ok
}

// Text resolves key in the preferred language, falling back to the default
// language, then the base language, then the literal key. Placeholders of
// the form {name} are substituted from vars; no other templating exists.
func (r *Resolver) Text(preferred, key string, vars map[string]string) string {
	r.mu.RLock()
	text, ok := r.lookup(preferred, key)
	if !ok && preferred != r.defaultLang {
		text, ok = r.lookup(r.defaultLang, key)
	}
	if !ok && r.defaultLang != BaseLanguage {
		text, ok = r.lookup(BaseLanguage, key)
	}
	r.mu.RUnlock()

	if !ok {
		return key
	}
	return Substitute(text, vars)
}

func (r *Resolver) lookup(code, key string) (string, bool) {
	cat, ok := r.catalogs[code]
	if !ok {
		return "", false
	}
	text, ok := cat[key]
	return text, ok
}

// Substitute replaces {name} placeholders in text with values from vars.
func Substitute(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	for name, value := range vars {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}
