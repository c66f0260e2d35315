package command

import (
	"log/slog"
	"sort"
	"strings"
)

// Registry is the immutable command index built once at startup. Both
// canonical names and aliases resolve case-insensitively; when two plugins
// claim the same word the one discovered last wins.
type Registry struct {
	index    map[string]Handler // lowercased name and alias -> handler
	handlers []Handler          // canonical handlers, sorted by name
}

// NewRegistry discovers handlers from the given sources. Handlers with an
// invalid descriptor are logged and skipped.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{index: make(map[string]Handler)}

	byName := make(map[string]Handler)
	for _, src := range sources {
		for _, h := range src.Commands() {
			desc := h.Describe()
			if !desc.Valid() {
				slog.Warn("skipping command with invalid descriptor")
				continue
			}
			name := strings.ToLower(desc.Name)
			if prev, ok := byName[name]; ok {
				slog.Warn("command name collision, later registration wins",
					"name", name, "replaced", prev.Describe().Name)
			}
			byName[name] = h
		}
	}

	for name, h := range byName {
		r.index[name] = h
		r.handlers = append(r.handlers, h)
	}
	sort.Slice(r.handlers, func(i, j int) bool {
		return r.handlers[i].Describe().Name < r.handlers[j].Describe().Name
	})

	// Aliases bind after all names so an alias never shadows a canonical
	// name, and in sorted order so collisions resolve the same way on
	// every start.
	for _, h := range r.handlers {
		for _, alias := range h.Describe().Aliases {
			alias = strings.ToLower(alias)
			if alias == "" {
				continue
			}
			if _, taken := byName[alias]; taken {
				slog.Warn("alias shadows a command name, ignoring", "alias", alias)
				continue
			}
			if prev, ok := r.index[alias]; ok {
				slog.Warn("alias collision, later registration wins",
					"alias", alias, "replaced", prev.Describe().Name)
			}
			r.index[alias] = h
		}
	}

	slog.Info("command registry built", "commands", len(r.handlers), "index", len(r.index))
	return r
}

// Resolve looks up a command word, case-insensitively.
func (r *Registry) Resolve(word string) (Handler, bool) {
	h, ok := r.index[strings.ToLower(word)]
	return h, ok
}

// All returns the canonical handlers sorted by name.
func (r *Registry) All() []Handler {
	out := make([]Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// Len reports the number of registered commands.
func (r *Registry) Len() int { return len(r.handlers) }
