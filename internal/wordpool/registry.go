// Package wordpool provides the named word pools routes draw from.
package wordpool

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SourceBuiltin marks pools compiled into the binary.
const SourceBuiltin = "builtin"

type pool struct {
	words  []string
	source string
}

// Registry maps pool ids to ordered, non-empty word lists.
type Registry struct {
	pools map[string]pool
}

// NewRegistry returns a registry holding the built-in pools.
func NewRegistry() *Registry {
	r := &Registry{pools: make(map[string]pool, len(builtinPools))}
	for id, words := range builtinPools {
		r.pools[id] = pool{words: append([]string(nil), words...), source: SourceBuiltin}
	}
	return r
}

// Add registers or replaces a pool. Empty or invalid lists are rejected.
func (r *Registry) Add(id string, words []string, source string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("pool id is empty")
	}
	if len(words) == 0 {
		return fmt.Errorf("pool %q is empty", id)
	}
	for _, w := range words {
		if !Valid(w) {
			return fmt.Errorf("pool %q: invalid word %q", id, w)
		}
	}
	r.pools[id] = pool{words: append([]string(nil), words...), source: source}
	return nil
}

// LoadDir adds every <id>.txt file in dir. A missing directory is not an error.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read pool directory: %w", err)
	}
	var loaded []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		words, err := LoadWords(path)
		if err != nil {
			return loaded, fmt.Errorf("failed to load pool %s: %w", path, err)
		}
		id := strings.TrimSuffix(entry.Name(), ".txt")
		if err := r.Add(id, words, path); err != nil {
			return loaded, err
		}
		loaded = append(loaded, id)
	}
	return loaded, nil
}

// Lookup returns the words of a pool.
func (r *Registry) Lookup(id string) ([]string, bool) {
	p, ok := r.pools[id]
	if !ok {
		return nil, false
	}
	return p.words, true
}

// Default returns the default pool, which is never empty.
func (r *Registry) Default() []string {
	if p, ok := r.pools[DefaultID]; ok && len(p.words) > 0 {
		return p.words
	}
	return builtinPools[DefaultID]
}

// Source reports where a pool came from: SourceBuiltin or a file path.
func (r *Registry) Source(id string) string {
	return r.pools[id].source
}

// IDs returns the registered pool ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
