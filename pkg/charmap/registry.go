package charmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the loaded per-layout tables. Lookups never fail: a missing
// table degrades to the built-in US map, a missing key degrades to the key's
// own name.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]Table
	order  []string // insertion order, for "first loaded" fallback
	log    *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		tables: make(map[string]Table),
		log:    log,
	}
}

// LoadDir loads every <code>.json file in dir. Files that fail validation are
// skipped with a warning; they never abort the rest of the load.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read layouts dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		code := strings.TrimSuffix(e.Name(), ".json")
		if err := r.LoadFile(code, filepath.Join(dir, e.Name())); err != nil {
			r.log.Warnw("skipping layout file", "file", e.Name(), "error", err)
		}
	}

	return nil
}

// LoadFile loads or replaces the table for one layout code. The file is a map
// from key name to a 1-or-2-element array [base] or [base, shifted-or-null].
func (r *Registry) LoadFile(code, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read layout file: %w", err)
	}

	var raw map[string][]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode layout file: %w", err)
	}

	table := make(Table, len(raw))
	for key, chars := range raw {
		if len(chars) < 1 || len(chars) > 2 || chars[0] == nil {
			return fmt.Errorf("key %q: want [base] or [base, shifted-or-null], got %d elements", key, len(chars))
		}
		entry := Entry{Base: *chars[0]}
		if len(chars) == 2 && chars[1] != nil {
			entry.Shifted = chars[1]
		}
		table[key] = entry
	}

	r.mu.Lock()
	if _, exists := r.tables[code]; !exists {
		r.order = append(r.order, code)
	}
	r.tables[code] = table
	r.mu.Unlock()

	return nil
}

// GetTable returns the dedicated table for code, or the built-in fallback.
func (r *Registry) GetTable(code string) Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tables[code]; ok {
		return t
	}
	return fallbackTable
}

// HasTable reports whether a dedicated table is loaded for code.
func (r *Registry) HasTable(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tables[code]
	return ok
}

// ResolveChar returns the character to show for key under the given layout
// and shift state. A shifted request falls back to the base character when
// the layout defines no shift variant; a key absent from every table falls
// back to its own name, so functional keys still render something.
func (r *Registry) ResolveChar(code, key string, shifted bool) string {
	entry, ok := r.GetTable(code)[key]
	if !ok {
		entry, ok = fallbackTable[key]
	}
	if !ok {
		return key
	}

	if shifted && entry.Shifted != nil {
		return *entry.Shifted
	}
	return entry.Base
}

// ResolveSelection maps a system layout code to the code of a table that can
// be displayed. It never comes back empty: exact match, then the language
// family of the built-in base ("en*"/"us*"), then the first loaded table,
// then the built-in base itself.
func (r *Registry) ResolveSelection(code string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.tables[code]; ok {
		return code
	}
	if strings.HasPrefix(code, "en") || strings.HasPrefix(code, "us") {
		return BaseLayout
	}
	if len(r.order) > 0 {
		return r.order[0]
	}
	return BaseLayout
}
