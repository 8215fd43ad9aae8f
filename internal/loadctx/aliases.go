package loadctx

import (
	"maps"
	"strings"
	"sync"

	"github.com/specialistvlad/definer/internal/loaderr"
)

// AliasTable maps short names to fully-qualified class names. It is safe for
// concurrent use: lookups share a read lock, mutations are serialized.
type AliasTable struct {
	mu sync.RWMutex
	m  map[string]string
}

// DefaultAliases is the process-wide table. Populate it before the first
// load that depends on it.
var DefaultAliases = NewAliasTable()

// NewAliasTable returns an empty table.
func NewAliasTable() *AliasTable {
	return &AliasTable{m: make(map[string]string)}
}

// Register adds name → target. Registering the same pair again is a no-op;
// binding an existing name to a different target fails with
// loaderr.ErrDuplicateAlias.
func (t *AliasTable) Register(name, target string) error {
	name, target = strings.TrimSpace(name), strings.TrimSpace(target)
	if name == "" || target == "" {
		return loaderr.New(loaderr.ErrFormat, "alias needs a name and a target (got %q → %q)", name, target)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.m[name]; ok {
		if prev == target {
			return nil
		}
		return loaderr.New(loaderr.ErrDuplicateAlias, "alias %q already targets %q, cannot rebind to %q", name, prev, target)
	}
	t.m[name] = target
	return nil
}

// Unregister removes name if present.
func (t *AliasTable) Unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, name)
}

// Clear removes every alias.
func (t *AliasTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.m)
}

// Lookup returns the target registered for name.
func (t *AliasTable) Lookup(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	target, ok := t.m[name]
	return target, ok
}

// Snapshot returns a copy of the table.
func (t *AliasTable) Snapshot() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.m)
}
