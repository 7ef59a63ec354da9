package lifecycle

import (
	"fmt"
	"sync"
)

// FactoryFunc constructs one instance. Per spec.md §9, in a statically
// compiled target language the "<module>:<symbol>" factory reference is a
// pre-registered table keyed by that same string, populated at program
// start by each extension's init(). The returned value is an opaque
// payload to the core — it is type-asserted against Initializer,
// HealthChecker, Cleaner, Pauser, Resumer, and Drainer as needed.
type FactoryFunc func() (interface{}, error)

// FactoryTable is the pre-registered string-to-constructor table. It is
// instantiable multiple times (spec.md §9's "process-scoped container, not
// a singleton") but a package-level Default is provided for convenience.
type FactoryTable struct {
	mu    sync.RWMutex
	table map[string]FactoryFunc
}

// NewFactoryTable constructs an empty table.
func NewFactoryTable() *FactoryTable {
	return &FactoryTable{table: make(map[string]FactoryFunc)}
}

// Register binds a factory string (already known to satisfy the identity
// grammar) to a constructor. Extensions call this from their own init().
func (t *FactoryTable) Register(factory string, fn FactoryFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.table[factory] = fn
}

// Lookup returns the constructor bound to factory, if any.
func (t *FactoryTable) Lookup(factory string) (FactoryFunc, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.table[factory]
	if !ok {
		return nil, fmt.Errorf("no factory registered for %q", factory)
	}
	return fn, nil
}

// Default is the process-wide factory table used when a Manager is built
// without an explicit table. Tests construct their own via NewFactoryTable
// to stay isolated.
var Default = NewFactoryTable()
