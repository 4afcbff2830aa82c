package adapter

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a platform adapter from its own configuration
// (credentials, endpoints). Concrete adapters register themselves in an
// init func, the way database/sql drivers do.
type Factory func() (PlatformAdapter, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a platform adapter available under the given name.
// Registering the same name twice panics.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("adapter: Register called twice for " + name)
	}
	registry[name] = f
}

// New constructs the adapter registered under name.
func New(name string) (PlatformAdapter, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("adapter: %q not registered (linked adapters: %v)", name, Registered())
	}
	return f()
}

// Registered lists the names of all linked adapters.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
