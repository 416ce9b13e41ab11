package extractor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory creates a driver from engine-specific options
type Factory func(options map[string]string) (Driver, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	aliases    = make(map[string]string)
)

// Register makes a driver available under its engine name and aliases.
// Engine packages call it from init; registering a name twice panics.
func Register(engine string, factory Factory, alias ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	engine = normalizeEngine(engine)
	if _, dup := factories[engine]; dup {
		panic("extractor: Register called twice for engine " + engine)
	}
	factories[engine] = factory
	aliases[engine] = engine
	for _, a := range alias {
		aliases[normalizeEngine(a)] = engine
	}
}

// CanonicalEngine resolves an engine name or alias
func CanonicalEngine(name string) (string, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	engine, ok := aliases[normalizeEngine(name)]
	return engine, ok
}

// NewDriver creates a driver for the given engine name or alias
func NewDriver(engine string, options map[string]string) (Driver, error) {
	canonical, ok := CanonicalEngine(engine)
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s (supported: %s)",
			engine, strings.Join(SupportedEngines(), ", "))
	}

	registryMu.RLock()
	factory := factories[canonical]
	registryMu.RUnlock()

	return factory(options)
}

// SupportedEngines returns the canonical names of all registered engines
func SupportedEngines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	engines := make([]string, 0, len(factories))
	for name := range factories {
		engines = append(engines, name)
	}
	sort.Strings(engines)
	return engines
}

func normalizeEngine(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
