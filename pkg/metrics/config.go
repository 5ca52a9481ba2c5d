package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registry to use. If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Registry: prometheus.DefaultRegisterer,
	}
}

// A Config travels through several components: an adapter resolves it
// for its own counters and then hands it to the pool it owns. Each
// metric family may only be registered once per registerer, so Resolve
// shares one Registry per registerer instead of building a fresh one
// per call.
var (
	registriesMu sync.Mutex
	registries   = make(map[prometheus.Registerer]*Registry)
)

// Resolve returns the Registry instance to use for this configuration.
// Disabled configurations return nil; components treat a nil registry as
// "do not record". Resolving the same registerer repeatedly returns the
// same Registry.
func (c Config) Resolve() *Registry {
	if !c.Enabled {
		return nil
	}
	if c.Registry == nil || c.Registry == prometheus.DefaultRegisterer {
		return DefaultRegistry
	}

	registriesMu.Lock()
	defer registriesMu.Unlock()

	if r, ok := registries[c.Registry]; ok {
		return r
	}
	r := NewRegistry(c.Registry)
	registries[c.Registry] = r
	return r
}
