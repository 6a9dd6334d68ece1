package collector

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the available exchange collectors by name.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry creates a new collector registry
func NewRegistry() *Registry {
	return &Registry{
		collectors: make(map[string]Collector),
	}
}

// Register adds a collector to the registry
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Name()] = c
}

// Get retrieves a collector by name
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	return c, ok
}

// Names returns the registered collector names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain resolves primary followed by fallbacks into one collector. A single
// name is returned as-is; several are wrapped in a Fallback.
func (r *Registry) Chain(primary string, fallbacks ...string) (Collector, error) {
	names := append([]string{primary}, fallbacks...)
	chain := make([]Collector, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		c, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown collector %q", name)
		}
		chain = append(chain, c)
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	return NewFallback(chain...), nil
}
