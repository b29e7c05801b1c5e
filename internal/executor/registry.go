package executor

import (
	"sort"
	"sync"
)

// Registry maps executor references (agent roles) to generators. Unknown
// references fall back to the default generator.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	fallback   Generator
}

func NewRegistry(fallback Generator) *Registry {
	return &Registry{
		generators: make(map[string]Generator),
		fallback:   fallback,
	}
}

// Register binds ref to gen, replacing any previous binding.
func (r *Registry) Register(ref string, gen Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[ref] = gen
}

// Lookup returns the generator for ref, or the fallback. It returns nil only
// when neither exists.
func (r *Registry) Lookup(ref string) Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if gen, ok := r.generators[ref]; ok {
		return gen
	}
	return r.fallback
}

// Refs lists the explicitly registered references in sorted order.
func (r *Registry) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]string, 0, len(r.generators))
	for ref := range r.generators {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
