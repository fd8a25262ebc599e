package gateways

import "sync"

// Factory builds a fresh gateway instance for one request interaction, so
// accumulated errors never leak between concurrent requests.
type Factory func() Gateway

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get returns a new instance of the named gateway.
func (r *Registry) Get(name string) (Gateway, bool) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}
