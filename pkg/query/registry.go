package query

import (
	"fmt"
	"slices"
	"sync"
)

// Registry holds named connections. The first connection added becomes the
// default one.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Add registers c under name. Registering a name twice is a configuration
// error.
func (r *Registry) Add(name string, c *Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateConnection, name)
	}
	c.name = name
	r.conns[name] = c
	r.order = append(r.order, name)
	return nil
}

// Get returns the connection registered under name.
func (r *Registry) Get(name string) (*Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConnection, name)
	}
	return c, nil
}

// Default returns the first registered connection.
func (r *Registry) Default() (*Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return nil, ErrNoConnections
	}
	return r.conns[r.order[0]], nil
}

// Lookup returns the named connection, or the default one for an empty name.
func (r *Registry) Lookup(name string) (*Conn, error) {
	if name == "" {
		return r.Default()
	}
	return r.Get(name)
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}
