package adapter

import (
	"fmt"
	"sort"
	"sync"

	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
)

// Entry is one registered adapter.
type Entry struct {
	Name    string
	Type    string
	Adapter Adapter
}

// Registry maps adapter names to implementations. It is filled at startup and
// only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]Entry{}}
}

// Register adds an adapter under name. Names are unique.
func (r *Registry) Register(name, adapterType string, a Adapter) error {
	if name == "" {
		return fmt.Errorf("adapter name required")
	}
	if a == nil {
		return fmt.Errorf("adapter %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("adapter %q already registered", name)
	}
	r.entries[name] = Entry{Name: name, Type: adapterType, Adapter: a}
	return nil
}

// Resolve returns the adapter registered under name or ErrAdapterNotFound.
func (r *Registry) Resolve(name string) (Adapter, error) {
	entry, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return entry.Adapter, nil
}

// Lookup returns the full registry entry for name.
func (r *Registry) Lookup(name string) (Entry, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, appErrors.Clone(appErrors.ErrAdapterNotFound, fmt.Sprintf("calendar adapter %q not registered", name))
	}
	return entry, nil
}

// Names lists registered adapter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
