// Kunhua Huang 2026
// In-memory connection registry guarded by a single mutex

package memory

import (
	"sort"
	"sync"

	"github.com/ecstasoy/echoadd/pkg/registry"
)

type Registry struct {
	handles map[string]registry.Handle
	mu      sync.Mutex
}

var _ registry.Registry = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]registry.Handle),
	}
}

func (r *Registry) Insert(handle registry.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[handle.Key()]; exists {
		return registry.ErrAlreadyExists
	}

	r.handles[handle.Key()] = handle
	return nil
}

func (r *Registry) Remove(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[key]; !exists {
		return registry.ErrNotFound
	}

	delete(r.handles, key)
	return nil
}

// Snapshot returns a copy ordered by accept time.
func (r *Registry) Snapshot() []registry.Handle {
	r.mu.Lock()
	out := make([]registry.Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].AcceptedAt.Before(out[j].AcceptedAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handles)
}
