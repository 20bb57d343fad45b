package htag

import (
	"sort"
	"strings"
	"sync"
)

// ReservedKeys can never be used as directive keys
var ReservedKeys = []string{"fragment"}

// Registry tracks the keys of registered directive definitions. Keys become
// template member names, so each may be claimed once.
type Registry struct {
	mu       sync.Mutex
	keys     map[string]struct{}
	reserved map[string]struct{}
}

// DefaultRegistry is the process-wide registry used by NewDirective
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry. ReservedKeys and any extra reserved
// names are always rejected.
func NewRegistry(reserved ...string) *Registry {
	r := &Registry{
		keys:     make(map[string]struct{}),
		reserved: make(map[string]struct{}),
	}
	for _, key := range ReservedKeys {
		r.reserved[key] = struct{}{}
	}
	for _, key := range reserved {
		r.reserved[key] = struct{}{}
	}
	return r
}

// Register claims key. It fails with a *DuplicateKeyError when the key is
// reserved, uses the member prefix, or was registered before.
func (r *Registry) Register(key string) error {
	if r.Reserved(key) {
		return &DuplicateKeyError{Key: key, Scope: "directive", Reserved: true}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key]; ok {
		return &DuplicateKeyError{Key: key, Scope: "directive"}
	}
	r.keys[key] = struct{}{}
	if debugLog != nil {
		debugLog("[htag] Registered directive key", key)
	}
	return nil
}

// Reserved reports whether key can never be registered
func (r *Registry) Reserved(key string) bool {
	if strings.HasPrefix(key, reservedPrefix) {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.reserved[key]
	return ok
}

// Has reports whether key is registered
func (r *Registry) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys[key]
	return ok
}

// Keys returns the registered keys in sorted order
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.keys))
	for k := range r.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset forgets every registered key. Reserved keys stay reserved.
// Directives created before the reset keep working.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = make(map[string]struct{})
}
