package container

import (
	"fmt"
	"sync"

	"github.com/kolkov/fieldwatch/internal/agent"
	"github.com/kolkov/fieldwatch/internal/multiset"
)

// Map is a generic, tracked key-value collection. The zero Map is empty and
// ready to use.
type Map[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
}

// NewMap returns an empty Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{entries: make(map[K]V)}
}

// Len returns the number of entries. Immutable.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Get returns the value for key and whether it was present. Immutable.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

// Contains reports whether key is present. Immutable.
func (m *Map[K, V]) Contains(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Keys returns the map's keys in unspecified order. Immutable.
func (m *Map[K, V]) Keys() []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]K, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}
	return out
}

// Values returns the map's values in unspecified order. Immutable.
func (m *Map[K, V]) Values() []V {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]V, 0, len(m.entries))
	for _, v := range m.entries {
		out = append(out, v)
	}
	return out
}

// String renders the map for diagnostics. Immutable.
func (m *Map[K, V]) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("Map%v", m.entries)
}

// Put associates key with value and returns the previous value, if any.
// Documented: a put is always reported as an addition of the new
// key/value pair, even when it replaces an existing one — the store
// records the assignment, not a diff against the old value.
func (m *Map[K, V]) Put(key K, value V) (V, bool) {
	m.mu.Lock()
	old, existed := m.entries[key]
	m.entries[key] = value
	m.mu.Unlock()

	agent.Default().CaptureInline(m, multiset.Entry{Key: key, Value: value}, true, true)
	return old, existed
}

// Remove deletes key and reports whether it was present. Documented.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	m.mu.Lock()
	old, existed := m.entries[key]
	delete(m.entries, key)
	m.mu.Unlock()

	if existed {
		agent.Default().CaptureInline(m, multiset.Entry{Key: key, Value: old}, true, false)
	}
	return old, existed
}

// PutAll copies every entry of other into m. Replaceable: delegates to Put.
func (m *Map[K, V]) PutAll(other map[K]V) {
	for k, v := range other {
		m.Put(k, v)
	}
}

// FieldwatchSnapshot implements multiset.Snapshottable.
func (m *Map[K, V]) FieldwatchSnapshot() *multiset.Multiset {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := multiset.New()
	for k, v := range m.entries {
		snap.AddEntry(k, v)
	}
	return snap
}
