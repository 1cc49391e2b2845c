package container

import (
	"fmt"
	"sync"

	"github.com/kolkov/fieldwatch/internal/agent"
	"github.com/kolkov/fieldwatch/internal/multiset"
)

// Set is a generic, tracked, unordered collection with no duplicate
// elements. The zero Set is empty and ready to use.
type Set[T comparable] struct {
	mu       sync.Mutex
	elements map[T]struct{}
}

// NewSet returns a Set containing elems, deduplicated.
func NewSet[T comparable](elems ...T) *Set[T] {
	s := &Set[T]{elements: make(map[T]struct{}, len(elems))}
	for _, e := range elems {
		s.elements[e] = struct{}{}
	}
	return s
}

// Len returns the number of elements. Immutable.
func (s *Set[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elements)
}

// Contains reports whether v is a member. Immutable.
func (s *Set[T]) Contains(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.elements[v]
	return ok
}

// ToSlice returns the set's members in unspecified order. Immutable.
func (s *Set[T]) ToSlice() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.elements))
	for e := range s.elements {
		out = append(out, e)
	}
	return out
}

// String renders the set for diagnostics. Immutable.
func (s *Set[T]) String() string {
	return fmt.Sprintf("Set%v", s.ToSlice())
}

// Add inserts v and reports whether it was not already a member.
// Documented: the returned bool is exactly the inline "modified?" flag.
func (s *Set[T]) Add(v T) bool {
	s.mu.Lock()
	_, existed := s.elements[v]
	if !existed {
		s.elements[v] = struct{}{}
	}
	s.mu.Unlock()

	modified := !existed
	agent.Default().CaptureInline(s, v, modified, true)
	return modified
}

// Remove deletes v and reports whether it was present. Documented.
func (s *Set[T]) Remove(v T) bool {
	s.mu.Lock()
	_, existed := s.elements[v]
	delete(s.elements, v)
	s.mu.Unlock()

	agent.Default().CaptureInline(s, v, existed, false)
	return existed
}

// AddAll inserts every element of vs. Replaceable: delegates to Add.
func (s *Set[T]) AddAll(vs ...T) {
	for _, v := range vs {
		s.Add(v)
	}
}

// RemoveAll deletes every element of vs that is present. Replaceable:
// delegates to Remove.
func (s *Set[T]) RemoveAll(vs ...T) {
	for _, v := range vs {
		s.Remove(v)
	}
}

// RetainAll removes every member not present in keep. Not in the
// known-methods table, so Default: the runtime snapshots before and after
// and reports the resulting removals.
func (s *Set[T]) RetainAll(keep []T) {
	rt := agent.Default()
	outermost := rt.Enter(s, true)
	var before *multiset.Multiset
	if outermost {
		before = s.FieldwatchSnapshot()
	}
	defer func() {
		rt.Leave(s, true)
		if outermost {
			rt.CaptureMutator(s, before)
		}
	}()

	keepSet := make(map[T]struct{}, len(keep))
	for _, v := range keep {
		keepSet[v] = struct{}{}
	}

	s.mu.Lock()
	for e := range s.elements {
		if _, ok := keepSet[e]; !ok {
			delete(s.elements, e)
		}
	}
	s.mu.Unlock()
}

// FieldwatchSnapshot implements multiset.Snapshottable.
func (s *Set[T]) FieldwatchSnapshot() *multiset.Multiset {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := multiset.New()
	for e := range s.elements {
		m.Add(e)
	}
	return m
}
