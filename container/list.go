package container

import (
	"fmt"
	"sync"

	"github.com/kolkov/fieldwatch/internal/agent"
	"github.com/kolkov/fieldwatch/internal/multiset"
)

// List is a generic, tracked, ordered collection. The zero List is empty
// and ready to use.
type List[T comparable] struct {
	mu       sync.Mutex
	elements []T
}

// NewList returns a List containing elems, in order.
func NewList[T comparable](elems ...T) *List[T] {
	return &List[T]{elements: append([]T(nil), elems...)}
}

// Len returns the number of elements. Immutable: never reported.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.elements)
}

// Get returns the element at index i. Immutable: never reported.
func (l *List[T]) Get(i int) T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.elements[i]
}

// Contains reports whether v is present. Immutable: never reported.
func (l *List[T]) Contains(v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.elements {
		if e == v {
			return true
		}
	}
	return false
}

// IndexOf returns the index of the first occurrence of v, or -1. Immutable.
func (l *List[T]) IndexOf(v T) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.elements {
		if e == v {
			return i
		}
	}
	return -1
}

// ToSlice returns a copy of the list's contents. Immutable.
func (l *List[T]) ToSlice() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.elements...)
}

// String renders the list for diagnostics. Immutable.
func (l *List[T]) String() string {
	return fmt.Sprintf("List%v", l.ToSlice())
}

// Add appends v and reports an addition. Documented: always returns true,
// so the inline capture is unconditional.
func (l *List[T]) Add(v T) bool {
	l.mu.Lock()
	l.elements = append(l.elements, v)
	l.mu.Unlock()
	agent.Default().CaptureInline(l, v, true, true)
	return true
}

// Remove deletes the first occurrence of v and reports whether one was
// found. Documented: the returned bool is exactly the inline "modified?"
// flag.
func (l *List[T]) Remove(v T) bool {
	l.mu.Lock()
	idx := -1
	for i, e := range l.elements {
		if e == v {
			idx = i
			break
		}
	}
	if idx >= 0 {
		l.elements = append(l.elements[:idx], l.elements[idx+1:]...)
	}
	l.mu.Unlock()

	modified := idx >= 0
	agent.Default().CaptureInline(l, v, modified, false)
	return modified
}

// RemoveAt deletes the element at index i and returns it. Documented: an
// index removal always modifies the list.
func (l *List[T]) RemoveAt(i int) T {
	l.mu.Lock()
	v := l.elements[i]
	l.elements = append(l.elements[:i], l.elements[i+1:]...)
	l.mu.Unlock()

	agent.Default().CaptureInline(l, v, true, false)
	return v
}

// Set replaces the element at index i with v and returns the old value.
// Documented as a remove-then-add pair: the old value is reported removed,
// the new value reported added.
func (l *List[T]) Set(i int, v T) T {
	l.mu.Lock()
	old := l.elements[i]
	l.elements[i] = v
	l.mu.Unlock()

	rt := agent.Default()
	rt.CaptureInline(l, old, true, false)
	rt.CaptureInline(l, v, true, true)
	return old
}

// AddAll appends every element of vs, in order. Replaceable: delegates to
// Add, which performs the actual inline capture per element.
func (l *List[T]) AddAll(vs ...T) {
	for _, v := range vs {
		l.Add(v)
	}
}

// RemoveAll removes every occurrence in vs that is present, in order.
// Replaceable: delegates to Remove per element.
func (l *List[T]) RemoveAll(vs ...T) {
	for _, v := range vs {
		l.Remove(v)
	}
}

// ReplaceAll applies f to every element in place. Not in the known-methods
// table, so it is Default: the runtime takes a before/after snapshot and
// reports only the elements that actually changed identity.
func (l *List[T]) ReplaceAll(f func(T) T) {
	rt := agent.Default()
	outermost := rt.Enter(l, true)
	var before *multiset.Multiset
	if outermost {
		before = l.FieldwatchSnapshot()
	}
	defer func() {
		rt.Leave(l, true)
		if outermost {
			rt.CaptureMutator(l, before)
		}
	}()

	l.mu.Lock()
	for i := range l.elements {
		l.elements[i] = f(l.elements[i])
	}
	l.mu.Unlock()
}

// FieldwatchSnapshot implements multiset.Snapshottable.
func (l *List[T]) FieldwatchSnapshot() *multiset.Multiset {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := multiset.New()
	for _, e := range l.elements {
		m.Add(e)
	}
	return m
}
