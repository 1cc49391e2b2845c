// Package multiset implements an identity-keyed bag over container elements,
// and the before/after diff used to turn two snapshots into an ordered list
// of modifications.
package multiset

import (
	"sort"

	"github.com/kolkov/fieldwatch/internal/identitykey"
)

// Entry is the identity-tracked shape of a map entry: both the key and the
// value participate in the entry's identity (see identitykey.OfPair).
type Entry struct {
	Key   any
	Value any
}

// Snapshottable is implemented by container types whose current contents
// can be captured as a Multiset. The agent runtime type-asserts to this
// interface to take before/after snapshots for the Default (bag-diff)
// mutator kind, without needing to know each container type's element
// shape.
type Snapshottable interface {
	FieldwatchSnapshot() *Multiset
}

// Multiset is an unordered bag of identity-keyed elements with counts.
// Insertion order of distinct elements is retained internally only so that
// Delta can produce a deterministic, reproducible tie-break order; it plays
// no role in Multiset's own equality or counting semantics.
type Multiset struct {
	order  []identitykey.Key
	values map[identitykey.Key]any
	counts map[identitykey.Key]int
}

// New returns an empty Multiset.
func New() *Multiset {
	return &Multiset{
		values: make(map[identitykey.Key]any),
		counts: make(map[identitykey.Key]int),
	}
}

// Add records one occurrence of elem.
func (m *Multiset) Add(elem any) {
	m.addKey(identitykey.Of(elem), elem)
}

// AddEntry records one occurrence of a map entry, identity-keyed on both the
// entry's key and its value.
func (m *Multiset) AddEntry(key, value any) {
	m.addKey(identitykey.OfPair(key, value), Entry{Key: key, Value: value})
}

func (m *Multiset) addKey(k identitykey.Key, elem any) {
	if _, ok := m.counts[k]; !ok {
		m.order = append(m.order, k)
		m.values[k] = elem
	}
	m.counts[k]++
}

// Count returns the number of times elem was added, or 0 if it was never
// added. Absent counts are always treated as zero, never as "unknown".
func (m *Multiset) Count(elem any) int {
	return m.counts[identitykey.Of(elem)]
}

// Len returns the number of distinct elements stored (not the sum of counts).
func (m *Multiset) Len() int {
	return len(m.order)
}

// Mod is one entry of a Delta result: an element together with whether it
// was added (true) or removed (false) going from before to after.
type Mod struct {
	Element any
	IsAdd   bool
}

// Delta computes the ordered list of modifications between before and
// after. It emits one Mod per element whose count differs (not one per
// unit of difference): an element whose count grew from 1 to 3 yields a
// single addition. It records "this count changed" events, not "add three
// times" fan-out, matching the source agent's behavior of tracking
// contains/absent transitions per mutator invocation rather than raw count
// deltas.
//
// Ordering: every removal precedes every addition; within each group,
// relative order follows after's insertion order, with elements missing
// from after (pure removals) appended in before's insertion order. The sort
// is stable, so ties within a group never reorder.
func Delta(before, after *Multiset) []Mod {
	mods := make([]Mod, 0, len(after.order)+len(before.order))
	seen := make(map[identitykey.Key]struct{}, len(after.order))

	for _, k := range after.order {
		seen[k] = struct{}{}
		newCount := after.counts[k]
		oldCount := before.counts[k] // zero if absent, per spec
		if newCount != oldCount {
			mods = append(mods, Mod{Element: after.values[k], IsAdd: newCount > oldCount})
		}
	}
	for _, k := range before.order {
		if _, ok := seen[k]; ok {
			continue
		}
		mods = append(mods, Mod{Element: before.values[k], IsAdd: false})
	}

	sort.SliceStable(mods, func(i, j int) bool {
		return !mods[i].IsAdd && mods[j].IsAdd
	})
	return mods
}
