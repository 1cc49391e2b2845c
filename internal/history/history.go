// Package history is the modification-history store: the record of every
// tracked field assignment and container mutation the runtime has observed,
// keyed so a debugger session can ask "what happened to this field" or
// "what happened to this container" without scanning unrelated history.
//
// Locking is two-level, mirroring CollectionBreakpointStorage: a RWMutex
// guards the store's settings — which (class, field) pairs are currently
// enabled, and the existence of a given field's or container's list — while
// each individual list has its own Mutex for the append/read traffic that
// dominates once tracking is live. A global lock across every list would
// serialize unrelated containers against each other for no reason; a lock
// per list keeps concurrent mutations to different fields or containers
// from contending.
//
// Enablement is per (class, field) pair, not a single global switch: a
// container is only recorded while at least one of its trackers — the set
// of (class, field) pairs whose assignment introduced it — is enabled.
// This mirrors SAVE_HISTORY_FOR_FIELDS and COLLECTION_TRACKERS in the
// source this engine is modeled on.
package history

import (
	"sync"

	"github.com/kolkov/fieldwatch/internal/identitykey"
	"github.com/kolkov/fieldwatch/internal/stackcap"
)

// FieldLocator identifies a tracked field: its declaring class, its name,
// and — for instance fields — the identity of the owning object. Owner is
// the zero Key for static (package-level) fields, matching the original's
// null-owner convention for static field breakpoints.
type FieldLocator struct {
	Class string
	Field string
	Owner identitykey.Key
}

// classField is the (class, field) identity used to key enablement and
// container trackers — a FieldLocator without its owner, since enabling
// tracking is a per-field-declaration decision that applies to every
// instance of the owning class at once.
type classField struct {
	Class string
	Field string
}

// FieldModification records one observed assignment to a tracked field.
type FieldModification struct {
	Locator  FieldLocator
	OldValue any
	NewValue any
	Container identitykey.Key
	HasContainer bool
	Stack    []stackcap.Frame
}

// ContainerModification records one observed element add or remove on a
// tracked container.
type ContainerModification struct {
	Container identitykey.Key
	Element   any
	IsAdd     bool
	Stack     []stackcap.Frame
}

type fieldList struct {
	mu   sync.Mutex
	mods []FieldModification
}

type containerList struct {
	mu   sync.Mutex
	mods []ContainerModification
}

// Store is the modification-history store. The zero Store is not usable;
// construct with New.
type Store struct {
	settings sync.RWMutex

	enabledFields map[classField]struct{}

	fields     map[FieldLocator]*fieldList
	containers map[identitykey.Key]*containerList

	// containerTrackers maps a container's identity to the set of
	// (class, field) pairs whose field assignment introduced it. A
	// container is recordable while this set intersects enabledFields.
	containerTrackers map[identitykey.Key]map[classField]struct{}
}

// New returns an empty Store with nothing enabled.
func New() *Store {
	return &Store{
		enabledFields:     make(map[classField]struct{}),
		fields:            make(map[FieldLocator]*fieldList),
		containers:        make(map[identitykey.Key]*containerList),
		containerTrackers: make(map[identitykey.Key]map[classField]struct{}),
	}
}

// SetFieldEnabled turns history recording for every instance of (class,
// field) on or off. Disabling does not clear existing history — callers
// that want a clean slate call ClearField separately, matching the
// original's independent enable/disable and clear-history actions.
func (s *Store) SetFieldEnabled(class, field string, enabled bool) {
	s.settings.Lock()
	defer s.settings.Unlock()
	key := classField{Class: class, Field: field}
	if enabled {
		s.enabledFields[key] = struct{}{}
	} else {
		delete(s.enabledFields, key)
	}
}

// FieldEnabled reports whether (class, field) is currently enabled.
func (s *Store) FieldEnabled(class, field string) bool {
	s.settings.RLock()
	defer s.settings.RUnlock()
	_, ok := s.enabledFields[classField{Class: class, Field: field}]
	return ok
}

// RecordField appends mod to the history for its locator, provided
// (locator.Class, locator.Field) is enabled. If mod carries a container, the
// container's tracker set gains (locator.Class, locator.Field), so a later
// mutation on that container can be attributed back to this field.
//
// The common case — the field's list already exists and, if mod carries a
// container, that container is already tracking this field — only ever
// takes the settings read-lock, so appends for different keys never block
// each other. The write lock is taken only to create a field's first list
// or register a container's first tracker for this field.
func (s *Store) RecordField(mod FieldModification) {
	key := classField{Class: mod.Locator.Class, Field: mod.Locator.Field}

	s.settings.RLock()
	_, enabled := s.enabledFields[key]
	list, listExists := s.fields[mod.Locator]
	tracked := !mod.HasContainer
	if mod.HasContainer {
		if trackers, ok := s.containerTrackers[mod.Container]; ok {
			_, tracked = trackers[key]
		}
	}
	s.settings.RUnlock()

	if !enabled {
		return
	}

	if !listExists || !tracked {
		s.settings.Lock()
		if _, enabled = s.enabledFields[key]; !enabled {
			s.settings.Unlock()
			return
		}
		list, listExists = s.fields[mod.Locator]
		if !listExists {
			list = &fieldList{}
			s.fields[mod.Locator] = list
		}
		if mod.HasContainer {
			trackers, ok := s.containerTrackers[mod.Container]
			if !ok {
				trackers = make(map[classField]struct{})
				s.containerTrackers[mod.Container] = trackers
			}
			trackers[key] = struct{}{}
		}
		s.settings.Unlock()
	}

	list.mu.Lock()
	list.mods = append(list.mods, mod)
	list.mu.Unlock()
}

// RecordContainer appends mod to the history for its container, provided
// at least one of the container's trackers is currently enabled.
//
// Like RecordField, the common case where the container's list already
// exists only takes the settings read-lock; the write lock is taken only to
// create that container's first list.
func (s *Store) RecordContainer(mod ContainerModification) {
	s.settings.RLock()
	enabled := s.anyTrackerEnabledLocked(mod.Container)
	list, listExists := s.containers[mod.Container]
	s.settings.RUnlock()

	if !enabled {
		return
	}

	if !listExists {
		s.settings.Lock()
		if !s.anyTrackerEnabledLocked(mod.Container) {
			s.settings.Unlock()
			return
		}
		list, listExists = s.containers[mod.Container]
		if !listExists {
			list = &containerList{}
			s.containers[mod.Container] = list
		}
		s.settings.Unlock()
	}

	list.mu.Lock()
	list.mods = append(list.mods, mod)
	list.mu.Unlock()
}

func (s *Store) anyTrackerEnabledLocked(container identitykey.Key) bool {
	trackers, ok := s.containerTrackers[container]
	if !ok {
		return false
	}
	for key := range trackers {
		if _, enabled := s.enabledFields[key]; enabled {
			return true
		}
	}
	return false
}

// FieldModifications returns a copy of the recorded history for locator, in
// the order it was recorded. It returns nil if nothing has been recorded.
func (s *Store) FieldModifications(locator FieldLocator) []FieldModification {
	s.settings.RLock()
	list, ok := s.fields[locator]
	s.settings.RUnlock()
	if !ok {
		return nil
	}
	list.mu.Lock()
	defer list.mu.Unlock()
	out := make([]FieldModification, len(list.mods))
	copy(out, list.mods)
	return out
}

// ContainerModifications returns a copy of the recorded history for the
// container identified by key, in the order it was recorded. It returns nil
// if nothing has been recorded.
func (s *Store) ContainerModifications(key identitykey.Key) []ContainerModification {
	s.settings.RLock()
	list, ok := s.containers[key]
	s.settings.RUnlock()
	if !ok {
		return nil
	}
	list.mu.Lock()
	defer list.mu.Unlock()
	out := make([]ContainerModification, len(list.mods))
	copy(out, list.mods)
	return out
}

// ClearField discards the history for every FieldLocator whose class and
// field match, regardless of owner, and evicts any container whose tracker
// set becomes empty as a result. It returns the locators that were removed.
func (s *Store) ClearField(class, field string) []FieldLocator {
	s.settings.Lock()
	defer s.settings.Unlock()

	key := classField{Class: class, Field: field}

	var removed []FieldLocator
	for loc := range s.fields {
		if loc.Class == class && loc.Field == field {
			removed = append(removed, loc)
			delete(s.fields, loc)
		}
	}

	for container, trackers := range s.containerTrackers {
		if _, ok := trackers[key]; !ok {
			continue
		}
		delete(trackers, key)
		if len(trackers) == 0 {
			delete(s.containerTrackers, container)
			delete(s.containers, container)
		}
	}

	return removed
}

// ForgetContainer discards all recorded history and tracker state for the
// container identified by key.
func (s *Store) ForgetContainer(key identitykey.Key) {
	s.settings.Lock()
	defer s.settings.Unlock()
	delete(s.containers, key)
	delete(s.containerTrackers, key)
}
