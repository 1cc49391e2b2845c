// Package catalog is the registry of which fields are tracked and which
// container classes (plus their nestmates and symbolic-owner aliases) have
// been prepared for rewriting. It is the one piece of process-wide state
// the rewriter consults before deciding whether a given write site or
// method belongs to this session's tracking.
package catalog

import "sync"

// FieldKey identifies a tracked field by name and declared type. Go has no
// bytecode type descriptor, so TypeDescriptor holds the field's Go type
// string exactly as the caller passed it to RegisterField (for example
// "*container.List[string]"), which plays the same disambiguating role:
// two fields with the same name but different type strings are tracked
// independently.
type FieldKey struct {
	Name           string
	TypeDescriptor string
}

// symbolicKey identifies a (declaring-class-as-written-in-source,
// field-name) pair that needs to be resolved to its canonical owner —
// the case where a subclass refers to an inherited field using its own
// name in source, but the field is actually declared on an ancestor.
type symbolicKey struct {
	declaringClass string
	fieldName      string
}

// Catalog is the tracked-field and prepared-class registry. All mutations
// are serialized by a single mutex; a Catalog is safe for concurrent use.
// The zero Catalog is not usable; construct with New.
type Catalog struct {
	mu sync.Mutex

	trackedFields map[FieldKey]struct{}
	symbolicOwner map[symbolicKey]string

	preparedContainers map[string]MethodSet
	preparedNestmates  map[string]struct{}
	pendingNestmates   []string

	processed map[string]struct{}
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		trackedFields:      make(map[FieldKey]struct{}),
		symbolicOwner:      make(map[symbolicKey]string),
		preparedContainers: make(map[string]MethodSet),
		preparedNestmates:  make(map[string]struct{}),
		processed:          make(map[string]struct{}),
	}
}

// RegisterField adds (fieldName, descriptor) to the set of tracked fields,
// and records every seed class's symbolic reference to this field as
// resolving to ownerClass. Seed classes are taken as given: nothing checks
// that a seed actually embeds or inherits ownerClass's field. Idempotent:
// registering the same field and seeds again has no additional effect.
func (c *Catalog) RegisterField(ownerClass, fieldName, descriptor string, seedClasses ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.trackedFields[FieldKey{Name: fieldName, TypeDescriptor: descriptor}] = struct{}{}
	// The owner's own name always resolves to itself, so a direct write on
	// ownerClass and a symbolic write through a seed subclass both go
	// through the same LookupOwner path.
	c.symbolicOwner[symbolicKey{declaringClass: ownerClass, fieldName: fieldName}] = ownerClass
	for _, seed := range seedClasses {
		c.symbolicOwner[symbolicKey{declaringClass: seed, fieldName: fieldName}] = ownerClass
	}
}

// LookupOwner returns the canonical owning class for a field referenced via
// declaringClassSymbolic, and whether such a mapping is known.
// declaringClassSymbolic may be the true owner itself (RegisterField always
// seeds that self-mapping) or a subclass that inherits the field.
func (c *Catalog) LookupOwner(declaringClassSymbolic, fieldName string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.symbolicOwner[symbolicKey{declaringClass: declaringClassSymbolic, fieldName: fieldName}]
	return owner, ok
}

// ShouldRewriteWrite reports whether writes to a field with this name and
// type descriptor should be instrumented.
func (c *Catalog) ShouldRewriteWrite(fieldName, descriptor string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.trackedFields[FieldKey{Name: fieldName, TypeDescriptor: descriptor}]
	return ok
}

// PrepareContainerClass marks className as a prepared container and returns
// its known-methods set. For a class in this engine's own container
// hierarchy that set comes from the built-in table; for any other class
// (a user-defined container-like type) the second return is false and
// every method of that class is treated as Default by the rewriter.
func (c *Catalog) PrepareContainerClass(className string) (MethodSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, known := KnownMethodsFor(className)
	c.preparedContainers[className] = set
	return set, known
}

// IsPreparedContainer reports whether className has already been passed to
// PrepareContainerClass.
func (c *Catalog) IsPreparedContainer(className string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.preparedContainers[className]
	return ok
}

// AddNestmate queues className to be rewritten as a nestmate — a class
// whose accesses to a prepared container's fields must also be
// instrumented — unless it has already been queued or processed.
func (c *Catalog) AddNestmate(className string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, queued := c.preparedNestmates[className]; queued {
		return
	}
	if _, done := c.processed[className]; done {
		return
	}
	c.preparedNestmates[className] = struct{}{}
	c.pendingNestmates = append(c.pendingNestmates, className)
}

// TakeUnprocessedNestmates returns the nestmate classes queued since the
// last call, clearing the queue and marking every returned class as
// processed. This is the mechanism that turns the nestmate rewrite into a
// terminating fixed-point: each pass can only add nestmates that are
// neither already queued nor already processed, and every class returned by
// this call leaves the queue for good, so the queue shrinks to empty in a
// bounded number of passes.
func (c *Catalog) TakeUnprocessedNestmates() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.pendingNestmates
	c.pendingNestmates = nil
	for _, className := range pending {
		delete(c.preparedNestmates, className)
		c.processed[className] = struct{}{}
	}
	return pending
}

// MarkProcessed records className as rewritten this session and reports
// whether this call is the first time (false means the class was already
// processed and the rewriter must not rewrite it again).
func (c *Catalog) MarkProcessed(className string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, done := c.processed[className]; done {
		return false
	}
	c.processed[className] = struct{}{}
	return true
}

// IsProcessed reports whether className has already been rewritten this
// session.
func (c *Catalog) IsProcessed(className string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.processed[className]
	return ok
}
