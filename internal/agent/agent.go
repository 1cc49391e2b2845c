// Package agent is the hot-path runtime the rewritten source calls into:
// field-write capture, container-mutator capture, and the external API a
// debugger (or, in this engine, the fieldwatch package and CLI) uses to
// drive tracking. It plays the role CollectionBreakpointInstrumentor's
// capture* static methods and CollectionBreakpointStorage's public methods
// play together in the source this engine is modeled on.
//
// Every exported method recovers from panics at its own boundary and logs
// through the caller-supplied *zap.Logger instead of propagating: the
// target program's own execution must never be perturbed by a bug in this
// engine's bookkeeping.
package agent

import (
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kolkov/fieldwatch/internal/catalog"
	"github.com/kolkov/fieldwatch/internal/containerlock"
	"github.com/kolkov/fieldwatch/internal/history"
	"github.com/kolkov/fieldwatch/internal/identitykey"
	"github.com/kolkov/fieldwatch/internal/multiset"
	"github.com/kolkov/fieldwatch/internal/stackcap"
)

// Runtime is the process-wide (or, for tests, per-instance) agent state:
// the tracked-field catalog, the modification-history store, and the
// per-container lock registry. The zero Runtime is not usable; construct
// with New.
type Runtime struct {
	Catalog *catalog.Catalog
	Store   *history.Store
	Locks   *containerlock.Registry

	logger    *zap.Logger
	sessionID uuid.UUID
}

// New returns a Runtime with fresh, empty state. A nil logger is replaced
// with a no-op logger so callers that don't care about diagnostics don't
// need to construct one.
func New(logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{
		Catalog:   catalog.New(),
		Store:     history.New(),
		Locks:     containerlock.NewRegistry(),
		logger:    logger,
		sessionID: uuid.New(),
	}
}

// SessionID identifies this Runtime instance. It is included in the log
// line written when a hot-path panic is recovered.
func (r *Runtime) SessionID() uuid.UUID {
	return r.sessionID
}

// ReplaceLogger swaps the Runtime's logger, used by fieldwatch.Attach to
// hand the default Runtime a real logger once one has been configured.
func (r *Runtime) ReplaceLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

var (
	defaultOnce sync.Once
	defaultRT   *Runtime
)

// Default returns the process-wide Runtime that the built-in container
// package's generic List/Set/Map types call into. It keeps the "global
// mutable state" flavor the rewritten code relies on, while New still lets
// tests (and EmulateFieldWatchpoint-style standalone setups) construct
// fully isolated instances.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRT = New(nil)
	})
	return defaultRT
}

func (r *Runtime) recover(op string) {
	if rec := recover(); rec != nil {
		r.logger.Error("recovered from panic in agent hot path",
			zap.String("op", op),
			zap.String("session", r.sessionID.String()),
			zap.Any("panic", rec),
		)
	}
}

// typeName returns a stable name for v's dynamic type, used as the
// "container class" identity this engine's compile-time closed hierarchy
// substitutes for a JVM internal class name. Generic type arguments are
// stripped (List[string] and List[int] both name "List") since the
// known-methods table classifies by container shape, not element type,
// exactly as a raw ArrayList class name has no notion of its generic
// parameter at the bytecode level either.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	if idx := strings.IndexByte(name, '['); idx >= 0 {
		name = name[:idx]
	}
	return name
}

// snapshotOf takes a Multiset snapshot of container, or an empty Multiset
// if container doesn't implement multiset.Snapshottable — the Go analogue
// of StackCaptureFailure: a degraded but non-fatal result.
func snapshotOf(container any) *multiset.Multiset {
	if s, ok := container.(multiset.Snapshottable); ok {
		return s.FieldwatchSnapshot()
	}
	return multiset.New()
}

// CaptureFieldWrite is called by rewritten field-owner code immediately
// before a write to a tracked field takes effect. owner is the instance
// being written through (nil for a static/package-level field).
// ownerClassSymbolic is the class name as written at the call site, which may be a subclass
// symbolic reference resolved through Catalog.LookupOwner.
func (r *Runtime) CaptureFieldWrite(container, owner any, ownerClassSymbolic, fieldName string, saveStack bool) {
	defer r.recover("captureFieldWrite")

	canonicalOwner, ok := r.Catalog.LookupOwner(ownerClassSymbolic, fieldName)
	if !ok {
		return
	}

	mod := history.FieldModification{
		Locator: history.FieldLocator{
			Class: canonicalOwner,
			Field: fieldName,
			Owner: identitykey.Of(owner),
		},
		NewValue: container,
	}

	if container != nil {
		key := identitykey.Of(container)
		mod.Container = key
		mod.HasContainer = true

		r.Locks.For(key)
		if name := typeName(container); name != "" && !r.Catalog.IsPreparedContainer(name) {
			r.Catalog.PrepareContainerClass(name)
		}
	}

	if saveStack {
		mod.Stack = stackcap.Capture(1)
	}

	r.Store.RecordField(mod)
}

// CaptureInline is called by a Documented mutator (add/remove/put) right
// after computing its own "modified?" result — the boolean it was already
// going to return to its caller, so no bag-copy is needed. It is a no-op
// when modified is false.
func (r *Runtime) CaptureInline(container, element any, modified, isAddition bool) {
	defer r.recover("captureInline")
	if !modified {
		return
	}
	r.Store.RecordContainer(history.ContainerModification{
		Container: identitykey.Of(container),
		Element:   element,
		IsAdd:     isAddition,
		Stack:     stackcap.Capture(1),
	})
}

// CaptureMutator is called after a Default-kind mutator's outermost call
// returns, with the Multiset snapshot taken at entry. It computes the
// after-snapshot itself, diffs, and appends one ContainerModification per
// changed element, removals before additions. It is a no-op if before is
// nil (the reentrant-call case: only the outermost frame captures).
func (r *Runtime) CaptureMutator(container any, before *multiset.Multiset) {
	defer r.recover("captureMutator")
	if before == nil {
		return
	}
	after := snapshotOf(container)
	key := identitykey.Of(container)
	stack := stackcap.Capture(1)
	for _, mod := range multiset.Delta(before, after) {
		r.Store.RecordContainer(history.ContainerModification{
			Container: key,
			Element:   mod.Element,
			IsAdd:     mod.IsAdd,
			Stack:     stack,
		})
	}
}

// Enter drives a container's ContainerLock for a Default-kind mutator.
// When synchronize is false (a rewrite policy that chose not to bracket
// this call, e.g. because inline capture already covers it) it always
// reports outermost=true without touching the lock at all. It reports
// whether this call is the outermost instrumented entry for the calling
// goroutine — callers use that to decide whether to take a before-snapshot.
func (r *Runtime) Enter(container any, synchronize bool) (outermost bool) {
	defer r.recover("enter")
	if !synchronize {
		return true
	}
	return r.Locks.For(identitykey.Of(container)).Enter()
}

// Leave is the matching call for Enter. It reports whether this call
// released the outermost entry, the point at which the caller should
// invoke CaptureMutator.
func (r *Runtime) Leave(container any, synchronize bool) (outermost bool) {
	defer r.recover("leave")
	if !synchronize {
		return true
	}
	return r.Locks.For(identitykey.Of(container)).Leave()
}

// CopiesMap accumulates before-snapshots for every container a
// field-owner/nestmate method touched, keyed by container identity. It
// backs EnterWithCopies/LeaveWithCopies. A CopiesMap is not safe for
// concurrent use: one instance is scoped to a single method invocation and
// only ever touched by the goroutine executing it.
type CopiesMap struct {
	entries map[identitykey.Key]copiesEntry
}

type copiesEntry struct {
	container any
	before    *multiset.Multiset
}

// NewCopiesMap returns an empty CopiesMap, allocated once per instrumented
// method invocation by the rewritten prologue.
func NewCopiesMap() *CopiesMap {
	return &CopiesMap{entries: make(map[identitykey.Key]copiesEntry)}
}

// EnterWithCopies is called by rewritten nestmate/field-owner code around
// every access to a prepared container's fields. If the calling goroutine
// is outermost for that container, it synchronizes and records a
// before-snapshot in copies; subsequent accesses to the same container
// within the same method (or its callees, while still outermost) observe
// the container already present and do nothing further.
func (r *Runtime) EnterWithCopies(copies *CopiesMap, container any) {
	defer r.recover("enterWithCopies")
	if container == nil {
		return
	}
	key := identitykey.Of(container)
	if _, already := copies.entries[key]; already {
		return
	}
	lock := r.Locks.For(key)
	if !lock.Enter() {
		// Not outermost: undo this nesting level so the outer holder's
		// Leave still releases the lock.
		lock.Leave()
		return
	}
	copies.entries[key] = copiesEntry{container: container, before: snapshotOf(container)}
}

// LeaveWithCopies is called once per return path of the wrapped method
// (including the exceptional path). For every container recorded in
// copies it diffs current contents against the stored before-snapshot,
// appends any modifications, and releases that container's lock.
func (r *Runtime) LeaveWithCopies(copies *CopiesMap) {
	defer r.recover("leaveWithCopies")
	for key, entry := range copies.entries {
		r.CaptureMutator(entry.container, entry.before)
		r.Locks.For(key).Leave()
	}
	copies.entries = make(map[identitykey.Key]copiesEntry)
}

// EnableTracking turns history recording for (ownerClass, fieldName) on or
// off.
func (r *Runtime) EnableTracking(ownerClass, fieldName string, enabled bool) {
	defer r.recover("enableTracking")
	r.Store.SetFieldEnabled(ownerClass, fieldName, enabled)
}

// ClearHistory discards recorded history for every instance of
// (ownerClass, fieldName), and evicts any container whose only tracker was
// that field.
func (r *Runtime) ClearHistory(ownerClass, fieldName string) {
	defer r.recover("clearHistory")
	r.Store.ClearField(ownerClass, fieldName)
}

// EmulateFieldWatchpoint registers a field for tracking and immediately
// enables it — the non-debugger-driven trigger a constructor or
// package-init interception would otherwise fire, per the field-watchpoint
// flow this engine's external collaborators are responsible for invoking.
func (r *Runtime) EmulateFieldWatchpoint(ownerClass, fieldName, descriptor string, seedClasses ...string) {
	defer r.recover("emulateFieldWatchpoint")
	r.Catalog.RegisterField(ownerClass, fieldName, descriptor, seedClasses...)
	r.Store.SetFieldEnabled(ownerClass, fieldName, true)
}

// GetFieldModifications returns, in append order, the container reference
// recorded by each FieldModification for (ownerClass, fieldName, owner), or
// nil if nothing is recorded.
func (r *Runtime) GetFieldModifications(ownerClass, fieldName string, owner any) []any {
	defer r.recover("getFieldModifications")
	loc := history.FieldLocator{Class: ownerClass, Field: fieldName, Owner: identitykey.Of(owner)}
	mods := r.Store.FieldModifications(loc)
	if len(mods) == 0 {
		return nil
	}
	out := make([]any, len(mods))
	for i, m := range mods {
		out[i] = m.NewValue
	}
	return out
}

// GetContainerModifications returns, in append order, every recorded
// modification for container.
func (r *Runtime) GetContainerModifications(container any) []history.ContainerModification {
	defer r.recover("getContainerModifications")
	return r.Store.ContainerModifications(identitykey.Of(container))
}

// GetContainerStack returns the serialized stack for the modificationIndex
// entry of container's history, or an empty blob if the container or index
// is unknown — StackCaptureFailure is never fatal, only ever an empty
// result.
func (r *Runtime) GetContainerStack(container any, modificationIndex int) []byte {
	defer r.recover("getContainerStack")
	mods := r.Store.ContainerModifications(identitykey.Of(container))
	if modificationIndex < 0 || modificationIndex >= len(mods) {
		return nil
	}
	return stackcap.Serialize(mods[modificationIndex].Stack)
}

// GetFieldStack returns the serialized stack for the modificationIndex
// entry of (ownerClass, fieldName, owner)'s history, or an empty blob if
// unknown.
func (r *Runtime) GetFieldStack(ownerClass, fieldName string, owner any, modificationIndex int) []byte {
	defer r.recover("getFieldStack")
	loc := history.FieldLocator{Class: ownerClass, Field: fieldName, Owner: identitykey.Of(owner)}
	mods := r.Store.FieldModifications(loc)
	if modificationIndex < 0 || modificationIndex >= len(mods) {
		return nil
	}
	return stackcap.Serialize(mods[modificationIndex].Stack)
}
