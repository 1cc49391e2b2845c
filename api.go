// Package fieldwatch provides the public API for the field and container
// modification-tracking engine.
//
// See doc.go for detailed documentation and examples.
package fieldwatch

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kolkov/fieldwatch/internal/agent"
	"github.com/kolkov/fieldwatch/internal/history"
	"github.com/kolkov/fieldwatch/internal/multiset"
)

// Debug records whether Attach was called with debug set; GetInfo reports
// it. Nothing else reads it: it does not change any logging level and does
// not trigger a dump of rewritten source. It is false until Attach sets it,
// and safe to read or write from any goroutine.
var Debug atomic.Bool

// Attach wires a structured logger into the default runtime and, when
// debug is true, sets Debug. The logger is used as given; its level is not
// changed. Call it once at program start; it is safe to call again to swap
// loggers mid-run.
//
//	func main() {
//		logger, _ := zap.NewProduction()
//		fieldwatch.Attach(logger, false)
//		defer fieldwatch.ClearHistory("Owner", "items")
//		// ... rest of program
//	}
func Attach(logger *zap.Logger, debug bool) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debug {
		Debug.Store(true)
	}
	agent.Default().ReplaceLogger(logger)
}

// SessionID identifies the current process's default runtime instance. It
// is included in the log line the runtime writes when it recovers from a
// panic in its hot path.
func SessionID() string {
	return agent.Default().SessionID().String()
}

// EnableTracking turns history recording for every instance of
// (ownerClass, fieldName) on or off. Disabling does not discard history
// already recorded; call ClearHistory separately for that.
func EnableTracking(ownerClass, fieldName string, enabled bool) {
	agent.Default().EnableTracking(ownerClass, fieldName, enabled)
}

// ClearHistory discards recorded history for every instance of
// (ownerClass, fieldName) and evicts any container whose only tracker was
// that field.
func ClearHistory(ownerClass, fieldName string) {
	agent.Default().ClearHistory(ownerClass, fieldName)
}

// EmulateFieldWatchpoint registers (ownerClass, fieldName) for tracking and
// immediately enables it. seedClasses names subclasses (or, in Go,
// same-package types that embed ownerClass) whose symbolic writes to the
// field should resolve back to ownerClass.
//
// This is the non-debugger-driven trigger a constructor or package
// init would otherwise fire through a field watchpoint; internal/watchconfig
// calls it once per entry in a loaded .fieldwatch.yaml.
func EmulateFieldWatchpoint(ownerClass, fieldName, descriptor string, seedClasses ...string) {
	agent.Default().EmulateFieldWatchpoint(ownerClass, fieldName, descriptor, seedClasses...)
}

// TransformAndSaveFieldWrite is the call the rewriter inserts immediately
// before a write to a tracked field takes effect. owner is the instance
// being written through (nil for a package-level field). ownerClassSymbolic
// is the class name as written at the call site, which may be a subclass
// symbolic reference resolved through the catalog's owner lookup.
//
// saveStack controls whether a capturing stack trace is recorded for this
// particular write; the rewriter sets it per the watchconfig entry's
// CaptureStack field.
func TransformAndSaveFieldWrite(container, owner any, ownerClassSymbolic, fieldName string, saveStack bool) {
	agent.Default().CaptureFieldWrite(container, owner, ownerClassSymbolic, fieldName, saveStack)
}

// GetFieldModifications returns, in the order they were recorded, the
// container reference assigned to (ownerClass, fieldName) on owner at each
// tracked write, or nil if none is recorded.
func GetFieldModifications(ownerClass, fieldName string, owner any) []any {
	return agent.Default().GetFieldModifications(ownerClass, fieldName, owner)
}

// GetContainerModifications returns, in the order they were recorded, every
// tracked modification to container, or nil if none is recorded.
func GetContainerModifications(container any) []ContainerModification {
	mods := agent.Default().GetContainerModifications(container)
	if len(mods) == 0 {
		return nil
	}
	out := make([]ContainerModification, len(mods))
	for i, m := range mods {
		out[i] = ContainerModification{inner: m}
	}
	return out
}

// GetStack returns the serialized stack trace recorded for the
// modificationIndex-th entry of container's history, or nil if the
// container or index is unknown. Deserialize it with fieldwatch.ParseStack.
func GetStack(container any, modificationIndex int) []byte {
	return agent.Default().GetContainerStack(container, modificationIndex)
}

// GetFieldStack returns the serialized stack trace recorded for the
// modificationIndex-th entry of (ownerClass, fieldName)'s history on owner,
// or nil if the field or index is unknown. Deserialize it with
// fieldwatch.ParseStack.
func GetFieldStack(ownerClass, fieldName string, owner any, modificationIndex int) []byte {
	return agent.Default().GetFieldStack(ownerClass, fieldName, owner, modificationIndex)
}

// ContainerModification is the public view of one recorded container
// mutation: an element added or removed, keyed by the container's identity
// rather than any value equality.
type ContainerModification struct {
	inner history.ContainerModification
}

// Element returns the element that was added or removed. For a Map, this
// is a MapEntry wrapping the key and value.
func (c ContainerModification) Element() any {
	if e, ok := c.inner.Element.(multiset.Entry); ok {
		return MapEntry{Key: e.Key, Value: e.Value}
	}
	return c.inner.Element
}

// IsAdd reports whether this modification was an addition (true) or a
// removal (false).
func (c ContainerModification) IsAdd() bool {
	return c.inner.IsAdd
}

// MapEntry is the key/value pair reported for a Map modification.
type MapEntry struct {
	Key   any
	Value any
}
