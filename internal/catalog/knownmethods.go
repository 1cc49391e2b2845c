package catalog

// MethodKind classifies a container mutator method by how the rewriter
// captures its effect.
type MethodKind int

const (
	// Immutable methods never mutate the container: no capture, no lock.
	Immutable MethodKind = iota
	// Documented methods have a contract precise enough to capture inline
	// from their own return value (a bool "modified?" flag, or a previous
	// value whose nilness means "modified?"), with no bag-copy needed.
	Documented
	// Replaceable methods (addAll, removeAll) are rewritten to delegate,
	// element by element, to a Documented method that does the actual
	// inline capture.
	Replaceable
	// Default methods get the full before/after bag-copy-and-diff
	// treatment: nothing about their contract is known statically.
	Default
)

// String renders k for diagnostics.
func (k MethodKind) String() string {
	switch k {
	case Immutable:
		return "immutable"
	case Documented:
		return "documented"
	case Replaceable:
		return "replaceable"
	case Default:
		return "default"
	default:
		return "unknown"
	}
}

// MethodSet maps a method name to its MethodKind within one container class.
type MethodSet map[string]MethodKind

// containerMethods is the built-in known-methods table for this engine's own
// container package (container.List, container.Set, container.Map). A
// method absent from a class's table defaults to Default, matching the
// spec's "everything else overridden... including user subclasses" rule.
var containerMethods = map[string]MethodSet{
	"List": {
		"Len":       Immutable,
		"Get":       Immutable,
		"Iterator":  Immutable,
		"IndexOf":   Immutable,
		"Contains":  Immutable,
		"ToSlice":   Immutable,
		"String":    Immutable,
		"Add":       Documented,
		"Remove":    Documented,
		"RemoveAt":  Documented,
		"Set":       Documented,
		"AddAll":    Replaceable,
		"RemoveAll": Replaceable,
	},
	"Set": {
		"Len":       Immutable,
		"Contains":  Immutable,
		"Iterator":  Immutable,
		"ToSlice":   Immutable,
		"String":    Immutable,
		"Add":       Documented,
		"Remove":    Documented,
		"AddAll":    Replaceable,
		"RemoveAll": Replaceable,
	},
	"Map": {
		"Len":      Immutable,
		"Get":      Immutable,
		"Contains": Immutable,
		"Keys":     Immutable,
		"Values":   Immutable,
		"Iterator": Immutable,
		"String":   Immutable,
		"Put":      Documented,
		"Remove":   Documented,
		"PutAll":   Replaceable,
	},
}

// KnownMethodsFor returns the built-in method table for className, and
// whether className is one this engine recognizes as part of its own
// container hierarchy. A class outside that hierarchy gets no known-methods
// set at all — every one of its methods is rewritten as Default, per spec.
func KnownMethodsFor(className string) (MethodSet, bool) {
	set, ok := containerMethods[className]
	return set, ok
}

// KindOf reports the MethodKind the rewriter should use for methodName on
// className. Methods absent from a recognized class's table, and every
// method of an unrecognized class, are Default.
func KindOf(className, methodName string) MethodKind {
	set, ok := containerMethods[className]
	if !ok {
		return Default
	}
	if kind, ok := set[methodName]; ok {
		return kind
	}
	return Default
}
