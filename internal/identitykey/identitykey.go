// Package identitykey gives arbitrary Go values a comparable identity,
// matching the notion of "same logical element" that a container's
// snapshot diff needs: for pointer-shaped values that means reference
// identity (the Go analogue of System.identityHashCode), and for ordinary
// comparable values it means ordinary value equality — two equal strings,
// ints, or comparable structs are the same element no matter how many
// times each was boxed into an any along the way.
package identitykey

import (
	"reflect"
	"unsafe"
)

// Key is the identity of a value at the moment it was wrapped. The zero Key
// is the identity of a nil interface.
type Key struct {
	primary   identity
	secondary identity // zero identity{} when built by Of rather than OfPair.
}

// identity is the identity of one value: either a (type, data) pointer pair
// for a pointer-shaped kind, where data IS the address and so two distinct
// objects can never collide, or the value itself for a comparable
// non-pointer-shaped kind, relying on Go's own == to compare contents
// rather than addresses. Exactly one of (typ/data) or value is populated
// for a non-nil input; both are zero for nil.
type identity struct {
	typ, data unsafe.Pointer
	value     any
}

// ifaceHeader mirrors the runtime's representation of a non-empty-method
// interface value: a type word and a data word. any (interface{}) has the
// same two-word layout.
type ifaceHeader struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// Of returns the identity of v.
//
// Example:
//
//	identitykey.Of("a") == identitykey.Of("a") // true: same string value
//	identitykey.Of(new(int)) != identitykey.Of(new(int)) // distinct pointers
func Of(v any) Key {
	return Key{primary: identityOf(v)}
}

// OfPair returns a composite identity for a (key, value) pair, such as a map
// entry. It folds the identities of both halves into one comparable Key so
// that two entries are considered the same tracked element only when both
// their key and their value are the same (by the same rule Of applies to
// each half individually).
//
// This intentionally differs from hashing the key's identity twice: see
// DESIGN.md for why that was judged a latent bug in the source this engine
// is modeled on rather than a guarantee worth reproducing.
func OfPair(key, value any) Key {
	return Key{primary: identityOf(key), secondary: identityOf(value)}
}

// IsNil reports whether k is the identity of a nil interface.
func (k Key) IsNil() bool {
	return k == Key{}
}

// identityOf classifies v by kind and builds the matching identity:
// pointer-shaped kinds (pointer, map, channel, func, slice, unsafe
// pointer) key on the interface's data word, since for those kinds that
// word already IS the address of the underlying object and two distinct
// objects can never share it. Every other kind keys on the value itself
// when it is comparable — the common case for container elements (T
// comparable) — so equal values are recognized as the same element
// regardless of how many separate times they were boxed into an any.
// A non-comparable, non-pointer-shaped value (e.g. a struct embedding a
// slice) falls back to the address of its interface boxing, the same
// imprecise-but-panic-free identity the pointer-shaped path uses.
//
//nolint:gosec // reading the two-word interface layout directly is the
// standard, if unsafe, way to obtain Go's notion of object identity.
func identityOf(v any) identity {
	if v == nil {
		return identity{}
	}

	h := (*ifaceHeader)(unsafe.Pointer(&v))
	switch reflect.TypeOf(v).Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Slice:
		return identity{typ: h.typ, data: h.data}
	default:
		if reflect.TypeOf(v).Comparable() {
			return identity{value: v}
		}
		return identity{typ: h.typ, data: h.data}
	}
}
