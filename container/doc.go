// Package container provides List, Set, and Map — generic containers whose
// mutator methods are compile-time instrumented to report every insertion
// and removal to the agent runtime's modification-history store. They
// stand in for "the standard library container hierarchy" the engine's
// debugger-facing contract is built around: a field of type *List[T],
// *Set[T], or *Map[K, V] is something EmulateFieldWatchpoint can track
// without any separate source rewrite of the container's own methods,
// because the instrumentation already lives here.
//
// Methods are classified the same way the rewriter classifies third-party
// container types (see internal/catalog's known-methods table):
//   - Immutable reads (Len, Get, Contains, ...) never call into the agent.
//   - Documented mutators (Add, Remove, Put, ...) know their own
//     "modified?" result and report it inline, with no snapshot taken.
//   - Replaceable mutators (AddAll, RemoveAll, PutAll) delegate
//     element-by-element to a Documented mutator.
//   - Everything else (List.ReplaceAll, Set.RetainAll) takes a before/after snapshot and
//     diffs, the Default kind.
package container
