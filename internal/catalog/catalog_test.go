package catalog

import "testing"

func TestRegisterFieldAndShouldRewriteWrite(t *testing.T) {
	c := New()
	c.RegisterField("Foo", "items", "[]string")

	if !c.ShouldRewriteWrite("items", "[]string") {
		t.Fatalf("ShouldRewriteWrite(items) = false, want true after RegisterField")
	}
	if c.ShouldRewriteWrite("other", "[]string") {
		t.Fatalf("ShouldRewriteWrite(other) = true, want false")
	}
}

func TestRegisterFieldIsIdempotent(t *testing.T) {
	c := New()
	c.RegisterField("Foo", "items", "[]string", "Bar")
	c.RegisterField("Foo", "items", "[]string", "Bar")

	owner, ok := c.LookupOwner("Bar", "items")
	if !ok || owner != "Foo" {
		t.Fatalf("LookupOwner(Bar, items) = (%q, %v), want (Foo, true)", owner, ok)
	}
}

func TestLookupOwnerUnknownReturnsFalse(t *testing.T) {
	c := New()
	if _, ok := c.LookupOwner("Bar", "items"); ok {
		t.Fatalf("LookupOwner on an unregistered seed returned ok=true")
	}
}

func TestPrepareContainerClassKnownVsUnknown(t *testing.T) {
	c := New()

	set, known := c.PrepareContainerClass("List")
	if !known {
		t.Fatalf("PrepareContainerClass(List) known = false, want true")
	}
	if set["Add"] != Documented {
		t.Fatalf("List.Add kind = %v, want Documented", set["Add"])
	}

	_, known = c.PrepareContainerClass("CustomQueue")
	if known {
		t.Fatalf("PrepareContainerClass(CustomQueue) known = true, want false for a non-builtin class")
	}
	if !c.IsPreparedContainer("CustomQueue") {
		t.Fatalf("IsPreparedContainer(CustomQueue) = false, want true after preparing")
	}
}

func TestKindOfDefaultsForUnknownClassOrMethod(t *testing.T) {
	if kind := KindOf("List", "Add"); kind != Documented {
		t.Fatalf("KindOf(List, Add) = %v, want Documented", kind)
	}
	if kind := KindOf("List", "Frobnicate"); kind != Default {
		t.Fatalf("KindOf(List, Frobnicate) = %v, want Default", kind)
	}
	if kind := KindOf("CustomQueue", "Add"); kind != Default {
		t.Fatalf("KindOf(CustomQueue, Add) = %v, want Default for an unrecognized class", kind)
	}
}

func TestNestmateFixedPointTerminates(t *testing.T) {
	c := New()
	c.AddNestmate("A")
	c.AddNestmate("B")
	c.AddNestmate("A") // duplicate, must not re-queue

	first := c.TakeUnprocessedNestmates()
	if len(first) != 2 {
		t.Fatalf("first pass = %v, want 2 nestmates", first)
	}

	// Simulate the rewrite of A discovering B again, and a brand new C.
	c.AddNestmate("B") // already processed: must be dropped
	c.AddNestmate("C")

	second := c.TakeUnprocessedNestmates()
	if len(second) != 1 || second[0] != "C" {
		t.Fatalf("second pass = %v, want [C] (B must not reappear once processed)", second)
	}

	if third := c.TakeUnprocessedNestmates(); len(third) != 0 {
		t.Fatalf("third pass = %v, want empty: fixed point must have been reached", third)
	}
}

func TestMarkProcessedOnlyFirstCallReturnsTrue(t *testing.T) {
	c := New()
	if !c.MarkProcessed("Foo") {
		t.Fatalf("first MarkProcessed(Foo) = false, want true")
	}
	if c.MarkProcessed("Foo") {
		t.Fatalf("second MarkProcessed(Foo) = true, want false")
	}
	if !c.IsProcessed("Foo") {
		t.Fatalf("IsProcessed(Foo) = false, want true")
	}
}
