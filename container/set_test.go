package container

import (
	"testing"

	"github.com/kolkov/fieldwatch/internal/agent"
)

type setOwner struct {
	tags *Set[string]
}

func TestSetImmutableReads(t *testing.T) {
	s := NewSet("a", "b", "a")
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (deduplicated)", s.Len())
	}
	if !s.Contains("a") || s.Contains("z") {
		t.Fatalf("Contains gave wrong answer")
	}
}

func TestSetAddReportsOnlyWhenNew(t *testing.T) {
	rt := agent.Default()
	rt.EmulateFieldWatchpoint("setOwner", "tags", "*container.Set[string]")

	o := &setOwner{}
	s := NewSet[string]()
	rt.CaptureFieldWrite(s, o, "setOwner", "tags", false)

	if !s.Add("x") {
		t.Fatalf("Add(x) first time = false, want true")
	}
	if s.Add("x") {
		t.Fatalf("Add(x) second time = true, want false (already a member)")
	}

	mods := rt.GetContainerModifications(s)
	if len(mods) != 1 || !mods[0].IsAdd || mods[0].Element != "x" {
		t.Fatalf("mods = %+v, want a single addition of x", mods)
	}
}

func TestSetRemoveReportsOnlyWhenPresent(t *testing.T) {
	rt := agent.Default()
	rt.EmulateFieldWatchpoint("setOwner", "removeField", "*container.Set[string]")

	o := &setOwner{}
	s := NewSet("x")
	rt.CaptureFieldWrite(s, o, "setOwner", "removeField", false)

	if !s.Remove("x") {
		t.Fatalf("Remove(x) = false, want true")
	}
	if s.Remove("x") {
		t.Fatalf("Remove(x) again = true, want false")
	}

	mods := rt.GetContainerModifications(s)
	if len(mods) != 1 || mods[0].IsAdd || mods[0].Element != "x" {
		t.Fatalf("mods = %+v, want a single removal of x", mods)
	}
}

func TestSetRetainAllDiffsAgainstSnapshot(t *testing.T) {
	rt := agent.Default()
	rt.EmulateFieldWatchpoint("setOwner", "retainField", "*container.Set[string]")

	o := &setOwner{}
	s := NewSet("a", "b", "c")
	rt.CaptureFieldWrite(s, o, "setOwner", "retainField", false)

	s.RetainAll([]string{"b"})

	if s.Len() != 1 || !s.Contains("b") {
		t.Fatalf("after RetainAll, set = %v, want [b]", s.ToSlice())
	}

	mods := rt.GetContainerModifications(s)
	if len(mods) != 2 {
		t.Fatalf("GetContainerModifications = %+v, want 2 removals", mods)
	}
	for _, mod := range mods {
		if mod.IsAdd {
			t.Fatalf("RetainAll must only remove: %+v", mods)
		}
	}
}

func TestSetAddAllRemoveAllDelegatePerElement(t *testing.T) {
	rt := agent.Default()
	rt.EmulateFieldWatchpoint("setOwner", "bulkField", "*container.Set[string]")

	o := &setOwner{}
	s := NewSet[string]()
	rt.CaptureFieldWrite(s, o, "setOwner", "bulkField", false)

	s.AddAll("a", "b")
	s.RemoveAll("a")

	mods := rt.GetContainerModifications(s)
	if len(mods) != 3 {
		t.Fatalf("GetContainerModifications = %+v, want 3 records", mods)
	}
	if s.Len() != 1 || !s.Contains("b") {
		t.Fatalf("set = %v, want [b]", s.ToSlice())
	}
}
