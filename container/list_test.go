package container

import (
	"testing"

	"github.com/kolkov/fieldwatch/internal/agent"
)

type listOwner struct {
	items *List[string]
}

func TestListImmutableReads(t *testing.T) {
	l := NewList("a", "b", "c")
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if l.Get(1) != "b" {
		t.Fatalf("Get(1) = %q, want %q", l.Get(1), "b")
	}
	if !l.Contains("c") || l.Contains("z") {
		t.Fatalf("Contains gave wrong answer")
	}
	if l.IndexOf("c") != 2 || l.IndexOf("z") != -1 {
		t.Fatalf("IndexOf gave wrong answer")
	}
	if got := l.ToSlice(); len(got) != 3 || got[0] != "a" {
		t.Fatalf("ToSlice() = %v", got)
	}
}

func TestListAddRemoveReportInline(t *testing.T) {
	rt := agent.Default()
	rt.EmulateFieldWatchpoint("listOwner", "items", "*container.List[string]")

	o := &listOwner{}
	l := NewList[string]()
	rt.CaptureFieldWrite(l, o, "listOwner", "items", false)
	o.items = l

	l.Add("x")
	l.Add("y")
	if !l.Remove("x") {
		t.Fatalf("Remove(x) = false, want true")
	}
	if l.Remove("never-added") {
		t.Fatalf("Remove(never-added) = true, want false")
	}

	mods := rt.GetContainerModifications(l)
	if len(mods) != 3 {
		t.Fatalf("GetContainerModifications = %+v, want 3 records", mods)
	}
	wantAdd := []bool{true, true, false}
	wantElem := []any{"x", "y", "x"}
	for i, mod := range mods {
		if mod.IsAdd != wantAdd[i] || mod.Element != wantElem[i] {
			t.Fatalf("mods[%d] = %+v, want IsAdd=%v Element=%v", i, mod, wantAdd[i], wantElem[i])
		}
	}
}

func TestListSetReportsRemoveThenAdd(t *testing.T) {
	rt := agent.Default()
	rt.EmulateFieldWatchpoint("listOwner", "setField", "*container.List[string]")

	o := &listOwner{}
	l := NewList("a")
	rt.CaptureFieldWrite(l, o, "listOwner", "setField", false)

	old := l.Set(0, "b")
	if old != "a" {
		t.Fatalf("Set returned %q, want %q", old, "a")
	}

	mods := rt.GetContainerModifications(l)
	if len(mods) != 2 || mods[0].IsAdd || mods[0].Element != "a" || !mods[1].IsAdd || mods[1].Element != "b" {
		t.Fatalf("mods = %+v, want [remove a, add b]", mods)
	}
}

func TestListReplaceAllDiffsAgainstSnapshot(t *testing.T) {
	rt := agent.Default()
	rt.EmulateFieldWatchpoint("listOwner", "replaceField", "*container.List[string]")

	o := &listOwner{}
	l := NewList("a", "b")
	rt.CaptureFieldWrite(l, o, "listOwner", "replaceField", false)

	l.ReplaceAll(func(s string) string {
		if s == "a" {
			return "c"
		}
		return s
	})

	mods := rt.GetContainerModifications(l)
	if len(mods) != 2 {
		t.Fatalf("GetContainerModifications = %+v, want 2 (one removal, one addition)", mods)
	}
	if mods[0].IsAdd {
		t.Fatalf("removals must precede additions: %+v", mods)
	}
	if mods[0].Element != "a" || mods[1].Element != "c" {
		t.Fatalf("mods = %+v, want removal of a then addition of c", mods)
	}
}

func TestListAddAllRemoveAllDelegatePerElement(t *testing.T) {
	rt := agent.Default()
	rt.EmulateFieldWatchpoint("listOwner", "bulkField", "*container.List[string]")

	o := &listOwner{}
	l := NewList[string]()
	rt.CaptureFieldWrite(l, o, "listOwner", "bulkField", false)

	l.AddAll("a", "b", "c")
	l.RemoveAll("b", "c")

	mods := rt.GetContainerModifications(l)
	if len(mods) != 5 {
		t.Fatalf("GetContainerModifications = %+v, want 5 records", mods)
	}
	if got := l.ToSlice(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("ToSlice() = %v, want [a]", got)
	}
}
