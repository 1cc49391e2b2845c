package history

import (
	"sync"
	"testing"

	"github.com/kolkov/fieldwatch/internal/identitykey"
)

func TestRecordFieldNoOpWhenFieldDisabled(t *testing.T) {
	s := New()
	loc := FieldLocator{Class: "T", Field: "x"}

	s.RecordField(FieldModification{Locator: loc, NewValue: 1})
	if got := s.FieldModifications(loc); got != nil {
		t.Fatalf("FieldModifications() = %+v, want nil while (T,x) is disabled", got)
	}
}

func TestRecordFieldAppendsInOrder(t *testing.T) {
	s := New()
	s.SetFieldEnabled("T", "x", true)
	loc := FieldLocator{Class: "T", Field: "x"}

	s.RecordField(FieldModification{Locator: loc, NewValue: 1})
	s.RecordField(FieldModification{Locator: loc, NewValue: 2})

	got := s.FieldModifications(loc)
	if len(got) != 2 || got[0].NewValue != 1 || got[1].NewValue != 2 {
		t.Fatalf("FieldModifications() = %+v, want [1, 2] in order", got)
	}
}

func TestClearFieldDiscardsHistory(t *testing.T) {
	s := New()
	s.SetFieldEnabled("T", "x", true)
	loc := FieldLocator{Class: "T", Field: "x"}
	s.RecordField(FieldModification{Locator: loc, NewValue: 1})

	s.ClearField("T", "x")

	if got := s.FieldModifications(loc); got != nil {
		t.Fatalf("FieldModifications() after ClearField() = %+v, want nil", got)
	}
}

func TestDisableDoesNotClear(t *testing.T) {
	s := New()
	s.SetFieldEnabled("T", "x", true)
	loc := FieldLocator{Class: "T", Field: "x"}
	s.RecordField(FieldModification{Locator: loc, NewValue: 1})

	s.SetFieldEnabled("T", "x", false)

	got := s.FieldModifications(loc)
	if len(got) != 1 {
		t.Fatalf("FieldModifications() after disable = %+v, want the pre-disable record preserved", got)
	}
}

func TestContainerRecordedOnlyWhileATrackerIsEnabled(t *testing.T) {
	s := New()
	s.SetFieldEnabled("T", "items", true)
	c := new(int)
	key := identitykey.Of(c)

	s.RecordField(FieldModification{
		Locator:      FieldLocator{Class: "T", Field: "items"},
		Container:    key,
		HasContainer: true,
	})
	s.RecordContainer(ContainerModification{Container: key, Element: 1, IsAdd: true})

	if got := s.ContainerModifications(key); len(got) != 1 {
		t.Fatalf("ContainerModifications() = %+v, want 1 record while tracker is enabled", got)
	}

	s.SetFieldEnabled("T", "items", false)
	s.RecordContainer(ContainerModification{Container: key, Element: 2, IsAdd: true})

	if got := s.ContainerModifications(key); len(got) != 1 {
		t.Fatalf("ContainerModifications() after disabling the only tracker = %+v, want still 1 (no new record)", got)
	}
}

func TestContainerModificationsIsolatedByIdentity(t *testing.T) {
	s := New()
	s.SetFieldEnabled("T", "items", true)
	a, b := new(int), new(int)
	ka, kb := identitykey.Of(a), identitykey.Of(b)

	s.RecordField(FieldModification{Locator: FieldLocator{Class: "T", Field: "items"}, Container: ka, HasContainer: true})
	s.RecordField(FieldModification{Locator: FieldLocator{Class: "T", Field: "items"}, Container: kb, HasContainer: true})
	s.RecordContainer(ContainerModification{Container: ka, Element: 1, IsAdd: true})
	s.RecordContainer(ContainerModification{Container: kb, Element: 2, IsAdd: true})

	if got := s.ContainerModifications(ka); len(got) != 1 || got[0].Element != 1 {
		t.Fatalf("ContainerModifications(ka) = %+v, want just the ka record", got)
	}
	if got := s.ContainerModifications(kb); len(got) != 1 || got[0].Element != 2 {
		t.Fatalf("ContainerModifications(kb) = %+v, want just the kb record", got)
	}
}

func TestClearFieldEvictsContainerWhoseLastTrackerIsCleared(t *testing.T) {
	s := New()
	s.SetFieldEnabled("T", "items", true)
	c := new(int)
	key := identitykey.Of(c)

	s.RecordField(FieldModification{Locator: FieldLocator{Class: "T", Field: "items"}, Container: key, HasContainer: true})
	s.RecordContainer(ContainerModification{Container: key, Element: 1, IsAdd: true})

	s.ClearField("T", "items")

	if got := s.ContainerModifications(key); got != nil {
		t.Fatalf("ContainerModifications() after evicting the only tracker = %+v, want nil", got)
	}
}

func TestClearFieldRemovesAllOwnersOfThatClassField(t *testing.T) {
	s := New()
	s.SetFieldEnabled("T", "x", true)
	a, b := new(int), new(int)
	locA := FieldLocator{Class: "T", Field: "x", Owner: identitykey.Of(a)}
	locB := FieldLocator{Class: "T", Field: "x", Owner: identitykey.Of(b)}

	s.SetFieldEnabled("T", "y", true)
	locOther := FieldLocator{Class: "T", Field: "y", Owner: identitykey.Of(a)}

	s.RecordField(FieldModification{Locator: locA, NewValue: 1})
	s.RecordField(FieldModification{Locator: locB, NewValue: 2})
	s.RecordField(FieldModification{Locator: locOther, NewValue: 3})

	removed := s.ClearField("T", "x")
	if len(removed) != 2 {
		t.Fatalf("ClearField removed %d locators, want 2", len(removed))
	}
	if got := s.FieldModifications(locA); got != nil {
		t.Fatalf("FieldModifications(locA) after ClearField = %+v, want nil", got)
	}
	if got := s.FieldModifications(locOther); len(got) != 1 {
		t.Fatalf("FieldModifications(locOther) after ClearField(T,x) = %+v, want untouched", got)
	}
}

func TestForgetContainerRemovesHistory(t *testing.T) {
	s := New()
	s.SetFieldEnabled("T", "items", true)
	c := new(int)
	key := identitykey.Of(c)
	s.RecordField(FieldModification{Locator: FieldLocator{Class: "T", Field: "items"}, Container: key, HasContainer: true})
	s.RecordContainer(ContainerModification{Container: key, Element: 1, IsAdd: true})

	s.ForgetContainer(key)

	if got := s.ContainerModifications(key); got != nil {
		t.Fatalf("ContainerModifications after ForgetContainer = %+v, want nil", got)
	}
}

func TestConcurrentRecordsToDifferentListsDoNotRace(t *testing.T) {
	s := New()
	for i := 0; i < 26; i++ {
		s.SetFieldEnabled("T", string(rune('a'+i)), true)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			loc := FieldLocator{Class: "T", Field: string(rune('a' + i%26))}
			s.RecordField(FieldModification{Locator: loc, NewValue: i})
		}()
	}
	wg.Wait()
}
