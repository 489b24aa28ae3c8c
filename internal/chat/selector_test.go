package chat

import "testing"

func TestSelectUnknownIDLeavesSelectionUnchanged(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	created := store.CreateSession()

	selector := NewSelector(store)
	if !selector.Select(created.ID) {
		t.Fatalf("Select(%s) = false, want true", created.ID)
	}
	if selector.Select("missing") {
		t.Fatalf("Select(missing) = true, want false")
	}
	if selector.Active() != created.ID {
		t.Fatalf("Active() = %q, want %q", selector.Active(), created.ID)
	}
}

func TestOnDeletePicksFirstRemainingByDisplayOrder(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	first := store.CreateSession()
	second := store.CreateSession()
	third := store.CreateSession()

	selector := NewSelector(store)
	selector.Select(second.ID)

	store.DeleteSession(second.ID)
	selector.OnDelete(second.ID)
	if selector.Active() != first.ID {
		t.Fatalf("Active() = %q, want first remaining %q", selector.Active(), first.ID)
	}

	// Deleting a non-active session keeps the selection.
	store.DeleteSession(third.ID)
	selector.OnDelete(third.ID)
	if selector.Active() != first.ID {
		t.Fatalf("Active() = %q, want %q", selector.Active(), first.ID)
	}

	store.DeleteSession(first.ID)
	selector.OnDelete(first.ID)
	if selector.Active() != "" {
		t.Fatalf("Active() = %q, want empty after last delete", selector.Active())
	}
}

func TestRestoreFallsBackToFirstSession(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	first := store.CreateSession()
	second := store.CreateSession()

	selector := NewSelector(store)
	selector.Restore(second.ID)
	if selector.Active() != second.ID {
		t.Fatalf("Active() = %q, want %q", selector.Active(), second.ID)
	}

	selector = NewSelector(store)
	selector.Restore("stale-id")
	if selector.Active() != first.ID {
		t.Fatalf("Active() = %q, want fallback %q", selector.Active(), first.ID)
	}

	empty := NewSelector(NewStore(nil))
	empty.Restore("anything")
	if empty.Active() != "" {
		t.Fatalf("Active() = %q, want empty on empty store", empty.Active())
	}
}

func TestViewOffsetsAreAdvisoryAndDiscardedOnDelete(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	created := store.CreateSession()

	selector := NewSelector(store)
	selector.SetViewOffset(created.ID, 12)
	if got := selector.ViewOffset(created.ID); got != 12 {
		t.Fatalf("ViewOffset() = %d, want 12", got)
	}

	selector.SetViewOffset(created.ID, -3)
	if got := selector.ViewOffset(created.ID); got != 0 {
		t.Fatalf("ViewOffset() after negative set = %d, want 0", got)
	}

	store.DeleteSession(created.ID)
	selector.OnDelete(created.ID)
	if got := selector.ViewOffset(created.ID); got != 0 {
		t.Fatalf("ViewOffset() after delete = %d, want 0", got)
	}
}
