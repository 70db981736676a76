package core

import "testing"

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()

	first := NewClient("c1", Identity{ID: 1, Name: "Alice"})
	if replaced := r.Register(first); replaced != nil {
		t.Fatalf("expected no replacement, got %+v", replaced)
	}

	second := NewClient("c2", Identity{ID: 1, Name: "Alice"})
	if replaced := r.Register(second); replaced != first {
		t.Fatalf("expected first connection to be replaced, got %+v", replaced)
	}

	if r.Len() != 1 {
		t.Fatalf("expected one entry, got %d", r.Len())
	}
	current, ok := r.Lookup(1)
	if !ok || current != second {
		t.Fatalf("expected lookup to return the fresh connection")
	}
}

func TestRegistryUnregisterIgnoresStaleConnection(t *testing.T) {
	r := NewRegistry()

	first := NewClient("c1", Identity{ID: 1})
	second := NewClient("c2", Identity{ID: 1})
	r.Register(first)
	r.Register(second)

	if r.Unregister(first) {
		t.Fatal("stale connection must not remove the fresh entry")
	}
	if _, ok := r.Lookup(1); !ok {
		t.Fatal("fresh entry disappeared")
	}

	if !r.Unregister(second) {
		t.Fatal("expected fresh connection to unregister")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}

	// Unregistering an absent identity is a no-op, not an error.
	if r.Unregister(second) {
		t.Fatal("expected no-op for absent identity")
	}
}

func TestRegistrySnapshotIsStable(t *testing.T) {
	r := NewRegistry()
	r.Register(NewClient("c1", Identity{ID: 1}))
	r.Register(NewClient("c2", Identity{ID: 2}))

	snapshot := r.Snapshot()
	r.Register(NewClient("c3", Identity{ID: 3}))

	if len(snapshot) != 2 {
		t.Fatalf("snapshot changed after mutation: %d entries", len(snapshot))
	}
}
