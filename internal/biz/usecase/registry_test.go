package usecase

import "testing"

func TestActionSetRegistry_PermissiveBootstrap(t *testing.T) {
	r := NewActionSetRegistry()

	// No sets issued yet: anything goes
	if !r.IsValid("alice", "some-old-set") {
		t.Error("empty window should be permissive")
	}
}

func TestActionSetRegistry_WindowedValidity(t *testing.T) {
	r := NewActionSetRegistry()

	r.RecordIssued("alice", "s1")
	r.RecordIssued("alice", "s2")
	r.RecordIssued("alice", "s3")

	for _, id := range []string{"s1", "s2", "s3"} {
		if !r.IsValid("alice", id) {
			t.Errorf("set %s should be valid inside the window", id)
		}
	}
	if r.IsValid("alice", "s0") {
		t.Error("never-issued set should be invalid once the window is non-empty")
	}

	// Fourth issue evicts the oldest
	r.RecordIssued("alice", "s4")
	if r.IsValid("alice", "s1") {
		t.Error("s1 should have been evicted by s4")
	}
	if !r.IsValid("alice", "s2") || !r.IsValid("alice", "s4") {
		t.Error("s2..s4 should remain valid")
	}
}

func TestActionSetRegistry_PerUserIsolation(t *testing.T) {
	r := NewActionSetRegistry()

	r.RecordIssued("alice", "s1")
	if !r.IsValid("bob", "anything") {
		t.Error("bob's empty window should be unaffected by alice's sets")
	}
	if r.IsValid("alice", "anything") {
		t.Error("alice's window should now reject unknown sets")
	}
}

func TestActionSetRegistry_Remove(t *testing.T) {
	r := NewActionSetRegistry()
	r.RecordIssued("alice", "s1")
	r.Remove("alice")

	if !r.IsValid("alice", "whatever") {
		t.Error("removed user should be back to permissive bootstrap")
	}
}

func TestNewSet_FreshIDs(t *testing.T) {
	a := newSet("desc")
	b := newSet("desc")
	if a.ID == b.ID {
		t.Error("every render must get a new set ID")
	}
	if a.ExpiresAt.IsZero() {
		t.Error("sets should carry an expiry")
	}
}
