package refset

import (
	"testing"
)

// --- Contains Tests ---

func TestContains_Present(t *testing.T) {
	if !Contains([]string{"a", "b", "c"}, "b") {
		t.Error("expected true for present member")
	}
}

func TestContains_Absent(t *testing.T) {
	if Contains([]string{"a", "b", "c"}, "d") {
		t.Error("expected false for absent member")
	}
}

func TestContains_Empty(t *testing.T) {
	if Contains([]string{}, "a") {
		t.Error("expected false for empty set")
	}
}

func TestContains_Nil(t *testing.T) {
	if Contains(nil, "a") {
		t.Error("expected false for nil set")
	}
}

// --- Add Tests ---

func TestAdd_NewMember(t *testing.T) {
	result := Add([]string{"a", "b"}, "c")
	if len(result) != 3 {
		t.Fatalf("expected 3 members, got %d", len(result))
	}
	if result[2] != "c" {
		t.Errorf("expected 'c' appended, got %q", result[2])
	}
}

func TestAdd_ExistingMember(t *testing.T) {
	result := Add([]string{"a", "b"}, "a")
	if len(result) != 2 {
		t.Errorf("expected no duplicate, got %d members", len(result))
	}
}

func TestAdd_ToNil(t *testing.T) {
	result := Add(nil, "a")
	if len(result) != 1 || result[0] != "a" {
		t.Errorf("expected [a], got %v", result)
	}
}

// --- Remove Tests ---

func TestRemove_Present(t *testing.T) {
	result := Remove([]string{"a", "b", "c"}, "b")
	if len(result) != 2 {
		t.Fatalf("expected 2 members, got %d", len(result))
	}
	if result[0] != "a" || result[1] != "c" {
		t.Errorf("expected [a c], got %v", result)
	}
}

func TestRemove_Absent(t *testing.T) {
	// Removing an absent member is a no-op, not an error and not a
	// mutation of unrelated members.
	set := []string{"a", "b", "c"}
	result := Remove(set, "d")
	if len(result) != 3 {
		t.Fatalf("expected 3 members, got %d", len(result))
	}
	for i, want := range []string{"a", "b", "c"} {
		if result[i] != want {
			t.Errorf("member %d: expected %q, got %q", i, want, result[i])
		}
	}
}

func TestRemove_Empty(t *testing.T) {
	result := Remove([]string{}, "a")
	if len(result) != 0 {
		t.Errorf("expected empty set, got %v", result)
	}
}

func TestRemove_Nil(t *testing.T) {
	result := Remove(nil, "a")
	if len(result) != 0 {
		t.Errorf("expected empty set, got %v", result)
	}
}

func TestRemove_LastMember(t *testing.T) {
	result := Remove([]string{"a"}, "a")
	if len(result) != 0 {
		t.Errorf("expected empty set, got %v", result)
	}
}

func TestRemove_DoesNotMutateOriginal(t *testing.T) {
	set := []string{"a", "b", "c"}
	_ = Remove(set, "a")
	if set[0] != "a" || set[1] != "b" || set[2] != "c" {
		t.Errorf("original set mutated: %v", set)
	}
}

// --- Toggle Tests ---

func TestToggle_AddsAbsentMember(t *testing.T) {
	result, added := Toggle([]string{"a"}, "b")
	if !added {
		t.Error("expected added=true")
	}
	if !Contains(result, "b") {
		t.Errorf("expected 'b' in result, got %v", result)
	}
}

func TestToggle_RemovesPresentMember(t *testing.T) {
	result, added := Toggle([]string{"a", "b"}, "b")
	if added {
		t.Error("expected added=false")
	}
	if Contains(result, "b") {
		t.Errorf("expected 'b' removed, got %v", result)
	}
}

func TestToggle_TwiceIsIdentity(t *testing.T) {
	set := []string{"a", "b"}
	once, _ := Toggle(set, "c")
	twice, _ := Toggle(once, "c")
	if len(twice) != len(set) {
		t.Fatalf("expected %d members after double toggle, got %d", len(set), len(twice))
	}
	for _, m := range set {
		if !Contains(twice, m) {
			t.Errorf("member %q lost after double toggle", m)
		}
	}
}

func TestToggle_OnNil(t *testing.T) {
	result, added := Toggle(nil, "a")
	if !added {
		t.Error("expected added=true")
	}
	if len(result) != 1 || result[0] != "a" {
		t.Errorf("expected [a], got %v", result)
	}
}
