package repository

import "testing"

func TestParseUserList(t *testing.T) {
	t.Parallel()

	names := ParseUserList(" u1:Alice , u2 , ,u3: Bob Jones ")

	if len(names) != 3 {
		t.Fatalf("parsed %d entries, want 3", len(names))
	}
	if names["u1"] != "Alice" {
		t.Fatalf("u1 = %q, want Alice", names["u1"])
	}
	if names["u2"] != "u2" {
		t.Fatalf("u2 = %q, want id fallback", names["u2"])
	}
	if names["u3"] != "Bob Jones" {
		t.Fatalf("u3 = %q, want Bob Jones", names["u3"])
	}
}

func TestStaticUserDirectoryFallsBackToID(t *testing.T) {
	t.Parallel()

	directory := NewStaticUserDirectory(map[string]string{"u1": "Alice"})

	if got := directory.DisplayName("u1"); got != "Alice" {
		t.Fatalf("DisplayName(u1) = %q, want Alice", got)
	}
	if got := directory.DisplayName("stranger"); got != "stranger" {
		t.Fatalf("DisplayName(stranger) = %q, want raw id", got)
	}
}
