package domain

import "testing"

func TestRankScores(t *testing.T) {
	t.Parallel()

	alice := &UserScore{UserID: "alice", Score: 420}
	bob := &UserScore{UserID: "bob", Score: 900}
	carol := &UserScore{UserID: "carol", Score: 420}
	dave := &UserScore{UserID: "dave", Score: 0}

	scores := []*UserScore{alice, bob, carol, dave}
	RankScores(scores)

	if bob.Rank != 1 {
		t.Fatalf("bob rank = %d, want 1", bob.Rank)
	}
	// Equal scores break ties on user id ascending.
	if alice.Rank != 2 || carol.Rank != 3 {
		t.Fatalf("tie ranks = alice %d, carol %d, want 2 and 3", alice.Rank, carol.Rank)
	}
	if dave.Rank != 4 {
		t.Fatalf("dave rank = %d, want 4", dave.Rank)
	}

	for i, score := range scores {
		if score.Rank != i+1 {
			t.Fatalf("slice position %d has rank %d, want %d", i, score.Rank, i+1)
		}
	}
}

func TestRankScoresEmpty(t *testing.T) {
	t.Parallel()

	RankScores(nil)
	RankScores([]*UserScore{})
}
