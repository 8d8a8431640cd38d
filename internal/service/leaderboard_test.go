package service

import (
	"context"
	"errors"
	"testing"

	"urgency-engine/internal/domain"
	"urgency-engine/internal/repository"
)

type leaderboardFixture struct {
	leaderboard *Leaderboard
	scoring     *ScoringEngine
}

func newLeaderboardFixture(t *testing.T) *leaderboardFixture {
	t.Helper()

	users := repository.NewStaticUserDirectory(map[string]string{
		"alice": "Alice",
		"bob":   "Bob",
		"carol": "Carol",
	})
	scoring, err := NewScoringEngine(repository.NewMemoryScoreRepo(), users, nil)
	if err != nil {
		t.Fatalf("NewScoringEngine() error = %v", err)
	}

	leaderboard, err := NewLeaderboard(scoring, nil)
	if err != nil {
		t.Fatalf("NewLeaderboard() error = %v", err)
	}

	return &leaderboardFixture{leaderboard: leaderboard, scoring: scoring}
}

func respond(fixture *leaderboardFixture, notificationID, userID string, responseTimeMs int64) {
	fixture.scoring.HandleResponded(RespondedEvent{
		NotificationID: notificationID,
		UserID:         userID,
		ResponseTimeMs: responseTimeMs,
	})
}

func TestLeaderboardOrderingAndLimit(t *testing.T) {
	t.Parallel()

	fixture := newLeaderboardFixture(t)

	respond(fixture, "n-1", "alice", 2_000)
	respond(fixture, "n-2", "alice", 2_000)
	respond(fixture, "n-3", "bob", 25_000)
	fixture.scoring.HandleExpired(ExpiredEvent{NotificationID: "n-4", UserID: "carol"})

	entries := fixture.leaderboard.GetLeaderboard(0)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].User.UserID != "alice" || entries[0].Rank != 1 {
		t.Fatalf("top entry = %+v, want alice at rank 1", entries[0])
	}
	if entries[1].User.UserID != "bob" || entries[1].Rank != 2 {
		t.Fatalf("second entry = %+v, want bob at rank 2", entries[1])
	}
	if entries[2].User.UserID != "carol" || entries[2].Rank != 3 {
		t.Fatalf("third entry = %+v, want carol at rank 3", entries[2])
	}

	top2 := fixture.leaderboard.GetLeaderboard(2)
	if len(top2) != 2 {
		t.Fatalf("limited entries = %d, want 2", len(top2))
	}
}

func TestLeaderboardTrendIsStableWithoutSnapshot(t *testing.T) {
	t.Parallel()

	fixture := newLeaderboardFixture(t)
	respond(fixture, "n-1", "alice", 2_000)

	entries := fixture.leaderboard.GetLeaderboard(0)
	if entries[0].Trend != domain.TrendStable || entries[0].Change != 0 {
		t.Fatalf("entry without snapshot = %+v, want STABLE with zero change", entries[0])
	}

	// Two reads with no snapshot in between must agree.
	again := fixture.leaderboard.GetLeaderboard(0)
	if again[0].Trend != entries[0].Trend || again[0].Change != entries[0].Change {
		t.Fatal("repeated reads without a snapshot should agree")
	}
}

func TestLeaderboardTrendAgainstSnapshot(t *testing.T) {
	t.Parallel()

	fixture := newLeaderboardFixture(t)

	respond(fixture, "n-1", "alice", 2_000)
	respond(fixture, "n-2", "bob", 2_000)
	fixture.leaderboard.SaveSnapshot(context.Background())

	respond(fixture, "n-3", "alice", 2_000)
	fixture.scoring.HandleExpired(ExpiredEvent{NotificationID: "n-4", UserID: "bob"})

	entries := fixture.leaderboard.GetLeaderboard(0)
	byUser := make(map[string]domain.LeaderboardEntry, len(entries))
	for _, entry := range entries {
		byUser[entry.User.UserID] = entry
	}

	alice := byUser["alice"]
	if alice.Trend != domain.TrendUp || alice.Change != 250 {
		t.Fatalf("alice = trend %s change %d, want UP +250", alice.Trend, alice.Change)
	}

	bob := byUser["bob"]
	if bob.Trend != domain.TrendDown || bob.Change != -50 {
		t.Fatalf("bob = trend %s change %d, want DOWN -50", bob.Trend, bob.Change)
	}
}

func TestLeaderboardSnapshotArchives(t *testing.T) {
	t.Parallel()

	fixture := newLeaderboardFixture(t)
	archive := &fakeArchive{}
	fixture.leaderboard.SetArchive(archive)

	respond(fixture, "n-1", "alice", 2_000)
	fixture.leaderboard.SaveSnapshot(context.Background())

	if archive.snapshotBatches != 1 {
		t.Fatalf("snapshot batches = %d, want 1", archive.snapshotBatches)
	}

	// Archive failures stay out of the snapshot path.
	archive.recordErr = errors.New("postgres down")
	fixture.leaderboard.SaveSnapshot(context.Background())
}

func TestLeaderboardStreakLeaders(t *testing.T) {
	t.Parallel()

	fixture := newLeaderboardFixture(t)

	for i := 0; i < 3; i++ {
		respond(fixture, string(rune('a'+i))+"-alice", "alice", 2_000)
	}
	respond(fixture, "n-bob", "bob", 2_000)

	leaders := fixture.leaderboard.GetStreakLeaders(0)
	if leaders[0].UserID != "alice" || leaders[0].Streak != 3 {
		t.Fatalf("top streak = %+v, want alice at 3", leaders[0])
	}
	if leaders[1].UserID != "bob" || leaders[1].Streak != 1 {
		t.Fatalf("second streak = %+v, want bob at 1", leaders[1])
	}
}

func TestLeaderboardResponseTimeLeadersExcludeNonResponders(t *testing.T) {
	t.Parallel()

	fixture := newLeaderboardFixture(t)

	respond(fixture, "n-1", "alice", 8_000)
	respond(fixture, "n-2", "bob", 2_000)
	fixture.scoring.HandleExpired(ExpiredEvent{NotificationID: "n-3", UserID: "carol"})

	leaders := fixture.leaderboard.GetResponseTimeLeaders(0)
	if len(leaders) != 2 {
		t.Fatalf("leaders = %d, want carol excluded", len(leaders))
	}
	if leaders[0].UserID != "bob" || leaders[1].UserID != "alice" {
		t.Fatalf("order = %s, %s, want fastest first", leaders[0].UserID, leaders[1].UserID)
	}
}

func TestLeaderboardGlobalStats(t *testing.T) {
	t.Parallel()

	fixture := newLeaderboardFixture(t)

	respond(fixture, "n-1", "alice", 2_000)
	respond(fixture, "n-2", "alice", 4_000)
	respond(fixture, "n-3", "bob", 6_000)
	fixture.scoring.HandleExpired(ExpiredEvent{NotificationID: "n-4", UserID: "carol"})

	stats := fixture.leaderboard.GetGlobalStats()
	if stats.TotalUsers != 3 {
		t.Fatalf("totalUsers = %d, want 3", stats.TotalUsers)
	}
	if stats.TotalNotifications != 4 || stats.TotalResponded != 3 {
		t.Fatalf("counters = %d/%d, want 3 responded of 4", stats.TotalResponded, stats.TotalNotifications)
	}
	if stats.ResponseRate != 0.75 {
		t.Fatalf("responseRate = %f, want 0.75", stats.ResponseRate)
	}
	if stats.AverageResponseTimeMs != 4_000 {
		t.Fatalf("averageResponseTimeMs = %f, want 4000", stats.AverageResponseTimeMs)
	}
	if stats.LongestStreak != 2 {
		t.Fatalf("longestStreak = %d, want 2", stats.LongestStreak)
	}
	if stats.HighestScore == 0 {
		t.Fatal("highestScore should reflect the top score")
	}
}

func TestLeaderboardGetUserScore(t *testing.T) {
	t.Parallel()

	fixture := newLeaderboardFixture(t)
	respond(fixture, "n-1", "alice", 2_000)

	score, err := fixture.leaderboard.GetUserScore("alice")
	if err != nil {
		t.Fatalf("GetUserScore() error = %v", err)
	}
	if score.Score != 250 {
		t.Fatalf("score = %d, want 250", score.Score)
	}

	if _, err := fixture.leaderboard.GetUserScore("nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetUserScore(nobody) error = %v, want ErrNotFound", err)
	}
}
