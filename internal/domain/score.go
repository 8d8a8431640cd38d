package domain

import (
	"sort"
	"time"
)

// Trend classifies a user's score movement since the last saved snapshot.
type Trend string

const (
	TrendUp     Trend = "UP"
	TrendDown   Trend = "DOWN"
	TrendStable Trend = "STABLE"
)

func (t Trend) String() string { return string(t) }

// UserScore is the per-user scoring aggregate. One record per user, created
// lazily on the first responded or expired event.
type UserScore struct {
	UserID                 string
	DisplayName            string
	TotalNotifications     int
	RespondedNotifications int
	AverageResponseTimeMs  float64
	Score                  int
	Streak                 int
	Rank                   int
	LastActiveAt           time.Time
}

// LeaderboardEntry is a derived, never-stored ranking row.
type LeaderboardEntry struct {
	Rank   int
	User   UserScore
	Trend  Trend
	Change int
}

// GlobalStats is a read-only reduction across all user scores.
type GlobalStats struct {
	TotalUsers            int
	TotalNotifications    int
	TotalResponded        int
	ResponseRate          float64
	AverageResponseTimeMs float64
	HighestScore          int
	LongestStreak         int
}

// RankScores reassigns dense 1-based ranks in place: score descending,
// userId ascending on ties. The full resort keeps rank assignment
// deterministic and is O(N log N) per call, which is fine at the expected
// tens-to-hundreds of users.
func RankScores(scores []*UserScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].UserID < scores[j].UserID
	})
	for i, score := range scores {
		score.Rank = i + 1
	}
}
