package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"urgency-engine/internal/domain"
	"urgency-engine/internal/repository"
)

// ScoreReader is the read surface the leaderboard needs from the scoring
// engine.
type ScoreReader interface {
	AllScores() []domain.UserScore
	UserScore(userID string) (domain.UserScore, error)
}

// Leaderboard derives ranked views from scoring state. Trend and change are
// computed against the last explicitly saved snapshot; two reads with no
// snapshot in between always agree.
type Leaderboard struct {
	scores  ScoreReader
	archive repository.ArchiveRepository
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	snapshot map[string]int
}

func NewLeaderboard(scores ScoreReader, logger *zap.Logger) (*Leaderboard, error) {
	if scores == nil {
		return nil, fmt.Errorf("score reader is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Leaderboard{
		scores:   scores,
		logger:   logger,
		now:      time.Now,
		snapshot: make(map[string]int),
	}, nil
}

func (l *Leaderboard) SetArchive(archive repository.ArchiveRepository) {
	if l == nil {
		return
	}
	l.archive = archive
}

// GetLeaderboard returns the top entries by score with trend annotations.
func (l *Leaderboard) GetLeaderboard(limit int) []domain.LeaderboardEntry {
	all := l.scores.AllScores()
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]domain.LeaderboardEntry, 0, len(all))
	for _, score := range all {
		entry := domain.LeaderboardEntry{
			Rank:  score.Rank,
			User:  score,
			Trend: domain.TrendStable,
		}
		if saved, ok := l.snapshot[score.UserID]; ok {
			entry.Change = score.Score - saved
			switch {
			case entry.Change > 0:
				entry.Trend = domain.TrendUp
			case entry.Change < 0:
				entry.Trend = domain.TrendDown
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// SaveSnapshot captures current scores as the new trend baseline. The core
// never self-schedules this; a collaborator calls it on its own cadence.
func (l *Leaderboard) SaveSnapshot(ctx context.Context) {
	all := l.scores.AllScores()
	takenAt := l.now().UTC()

	l.mu.Lock()
	l.snapshot = make(map[string]int, len(all))
	for _, score := range all {
		l.snapshot[score.UserID] = score.Score
	}
	l.mu.Unlock()

	if l.archive != nil {
		if err := l.archive.RecordScoreSnapshot(ctx, all, takenAt); err != nil {
			l.logger.Warn("failed to archive score snapshot", zap.Error(err))
		}
	}

	l.logger.Info("leaderboard snapshot saved", zap.Int("users", len(all)))
}

// GetStreakLeaders orders users by current streak; this is an independent
// ordering, not re-ranked by score.
func (l *Leaderboard) GetStreakLeaders(limit int) []domain.UserScore {
	all := l.scores.AllScores()
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Streak != all[j].Streak {
			return all[i].Streak > all[j].Streak
		}
		return all[i].UserID < all[j].UserID
	})
	return clampScores(all, limit)
}

// GetResponseTimeLeaders orders users by average response time ascending.
// Users who never responded have no meaningful average and are excluded.
func (l *Leaderboard) GetResponseTimeLeaders(limit int) []domain.UserScore {
	all := l.scores.AllScores()
	withResponses := make([]domain.UserScore, 0, len(all))
	for _, score := range all {
		if score.RespondedNotifications > 0 {
			withResponses = append(withResponses, score)
		}
	}
	sort.SliceStable(withResponses, func(i, j int) bool {
		if withResponses[i].AverageResponseTimeMs != withResponses[j].AverageResponseTimeMs {
			return withResponses[i].AverageResponseTimeMs < withResponses[j].AverageResponseTimeMs
		}
		return withResponses[i].UserID < withResponses[j].UserID
	})
	return clampScores(withResponses, limit)
}

// GetGlobalStats is a pure read-only reduction across all users.
func (l *Leaderboard) GetGlobalStats() domain.GlobalStats {
	all := l.scores.AllScores()

	stats := domain.GlobalStats{TotalUsers: len(all)}
	var respondedWeightedMs float64
	for _, score := range all {
		stats.TotalNotifications += score.TotalNotifications
		stats.TotalResponded += score.RespondedNotifications
		respondedWeightedMs += score.AverageResponseTimeMs * float64(score.RespondedNotifications)
		if score.Score > stats.HighestScore {
			stats.HighestScore = score.Score
		}
		if score.Streak > stats.LongestStreak {
			stats.LongestStreak = score.Streak
		}
	}
	if stats.TotalNotifications > 0 {
		stats.ResponseRate = float64(stats.TotalResponded) / float64(stats.TotalNotifications)
	}
	if stats.TotalResponded > 0 {
		stats.AverageResponseTimeMs = respondedWeightedMs / float64(stats.TotalResponded)
	}
	return stats
}

// GetUserScore returns one user's aggregates.
func (l *Leaderboard) GetUserScore(userID string) (domain.UserScore, error) {
	return l.scores.UserScore(userID)
}

func clampScores(scores []domain.UserScore, limit int) []domain.UserScore {
	if limit > 0 && limit < len(scores) {
		return scores[:limit]
	}
	return scores
}
