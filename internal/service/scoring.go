package service

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"urgency-engine/internal/domain"
	"urgency-engine/internal/repository"
)

// Point values for the urgency game. A response is always worth the base
// plus a speed adjustment; the streak bonus stacks on top. Misses cost a
// flat penalty and zero the streak.
const (
	baseResponsePoints  = 100
	expiredPenalty      = 50
	autoResponsePenalty = 30
)

func speedBonus(responseTimeMs int64) int {
	switch {
	case responseTimeMs < 5_000:
		return 150
	case responseTimeMs < 10_000:
		return 130
	case responseTimeMs < 20_000:
		return 115
	case responseTimeMs < 30_000:
		return 105
	default:
		return -10
	}
}

func streakBonus(streak int) int {
	switch {
	case streak < 3:
		return 0
	case streak < 5:
		return 10
	case streak < 10:
		return 25
	case streak < 20:
		return 50
	default:
		return 100
	}
}

// ScoringEngine consumes terminal notification events and maintains the
// per-user aggregates. Handlers are idempotent: a replayed event for an
// already-processed notification id is dropped.
type ScoringEngine struct {
	scores repository.ScoreRepository
	users  repository.UserDirectory
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	processed map[string]struct{}
}

var _ ScoreSink = (*ScoringEngine)(nil)

func NewScoringEngine(
	scores repository.ScoreRepository,
	users repository.UserDirectory,
	logger *zap.Logger,
) (*ScoringEngine, error) {
	if scores == nil {
		return nil, fmt.Errorf("score repository is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ScoringEngine{
		scores:    scores,
		users:     users,
		logger:    logger,
		now:       time.Now,
		processed: make(map[string]struct{}),
	}, nil
}

func (s *ScoringEngine) HandleResponded(event RespondedEvent) {
	if !s.markProcessed(event.NotificationID) {
		s.logger.Debug("dropping replayed responded event",
			zap.String("notificationId", event.NotificationID),
		)
		return
	}

	now := s.now()
	updated := s.scores.Apply(event.UserID, s.users.DisplayName(event.UserID), func(score *domain.UserScore) {
		score.TotalNotifications++
		score.RespondedNotifications++
		// Running mean over responded notifications only.
		score.AverageResponseTimeMs += (float64(event.ResponseTimeMs) - score.AverageResponseTimeMs) /
			float64(score.RespondedNotifications)
		score.Streak++

		delta := baseResponsePoints + speedBonus(event.ResponseTimeMs) + streakBonus(score.Streak)
		score.Score = floorZero(score.Score + delta)
		score.LastActiveAt = now
	})

	s.logger.Debug("score updated on response",
		zap.String("userId", event.UserID),
		zap.Int("score", updated.Score),
		zap.Int("streak", updated.Streak),
	)
}

func (s *ScoringEngine) HandleExpired(event ExpiredEvent) {
	if !s.markProcessed(event.NotificationID) {
		s.logger.Debug("dropping replayed expired event",
			zap.String("notificationId", event.NotificationID),
		)
		return
	}

	now := s.now()
	updated := s.scores.Apply(event.UserID, s.users.DisplayName(event.UserID), func(score *domain.UserScore) {
		score.TotalNotifications++
		score.Score = floorZero(score.Score - expiredPenalty)
		score.Streak = 0
		score.LastActiveAt = now
	})

	s.logger.Debug("score penalized on expiry",
		zap.String("userId", event.UserID),
		zap.Int("score", updated.Score),
	)
}

// ApplyAutoResponsePenalty is the softer "late but auto-responded" tier.
// Nothing invokes it automatically; collaborators call it explicitly when
// they decide an auto-response should cost the user.
func (s *ScoringEngine) ApplyAutoResponsePenalty(userID string) domain.UserScore {
	now := s.now()
	return s.scores.Apply(userID, s.users.DisplayName(userID), func(score *domain.UserScore) {
		score.Score = floorZero(score.Score - autoResponsePenalty)
		if score.Streak > 0 {
			score.Streak--
		}
		score.LastActiveAt = now
	})
}

func (s *ScoringEngine) UserScore(userID string) (domain.UserScore, error) {
	score, err := s.scores.Get(userID)
	if err != nil {
		return domain.UserScore{}, err
	}
	return *score, nil
}

// AllScores returns a rank-ordered snapshot of every user's aggregates.
func (s *ScoringEngine) AllScores() []domain.UserScore {
	return s.scores.All()
}

func (s *ScoringEngine) markProcessed(notificationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.processed[notificationID]; seen {
		return false
	}
	s.processed[notificationID] = struct{}{}
	return true
}

func floorZero(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
