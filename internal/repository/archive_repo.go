package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"urgency-engine/internal/domain"
)

// ArchiveRepository persists resolved notifications and leaderboard
// snapshots off the hot path. Callers treat failures as log-and-continue;
// archive writes never gate a terminal transition.
type ArchiveRepository interface {
	RecordResolution(ctx context.Context, n *domain.Notification) error
	RecordScoreSnapshot(ctx context.Context, scores []domain.UserScore, takenAt time.Time) error
}

type GormArchiveRepo struct {
	db *gorm.DB
}

func NewGormArchiveRepo(db *gorm.DB) *GormArchiveRepo {
	return &GormArchiveRepo{db: db}
}

func (r *GormArchiveRepo) RecordResolution(ctx context.Context, n *domain.Notification) error {
	model := resolvedNotificationModelFromDomain(n)
	if model == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *GormArchiveRepo) RecordScoreSnapshot(ctx context.Context, scores []domain.UserScore, takenAt time.Time) error {
	if len(scores) == 0 {
		return nil
	}

	models := make([]ScoreSnapshotModel, 0, len(scores))
	for _, score := range scores {
		models = append(models, ScoreSnapshotModel{
			ID:                    uuid.NewString(),
			UserID:                score.UserID,
			DisplayName:           score.DisplayName,
			Score:                 score.Score,
			Streak:                score.Streak,
			Rank:                  score.Rank,
			AverageResponseTimeMs: score.AverageResponseTimeMs,
			TakenAt:               takenAt,
		})
	}
	return r.db.WithContext(ctx).CreateInBatches(&models, 100).Error
}
