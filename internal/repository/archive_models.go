package repository

import (
	"time"

	"urgency-engine/internal/domain"
)

// ResolvedNotificationModel is the archive row for a terminally resolved
// notification. The in-memory table stays authoritative; archive rows exist
// for offline analysis and survive process restarts on a best-effort basis.
type ResolvedNotificationModel struct {
	ID                  string  `gorm:"type:uuid;primaryKey"`
	ScheduleID          *string `gorm:"type:uuid"`
	TemplateID          string  `gorm:"type:varchar(64);not null"`
	UserID              string  `gorm:"type:varchar(64);not null"`
	Content             string  `gorm:"type:text;not null"`
	Status              string  `gorm:"type:varchar(20);not null"`
	Priority            string  `gorm:"type:varchar(10);not null"`
	Type                string  `gorm:"type:varchar(20);not null"`
	SentAt              time.Time
	ExpiresAt           time.Time
	RespondedAt         *time.Time
	ResponseTimeMs      *int64
	ResponseText        *string `gorm:"type:text"`
	AutoResponseSent    bool    `gorm:"not null;default:false"`
	AutoResponseContent *string `gorm:"type:text"`
	CreatedAt           time.Time
}

func (ResolvedNotificationModel) TableName() string { return "resolved_notifications" }

// ScoreSnapshotModel is one user's row within a saved leaderboard snapshot.
type ScoreSnapshotModel struct {
	ID                    string `gorm:"type:uuid;primaryKey"`
	UserID                string `gorm:"type:varchar(64);not null"`
	DisplayName           string `gorm:"type:varchar(255);not null"`
	Score                 int    `gorm:"not null"`
	Streak                int    `gorm:"not null"`
	Rank                  int    `gorm:"not null"`
	AverageResponseTimeMs float64
	TakenAt               time.Time `gorm:"not null"`
}

func (ScoreSnapshotModel) TableName() string { return "score_snapshots" }

func resolvedNotificationModelFromDomain(n *domain.Notification) *ResolvedNotificationModel {
	if n == nil {
		return nil
	}

	model := &ResolvedNotificationModel{
		ID:                  n.ID,
		TemplateID:          n.TemplateID,
		UserID:              n.UserID,
		Content:             n.Content,
		Status:              n.Status.String(),
		Priority:            n.Priority.String(),
		Type:                n.Type.String(),
		SentAt:              n.SentAt,
		ExpiresAt:           n.ExpiresAt,
		RespondedAt:         n.RespondedAt,
		ResponseTimeMs:      n.ResponseTimeMs,
		ResponseText:        n.ResponseText,
		AutoResponseSent:    n.AutoResponseSent,
		AutoResponseContent: n.AutoResponseContent,
	}
	if n.ScheduleID != "" {
		scheduleID := n.ScheduleID
		model.ScheduleID = &scheduleID
	}
	return model
}
