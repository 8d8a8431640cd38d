package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"urgency-engine/internal/repository"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_resolved_notifications",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ResolvedNotificationModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_resolved_notifications_user_sent ON resolved_notifications (user_id, sent_at)`,
					`CREATE INDEX IF NOT EXISTS idx_resolved_notifications_schedule_id ON resolved_notifications (schedule_id) WHERE schedule_id IS NOT NULL`,
					`CREATE INDEX IF NOT EXISTS idx_resolved_notifications_status ON resolved_notifications (status)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ResolvedNotificationModel{})
			},
		},
		{
			ID: "000002_create_score_snapshots",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ScoreSnapshotModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_score_snapshots_user_taken ON score_snapshots (user_id, taken_at)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ScoreSnapshotModel{})
			},
		},
	})

	return m.Migrate()
}
