package db

import (
	"fmt"

	types "github.com/yungbote/kinship-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureProgressIndexes(db)
}

// EnsureProgressIndexes adds the composite indexes the reconcile sweep and the
// badge count queries lean on. Plain CREATE INDEX so both dialects accept it.
func EnsureProgressIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_enrollment_status_completed_at",
			sql:  `CREATE INDEX IF NOT EXISTS idx_enrollment_status_completed_at ON enrollment (status, completed_at);`,
		},
		{
			name: "idx_lesson_course_status",
			sql:  `CREATE INDEX IF NOT EXISTS idx_lesson_course_status ON lesson (course_id, status);`,
		},
		{
			name: "idx_badge_trigger_active",
			sql:  `CREATE INDEX IF NOT EXISTS idx_badge_trigger_active ON badge (trigger_type, is_active);`,
		},
		{
			name: "idx_user_activity_user_kind_occurred",
			sql:  `CREATE INDEX IF NOT EXISTS idx_user_activity_user_kind_occurred ON user_activity (user_id, kind, occurred_at);`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
