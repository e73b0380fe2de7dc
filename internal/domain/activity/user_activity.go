package activity

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindLessonCompleted Kind = "lesson_completed"
	KindCourseCompleted Kind = "course_completed"
	KindLogin           Kind = "login"
	KindCommunityPost   Kind = "community_post"
	KindComment         Kind = "comment"
)

func (k Kind) Valid() bool {
	switch k {
	case KindLessonCompleted, KindCourseCompleted, KindLogin, KindCommunityPost, KindComment:
		return true
	}
	return false
}

// UserActivity is an append-only record of a qualifying event. The
// (user, kind, dedupe key) triple is unique so replays never double count.
type UserActivity struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_activity_dedupe,priority:1;index:idx_user_activity_user_kind,priority:1" json:"user_id"`
	Kind   Kind      `gorm:"column:kind;not null;uniqueIndex:idx_user_activity_dedupe,priority:2;index:idx_user_activity_user_kind,priority:2" json:"kind"`

	EntityID  *uuid.UUID `gorm:"type:uuid;column:entity_id;index" json:"entity_id,omitempty"`
	ScopeID   *uuid.UUID `gorm:"type:uuid;column:scope_id;index" json:"scope_id,omitempty"`
	DedupeKey string     `gorm:"column:dedupe_key;not null;uniqueIndex:idx_user_activity_dedupe,priority:3" json:"dedupe_key"`

	OccurredAt time.Time `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (UserActivity) TableName() string { return "user_activity" }

// LoginDedupeKey collapses logins to one per UTC day.
func LoginDedupeKey(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}
