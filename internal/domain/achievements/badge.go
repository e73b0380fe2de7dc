package achievements

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TriggerType string

const (
	TriggerManual           TriggerType = "manual"
	TriggerCourseCompletion TriggerType = "course_completion"
	TriggerLessonCompletion TriggerType = "lesson_completion"
	TriggerLoginStreak      TriggerType = "login_streak"
	TriggerCommunityPost    TriggerType = "community_post"
	TriggerCommentCount     TriggerType = "comment_count"
)

func (t TriggerType) Valid() bool {
	switch t {
	case TriggerManual, TriggerCourseCompletion, TriggerLessonCompletion,
		TriggerLoginStreak, TriggerCommunityPost, TriggerCommentCount:
		return true
	}
	return false
}

const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

type Badge struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Slug        string `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`
	Icon        string `gorm:"column:icon" json:"icon,omitempty"`

	TriggerType      TriggerType `gorm:"column:trigger_type;not null;index" json:"trigger_type"`
	RequirementCount int         `gorm:"column:requirement_count;not null;default:1" json:"requirement_count"`
	SpecificEntityID *uuid.UUID  `gorm:"type:uuid;column:specific_entity_id;index" json:"specific_entity_id,omitempty"`

	Rarity   string `gorm:"column:rarity;not null;default:'common'" json:"rarity"`
	Points   int    `gorm:"column:points;not null;default:0" json:"points"`
	IsActive bool   `gorm:"column:is_active;not null;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Badge) TableName() string { return "badge" }

// Threshold is the effective requirement count; anything below 1 means 1.
func (b *Badge) Threshold() int {
	if b == nil || b.RequirementCount < 1 {
		return 1
	}
	return b.RequirementCount
}

type UserBadge struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge_user_badge,priority:1" json:"user_id"`
	BadgeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge_user_badge,priority:2;index" json:"badge_id"`
	Badge   *Badge    `gorm:"foreignKey:BadgeID;references:ID" json:"badge,omitempty"`

	AwardedAt      time.Time   `gorm:"column:awarded_at;not null;index" json:"awarded_at"`
	IsSeen         bool        `gorm:"column:is_seen;not null;default:false" json:"is_seen"`
	PointsAwarded  int         `gorm:"column:points_awarded;not null;default:0" json:"points_awarded"`
	TriggerType    TriggerType `gorm:"column:trigger_type" json:"trigger_type"`
	SourceEntityID *uuid.UUID  `gorm:"type:uuid;column:source_entity_id" json:"source_entity_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserBadge) TableName() string { return "user_badge" }
