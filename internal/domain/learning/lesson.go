package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LessonStatusDraft     = "draft"
	LessonStatusPublished = "published"
)

type Lesson struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index:idx_lesson_course_index,priority:1" json:"course_id"`
	Index    int       `gorm:"column:lesson_index;not null;default:0;index:idx_lesson_course_index,priority:2" json:"index"`

	Title  string `gorm:"column:title;not null" json:"title"`
	Status string `gorm:"column:status;not null;default:'draft';index" json:"status"`

	PublishedAt *time.Time     `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) IsPublished() bool {
	return l != nil && l.Status == LessonStatusPublished
}
