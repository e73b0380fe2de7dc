package learning

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusExpired   = "expired"
)

type Enrollment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:1" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:2;index" json:"course_id"`

	// JSON array of lesson ids, treated as a set.
	CompletedLessons datatypes.JSON `gorm:"column:completed_lessons" json:"completed_lessons"`
	CurrentLessonID  *uuid.UUID     `gorm:"type:uuid;column:current_lesson_id" json:"current_lesson_id,omitempty"`
	Progress         int            `gorm:"column:progress;not null;default:0" json:"progress"`
	Status           string         `gorm:"column:status;not null;default:'active';index" json:"status"`

	EnrolledAt     time.Time  `gorm:"column:enrolled_at;not null" json:"enrolled_at"`
	LastAccessedAt *time.Time `gorm:"column:last_accessed_at" json:"last_accessed_at,omitempty"`
	CompletedAt    *time.Time `gorm:"column:completed_at;index" json:"completed_at,omitempty"`

	// Bumped on every ledger write; guards the read-modify-write of CompletedLessons.
	Version int `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) LessonIDs() []uuid.UUID {
	if e == nil || len(e.CompletedLessons) == 0 {
		return nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(e.CompletedLessons, &ids); err != nil {
		return nil
	}
	return ids
}

func (e *Enrollment) HasLesson(lessonID uuid.UUID) bool {
	for _, id := range e.LessonIDs() {
		if id == lessonID {
			return true
		}
	}
	return false
}

func (e *Enrollment) SetLessonIDs(ids []uuid.UUID) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	b, _ := json.Marshal(ids)
	e.CompletedLessons = datatypes.JSON(b)
}

// LedgerChange describes what ApplyLessonCompletion did to an enrollment.
type LedgerChange struct {
	NewlyCompleted   bool
	Transitioned     bool
	PreviousProgress int
	Progress         int
	CompletedCount   int
}

// ApplyLessonCompletion adds lessonID to the completion set, recomputes progress
// against totalPublished and moves the enrollment to completed once progress hits 100.
// Completed enrollments never move back to active.
func (e *Enrollment) ApplyLessonCompletion(lessonID uuid.UUID, totalPublished int, now time.Time) LedgerChange {
	change := LedgerChange{PreviousProgress: e.Progress}

	ids := e.LessonIDs()
	if !e.HasLesson(lessonID) {
		ids = append(ids, lessonID)
		change.NewlyCompleted = true
	}
	e.SetLessonIDs(ids)

	e.Progress = ComputeProgress(len(ids), totalPublished)
	current := lessonID
	e.CurrentLessonID = &current
	accessed := now
	e.LastAccessedAt = &accessed

	if e.Progress >= 100 && e.Status != EnrollmentStatusCompleted {
		e.Status = EnrollmentStatusCompleted
		completedAt := now
		e.CompletedAt = &completedAt
		change.Transitioned = true
	}

	change.Progress = e.Progress
	change.CompletedCount = len(ids)
	return change
}

// ComputeProgress returns round(100*completed/total) clamped to [0,100].
func ComputeProgress(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(completed) / float64(total)))
	if p > 100 {
		return 100
	}
	return p
}
