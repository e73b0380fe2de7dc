package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

// EnrollmentFilter narrows ListCompleted for reconciliation sweeps.
type EnrollmentFilter struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	AfterID  uuid.UUID
	Limit    int
}

type EnrollmentRepo interface {
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error)
	ListCompleted(ctx context.Context, tx *gorm.DB, f EnrollmentFilter) ([]*types.Enrollment, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var row types.Enrollment
	if err := t.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// ListCompleted pages completed enrollments by id so a sweep can resume with AfterID.
func (r *enrollmentRepo) ListCompleted(ctx context.Context, tx *gorm.DB, f EnrollmentFilter) ([]*types.Enrollment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}
	if limit > 2000 {
		limit = 2000
	}
	q := t.WithContext(ctx).Where("status = ?", types.EnrollmentStatusCompleted)
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.CourseID != uuid.Nil {
		q = q.Where("course_id = ?", f.CourseID)
	}
	if f.AfterID != uuid.Nil {
		q = q.Where("id > ?", f.AfterID)
	}
	var out []*types.Enrollment
	if err := q.Order("id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
