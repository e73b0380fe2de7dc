package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/kinship-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedCertificateTemplate(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.CertificateTemplate {
	tb.Helper()
	now := time.Now().UTC()
	tpl := &types.CertificateTemplate{
		ID:          uuid.New(),
		Name:        "tpl-" + uuid.NewString()[:8],
		Title:       "Certificate of Completion",
		Body:        "{{user}} completed {{course}} on {{date}} ({{certificate_id}})",
		AccentColor: "#1f3a5f",
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(tpl).Error; err != nil {
		tb.Fatalf("seed certificate template: %v", err)
	}
	return tpl
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, templateID *uuid.UUID) *types.Course {
	tb.Helper()
	now := time.Now().UTC()
	id := uuid.New()
	c := &types.Course{
		ID:                    id,
		Title:                 "Course " + id.String()[:8],
		Slug:                  "course-" + id.String(),
		Status:                types.CourseStatusPublished,
		CertificateTemplateID: templateID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, index int, status string) *types.Lesson {
	tb.Helper()
	now := time.Now().UTC()
	l := &types.Lesson{
		ID:        uuid.New(),
		CourseID:  courseID,
		Index:     index,
		Title:     fmt.Sprintf("Lesson %d", index),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == types.LessonStatusPublished {
		l.PublishedAt = &now
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

// SeedPublishedLessons creates n published lessons in index order.
func SeedPublishedLessons(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, n int) []*types.Lesson {
	tb.Helper()
	out := make([]*types.Lesson, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, SeedLesson(tb, ctx, tx, courseID, i, types.LessonStatusPublished))
	}
	return out
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, status string) *types.Enrollment {
	tb.Helper()
	now := time.Now().UTC()
	e := &types.Enrollment{
		ID:         uuid.New(),
		UserID:     userID,
		CourseID:   courseID,
		Status:     status,
		EnrolledAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	e.SetLessonIDs(nil)
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedBadge(tb testing.TB, ctx context.Context, tx *gorm.DB, trigger types.TriggerType, requirement int, entityID *uuid.UUID) *types.Badge {
	tb.Helper()
	now := time.Now().UTC()
	id := uuid.New()
	b := &types.Badge{
		ID:               id,
		Slug:             "badge-" + id.String()[:8],
		Name:             "Badge " + id.String()[:8],
		TriggerType:      trigger,
		RequirementCount: requirement,
		SpecificEntityID: entityID,
		Rarity:           "common",
		Points:           10,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed badge: %v", err)
	}
	return b
}

func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind types.ActivityKind, entityID, scopeID *uuid.UUID, dedupe string, at time.Time) *types.UserActivity {
	tb.Helper()
	a := &types.UserActivity{
		ID:         uuid.New(),
		UserID:     userID,
		Kind:       kind,
		EntityID:   entityID,
		ScopeID:    scopeID,
		DedupeKey:  dedupe,
		OccurredAt: at.UTC(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return a
}
