package aggregates

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/kinship-backend/internal/data/repos"
	types "github.com/yungbote/kinship-backend/internal/domain"
	domainagg "github.com/yungbote/kinship-backend/internal/domain/aggregates"
	"github.com/yungbote/kinship-backend/internal/platform/dbctx"
)

const defaultProgressCASAttempts = 3

var errStaleEnrollment = errors.New("enrollment version changed")

type ProgressAggregateDeps struct {
	Base BaseDeps

	Enrollments repos.EnrollmentRepo
	Lessons     repos.LessonRepo
	Activities  repos.UserActivityRepo

	// MaxAttempts bounds compare-and-set retries; <= 0 means 3.
	MaxAttempts int
}

type progressAggregate struct {
	deps ProgressAggregateDeps
}

func NewProgressAggregate(deps ProgressAggregateDeps) domainagg.ProgressAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.MaxAttempts <= 0 {
		deps.MaxAttempts = defaultProgressCASAttempts
	}
	return &progressAggregate{deps: deps}
}

func (a *progressAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressAggregateContract
}

func (a *progressAggregate) RecordLessonCompletion(ctx context.Context, in domainagg.RecordLessonCompletionInput) (domainagg.RecordLessonCompletionResult, error) {
	const op = "Progress.RecordLessonCompletion"
	var out domainagg.RecordLessonCompletionResult

	if in.UserID == uuid.Nil || in.CourseID == uuid.Nil || in.LessonID == uuid.Nil {
		return out, domainagg.Validation(op, "user_id, course_id and lesson_id are required")
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	var lastErr error
	for attempt := 1; attempt <= a.deps.MaxAttempts; attempt++ {
		out = domainagg.RecordLessonCompletionResult{}
		err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
			return a.apply(dbc, op, in, now, &out)
		})
		if err == nil {
			out.Attempts = attempt
			return out, nil
		}
		if !errors.Is(err, errStaleEnrollment) {
			return domainagg.RecordLessonCompletionResult{}, err
		}
		lastErr = err
		if attempt < a.deps.MaxAttempts {
			a.deps.Base.Hooks.IncRetry(op)
		}
	}
	return domainagg.RecordLessonCompletionResult{}, domainagg.NewError(
		domainagg.CodeConflict, op, "enrollment changed concurrently; retries exhausted", lastErr,
	)
}

func (a *progressAggregate) apply(dbc dbctx.Context, op string, in domainagg.RecordLessonCompletionInput, now time.Time, out *domainagg.RecordLessonCompletionResult) error {
	enrollment, err := a.deps.Enrollments.GetByUserAndCourse(dbc.Ctx, dbc.Tx, in.UserID, in.CourseID)
	if err != nil {
		return err
	}
	// Completed enrollments stay recordable so the resume position keeps moving.
	if enrollment == nil {
		return domainagg.NotEnrolled(op)
	}
	if err := RequireStatusAllowed(enrollment.Status, types.EnrollmentStatusActive, types.EnrollmentStatusCompleted); err != nil {
		return domainagg.NewError(domainagg.CodeNotEnrolled, op, "enrollment status "+enrollment.Status+" cannot record progress", err)
	}

	lesson, err := a.deps.Lessons.GetByID(dbc.Ctx, dbc.Tx, in.LessonID)
	if err != nil {
		return err
	}
	if lesson == nil || lesson.CourseID != in.CourseID || !lesson.IsPublished() {
		return domainagg.NotFound(op, "lesson")
	}

	total, err := a.deps.Lessons.CountPublishedByCourse(dbc.Ctx, dbc.Tx, in.CourseID)
	if err != nil {
		return err
	}

	expectedVersion := enrollment.Version
	change := enrollment.ApplyLessonCompletion(in.LessonID, total, now)
	enrollment.UpdatedAt = now

	ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, enrollment.TableName(), enrollment.ID, expectedVersion, map[string]any{
		"completed_lessons": enrollment.CompletedLessons,
		"current_lesson_id": enrollment.CurrentLessonID,
		"last_accessed_at":  enrollment.LastAccessedAt,
		"progress":          enrollment.Progress,
		"status":            enrollment.Status,
		"completed_at":      enrollment.CompletedAt,
		"updated_at":        enrollment.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if !ok {
		return errors.Join(RequireCASSuccess(false, "enrollment version mismatch"), errStaleEnrollment)
	}
	enrollment.Version = expectedVersion + 1

	if change.NewlyCompleted {
		lessonID, courseID := in.LessonID, in.CourseID
		if _, err := a.deps.Activities.Record(dbc.Ctx, dbc.Tx, &types.UserActivity{
			UserID:     in.UserID,
			Kind:       types.ActivityLessonCompleted,
			EntityID:   &lessonID,
			ScopeID:    &courseID,
			DedupeKey:  lessonID.String(),
			OccurredAt: now,
		}); err != nil {
			return err
		}
	}
	if change.Transitioned {
		courseID := in.CourseID
		if _, err := a.deps.Activities.Record(dbc.Ctx, dbc.Tx, &types.UserActivity{
			UserID:     in.UserID,
			Kind:       types.ActivityCourseCompleted,
			EntityID:   &courseID,
			DedupeKey:  courseID.String(),
			OccurredAt: now,
		}); err != nil {
			return err
		}
	}

	out.Enrollment = enrollment
	out.Progress = enrollment.Progress
	out.Status = enrollment.Status
	out.CompletedAt = enrollment.CompletedAt
	out.CompletedCount = change.CompletedCount
	out.TotalPublished = total
	out.NewlyCompleted = change.NewlyCompleted
	out.CourseCompleted = change.Transitioned
	return nil
}
