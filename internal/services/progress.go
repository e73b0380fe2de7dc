package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/kinship-backend/internal/data/repos"
	types "github.com/yungbote/kinship-backend/internal/domain"
	domainagg "github.com/yungbote/kinship-backend/internal/domain/aggregates"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type LessonCompletion struct {
	Enrollment      *types.Enrollment  `json:"enrollment"`
	Progress        int                `json:"progress"`
	Status          string             `json:"status"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	NewlyCompleted  bool               `json:"newly_completed"`
	CourseCompleted bool               `json:"course_completed"`
	Certificate     *types.Certificate `json:"certificate,omitempty"`
	Badges          []*types.Badge     `json:"badges,omitempty"`
}

type ProgressService interface {
	// RecordLessonCompletion commits the ledger update, then runs the
	// best-effort award pipeline. Only ledger failures are returned.
	RecordLessonCompletion(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*LessonCompletion, error)
	GetEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)
}

type progressService struct {
	log          *logger.Logger
	ledger       domainagg.ProgressAggregate
	enrollments  repos.EnrollmentRepo
	certificates CertificateService
	badges       BadgeService
	notifier     AwardNotifier
	metrics      *observability.Metrics
	now          func() time.Time
}

func NewProgressService(
	log *logger.Logger,
	ledger domainagg.ProgressAggregate,
	enrollments repos.EnrollmentRepo,
	certificates CertificateService,
	badges BadgeService,
	notifier AwardNotifier,
	metrics *observability.Metrics,
) ProgressService {
	return &progressService{
		log:          log.With("service", "ProgressService"),
		ledger:       ledger,
		enrollments:  enrollments,
		certificates: certificates,
		badges:       badges,
		notifier:     notifier,
		metrics:      metrics,
		now:          time.Now,
	}
}

func (s *progressService) RecordLessonCompletion(ctx context.Context, userID, courseID, lessonID uuid.UUID) (out *LessonCompletion, err error) {
	ctx, span := observability.StartSpan(ctx, "ProgressService.RecordLessonCompletion",
		attribute.String("course_id", courseID.String()),
		attribute.String("lesson_id", lessonID.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	res, err := s.ledger.RecordLessonCompletion(ctx, domainagg.RecordLessonCompletionInput{
		UserID:   userID,
		CourseID: courseID,
		LessonID: lessonID,
		Now:      s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncLessonCompletion(res.NewlyCompleted)
	span.SetAttributes(
		attribute.Int("progress", res.Progress),
		attribute.Bool("course_completed", res.CourseCompleted),
		attribute.Int("ledger.attempts", res.Attempts),
	)

	out = &LessonCompletion{
		Enrollment:      res.Enrollment,
		Progress:        res.Progress,
		Status:          res.Status,
		CompletedAt:     res.CompletedAt,
		NewlyCompleted:  res.NewlyCompleted,
		CourseCompleted: res.CourseCompleted,
	}

	// Secondary effects run on a context that survives client disconnects.
	effectsCtx := context.WithoutCancel(ctx)
	out.Badges = append(out.Badges, s.evaluate(effectsCtx, userID, types.TriggerLessonCompletion, TriggerContext{CourseID: courseID, LessonID: lessonID})...)

	if res.CourseCompleted {
		s.metrics.IncCourseCompletion()
		s.log.Info("course completed", "user_id", userID, "course_id", courseID)
		out.Certificate = s.issueCertificate(effectsCtx, userID, courseID)
		out.Badges = append(out.Badges, s.evaluate(effectsCtx, userID, types.TriggerCourseCompletion, TriggerContext{CourseID: courseID})...)
		if s.notifier != nil {
			completedAt := s.now().UTC()
			if res.CompletedAt != nil {
				completedAt = *res.CompletedAt
			}
			s.notifier.CourseCompleted(effectsCtx, userID, courseID, completedAt)
		}
	}
	return out, nil
}

func (s *progressService) issueCertificate(ctx context.Context, userID, courseID uuid.UUID) *types.Certificate {
	if s.certificates == nil {
		return nil
	}
	cert, _, err := s.certificates.IssueCertificateIfEligible(ctx, userID, courseID)
	if err != nil {
		s.metrics.IncSecondaryFailure("certificate")
		s.log.Warn("certificate issuance failed", "user_id", userID, "course_id", courseID, "error", err)
		return nil
	}
	return cert
}

func (s *progressService) evaluate(ctx context.Context, userID uuid.UUID, trigger types.TriggerType, tc TriggerContext) []*types.Badge {
	if s.badges == nil {
		return nil
	}
	awards, err := s.badges.EvaluateTriggers(ctx, userID, trigger, tc)
	if err != nil {
		s.metrics.IncSecondaryFailure("badges_" + string(trigger))
		s.log.Warn("badge evaluation failed", "user_id", userID, "trigger", trigger, "error", err)
	}
	out := make([]*types.Badge, 0, len(awards))
	for _, a := range awards {
		out = append(out, a.Badge)
	}
	return out
}

func (s *progressService) GetEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	const op = "Progress.GetEnrollment"
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, domainagg.Validation(op, "user_id and course_id are required")
	}
	e, err := s.enrollments.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if e == nil {
		return nil, domainagg.NotEnrolled(op)
	}
	return e, nil
}
