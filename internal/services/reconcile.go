package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/kinship-backend/internal/data/repos"
	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

const reconcilePageSize = 200

type ReconcileOptions struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	DryRun   bool
	// Limit caps the number of enrollments visited; 0 means all.
	Limit       int
	Concurrency int
}

type ReconcileReport struct {
	Scanned             int `json:"scanned"`
	CertificatesIssued  int `json:"certificates_issued"`
	CertificatesMissing int `json:"certificates_missing"`
	BadgesAwarded       int `json:"badges_awarded"`
	Failures            int `json:"failures"`
}

// Reconciler replays the idempotent secondary effects for completed
// enrollments, repairing anything a crash or outage skipped.
type Reconciler interface {
	Run(ctx context.Context, opts ReconcileOptions) (ReconcileReport, error)
}

type reconciler struct {
	log          *logger.Logger
	enrollments  repos.EnrollmentRepo
	courses      repos.CourseRepo
	certRepo     repos.CertificateRepo
	certificates CertificateService
	badges       BadgeService
	metrics      *observability.Metrics
}

func NewReconciler(
	log *logger.Logger,
	enrollments repos.EnrollmentRepo,
	courses repos.CourseRepo,
	certRepo repos.CertificateRepo,
	certificates CertificateService,
	badges BadgeService,
	metrics *observability.Metrics,
) Reconciler {
	return &reconciler{
		log:          log.With("service", "Reconciler"),
		enrollments:  enrollments,
		courses:      courses,
		certRepo:     certRepo,
		certificates: certificates,
		badges:       badges,
		metrics:      metrics,
	}
}

func (r *reconciler) Run(ctx context.Context, opts ReconcileOptions) (ReconcileReport, error) {
	var (
		mu     sync.Mutex
		report ReconcileReport
	)
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	after := uuid.Nil
	for {
		pageSize := reconcilePageSize
		if opts.Limit > 0 {
			remaining := opts.Limit - report.Scanned
			if remaining <= 0 {
				break
			}
			if remaining < pageSize {
				pageSize = remaining
			}
		}
		page, err := r.enrollments.ListCompleted(ctx, nil, repos.EnrollmentFilter{
			UserID:   opts.UserID,
			CourseID: opts.CourseID,
			AfterID:  after,
			Limit:    pageSize,
		})
		if err != nil {
			return report, fmt.Errorf("list completed enrollments: %w", err)
		}
		if len(page) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, e := range page {
			e := e
			g.Go(func() error {
				res := r.reconcileOne(gctx, e, opts.DryRun)
				mu.Lock()
				report.CertificatesIssued += res.CertificatesIssued
				report.CertificatesMissing += res.CertificatesMissing
				report.BadgesAwarded += res.BadgesAwarded
				report.Failures += res.Failures
				mu.Unlock()
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}
		report.Scanned += len(page)
		after = page[len(page)-1].ID
		if len(page) < pageSize {
			break
		}
	}
	r.log.Info("reconcile finished",
		"scanned", report.Scanned,
		"certificates_issued", report.CertificatesIssued,
		"certificates_missing", report.CertificatesMissing,
		"badges_awarded", report.BadgesAwarded,
		"failures", report.Failures,
		"dry_run", opts.DryRun,
	)
	return report, nil
}

func (r *reconciler) reconcileOne(ctx context.Context, e *types.Enrollment, dryRun bool) ReconcileReport {
	var out ReconcileReport
	if dryRun {
		missing, err := r.certificateMissing(ctx, e)
		if err != nil {
			out.Failures++
			r.metrics.IncReconcile("failed")
			r.log.Warn("reconcile check failed", "enrollment_id", e.ID, "error", err)
			return out
		}
		if missing {
			out.CertificatesMissing++
			r.metrics.IncReconcile("missing")
		} else {
			r.metrics.IncReconcile("ok")
		}
		return out
	}

	if _, issued, err := r.certificates.IssueCertificateIfEligible(ctx, e.UserID, e.CourseID); err != nil {
		out.Failures++
		r.log.Warn("reconcile certificate failed", "enrollment_id", e.ID, "error", err)
	} else if issued {
		out.CertificatesIssued++
	}

	awards, err := r.badges.EvaluateTriggers(ctx, e.UserID, types.TriggerCourseCompletion, TriggerContext{CourseID: e.CourseID})
	out.BadgesAwarded += len(awards)
	if err != nil {
		out.Failures++
		r.log.Warn("reconcile course badges failed", "enrollment_id", e.ID, "error", err)
	}
	for _, lessonID := range e.LessonIDs() {
		awards, err := r.badges.EvaluateTriggers(ctx, e.UserID, types.TriggerLessonCompletion, TriggerContext{CourseID: e.CourseID, LessonID: lessonID})
		out.BadgesAwarded += len(awards)
		if err != nil {
			out.Failures++
			r.log.Warn("reconcile lesson badges failed", "enrollment_id", e.ID, "lesson_id", lessonID, "error", err)
		}
	}

	switch {
	case out.Failures > 0:
		r.metrics.IncReconcile("failed")
	case out.CertificatesIssued > 0 || out.BadgesAwarded > 0:
		r.metrics.IncReconcile("repaired")
	default:
		r.metrics.IncReconcile("ok")
	}
	return out
}

func (r *reconciler) certificateMissing(ctx context.Context, e *types.Enrollment) (bool, error) {
	course, err := r.courses.GetByID(ctx, nil, e.CourseID)
	if err != nil {
		return false, err
	}
	if course == nil || !course.HasCertificate() {
		return false, nil
	}
	n, err := r.certRepo.CountByUserAndCourse(ctx, nil, e.UserID, e.CourseID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
