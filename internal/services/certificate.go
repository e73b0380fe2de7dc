package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/kinship-backend/internal/data/aggregates"
	"github.com/yungbote/kinship-backend/internal/data/repos"
	types "github.com/yungbote/kinship-backend/internal/domain"
	domainagg "github.com/yungbote/kinship-backend/internal/domain/aggregates"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/gcp"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

const certificateIDAttempts = 5

type CertificateService interface {
	// IssueCertificateIfEligible returns the user's certificate for the course,
	// minting it when missing. issued reports whether this call created it.
	IssueCertificateIfEligible(ctx context.Context, userID, courseID uuid.UUID) (*types.Certificate, bool, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*types.Certificate, error)
	Verify(ctx context.Context, certificateID string) (*types.Certificate, error)
}

type CertificateServiceDeps struct {
	Log          *logger.Logger
	Courses      repos.CourseRepo
	Templates    repos.CertificateTemplateRepo
	Certificates repos.CertificateRepo
	Enrollments  repos.EnrollmentRepo
	Notifier     AwardNotifier
	Metrics      *observability.Metrics

	// Renderer and Store are optional; artwork is skipped unless both are set.
	Renderer CertificateRenderer
	Store    gcp.ObjectStore

	Now   func() time.Time
	NewID func(now time.Time) string
}

type certificateService struct {
	deps CertificateServiceDeps
	log  *logger.Logger
}

func NewCertificateService(deps CertificateServiceDeps) CertificateService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = NewCertificateID
	}
	return &certificateService{deps: deps, log: deps.Log.With("service", "CertificateService")}
}

// NewCertificateID formats CERT-<epoch millis>-<0..999>.
func NewCertificateID(now time.Time) string {
	return fmt.Sprintf("CERT-%d-%d", now.UnixMilli(), rand.Intn(1000))
}

func (s *certificateService) IssueCertificateIfEligible(ctx context.Context, userID, courseID uuid.UUID) (cert *types.Certificate, issued bool, err error) {
	const op = "Certificate.IssueIfEligible"
	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("course_id", courseID.String()),
	)
	defer func() {
		span.SetAttributes(attribute.Bool("certificate.issued", issued))
		observability.EndSpan(span, err)
	}()

	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, false, domainagg.Validation(op, "user_id and course_id are required")
	}

	course, err := s.deps.Courses.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, false, domainagg.NotFound(op, "course")
	}
	if !course.HasCertificate() {
		s.deps.Metrics.IncCertificate("skipped")
		return nil, false, nil
	}
	tpl, err := s.deps.Templates.GetByID(ctx, nil, *course.CertificateTemplateID)
	if err != nil {
		return nil, false, fmt.Errorf("load certificate template: %w", err)
	}
	if tpl == nil || !tpl.IsActive {
		return nil, false, domainagg.NotFound(op, "certificate template")
	}

	existing, err := s.deps.Certificates.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("load certificate: %w", err)
	}
	if existing != nil {
		s.deps.Metrics.IncCertificate("existing")
		return existing, false, nil
	}

	var enrollmentID *uuid.UUID
	if e, err := s.deps.Enrollments.GetByUserAndCourse(ctx, nil, userID, courseID); err == nil && e != nil {
		id := e.ID
		enrollmentID = &id
	}

	for attempt := 1; attempt <= certificateIDAttempts; attempt++ {
		now := s.deps.Now().UTC()
		candidate := &types.Certificate{
			ID:            uuid.New(),
			CertificateID: s.deps.NewID(now),
			UserID:        userID,
			CourseID:      courseID,
			TemplateID:    tpl.ID,
			EnrollmentID:  enrollmentID,
			IssueDate:     now,
			Status:        types.CertificateStatusActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		createErr := s.deps.Certificates.Create(ctx, nil, candidate)
		if createErr == nil {
			s.deps.Metrics.IncCertificate("issued")
			s.log.Info("certificate issued", "user_id", userID, "course_id", courseID, "certificate_id", candidate.CertificateID)
			s.attachArtwork(ctx, course, tpl, candidate)
			if s.deps.Notifier != nil {
				s.deps.Notifier.CertificateIssued(ctx, candidate)
			}
			return candidate, true, nil
		}
		if !aggregates.IsUniqueViolation(createErr) {
			s.deps.Metrics.IncCertificate("failed")
			return nil, false, fmt.Errorf("create certificate: %w", createErr)
		}

		// Lost the race for (user, course), or collided on certificate_id.
		winner, err := s.deps.Certificates.GetByUserAndCourse(ctx, nil, userID, courseID)
		if err != nil {
			return nil, false, fmt.Errorf("reload certificate: %w", err)
		}
		if winner != nil {
			s.deps.Metrics.IncCertificate("existing")
			return winner, false, nil
		}
		s.log.Debug("certificate id collision; regenerating", "certificate_id", candidate.CertificateID, "attempt", attempt)
	}
	s.deps.Metrics.IncCertificate("failed")
	return nil, false, domainagg.NewError(domainagg.CodeConflict, op, "could not allocate a unique certificate id", nil)
}

func (s *certificateService) attachArtwork(ctx context.Context, course *types.Course, tpl *types.CertificateTemplate, cert *types.Certificate) {
	if s.deps.Renderer == nil || s.deps.Store == nil {
		return
	}
	png, err := s.deps.Renderer.Render(CertificateArtwork{
		Template:      tpl,
		CourseTitle:   course.Title,
		CertificateID: cert.CertificateID,
		IssuedAt:      cert.IssueDate,
	})
	if err != nil {
		s.deps.Metrics.IncSecondaryFailure("certificate_render")
		s.log.Warn("certificate render failed", "certificate_id", cert.CertificateID, "error", err)
		return
	}
	key := fmt.Sprintf("certificates/%s/%s.png", cert.UserID, strings.ToLower(cert.CertificateID))
	if err := s.deps.Store.Upload(ctx, key, &png); err != nil {
		s.deps.Metrics.IncSecondaryFailure("certificate_upload")
		s.log.Warn("certificate upload failed", "certificate_id", cert.CertificateID, "error", err)
		return
	}
	url := s.deps.Store.PublicURL(key)
	if err := s.deps.Certificates.UpdateImage(ctx, nil, cert.ID, key, url); err != nil {
		s.deps.Metrics.IncSecondaryFailure("certificate_image_save")
		s.log.Warn("certificate image save failed", "certificate_id", cert.CertificateID, "error", err)
		return
	}
	cert.ImageKey, cert.ImageURL = key, url
}

func (s *certificateService) ListMine(ctx context.Context, userID uuid.UUID) ([]*types.Certificate, error) {
	if userID == uuid.Nil {
		return nil, domainagg.Validation("Certificate.ListMine", "user_id is required")
	}
	return s.deps.Certificates.ListByUser(ctx, nil, userID)
}

func (s *certificateService) Verify(ctx context.Context, certificateID string) (*types.Certificate, error) {
	const op = "Certificate.Verify"
	certificateID = strings.TrimSpace(certificateID)
	if !strings.HasPrefix(certificateID, "CERT-") {
		return nil, domainagg.Validation(op, "malformed certificate id")
	}
	cert, err := s.deps.Certificates.GetByCertificateID(ctx, nil, certificateID)
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}
	if cert == nil || cert.Status != types.CertificateStatusActive {
		return nil, domainagg.NotFound(op, "certificate")
	}
	return cert, nil
}
