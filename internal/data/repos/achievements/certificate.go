package achievements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type CertificateRepo interface {
	// Create is a plain insert; unique violations are returned to the caller untouched.
	Create(ctx context.Context, tx *gorm.DB, cert *types.Certificate) error
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Certificate, error)
	GetByCertificateID(ctx context.Context, tx *gorm.DB, certificateID string) (*types.Certificate, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Certificate, error)
	CountByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (int, error)
	UpdateImage(ctx context.Context, tx *gorm.DB, id uuid.UUID, key, url string) error
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (r *certificateRepo) Create(ctx context.Context, tx *gorm.DB, cert *types.Certificate) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if cert == nil {
		return nil
	}
	now := time.Now().UTC()
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}
	if cert.Status == "" {
		cert.Status = types.CertificateStatusActive
	}
	if cert.IssueDate.IsZero() {
		cert.IssueDate = now
	}
	cert.CreatedAt = now
	cert.UpdatedAt = now
	return t.WithContext(ctx).Create(cert).Error
}

func (r *certificateRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Certificate, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var row types.Certificate
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

func (r *certificateRepo) GetByCertificateID(ctx context.Context, tx *gorm.DB, certificateID string) (*types.Certificate, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if certificateID == "" {
		return nil, nil
	}
	var row types.Certificate
	if err := t.WithContext(ctx).
		Where("certificate_id = ?", certificateID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *certificateRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Certificate, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Certificate
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issue_date DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *certificateRepo) CountByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).
		Model(&types.Certificate{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *certificateRepo) UpdateImage(ctx context.Context, tx *gorm.DB, id uuid.UUID, key, url string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.Certificate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"image_key":  key,
			"image_url":  url,
			"updated_at": time.Now().UTC(),
		}).Error
}
