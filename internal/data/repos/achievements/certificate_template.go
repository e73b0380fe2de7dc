package achievements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type CertificateTemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tpl *types.CertificateTemplate) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CertificateTemplate, error)
}

type certificateTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateTemplateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateTemplateRepo {
	return &certificateTemplateRepo{db: db, log: baseLog.With("repo", "CertificateTemplateRepo")}
}

func (r *certificateTemplateRepo) Create(ctx context.Context, tx *gorm.DB, tpl *types.CertificateTemplate) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if tpl == nil {
		return nil
	}
	now := time.Now().UTC()
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	return t.WithContext(ctx).Create(tpl).Error
}

func (r *certificateTemplateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CertificateTemplate, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.CertificateTemplate
	if err := t.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
