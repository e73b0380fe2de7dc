package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

type Course struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Slug        string `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`
	Status      string `gorm:"column:status;not null;default:'draft';index" json:"status"`

	// Certificates are only minted for courses that point at a template.
	CertificateTemplateID *uuid.UUID `gorm:"type:uuid;column:certificate_template_id;index" json:"certificate_template_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

func (c *Course) HasCertificate() bool {
	return c != nil && c.CertificateTemplateID != nil && *c.CertificateTemplateID != uuid.Nil
}
