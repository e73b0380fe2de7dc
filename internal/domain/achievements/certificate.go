package achievements

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CertificateStatusActive  = "active"
	CertificateStatusRevoked = "revoked"
)

type CertificateTemplate struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name  string `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Title string `gorm:"column:title;not null" json:"title"`
	// Body supports {{user}}, {{course}}, {{date}} and {{certificate_id}}.
	Body        string `gorm:"column:body;type:text" json:"body"`
	AccentColor string `gorm:"column:accent_color;not null;default:'#1f3a5f'" json:"accent_color"`
	IsActive    bool   `gorm:"column:is_active;not null" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CertificateTemplate) TableName() string { return "certificate_template" }

// RenderBody fills the template placeholders.
func (t *CertificateTemplate) RenderBody(userName, courseTitle, certificateID string, issued time.Time) string {
	if t == nil {
		return ""
	}
	r := strings.NewReplacer(
		"{{user}}", userName,
		"{{course}}", courseTitle,
		"{{date}}", issued.UTC().Format("January 2, 2006"),
		"{{certificate_id}}", certificateID,
	)
	return r.Replace(t.Body)
}

type Certificate struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CertificateID string    `gorm:"column:certificate_id;not null;uniqueIndex" json:"certificate_id"`

	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_user_course,priority:1" json:"user_id"`
	CourseID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_user_course,priority:2;index" json:"course_id"`
	TemplateID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"template_id"`
	EnrollmentID *uuid.UUID `gorm:"type:uuid;index" json:"enrollment_id,omitempty"`

	IssueDate time.Time `gorm:"column:issue_date;not null" json:"issue_date"`
	Status    string    `gorm:"column:status;not null;default:'active';index" json:"status"`

	ImageKey string `gorm:"column:image_key" json:"image_key,omitempty"`
	ImageURL string `gorm:"column:image_url" json:"image_url,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Certificate) TableName() string { return "certificate" }
