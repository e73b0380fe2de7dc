package events

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Kind string

const (
	KindBadgeAwarded      Kind = "badge_awarded"
	KindCertificateIssued Kind = "certificate_issued"
	KindCourseCompleted   Kind = "course_completed"
)

type BadgeAwarded struct {
	BadgeID        uuid.UUID  `json:"badge_id" validate:"required"`
	Slug           string     `json:"slug" validate:"required"`
	Name           string     `json:"name" validate:"required"`
	Rarity         string     `json:"rarity" validate:"required,oneof=common uncommon rare epic legendary"`
	Points         int        `json:"points" validate:"gte=0"`
	TriggerType    string     `json:"trigger_type" validate:"required"`
	SourceEntityID *uuid.UUID `json:"source_entity_id,omitempty"`
}

type CertificateIssued struct {
	CertificateID string    `json:"certificate_id" validate:"required,startswith=CERT-"`
	CourseID      uuid.UUID `json:"course_id" validate:"required"`
	ImageURL      string    `json:"image_url,omitempty" validate:"omitempty,url"`
}

type CourseCompleted struct {
	CourseID    uuid.UUID `json:"course_id" validate:"required"`
	CompletedAt time.Time `json:"completed_at" validate:"required"`
}

// AwardEvent is the notification payload. Exactly one payload matching Kind is set.
type AwardEvent struct {
	Kind       Kind      `json:"kind" validate:"required,oneof=badge_awarded certificate_issued course_completed"`
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	OccurredAt time.Time `json:"occurred_at" validate:"required"`

	Badge       *BadgeAwarded      `json:"badge,omitempty"`
	Certificate *CertificateIssued `json:"certificate,omitempty"`
	Course      *CourseCompleted   `json:"course,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// uuid.UUID is an array, so "required" needs the zero check spelled out.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if id, ok := field.Interface().(uuid.UUID); ok {
			if id == uuid.Nil {
				return nil
			}
			return id.String()
		}
		return nil
	}, uuid.UUID{})
	return v
}

func NewBadgeAwarded(userID uuid.UUID, at time.Time, p BadgeAwarded) AwardEvent {
	return AwardEvent{Kind: KindBadgeAwarded, UserID: userID, OccurredAt: at.UTC(), Badge: &p}
}

func NewCertificateIssued(userID uuid.UUID, at time.Time, p CertificateIssued) AwardEvent {
	return AwardEvent{Kind: KindCertificateIssued, UserID: userID, OccurredAt: at.UTC(), Certificate: &p}
}

func NewCourseCompleted(userID uuid.UUID, at time.Time, p CourseCompleted) AwardEvent {
	return AwardEvent{Kind: KindCourseCompleted, UserID: userID, OccurredAt: at.UTC(), Course: &p}
}

// Validate checks field constraints and that the payload matches Kind.
func (e AwardEvent) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("award event: %w", err)
	}
	set := 0
	for _, present := range []bool{e.Badge != nil, e.Certificate != nil, e.Course != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("award event: want exactly one payload, got %d", set)
	}
	var payload interface{}
	switch e.Kind {
	case KindBadgeAwarded:
		if e.Badge == nil {
			return fmt.Errorf("award event: %s without badge payload", e.Kind)
		}
		payload = e.Badge
	case KindCertificateIssued:
		if e.Certificate == nil {
			return fmt.Errorf("award event: %s without certificate payload", e.Kind)
		}
		payload = e.Certificate
	case KindCourseCompleted:
		if e.Course == nil {
			return fmt.Errorf("award event: %s without course payload", e.Kind)
		}
		payload = e.Course
	}
	if err := validate.Struct(payload); err != nil {
		return fmt.Errorf("award event %s: %w", e.Kind, err)
	}
	return nil
}

func Encode(e AwardEvent) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

func Decode(raw []byte) (AwardEvent, error) {
	var e AwardEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return AwardEvent{}, fmt.Errorf("decode award event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return AwardEvent{}, err
	}
	return e, nil
}
