package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/domain/events"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/realtime/bus"
)

// AwardNotifier publishes award events. Delivery is best-effort: failures are
// logged and counted, never returned.
type AwardNotifier interface {
	BadgeAwarded(ctx context.Context, userID uuid.UUID, badge *types.Badge, award *types.UserBadge)
	CertificateIssued(ctx context.Context, cert *types.Certificate)
	CourseCompleted(ctx context.Context, userID, courseID uuid.UUID, completedAt time.Time)
}

type awardNotifier struct {
	log     *logger.Logger
	bus     bus.Bus
	metrics *observability.Metrics
}

func NewAwardNotifier(log *logger.Logger, b bus.Bus, metrics *observability.Metrics) AwardNotifier {
	return &awardNotifier{
		log:     log.With("service", "AwardNotifier"),
		bus:     b,
		metrics: metrics,
	}
}

func (n *awardNotifier) BadgeAwarded(ctx context.Context, userID uuid.UUID, badge *types.Badge, award *types.UserBadge) {
	if badge == nil || award == nil || userID == uuid.Nil {
		return
	}
	rarity := badge.Rarity
	if rarity == "" {
		rarity = types.RarityCommon
	}
	n.publish(ctx, events.NewBadgeAwarded(userID, award.AwardedAt, events.BadgeAwarded{
		BadgeID:        badge.ID,
		Slug:           badge.Slug,
		Name:           badge.Name,
		Rarity:         rarity,
		Points:         award.PointsAwarded,
		TriggerType:    string(award.TriggerType),
		SourceEntityID: award.SourceEntityID,
	}))
}

func (n *awardNotifier) CertificateIssued(ctx context.Context, cert *types.Certificate) {
	if cert == nil || cert.UserID == uuid.Nil {
		return
	}
	n.publish(ctx, events.NewCertificateIssued(cert.UserID, cert.IssueDate, events.CertificateIssued{
		CertificateID: cert.CertificateID,
		CourseID:      cert.CourseID,
		ImageURL:      cert.ImageURL,
	}))
}

func (n *awardNotifier) CourseCompleted(ctx context.Context, userID, courseID uuid.UUID, completedAt time.Time) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return
	}
	n.publish(ctx, events.NewCourseCompleted(userID, completedAt, events.CourseCompleted{
		CourseID:    courseID,
		CompletedAt: completedAt,
	}))
}

func (n *awardNotifier) publish(ctx context.Context, evt events.AwardEvent) {
	if n == nil || n.bus == nil {
		return
	}
	if err := n.bus.Publish(ctx, evt); err != nil {
		n.metrics.IncAwardEvent(string(evt.Kind), "failed")
		n.metrics.IncSecondaryFailure("notify")
		n.log.Warn("award event publish failed", "kind", evt.Kind, "user_id", evt.UserID, "error", err)
		return
	}
	n.metrics.IncAwardEvent(string(evt.Kind), "published")
}
