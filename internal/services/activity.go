package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/kinship-backend/internal/data/repos"
	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/domain/activity"
	domainagg "github.com/yungbote/kinship-backend/internal/domain/aggregates"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type ActivityInput struct {
	Kind       types.ActivityKind `json:"kind" binding:"required"`
	EntityID   uuid.UUID          `json:"entity_id"`
	ScopeID    uuid.UUID          `json:"scope_id"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type ActivityResult struct {
	Recorded bool    `json:"recorded"`
	Awards   []Award `json:"-"`
}

type ActivityService interface {
	// RecordActivity stores a login, community post or comment and evaluates the
	// matching badge trigger. Lesson and course activity is written by the ledger.
	RecordActivity(ctx context.Context, userID uuid.UUID, in ActivityInput) (*ActivityResult, error)
}

type activityService struct {
	log        *logger.Logger
	activities repos.UserActivityRepo
	badges     BadgeService
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewActivityService(log *logger.Logger, activities repos.UserActivityRepo, badges BadgeService, metrics *observability.Metrics) ActivityService {
	return &activityService{
		log:        log.With("service", "ActivityService"),
		activities: activities,
		badges:     badges,
		metrics:    metrics,
		now:        time.Now,
	}
}

var activityTriggers = map[types.ActivityKind]types.TriggerType{
	types.ActivityLogin:         types.TriggerLoginStreak,
	types.ActivityCommunityPost: types.TriggerCommunityPost,
	types.ActivityComment:       types.TriggerCommentCount,
}

func (s *activityService) RecordActivity(ctx context.Context, userID uuid.UUID, in ActivityInput) (*ActivityResult, error) {
	const op = "Activity.Record"
	if userID == uuid.Nil {
		return nil, domainagg.Validation(op, "user_id is required")
	}
	trigger, ok := activityTriggers[in.Kind]
	if !ok {
		return nil, domainagg.Validation(op, fmt.Sprintf("activity kind %q cannot be recorded directly", in.Kind))
	}
	// Logins feed streak badges, so their day comes from the server clock.
	at := in.OccurredAt
	if at.IsZero() || in.Kind == types.ActivityLogin {
		at = s.now()
	}
	at = at.UTC()

	row := &types.UserActivity{UserID: userID, Kind: in.Kind, OccurredAt: at}
	if in.Kind == types.ActivityLogin {
		row.DedupeKey = activity.LoginDedupeKey(at)
	} else {
		if in.EntityID == uuid.Nil {
			return nil, domainagg.Validation(op, "entity_id is required")
		}
		id := in.EntityID
		row.EntityID = &id
		row.DedupeKey = id.String()
	}
	if in.ScopeID != uuid.Nil {
		scope := in.ScopeID
		row.ScopeID = &scope
	}

	inserted, err := s.activities.Record(ctx, nil, row)
	if err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}
	s.metrics.IncActivity(string(in.Kind), inserted)
	out := &ActivityResult{Recorded: inserted}
	if !inserted || s.badges == nil {
		return out, nil
	}

	awards, err := s.badges.EvaluateTriggers(ctx, userID, trigger, TriggerContext{EntityID: in.EntityID, ScopeID: in.ScopeID})
	if err != nil {
		s.metrics.IncSecondaryFailure("badges_" + string(trigger))
		s.log.Warn("badge evaluation failed", "user_id", userID, "trigger", trigger, "error", err)
	}
	out.Awards = awards
	return out, nil
}
