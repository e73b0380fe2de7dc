package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/kinship-backend/internal/data/aggregates"
	"github.com/yungbote/kinship-backend/internal/data/repos"
	types "github.com/yungbote/kinship-backend/internal/domain"
	domainagg "github.com/yungbote/kinship-backend/internal/domain/aggregates"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

const loginStreakWindow = 400

// TriggerContext carries the ids of the event that fired a trigger.
type TriggerContext struct {
	CourseID uuid.UUID
	LessonID uuid.UUID
	EntityID uuid.UUID
	ScopeID  uuid.UUID
}

// entityFor is the id a badge's specific entity is compared against.
func (tc TriggerContext) entityFor(trigger types.TriggerType) uuid.UUID {
	switch trigger {
	case types.TriggerCourseCompletion:
		return tc.CourseID
	case types.TriggerLessonCompletion:
		return tc.LessonID
	case types.TriggerCommunityPost, types.TriggerCommentCount:
		return tc.ScopeID
	default:
		return uuid.Nil
	}
}

type Award struct {
	Badge     *types.Badge
	UserBadge *types.UserBadge
}

type MyBadges struct {
	Badges      []*types.UserBadge `json:"badges"`
	TotalPoints int                `json:"total_points"`
	Unseen      int                `json:"unseen"`
}

type BadgeService interface {
	// EvaluateTriggers awards every active badge of the trigger type the user now
	// qualifies for. Per-badge failures are joined into the returned error;
	// awards that succeeded are still returned.
	EvaluateTriggers(ctx context.Context, userID uuid.UUID, trigger types.TriggerType, tc TriggerContext) ([]Award, error)
	ListMine(ctx context.Context, userID uuid.UUID) (*MyBadges, error)
	MarkSeen(ctx context.Context, userID uuid.UUID, badgeIDs []uuid.UUID) (int64, error)
}

type badgeService struct {
	log        *logger.Logger
	badges     repos.BadgeRepo
	userBadges repos.UserBadgeRepo
	activities repos.UserActivityRepo
	notifier   AwardNotifier
	metrics    *observability.Metrics
	now        func() time.Time
}

func NewBadgeService(
	log *logger.Logger,
	badges repos.BadgeRepo,
	userBadges repos.UserBadgeRepo,
	activities repos.UserActivityRepo,
	notifier AwardNotifier,
	metrics *observability.Metrics,
) BadgeService {
	return &badgeService{
		log:        log.With("service", "BadgeService"),
		badges:     badges,
		userBadges: userBadges,
		activities: activities,
		notifier:   notifier,
		metrics:    metrics,
		now:        time.Now,
	}
}

func (s *badgeService) EvaluateTriggers(ctx context.Context, userID uuid.UUID, trigger types.TriggerType, tc TriggerContext) (awards []Award, err error) {
	const op = "Badge.EvaluateTriggers"
	if trigger == types.TriggerManual {
		return nil, nil
	}
	if userID == uuid.Nil {
		return nil, domainagg.Validation(op, "user_id is required")
	}
	if !trigger.Valid() {
		return nil, domainagg.Validation(op, fmt.Sprintf("unknown trigger type %q", trigger))
	}

	ctx, span := observability.StartSpan(ctx, op, attribute.String("badge.trigger", string(trigger)))
	defer func() {
		span.SetAttributes(attribute.Int("badge.awarded", len(awards)))
		observability.EndSpan(span, err)
	}()

	candidates, err := s.badges.ListActiveByTrigger(ctx, nil, trigger)
	if err != nil {
		return nil, fmt.Errorf("list badges for %s: %w", trigger, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	heldIDs, err := s.userBadges.ListBadgeIDsByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list held badges: %w", err)
	}
	held := make(map[uuid.UUID]struct{}, len(heldIDs))
	for _, id := range heldIDs {
		held[id] = struct{}{}
	}

	relevant := tc.entityFor(trigger)
	var errs []error
	for _, badge := range candidates {
		if _, ok := held[badge.ID]; ok {
			continue
		}
		if badge.SpecificEntityID != nil && trigger != types.TriggerLoginStreak && *badge.SpecificEntityID != relevant {
			continue
		}
		progress, err := s.progressToward(ctx, userID, badge)
		if err != nil {
			errs = append(errs, fmt.Errorf("badge %s: %w", badge.Slug, err))
			continue
		}
		if progress < badge.Threshold() {
			continue
		}
		award, err := s.award(ctx, userID, badge, trigger, tc)
		if errors.Is(err, domainagg.ErrDuplicateAward) {
			s.log.Debug("badge already awarded", "user_id", userID, "badge", badge.Slug)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("badge %s: %w", badge.Slug, err))
			continue
		}
		awards = append(awards, Award{Badge: badge, UserBadge: award})
	}
	return awards, errors.Join(errs...)
}

// progressToward counts the user's history that the badge's rule measures.
func (s *badgeService) progressToward(ctx context.Context, userID uuid.UUID, badge *types.Badge) (int, error) {
	f := repos.ActivityCountFilter{UserID: userID}
	switch badge.TriggerType {
	case types.TriggerCourseCompletion:
		f.Kind = types.ActivityCourseCompleted
		if badge.SpecificEntityID != nil {
			f.EntityID = *badge.SpecificEntityID
		}
	case types.TriggerLessonCompletion:
		f.Kind = types.ActivityLessonCompleted
		if badge.SpecificEntityID != nil {
			f.EntityID = *badge.SpecificEntityID
		}
	case types.TriggerCommunityPost:
		f.Kind = types.ActivityCommunityPost
		if badge.SpecificEntityID != nil {
			f.ScopeID = *badge.SpecificEntityID
		}
	case types.TriggerCommentCount:
		f.Kind = types.ActivityComment
		if badge.SpecificEntityID != nil {
			f.ScopeID = *badge.SpecificEntityID
		}
	case types.TriggerLoginStreak:
		keys, err := s.activities.ListDedupeKeys(ctx, nil, userID, types.ActivityLogin, loginStreakWindow)
		if err != nil {
			return 0, err
		}
		return CurrentLoginStreak(keys, s.now()), nil
	default:
		return 0, nil
	}
	return s.activities.Count(ctx, nil, f)
}

// award inserts the user badge. Losing the unique (user, badge) race returns
// ErrDuplicateAward.
func (s *badgeService) award(ctx context.Context, userID uuid.UUID, badge *types.Badge, trigger types.TriggerType, tc TriggerContext) (*types.UserBadge, error) {
	now := s.now().UTC()
	ub := &types.UserBadge{
		ID:            uuid.New(),
		UserID:        userID,
		BadgeID:       badge.ID,
		AwardedAt:     now,
		PointsAwarded: badge.Points,
		TriggerType:   trigger,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if src := tc.entityFor(trigger); src != uuid.Nil {
		ub.SourceEntityID = &src
	} else if tc.EntityID != uuid.Nil {
		src := tc.EntityID
		ub.SourceEntityID = &src
	}

	if err := s.userBadges.Create(ctx, nil, ub); err != nil {
		if aggregates.IsUniqueViolation(err) {
			return nil, domainagg.DuplicateAward("Badge.award", err)
		}
		return nil, err
	}
	s.metrics.IncBadgeAwarded(string(trigger))
	s.log.Info("badge awarded", "user_id", userID, "badge", badge.Slug, "trigger", trigger)
	if s.notifier != nil {
		s.notifier.BadgeAwarded(ctx, userID, badge, ub)
	}
	return ub, nil
}

func (s *badgeService) ListMine(ctx context.Context, userID uuid.UUID) (*MyBadges, error) {
	if userID == uuid.Nil {
		return nil, domainagg.Validation("Badge.ListMine", "user_id is required")
	}
	list, err := s.userBadges.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list user badges: %w", err)
	}
	total, err := s.userBadges.TotalPoints(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("total points: %w", err)
	}
	out := &MyBadges{Badges: list, TotalPoints: total}
	for _, ub := range list {
		if !ub.IsSeen {
			out.Unseen++
		}
	}
	return out, nil
}

func (s *badgeService) MarkSeen(ctx context.Context, userID uuid.UUID, badgeIDs []uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, domainagg.Validation("Badge.MarkSeen", "user_id is required")
	}
	return s.userBadges.MarkSeen(ctx, nil, userID, badgeIDs)
}

// CurrentLoginStreak counts consecutive UTC days ending at the most recent
// login. keys are "2006-01-02" dates, newest first; malformed keys end the run.
// A run whose newest day is before yesterday (relative to now) is broken.
func CurrentLoginStreak(keys []string, now time.Time) int {
	if len(keys) == 0 {
		return 0
	}
	prev, err := time.Parse("2006-01-02", keys[0])
	if err != nil {
		return 0
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if prev.After(today) || prev.Before(today.AddDate(0, 0, -1)) {
		return 0
	}
	streak := 1
	for _, k := range keys[1:] {
		day, err := time.Parse("2006-01-02", k)
		if err != nil {
			break
		}
		if day.Equal(prev) {
			continue
		}
		if !day.Equal(prev.AddDate(0, 0, -1)) {
			break
		}
		streak++
		prev = day
	}
	return streak
}
