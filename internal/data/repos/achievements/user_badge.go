package achievements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type UserBadgeRepo interface {
	// Create is a plain insert; a (user, badge) duplicate surfaces as a unique violation.
	Create(ctx context.Context, tx *gorm.DB, ub *types.UserBadge) error
	ListBadgeIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error)
	MarkSeen(ctx context.Context, tx *gorm.DB, userID uuid.UUID, badgeIDs []uuid.UUID) (int64, error)
	TotalPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
}

type userBadgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserBadgeRepo(db *gorm.DB, baseLog *logger.Logger) UserBadgeRepo {
	return &userBadgeRepo{db: db, log: baseLog.With("repo", "UserBadgeRepo")}
}

func (r *userBadgeRepo) Create(ctx context.Context, tx *gorm.DB, ub *types.UserBadge) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if ub == nil {
		return nil
	}
	now := time.Now().UTC()
	if ub.ID == uuid.Nil {
		ub.ID = uuid.New()
	}
	if ub.AwardedAt.IsZero() {
		ub.AwardedAt = now
	}
	ub.CreatedAt = now
	ub.UpdatedAt = now
	return t.WithContext(ctx).Omit("Badge").Create(ub).Error
}

func (r *userBadgeRepo) ListBadgeIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Model(&types.UserBadge{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userBadgeRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.UserBadge
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSeen flags the given badges as seen; an empty list marks all of the user's badges.
func (r *userBadgeRepo) MarkSeen(ctx context.Context, tx *gorm.DB, userID uuid.UUID, badgeIDs []uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return 0, nil
	}
	q := t.WithContext(ctx).
		Model(&types.UserBadge{}).
		Where("user_id = ? AND is_seen = ?", userID, false)
	if len(badgeIDs) > 0 {
		q = q.Where("badge_id IN ?", badgeIDs)
	}
	res := q.Updates(map[string]interface{}{
		"is_seen":    true,
		"updated_at": time.Now().UTC(),
	})
	return res.RowsAffected, res.Error
}

func (r *userBadgeRepo) TotalPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var total int64
	if err := t.WithContext(ctx).
		Model(&types.UserBadge{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points_awarded), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}
