package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

// CountFilter narrows an activity count. Zero ids are ignored.
type CountFilter struct {
	UserID   uuid.UUID
	Kind     types.ActivityKind
	EntityID uuid.UUID
	ScopeID  uuid.UUID
}

type UserActivityRepo interface {
	// Record inserts the activity unless (user, kind, dedupe key) already exists.
	// It reports whether a row was written.
	Record(ctx context.Context, tx *gorm.DB, a *types.UserActivity) (bool, error)
	Count(ctx context.Context, tx *gorm.DB, f CountFilter) (int, error)
	// ListDedupeKeys returns the user's dedupe keys for kind, newest first.
	ListDedupeKeys(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind types.ActivityKind, limit int) ([]string, error)
}

type userActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserActivityRepo(db *gorm.DB, baseLog *logger.Logger) UserActivityRepo {
	return &userActivityRepo{db: db, log: baseLog.With("repo", "UserActivityRepo")}
}

func (r *userActivityRepo) Record(ctx context.Context, tx *gorm.DB, a *types.UserActivity) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if a == nil || a.UserID == uuid.Nil || a.Kind == "" || a.DedupeKey == "" {
		return false, nil
	}
	now := time.Now().UTC()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = now
	}
	a.CreatedAt = now

	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}, {Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userActivityRepo) Count(ctx context.Context, tx *gorm.DB, f CountFilter) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if f.UserID == uuid.Nil || f.Kind == "" {
		return 0, nil
	}
	q := t.WithContext(ctx).
		Model(&types.UserActivity{}).
		Where("user_id = ? AND kind = ?", f.UserID, f.Kind)
	if f.EntityID != uuid.Nil {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.ScopeID != uuid.Nil {
		q = q.Where("scope_id = ?", f.ScopeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *userActivityRepo) ListDedupeKeys(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind types.ActivityKind, limit int) ([]string, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []string
	if userID == uuid.Nil || kind == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = 400
	}
	if err := t.WithContext(ctx).
		Model(&types.UserActivity{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("dedupe_key DESC").
		Limit(limit).
		Pluck("dedupe_key", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
