package achievements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type BadgeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, badge *types.Badge) error
	UpsertBySlug(ctx context.Context, tx *gorm.DB, badges []*types.Badge) error
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Badge, error)
	ListActiveByTrigger(ctx context.Context, tx *gorm.DB, trigger types.TriggerType) ([]*types.Badge, error)
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return &badgeRepo{db: db, log: baseLog.With("repo", "BadgeRepo")}
}

func (r *badgeRepo) Create(ctx context.Context, tx *gorm.DB, badge *types.Badge) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if badge == nil {
		return nil
	}
	now := time.Now().UTC()
	if badge.ID == uuid.Nil {
		badge.ID = uuid.New()
	}
	badge.CreatedAt = now
	badge.UpdatedAt = now
	return t.WithContext(ctx).Create(badge).Error
}

// UpsertBySlug inserts catalog badges or refreshes the definition of existing slugs.
func (r *badgeRepo) UpsertBySlug(ctx context.Context, tx *gorm.DB, badges []*types.Badge) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(badges) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, b := range badges {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		b.UpdatedAt = now
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"description",
				"icon",
				"trigger_type",
				"requirement_count",
				"specific_entity_id",
				"rarity",
				"points",
				"is_active",
				"updated_at",
			}),
		}).
		Create(&badges).Error
}

func (r *badgeRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Badge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if slug == "" {
		return nil, nil
	}
	var row types.Badge
	if err := t.WithContext(ctx).
		Where("slug = ?", slug).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *badgeRepo) ListActiveByTrigger(ctx context.Context, tx *gorm.DB, trigger types.TriggerType) ([]*types.Badge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Badge
	if trigger == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("trigger_type = ? AND is_active = ?", trigger, true).
		Order("requirement_count ASC, slug ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
