package services

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/kinship-backend/internal/data/repos"
	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

// BadgeDefinition is one entry of the badge catalog file.
type BadgeDefinition struct {
	Slug             string `yaml:"slug" validate:"required,badge_slug"`
	Name             string `yaml:"name" validate:"required,max=120"`
	Description      string `yaml:"description"`
	Icon             string `yaml:"icon"`
	TriggerType      string `yaml:"trigger_type" validate:"required,oneof=manual course_completion lesson_completion login_streak community_post comment_count"`
	RequirementCount int    `yaml:"requirement_count" validate:"gte=1"`
	SpecificEntityID string `yaml:"specific_entity_id" validate:"omitempty,uuid"`
	Rarity           string `yaml:"rarity" validate:"required,oneof=common uncommon rare epic legendary"`
	Points           int    `yaml:"points" validate:"gte=0"`
	Active           *bool  `yaml:"active"`
}

type BadgeCatalog struct {
	Badges []BadgeDefinition `yaml:"badges" validate:"dive"`
}

var badgeSlugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var catalogValidator = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("badge_slug", func(fl validator.FieldLevel) bool {
		return badgeSlugPattern.MatchString(fl.Field().String())
	})
	return v
}()

// ParseBadgeCatalog decodes and validates a catalog. Missing requirement counts
// and rarities default to 1 and common before validation.
func ParseBadgeCatalog(raw []byte) (*BadgeCatalog, error) {
	var cat BadgeCatalog
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode badge catalog: %w", err)
	}
	seen := make(map[string]int, len(cat.Badges))
	for i := range cat.Badges {
		d := &cat.Badges[i]
		d.Slug = strings.TrimSpace(d.Slug)
		if d.RequirementCount == 0 {
			d.RequirementCount = 1
		}
		if strings.TrimSpace(d.Rarity) == "" {
			d.Rarity = types.RarityCommon
		}
		if prev, dup := seen[d.Slug]; dup {
			return nil, fmt.Errorf("badge catalog: slug %q repeated at entries %d and %d", d.Slug, prev, i)
		}
		seen[d.Slug] = i
	}
	if err := catalogValidator.Struct(&cat); err != nil {
		return nil, fmt.Errorf("validate badge catalog: %w", err)
	}
	return &cat, nil
}

func LoadBadgeCatalog(path string) (*BadgeCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read badge catalog: %w", err)
	}
	return ParseBadgeCatalog(raw)
}

func (c *BadgeCatalog) toBadges(now time.Time) []*types.Badge {
	out := make([]*types.Badge, 0, len(c.Badges))
	for _, d := range c.Badges {
		b := &types.Badge{
			ID:               uuid.New(),
			Slug:             d.Slug,
			Name:             d.Name,
			Description:      d.Description,
			Icon:             d.Icon,
			TriggerType:      types.TriggerType(d.TriggerType),
			RequirementCount: d.RequirementCount,
			Rarity:           d.Rarity,
			Points:           d.Points,
			IsActive:         d.Active == nil || *d.Active,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if d.SpecificEntityID != "" {
			id := uuid.MustParse(d.SpecificEntityID)
			b.SpecificEntityID = &id
		}
		out = append(out, b)
	}
	return out
}

// SeedBadgeCatalog upserts every catalog badge by slug.
func SeedBadgeCatalog(ctx context.Context, log *logger.Logger, badges repos.BadgeRepo, cat *BadgeCatalog) error {
	if cat == nil || len(cat.Badges) == 0 {
		return nil
	}
	if err := badges.UpsertBySlug(ctx, nil, cat.toBadges(time.Now().UTC())); err != nil {
		return fmt.Errorf("seed badge catalog: %w", err)
	}
	log.Info("badge catalog seeded", "count", len(cat.Badges))
	return nil
}
