package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/kinship-backend/internal/data/aggregates"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/gcp"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/realtime/bus"
	"github.com/yungbote/kinship-backend/internal/services"
)

type Services struct {
	Identity     services.IdentityService
	Notifier     services.AwardNotifier
	Certificates services.CertificateService
	Badges       services.BadgeService
	Activity     services.ActivityService
	Progress     services.ProgressService
	Reconciler   services.Reconciler
}

type serviceDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	Cfg     Config
	Repos   Repos
	Bus     bus.Bus
	Store   gcp.ObjectStore
	Metrics *observability.Metrics
}

func wireServices(deps serviceDeps) (Services, error) {
	log := deps.Log
	log.Info("Wiring services...")

	// Identity is optional for offline tools like the reconciler.
	var identity services.IdentityService
	if strings.TrimSpace(deps.Cfg.IdentityJWTSecret) != "" {
		id, err := services.NewIdentityService(log, deps.Repos.UserIdentity, deps.Cfg.IdentityJWTSecret, deps.Cfg.IdentityJWTIssuer)
		if err != nil {
			return Services{}, fmt.Errorf("init identity service: %w", err)
		}
		identity = id
	}

	var renderer services.CertificateRenderer
	if deps.Store != nil {
		r, err := services.NewCertificateRenderer(deps.Cfg.CertificateFontPath)
		if err != nil {
			return Services{}, fmt.Errorf("init certificate renderer: %w", err)
		}
		renderer = r
	}

	notifier := services.NewAwardNotifier(log, deps.Bus, deps.Metrics)
	certificates := services.NewCertificateService(services.CertificateServiceDeps{
		Log:          log,
		Courses:      deps.Repos.Course,
		Templates:    deps.Repos.CertificateTemplate,
		Certificates: deps.Repos.Certificate,
		Enrollments:  deps.Repos.Enrollment,
		Notifier:     notifier,
		Metrics:      deps.Metrics,
		Renderer:     renderer,
		Store:        deps.Store,
	})
	badges := services.NewBadgeService(log, deps.Repos.Badge, deps.Repos.UserBadge, deps.Repos.UserActivity, notifier, deps.Metrics)
	activity := services.NewActivityService(log, deps.Repos.UserActivity, badges, deps.Metrics)

	ledger := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    deps.DB,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(deps.Metrics, log),
		},
		Enrollments: deps.Repos.Enrollment,
		Lessons:     deps.Repos.Lesson,
		Activities:  deps.Repos.UserActivity,
		MaxAttempts: deps.Cfg.ProgressCASAttempts,
	})
	// The progress service calls the ledger outside any transaction of its own.
	contract := ledger.Contract()
	if !contract.RequiresAggregateOwnedTx() {
		return Services{}, fmt.Errorf("aggregate %s must own its write transaction", contract.Name)
	}
	log.Info("aggregate wired", "aggregate", contract.Name, "tx_ownership", contract.WriteTxOwnership)
	progress := services.NewProgressService(log, ledger, deps.Repos.Enrollment, certificates, badges, notifier, deps.Metrics)
	reconciler := services.NewReconciler(log, deps.Repos.Enrollment, deps.Repos.Course, deps.Repos.Certificate, certificates, badges, deps.Metrics)

	return Services{
		Identity:     identity,
		Notifier:     notifier,
		Certificates: certificates,
		Badges:       badges,
		Activity:     activity,
		Progress:     progress,
		Reconciler:   reconciler,
	}, nil
}

// seedBadgeCatalog upserts the YAML catalog when BADGE_CATALOG_PATH is set.
func seedBadgeCatalog(ctx context.Context, log *logger.Logger, cfg Config, r Repos) error {
	path := strings.TrimSpace(cfg.BadgeCatalogPath)
	if path == "" {
		return nil
	}
	cat, err := services.LoadBadgeCatalog(path)
	if err != nil {
		return err
	}
	return services.SeedBadgeCatalog(ctx, log, r.Badge, cat)
}
