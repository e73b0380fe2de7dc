package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/kinship-backend/internal/data/db"
	khttp "github.com/yungbote/kinship-backend/internal/http"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/gcp"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	dbService    *db.Service
	bus          bus.Bus
	store        gcp.ObjectStore
	server       *khttp.Server
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New builds the HTTP server process.
func New() (*App, error) {
	return build(true)
}

// NewOffline builds everything except the HTTP surface, for one-shot tools.
func NewOffline() (*App, error) {
	return build(false)
}

func build(withHTTP bool) (*App, error) {
	log, err := logger.New(envLogMode())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if withHTTP {
		if err := cfg.Validate(); err != nil {
			log.Sync()
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	a := &App{Log: log, Cfg: cfg}
	ctx := context.Background()

	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTelEndpoint,
		Headers:     observability.ParseHeaders(cfg.OTelHeaders),
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	})
	a.Metrics = observability.Init(cfg.MetricsEnabled, log)

	dbService, err := db.NewService(cfg.DB, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.dbService = dbService
	a.DB = dbService.DB()
	if err := db.AutoMigrateAll(a.DB); err != nil {
		a.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	if a.bus, err = openBus(ctx, log, cfg); err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Storage.Enabled() {
		store, err := gcp.NewObjectStore(ctx, log, cfg.Storage)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init certificate storage: %w", err)
		}
		a.store = store
	}

	a.Repos = wireRepos(a.DB, log)
	if err := seedBadgeCatalog(ctx, log, cfg, a.Repos); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed badge catalog: %w", err)
	}

	a.Services, err = wireServices(serviceDeps{
		DB:      a.DB,
		Log:     log,
		Cfg:     cfg,
		Repos:   a.Repos,
		Bus:     a.bus,
		Store:   a.store,
		Metrics: a.Metrics,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	if withHTTP {
		handlerset := wireHandlers(log, a.Services)
		middleware := wireMiddleware(log, a.Services)
		a.Router = wireRouter(log, cfg, a.Metrics, handlerset, middleware)
	}
	return a, nil
}

// openBus connects to Redis when REDIS_ADDR is set; otherwise events stay in process.
func openBus(ctx context.Context, log *logger.Logger, cfg Config) (bus.Bus, error) {
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		log.Warn("REDIS_ADDR not set; award events are delivered in-process only")
		return bus.NewLocalBus(log), nil
	}
	b, err := bus.NewRedisBus(ctx, log, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init award event bus: %w", err)
	}
	return b, nil
}

// Start launches background collectors. Safe to call once.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 15*time.Second)
	if rc, ok := a.bus.(interface{ Client() *goredis.Client }); ok {
		a.Metrics.StartRedisCollector(ctx, a.Log, rc.Client(), 15*time.Second)
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.server = &khttp.Server{Engine: a.Router}
	return a.server.Run(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.dbService != nil {
		errs = append(errs, a.dbService.Close())
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.otelShutdown(ctx))
		cancel()
	}
	if err := errors.Join(errs...); err != nil && a.Log != nil {
		a.Log.Warn("shutdown completed with errors", "error", err)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
