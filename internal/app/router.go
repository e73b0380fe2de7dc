package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/kinship-backend/internal/http"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ServiceName:        cfg.ServiceName,
		TracingEnabled:     cfg.OTelEnabled,
		CORSOrigins:        cfg.CORSOrigins,
		AuthMiddleware:     middleware.Auth,
		HealthHandler:      handlers.Health,
		ProgressHandler:    handlers.Progress,
		CertificateHandler: handlers.Certificate,
		BadgeHandler:       handlers.Badge,
		ActivityHandler:    handlers.Activity,
	})
}
