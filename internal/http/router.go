package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/kinship-backend/internal/http/handlers"
	httpMW "github.com/yungbote/kinship-backend/internal/http/middleware"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	ProgressHandler    *httpH.ProgressHandler
	CertificateHandler *httpH.CertificateHandler
	BadgeHandler       *httpH.BadgeHandler
	ActivityHandler    *httpH.ActivityHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "kinship-backend"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Certificate verification (public)
		if cfg.CertificateHandler != nil {
			api.GET("/certificates/:certificateId", cfg.CertificateHandler.Verify)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.POST("/courses/:id/lessons/:lessonId/complete", cfg.ProgressHandler.CompleteLesson)
			protected.GET("/courses/:id/enrollment", cfg.ProgressHandler.GetEnrollment)
		}

		// Me
		if cfg.CertificateHandler != nil {
			protected.GET("/me/certificates", cfg.CertificateHandler.ListMine)
		}
		if cfg.BadgeHandler != nil {
			protected.GET("/me/badges", cfg.BadgeHandler.ListMine)
			protected.POST("/me/badges/seen", cfg.BadgeHandler.MarkSeen)
		}
		if cfg.ActivityHandler != nil {
			protected.POST("/me/activity", cfg.ActivityHandler.Record)
		}
	}

	return r
}
