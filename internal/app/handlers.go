package app

import (
	httpH "github.com/yungbote/kinship-backend/internal/http/handlers"
	httpMW "github.com/yungbote/kinship-backend/internal/http/middleware"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Progress    *httpH.ProgressHandler
	Certificate *httpH.CertificateHandler
	Badge       *httpH.BadgeHandler
	Activity    *httpH.ActivityHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(),
		Progress:    httpH.NewProgressHandler(log, services.Progress),
		Certificate: httpH.NewCertificateHandler(log, services.Certificates),
		Badge:       httpH.NewBadgeHandler(log, services.Badges),
		Activity:    httpH.NewActivityHandler(log, services.Activity),
	}
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Identity),
	}
}
