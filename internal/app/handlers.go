package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/casegen-backend/internal/http"
	httpH "github.com/yungbote/casegen-backend/internal/http/handlers"
	httpMW "github.com/yungbote/casegen-backend/internal/http/middleware"
	"github.com/yungbote/casegen-backend/internal/observability"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Requirement *httpH.RequirementHandler
	Standard    *httpH.StandardHandler
	Testcase    *httpH.TestcaseHandler
}

func wireHandlers(log *logger.Logger, cfg Config, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB, err := db.DB(); err == nil {
		pinger = sqlDB
	}
	return Handlers{
		Health:      httpH.NewHealthHandler(pinger),
		Requirement: httpH.NewRequirementHandler(log, services.Requirement, cfg.UploadMaxBytes),
		Standard:    httpH.NewStandardHandler(log, services.Standard, cfg.UploadMaxBytes),
		Testcase:    httpH.NewTestcaseHandler(log, services.Generation, services.Jira),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Identity),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ServiceName:        cfg.ServiceName,
		AuthMiddleware:     middleware.Auth,
		HealthHandler:      handlers.Health,
		RequirementHandler: handlers.Requirement,
		StandardHandler:    handlers.Standard,
		TestcaseHandler:    handlers.Testcase,
	})
}
