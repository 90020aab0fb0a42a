package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/casegen-backend/internal/http/handlers"
	httpMW "github.com/yungbote/casegen-backend/internal/http/middleware"
	"github.com/yungbote/casegen-backend/internal/observability"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	RequirementHandler *httpH.RequirementHandler
	StandardHandler    *httpH.StandardHandler
	TestcaseHandler    *httpH.TestcaseHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "casegen"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// The same routes are served at the root and under /api.
	mountProtected(r.Group("/"), cfg)
	mountProtected(r.Group("/api"), cfg)

	return r
}

func mountProtected(g *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthMiddleware != nil {
		g.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Requirements
	if cfg.RequirementHandler != nil {
		g.POST("/requirements/upload", cfg.RequirementHandler.Upload)
		g.GET("/requirements", cfg.RequirementHandler.List)
	}

	// Standards
	if cfg.StandardHandler != nil {
		g.POST("/upload", cfg.StandardHandler.Upload)
		g.GET("/standards", cfg.StandardHandler.List)
	}

	// Generation
	if h := cfg.TestcaseHandler; h != nil {
		g.POST("/testcases", h.Create)
		g.POST("/testcases/:genId/regenerate/:tcId", h.RegenerateTestcase)
		g.PATCH("/testcases/:genId/:tcId", h.Patch)
		g.POST("/testcases/:genId/:tcId/jira", h.Jira)
		g.POST("/requirements/:reqId/regenerate", h.RegenerateRequirement)
		g.GET("/generated", h.ListGenerated)
		g.GET("/generated/requirement/:id", h.RequirementTestcases)
		g.GET("/generated/:genId", h.GetGenerated)
	}
}
