package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/advisor-backend/internal/http"
	httpH "github.com/yungbote/advisor-backend/internal/http/handlers"
	httpMW "github.com/yungbote/advisor-backend/internal/http/middleware"
	"github.com/yungbote/advisor-backend/internal/observability"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Chat       *httpH.ChatHandler
	Profile    *httpH.ProfileHandler
	Shortlist  *httpH.ShortlistHandler
	Task       *httpH.TaskHandler
	University *httpH.UniversityHandler
	Dashboard  *httpH.DashboardHandler
	Tools      *httpH.ToolsHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Chat:       httpH.NewChatHandler(log, services.Advisor),
		Profile:    httpH.NewProfileHandler(log, services.Profile),
		Shortlist:  httpH.NewShortlistHandler(log, services.Shortlist),
		Task:       httpH.NewTaskHandler(log, services.Task),
		University: httpH.NewUniversityHandler(log, services.University),
		Dashboard:  httpH.NewDashboardHandler(log, services.Dashboard),
		Tools:      httpH.NewToolsHandler(log, services.Tools),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, clients Clients, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		ServiceName:       cfg.ServiceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		Metrics:           metrics,
		ChatLimiter:       clients.ChatLimiter,
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		ChatHandler:       handlers.Chat,
		ProfileHandler:    handlers.Profile,
		ShortlistHandler:  handlers.Shortlist,
		TaskHandler:       handlers.Task,
		UniversityHandler: handlers.University,
		DashboardHandler:  handlers.Dashboard,
		ToolsHandler:      handlers.Tools,
	})
}
