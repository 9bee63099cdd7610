package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/advisor-backend/internal/http/handlers"
	httpMW "github.com/yungbote/advisor-backend/internal/http/middleware"
	"github.com/yungbote/advisor-backend/internal/observability"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/platform/ratelimit"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics
	ChatLimiter    ratelimit.Limiter

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	ChatHandler       *httpH.ChatHandler
	ProfileHandler    *httpH.ProfileHandler
	ShortlistHandler  *httpH.ShortlistHandler
	TaskHandler       *httpH.TaskHandler
	UniversityHandler *httpH.UniversityHandler
	DashboardHandler  *httpH.DashboardHandler
	ToolsHandler      *httpH.ToolsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "advisor"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Chat
	if cfg.ChatHandler != nil {
		protected.POST("/chat", httpMW.RateLimit(log, cfg.ChatLimiter, "chat", cfg.Metrics), cfg.ChatHandler.SendMessage)
		protected.GET("/chat/sessions", cfg.ChatHandler.ListSessions)
		protected.POST("/chat/sessions", cfg.ChatHandler.CreateSession)
		protected.DELETE("/chat/sessions", cfg.ChatHandler.DeleteAllSessions)
		protected.PATCH("/chat/sessions/:id", cfg.ChatHandler.RenameSession)
		protected.DELETE("/chat/sessions/:id", cfg.ChatHandler.DeleteSession)
		protected.GET("/chat/sessions/:id/messages", cfg.ChatHandler.SessionMessages)
	}

	// Profile + onboarding
	if cfg.ProfileHandler != nil {
		protected.GET("/profile", cfg.ProfileHandler.Get)
		protected.PUT("/profile", cfg.ProfileHandler.Upsert)
		protected.POST("/onboarding/complete", cfg.ProfileHandler.CompleteOnboarding)
	}

	// Shortlist
	if cfg.ShortlistHandler != nil {
		protected.GET("/shortlist", cfg.ShortlistHandler.List)
		protected.POST("/shortlist", cfg.ShortlistHandler.Add)
		protected.DELETE("/shortlist/:university_id", cfg.ShortlistHandler.Remove)
		protected.POST("/shortlist/:university_id/lock", cfg.ShortlistHandler.Lock)
		protected.POST("/shortlist/:university_id/unlock", cfg.ShortlistHandler.Unlock)
	}

	// Tasks
	if cfg.TaskHandler != nil {
		protected.GET("/tasks", cfg.TaskHandler.List)
		protected.POST("/tasks", cfg.TaskHandler.Create)
		protected.PATCH("/tasks/:id", cfg.TaskHandler.Update)
	}

	// Universities
	if cfg.UniversityHandler != nil {
		protected.GET("/universities", cfg.UniversityHandler.List)
		protected.GET("/universities/compare", cfg.UniversityHandler.Compare)
		protected.GET("/universities/:id", cfg.UniversityHandler.Get)
	}

	// Dashboard
	if cfg.DashboardHandler != nil {
		protected.GET("/dashboard", cfg.DashboardHandler.Summary)
		protected.GET("/dashboard/timeline", cfg.DashboardHandler.Timeline)
	}

	// Writing tools use the chat limiter under their own scope.
	if cfg.ToolsHandler != nil {
		limit := httpMW.RateLimit(log, cfg.ChatLimiter, "tools", cfg.Metrics)
		protected.POST("/sop/review", limit, cfg.ToolsHandler.ReviewSOP)
		protected.POST("/tools/cold-email", limit, cfg.ToolsHandler.ColdEmail)
	}

	return r
}
