package app

import (
	"github.com/yungbote/advisor-backend/internal/modules/advisor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/actions"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/counsellor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/intent"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/writing"
	"github.com/yungbote/advisor-backend/internal/observability"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
	"github.com/yungbote/advisor-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Profile    services.ProfileService
	Shortlist  services.ShortlistService
	Task       services.TaskService
	University services.UniversityService
	Dashboard  services.DashboardService
	Tools      services.ToolsService
	Advisor    advisor.Usecases
	Executor   *actions.Executor
}

func wireServices(log *logger.Logger, cfg Config, r Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	exec := actions.NewExecutor(actions.ExecutorDeps{
		Tx:           r.Tx,
		Users:        r.User,
		Profiles:     r.Profile,
		Universities: r.University,
		Shortlist:    r.Shortlist,
		Tasks:        r.Task,
		Checklist:    actions.NewLLMChecklist(clients.LLM, log),
		Metrics:      metrics,
		Log:          log,
	})

	uc := advisor.New(advisor.UsecasesDeps{
		Log:          log,
		Users:        r.User,
		Profiles:     r.Profile,
		Universities: r.University,
		Shortlist:    r.Shortlist,
		Tasks:        r.Task,
		Sessions:     r.ChatSession,
		Messages:     r.ChatMessage,
		Classifier:   intent.NewClassifier(clients.LLM, log, metrics),
		Counsellor:   counsellor.NewOrchestrator(clients.LLM, log),
		Executor:     exec,
		Fingerprints: clients.Fingerprints,
		Metrics:      metrics,
	})

	return Services{
		Auth:       services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer),
		Profile:    services.NewProfileService(log, r.Tx, r.User, r.Profile),
		Shortlist:  services.NewShortlistService(log, r.User, r.Profile, r.University, r.Shortlist, r.Task, exec),
		Task:       services.NewTaskService(log, r.Task, exec),
		University: services.NewUniversityService(log, r.User, r.Profile, r.University, r.Shortlist),
		Dashboard:  services.NewDashboardService(log, r.User, r.Profile, r.Shortlist, r.Task, r.University),
		Tools:      services.NewToolsService(log, r.User, r.Profile, writing.NewAssistant(clients.LLM, log)),
		Advisor:    uc,
		Executor:   exec,
	}
}
