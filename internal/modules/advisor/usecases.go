package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/actions"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/counsellor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/intent"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/steps"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/fingerprint"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type UsecasesDeps struct {
	Log *logger.Logger

	Users        repos.UserRepo
	Profiles     repos.UserProfileRepo
	Universities repos.UniversityRepo
	Shortlist    repos.ShortlistRepo
	Tasks        repos.TaskRepo
	Sessions     repos.ChatSessionRepo
	Messages     repos.ChatMessageRepo

	Classifier   *intent.Classifier
	Counsellor   *counsellor.Orchestrator
	Executor     *actions.Executor
	Fingerprints fingerprint.Store
	Metrics      steps.Metrics
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases { return Usecases{deps: deps} }

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

type (
	RespondInput        = steps.RespondInput
	RespondOutput       = steps.RespondOutput
	SuggestedUniversity = steps.SuggestedUniversity
	ActionSummary       = steps.ActionSummary
)

func (u Usecases) Respond(ctx context.Context, in RespondInput) (RespondOutput, error) {
	return steps.Respond(ctx, steps.RespondDeps{
		Log:          u.deps.Log,
		Users:        u.deps.Users,
		Profiles:     u.deps.Profiles,
		Universities: u.deps.Universities,
		Shortlist:    u.deps.Shortlist,
		Tasks:        u.deps.Tasks,
		Sessions:     u.deps.Sessions,
		Messages:     u.deps.Messages,
		Classifier:   u.deps.Classifier,
		Counsellor:   u.deps.Counsellor,
		Executor:     u.deps.Executor,
		Fingerprints: u.deps.Fingerprints,
		Metrics:      u.deps.Metrics,
	}, steps.RespondInput(in))
}

func (u Usecases) ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ChatSession, error) {
	out, err := u.deps.Sessions.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// SessionMessages returns a session's messages oldest first. Sessions owned
// by another user are reported as missing.
func (u Usecases) SessionMessages(ctx context.Context, userID, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	dbc := dbctx.Context{Ctx: ctx}
	s, err := u.deps.Sessions.GetForUser(dbc, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return nil, apierr.NotFound("chat session")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out, err := u.deps.Messages.ListRecent(dbc, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

const (
	defaultSessionTitle = "New Chat"
	maxSessionTitle     = 120
)

func sessionTitle(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if len([]rune(t)) > maxSessionTitle {
		return "", apierr.Invalid(fmt.Errorf("title longer than %d characters", maxSessionTitle))
	}
	return t, nil
}

// CreateSession starts an empty session; a blank title becomes "New Chat".
func (u Usecases) CreateSession(ctx context.Context, userID uuid.UUID, title string) (*types.ChatSession, error) {
	t, err := sessionTitle(title)
	if err != nil {
		return nil, err
	}
	if t == "" {
		t = defaultSessionTitle
	}
	s := &types.ChatSession{UserID: userID, Title: t}
	if err := u.deps.Sessions.Create(dbctx.Context{Ctx: ctx}, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (u Usecases) RenameSession(ctx context.Context, userID, sessionID uuid.UUID, title string) (*types.ChatSession, error) {
	t, err := sessionTitle(title)
	if err != nil {
		return nil, err
	}
	if t == "" {
		return nil, apierr.Invalid(fmt.Errorf("title is required"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	ok, err := u.deps.Sessions.Rename(dbc, userID, sessionID, t)
	if err != nil {
		return nil, fmt.Errorf("rename session: %w", err)
	}
	if !ok {
		return nil, apierr.NotFound("chat session")
	}
	s, err := u.deps.Sessions.GetForUser(dbc, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return nil, apierr.NotFound("chat session")
	}
	return s, nil
}

// DeleteSession removes a session with its messages.
func (u Usecases) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	ok, err := u.deps.Sessions.Delete(dbctx.Context{Ctx: ctx}, userID, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !ok {
		return apierr.NotFound("chat session")
	}
	u.deps.Log.Info("chat session deleted", "user_id", userID, "session_id", sessionID)
	return nil
}

// DeleteAllSessions clears the user's chat history and returns how many
// sessions were removed.
func (u Usecases) DeleteAllSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := u.deps.Sessions.DeleteAllByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	u.deps.Log.Info("chat history cleared", "user_id", userID, "sessions", n)
	return n, nil
}
