package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	chatdomain "github.com/yungbote/advisor-backend/internal/domain/chat"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/actions"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/catalogfilter"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/counsellor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/delta"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/intent"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/promptctx"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/fingerprint"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

const (
	MaxMessageRunes   = 4000
	historyTurns      = 6
	recentReplies     = 5
	sessionTitleRunes = 30
)

// Metrics is the subset of observability.Metrics the chat turn reports to.
type Metrics interface {
	ObserveChatTurn(outcome string, dur time.Duration)
	IncRepeatedReply()
}

type RespondDeps struct {
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
	Metrics      Metrics
}

type RespondInput struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Content   string
}

// SuggestedUniversity is a counsellor suggestion joined with catalog data.
type SuggestedUniversity struct {
	UniversityID  uint   `json:"university_id"`
	Name          string `json:"name"`
	Country       string `json:"country"`
	Tuition       *int   `json:"tuition_per_year"`
	Ranking       *int   `json:"qs_ranking"`
	Category      string `json:"category,omitempty"`
	FitReason     string `json:"fit_reason,omitempty"`
	RiskReason    string `json:"risk_reason,omitempty"`
	IsShortlisted bool   `json:"is_shortlisted"`
}

type ActionSummary struct {
	Executed   []actions.Entry `json:"executed"`
	Blocked    []actions.Entry `json:"blocked"`
	FinalStage types.Stage     `json:"final_stage"`
}

type RespondOutput struct {
	SessionID              uuid.UUID             `json:"session_id"`
	MessageID              uuid.UUID             `json:"message_id"`
	Message                string                `json:"message"`
	Actions                []counsellor.Action   `json:"actions"`
	SuggestedUniversities  []SuggestedUniversity `json:"suggested_universities"`
	SuggestedNextQuestions []string              `json:"suggested_next_questions"`
	// ActionSummary is nil when the reply proposed no actions.
	ActionSummary *ActionSummary `json:"action_summary,omitempty"`

	Intent  intent.Intent      `json:"-"`
	Delta   delta.Info         `json:"-"`
	Outcome counsellor.Outcome `json:"-"`
}

// turnData is everything read before the counsellor runs.
type turnData struct {
	profile      *types.UserProfile
	catalog      []types.University
	shortlist    []*types.ShortlistEntry
	tasks        []*types.Task
	history      []*types.ChatMessage
	fingerprints []string
}

// Respond runs one chat turn: classify, diff against history, filter the
// catalog, assemble context, ask the counsellor, then apply its actions.
func Respond(ctx context.Context, deps RespondDeps, in RespondInput) (RespondOutput, error) {
	start := time.Now()
	ctx, span := otel.Tracer("advisor").Start(ctx, "advisor.respond")
	defer span.End()

	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("step", "respond", "user_id", in.UserID)

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return RespondOutput{}, apierr.Invalid(fmt.Errorf("message content is required"))
	}
	if utf8.RuneCountInString(content) > MaxMessageRunes {
		return RespondOutput{}, apierr.Invalid(fmt.Errorf("message exceeds %d characters", MaxMessageRunes))
	}

	dbc := dbctx.Context{Ctx: ctx}
	user, err := deps.Users.GetByID(dbc, in.UserID)
	if err != nil {
		return RespondOutput{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return RespondOutput{}, apierr.NotFound("user")
	}

	session, err := resolveSession(dbc, deps, in.UserID, in.SessionID, content)
	if err != nil {
		return RespondOutput{}, err
	}
	span.SetAttributes(attribute.String("chat.session_id", session.ID.String()))

	data, err := loadTurnData(ctx, deps, in.UserID, session.ID)
	if err != nil {
		return RespondOutput{}, err
	}

	userMsg := &types.ChatMessage{SessionID: session.ID, UserID: in.UserID, Role: chatdomain.RoleUser, Content: content}
	if _, err := deps.Messages.Create(dbc, []*types.ChatMessage{userMsg}); err != nil {
		return RespondOutput{}, fmt.Errorf("save user message: %w", err)
	}

	profile := eligibility.FromUserProfile(data.profile)
	classified := deps.Classifier.Classify(ctx, content, profile)
	info := delta.Compute(classified, content, toTurns(data.history))
	filtered := catalogfilter.Filter(data.catalog, classified, profile)

	names := make(map[uint]types.University, len(data.catalog))
	for _, u := range data.catalog {
		names[u.ID] = u
	}
	userContext := promptctx.Build(promptctx.Input{
		User:      *user,
		Profile:   data.profile,
		Catalog:   filtered,
		Shortlist: shortlistItems(data.shortlist, names),
		Tasks:     derefTasks(data.tasks),
		Intent:    classified,
		Delta:     info,
	})

	env := deps.Counsellor.Respond(ctx, counsellor.Request{
		Context:            userContext,
		Message:            content,
		RecentFingerprints: data.fingerprints,
	})

	result, err := deps.Executor.Execute(ctx, in.UserID, env.Actions)
	if err != nil {
		return RespondOutput{}, fmt.Errorf("execute actions: %w", err)
	}

	var summary *ActionSummary
	if len(result.Executed) > 0 || len(result.Blocked) > 0 {
		summary = &ActionSummary{Executed: result.Executed, Blocked: result.Blocked, FinalStage: result.FinalStage}
	}

	shortlisted := make(map[uint]bool, len(data.shortlist))
	for _, e := range data.shortlist {
		shortlisted[e.UniversityID] = true
	}
	for _, e := range result.Executed {
		if e.Type == counsellor.ActionShortlist {
			if id, ok := e.Result["university_id"].(uint); ok {
				shortlisted[id] = true
			}
		}
	}
	suggested := hydrateSuggestions(env.SuggestedUniversities, names, shortlisted)

	fp := delta.Fingerprint(env.Message)
	if delta.IsDuplicate(env.Message, data.fingerprints) && deps.Metrics != nil {
		deps.Metrics.IncRepeatedReply()
	}
	assistantMsg := &types.ChatMessage{
		SessionID:              session.ID,
		UserID:                 in.UserID,
		Role:                   chatdomain.RoleAssistant,
		Content:                env.Message,
		Fingerprint:            fp,
		SuggestedUniversities:  mustJSON(suggested),
		SuggestedNextQuestions: mustJSON(env.SuggestedNextQuestions),
	}
	if summary != nil {
		assistantMsg.ActionsTaken = mustJSON(summary)
	}
	if _, err := deps.Messages.Create(dbc, []*types.ChatMessage{assistantMsg}); err != nil {
		return RespondOutput{}, fmt.Errorf("save assistant message: %w", err)
	}
	if err := deps.Sessions.Touch(dbc, session.ID); err != nil {
		log.Warn("session touch failed", "session_id", session.ID, "error", err)
	}
	if deps.Fingerprints != nil {
		if err := deps.Fingerprints.Push(ctx, session.ID.String(), fp); err != nil {
			log.Warn("fingerprint push failed", "session_id", session.ID, "error", err)
		}
	}

	if deps.Metrics != nil {
		deps.Metrics.ObserveChatTurn(string(env.Outcome), time.Since(start))
	}
	span.SetAttributes(
		attribute.String("intent.type", string(classified.Type)),
		attribute.Bool("delta.is_repetition", info.IsRepetition),
		attribute.Int("catalog.filtered", len(filtered)),
	)
	log.Info("chat turn complete",
		"session_id", session.ID,
		"intent", classified.Type,
		"outcome", env.Outcome,
		"attempts", env.Attempts,
		"actions", len(env.Actions),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return RespondOutput{
		SessionID:              session.ID,
		MessageID:              assistantMsg.ID,
		Message:                env.Message,
		Actions:                env.Actions,
		SuggestedUniversities:  suggested,
		SuggestedNextQuestions: env.SuggestedNextQuestions,
		ActionSummary:          summary,
		Intent:                 classified,
		Delta:                  info,
		Outcome:                env.Outcome,
	}, nil
}

func resolveSession(dbc dbctx.Context, deps RespondDeps, userID, sessionID uuid.UUID, content string) (*types.ChatSession, error) {
	if sessionID != uuid.Nil {
		s, err := deps.Sessions.GetForUser(dbc, userID, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		if s == nil {
			return nil, apierr.NotFound("chat session")
		}
		return s, nil
	}
	s := &types.ChatSession{UserID: userID, Title: SessionTitle(content)}
	if err := deps.Sessions.Create(dbc, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// SessionTitle is the first 30 characters of the opening message.
func SessionTitle(content string) string {
	r := []rune(strings.TrimSpace(content))
	if len(r) > sessionTitleRunes {
		return string(r[:sessionTitleRunes]) + "..."
	}
	return string(r)
}

// loadTurnData runs the read-only queries of a turn concurrently.
func loadTurnData(ctx context.Context, deps RespondDeps, userID, sessionID uuid.UUID) (turnData, error) {
	var d turnData
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}

	g.Go(func() error {
		p, err := deps.Profiles.GetByUserID(dbc, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		d.profile = p
		return nil
	})
	g.Go(func() error {
		c, err := deps.Universities.ListWithPrograms(dbc)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		d.catalog = c
		return nil
	})
	g.Go(func() error {
		s, err := deps.Shortlist.ListByUser(dbc, userID)
		if err != nil {
			return fmt.Errorf("load shortlist: %w", err)
		}
		d.shortlist = s
		return nil
	})
	g.Go(func() error {
		t, err := deps.Tasks.ListByUser(dbc, userID)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		d.tasks = t
		return nil
	})
	g.Go(func() error {
		h, err := deps.Messages.ListRecent(dbc, sessionID, historyTurns)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		d.history = h
		return nil
	})
	g.Go(func() error {
		fps, err := recentFingerprints(gctx, deps, sessionID)
		if err != nil {
			return err
		}
		d.fingerprints = fps
		return nil
	})
	if err := g.Wait(); err != nil {
		return turnData{}, err
	}
	return d, nil
}

// recentFingerprints prefers the shared store and falls back to the
// fingerprints persisted on assistant messages.
func recentFingerprints(ctx context.Context, deps RespondDeps, sessionID uuid.UUID) ([]string, error) {
	if deps.Fingerprints != nil {
		fps, err := deps.Fingerprints.Recent(ctx, sessionID.String(), recentReplies)
		if err == nil && len(fps) > 0 {
			return fps, nil
		}
		if err != nil && deps.Log != nil {
			deps.Log.Warn("fingerprint store unavailable, using history", "session_id", sessionID, "error", err)
		}
	}
	fps, err := deps.Messages.RecentAssistantFingerprints(dbctx.Context{Ctx: ctx}, sessionID, recentReplies)
	if err != nil {
		return nil, fmt.Errorf("load fingerprints: %w", err)
	}
	return fps, nil
}

func toTurns(history []*types.ChatMessage) []delta.Turn {
	out := make([]delta.Turn, 0, len(history))
	for _, m := range history {
		out = append(out, delta.Turn{Role: m.Role, Content: m.Content})
	}
	return out
}

func shortlistItems(entries []*types.ShortlistEntry, catalog map[uint]types.University) []promptctx.ShortlistItem {
	out := make([]promptctx.ShortlistItem, 0, len(entries))
	for _, e := range entries {
		name := fmt.Sprintf("University %d", e.UniversityID)
		if u, ok := catalog[e.UniversityID]; ok {
			name = u.Name
		}
		out = append(out, promptctx.ShortlistItem{Entry: *e, UniversityName: name})
	}
	return out
}

func derefTasks(tasks []*types.Task) []types.Task {
	out := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, *t)
	}
	return out
}

// hydrateSuggestions drops ids missing from the catalog.
func hydrateSuggestions(in []counsellor.SuggestedUniversity, catalog map[uint]types.University, shortlisted map[uint]bool) []SuggestedUniversity {
	out := make([]SuggestedUniversity, 0, len(in))
	seen := make(map[uint]bool, len(in))
	for _, s := range in {
		u, ok := catalog[s.UniversityID]
		if !ok || seen[s.UniversityID] {
			continue
		}
		seen[s.UniversityID] = true
		out = append(out, SuggestedUniversity{
			UniversityID:  u.ID,
			Name:          u.Name,
			Country:       u.Country,
			Tuition:       u.TuitionPerYear,
			Ranking:       u.QSRanking,
			Category:      s.Category,
			FitReason:     s.FitReason,
			RiskReason:    s.RiskReason,
			IsShortlisted: shortlisted[u.ID],
		})
	}
	return out
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
