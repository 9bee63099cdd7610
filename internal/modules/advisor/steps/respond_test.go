package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/advisor-backend/internal/data/aggregates"
	"github.com/yungbote/advisor-backend/internal/data/repos"
	"github.com/yungbote/advisor-backend/internal/data/repos/testutil"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/actions"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/counsellor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/intent"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/fingerprint"
	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/llm/llmtest"
)

type turnMetrics struct {
	outcomes []string
	repeats  int
}

func (m *turnMetrics) ObserveChatTurn(outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}
func (m *turnMetrics) IncRepeatedReply() { m.repeats++ }

type harness struct {
	db        *gorm.DB
	set       repos.Set
	deps      RespondDeps
	intentLLM *llmtest.Client
	replyLLM  *llmtest.Client
	metrics   *turnMetrics
	dbc       dbctx.Context
}

func newHarness(t *testing.T, intentJSON string, replies ...string) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)

	intentLLM := llmtest.Text(intentJSON)
	replyLLM := &llmtest.Client{}
	for _, r := range replies {
		replyLLM.Reply = append(replyLLM.Reply, llmtest.Reply{Text: r})
	}
	metrics := &turnMetrics{}
	exec := actions.NewExecutor(actions.ExecutorDeps{
		Tx:           aggregates.NewGormTxRunner(db),
		Users:        set.User,
		Profiles:     set.Profile,
		Universities: set.University,
		Shortlist:    set.Shortlist,
		Tasks:        set.Task,
		Checklist:    actions.NewLLMChecklist(llm.NewPool(), log),
		Log:          log,
	})
	deps := RespondDeps{
		Log:          log,
		Users:        set.User,
		Profiles:     set.Profile,
		Universities: set.University,
		Shortlist:    set.Shortlist,
		Tasks:        set.Task,
		Sessions:     set.ChatSession,
		Messages:     set.ChatMessage,
		Classifier:   intent.NewClassifier(llm.NewPool(intentLLM), log, nil),
		Counsellor: counsellor.NewOrchestrator(llm.NewPool(replyLLM), log,
			counsellor.WithSleeper(func(context.Context, time.Duration) error { return nil })),
		Executor:     exec,
		Fingerprints: fingerprint.NewMemoryStore(time.Hour, fingerprint.DefaultKeep),
		Metrics:      metrics,
	}
	return &harness{db: db, set: set, deps: deps, intentLLM: intentLLM, replyLLM: replyLLM, metrics: metrics, dbc: dbctx.Context{Ctx: context.Background()}}
}

func TestRespondRunsPipeline(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t,
		`{"intent": "PROGRAM_SPECIFIC_QUERY", "target_discipline": "computer science", "target_countries": ["Germany"]}`,
		"", // replaced below once ids are known
	)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	testutil.SeedProfile(t, ctx, h.db, u.ID, 3.8, 50000, "Computer Science")
	tum := testutil.SeedUniversity(t, ctx, h.db, "TU Munich", "Germany", testutil.Program("Computer Science", "Masters", 3000, 3.0))
	testutil.SeedUniversity(t, ctx, h.db, "University of Oxford", "UK", testutil.Program("Computer Science", "Masters", 45000, 3.7))

	h.replyLLM.Reply = []llmtest.Reply{{Text: fmt.Sprintf(`{
		"message": "TU Munich is a strong, affordable option for you.",
		"actions": [{"type": "shortlist_university", "params": {"university_id": %d}}],
		"suggested_universities": [{"university_id": %d, "category": "SAFE", "fit_reason": "Low tuition"}, {"university_id": 999999}],
		"suggested_next_questions": ["What are the deadlines?"]
	}`, tum.ID, tum.ID)}}

	out, err := Respond(ctx, h.deps, RespondInput{UserID: u.ID, Content: "Suggest computer science masters programs in Germany please"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, out.SessionID)
	require.Equal(t, counsellor.OutcomeOK, out.Outcome)
	require.Equal(t, intent.ProgramSpecificQuery, out.Intent.Type)
	require.True(t, out.Delta.IsNewSession)

	prompts := h.replyLLM.Prompts()
	require.Len(t, prompts, 1)
	require.Contains(t, prompts[0], "TU Munich")
	require.NotContains(t, prompts[0], "University of Oxford")

	require.NotNil(t, out.ActionSummary)
	require.Len(t, out.ActionSummary.Executed, 1)
	require.Equal(t, types.StageDiscovery, out.ActionSummary.FinalStage)

	require.Len(t, out.SuggestedUniversities, 1)
	s := out.SuggestedUniversities[0]
	require.Equal(t, "TU Munich", s.Name)
	require.Equal(t, "Germany", s.Country)
	require.True(t, s.IsShortlisted)
	require.Equal(t, []string{"What are the deadlines?"}, out.SuggestedNextQuestions)

	session, err := h.set.ChatSession.GetForUser(h.dbc, u.ID, out.SessionID)
	require.NoError(t, err)
	require.Equal(t, "Suggest computer science maste...", session.Title)

	msgs, err := h.set.ChatMessage.ListRecent(h.dbc, out.SessionID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "user", msgs[0].Role)
	require.Equal(t, "assistant", msgs[1].Role)
	require.NotEmpty(t, msgs[1].Fingerprint)

	var stored ActionSummary
	require.NoError(t, json.Unmarshal(msgs[1].ActionsTaken, &stored))
	require.Len(t, stored.Executed, 1)
	require.True(t, stored.Executed[0].Confirmed)

	require.Equal(t, []string{"ok"}, h.metrics.outcomes)
}

func TestRespondFollowUpUsesHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, `{"intent": "UNIVERSITY_DISCOVERY"}`,
		`{"message": "Here are some options."}`,
		`{"message": "Here are some options."}`,
	)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)

	first, err := Respond(ctx, h.deps, RespondInput{UserID: u.ID, Content: "Where should I apply?"})
	require.NoError(t, err)
	require.Nil(t, first.ActionSummary)
	require.True(t, first.Delta.IsNewSession)

	second, err := Respond(ctx, h.deps, RespondInput{UserID: u.ID, SessionID: first.SessionID, Content: "  where should I   apply? "})
	require.NoError(t, err)
	require.Equal(t, first.SessionID, second.SessionID)
	require.True(t, second.Delta.IsRepetition)
	// The single credential cannot regenerate, so the repeat is accepted and counted.
	require.Equal(t, 1, h.metrics.repeats)

	prompts := h.replyLLM.Prompts()
	require.Len(t, prompts, 2)
	require.Contains(t, prompts[1], "REPEATED QUESTION")
}

func TestRespondRejectsForeignSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, `{"intent": "UNIVERSITY_DISCOVERY"}`, `{"message": "hi"}`)
	owner := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	other := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)

	first, err := Respond(ctx, h.deps, RespondInput{UserID: owner.ID, Content: "hello"})
	require.NoError(t, err)

	_, err = Respond(ctx, h.deps, RespondInput{UserID: other.ID, SessionID: first.SessionID, Content: "hello"})
	ae, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeNotFound, ae.Code)
}

func TestRespondValidatesContent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, `{}`, `{}`)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)

	_, err := Respond(ctx, h.deps, RespondInput{UserID: u.ID, Content: "   "})
	ae, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeInvalidRequest, ae.Code)

	_, err = Respond(ctx, h.deps, RespondInput{UserID: u.ID, Content: strings.Repeat("a", MaxMessageRunes+1)})
	require.Error(t, err)

	_, err = Respond(ctx, h.deps, RespondInput{UserID: uuid.New(), Content: "hi"})
	ae, ok = apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeNotFound, ae.Code)
	require.Zero(t, h.replyLLM.Calls())
}

func TestRespondWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, `{}`)
	h.deps.Counsellor = counsellor.NewOrchestrator(llm.NewPool(), nil)
	u := testutil.SeedUser(t, ctx, h.db, types.StageOnboarding)

	out, err := Respond(ctx, h.deps, RespondInput{UserID: u.ID, Content: "hi"})
	require.NoError(t, err)
	require.Equal(t, counsellor.OutcomeNotConfigured, out.Outcome)
	require.Contains(t, out.Message, "not configured")
	require.Nil(t, out.ActionSummary)
}

func TestSessionTitle(t *testing.T) {
	require.Equal(t, "short", SessionTitle(" short "))
	require.Equal(t, strings.Repeat("é", 30)+"...", SessionTitle(strings.Repeat("é", 31)))
}

type failingStore struct{}

func (failingStore) Recent(context.Context, string, int) ([]string, error) {
	return nil, errors.New("redis down")
}
func (failingStore) Push(context.Context, string, string) error { return errors.New("redis down") }

func TestFingerprintFallbackToHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, `{}`)
	h.deps.Fingerprints = failingStore{}
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	s := &types.ChatSession{UserID: u.ID, Title: "t"}
	require.NoError(t, h.set.ChatSession.Create(h.dbc, s))
	_, err := h.set.ChatMessage.Create(h.dbc, []*types.ChatMessage{
		{SessionID: s.ID, UserID: u.ID, Role: "assistant", Content: "x", Fingerprint: "abc:1"},
	})
	require.NoError(t, err)

	fps, err := recentFingerprints(ctx, h.deps, s.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"abc:1"}, fps)
}
