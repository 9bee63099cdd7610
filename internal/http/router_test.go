package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/advisor-backend/internal/data/aggregates"
	"github.com/yungbote/advisor-backend/internal/data/repos"
	"github.com/yungbote/advisor-backend/internal/data/repos/testutil"
	types "github.com/yungbote/advisor-backend/internal/domain"
	httpH "github.com/yungbote/advisor-backend/internal/http/handlers"
	httpMW "github.com/yungbote/advisor-backend/internal/http/middleware"
	"github.com/yungbote/advisor-backend/internal/modules/advisor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/actions"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/counsellor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/intent"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/writing"
	"github.com/yungbote/advisor-backend/internal/platform/fingerprint"
	"github.com/yungbote/advisor-backend/internal/platform/llm"
	"github.com/yungbote/advisor-backend/internal/platform/llm/llmtest"
	"github.com/yungbote/advisor-backend/internal/platform/ratelimit"
	"github.com/yungbote/advisor-backend/internal/services"
)

const toolsReply = `{"overall_score": 72, "strengths": ["clear goals"], "weaknesses": [], "grammar_mistakes": [], "ai_feedback": "Good draft.", "subject_line": "Prospective student", "email_body": "Dear Professor Lee,"}`

type apiEnv struct {
	db     *gorm.DB
	engine *gin.Engine
	auth   services.AuthService
}

func newAPIEnv(t *testing.T, limiter ratelimit.Limiter) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	tx := aggregates.NewGormTxRunner(db)

	exec := actions.NewExecutor(actions.ExecutorDeps{
		Tx:           tx,
		Users:        set.User,
		Profiles:     set.Profile,
		Universities: set.University,
		Shortlist:    set.Shortlist,
		Tasks:        set.Task,
		Checklist:    actions.NewLLMChecklist(llm.NewPool(), log),
		Log:          log,
	})
	uc := advisor.New(advisor.UsecasesDeps{
		Log:          log,
		Users:        set.User,
		Profiles:     set.Profile,
		Universities: set.University,
		Shortlist:    set.Shortlist,
		Tasks:        set.Task,
		Sessions:     set.ChatSession,
		Messages:     set.ChatMessage,
		Classifier:   intent.NewClassifier(llm.NewPool(llmtest.Text(`{"intent": "GENERAL_GUIDANCE"}`)), log, nil),
		Counsellor:   counsellor.NewOrchestrator(llm.NewPool(llmtest.Text(`{"message": "Start by completing your profile."}`)), log),
		Executor:     exec,
		Fingerprints: fingerprint.NewMemoryStore(time.Hour, fingerprint.DefaultKeep),
	})

	auth := services.NewAuthService(log, "test-secret", "advisor")
	engine := NewRouter(RouterConfig{
		Log:               log,
		ChatLimiter:       limiter,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:     httpH.NewHealthHandler(db),
		ChatHandler:       httpH.NewChatHandler(log, uc),
		ProfileHandler:    httpH.NewProfileHandler(log, services.NewProfileService(log, tx, set.User, set.Profile)),
		ShortlistHandler:  httpH.NewShortlistHandler(log, services.NewShortlistService(log, set.User, set.Profile, set.University, set.Shortlist, set.Task, exec)),
		TaskHandler:       httpH.NewTaskHandler(log, services.NewTaskService(log, set.Task, exec)),
		UniversityHandler: httpH.NewUniversityHandler(log, services.NewUniversityService(log, set.User, set.Profile, set.University, set.Shortlist)),
		DashboardHandler:  httpH.NewDashboardHandler(log, services.NewDashboardService(log, set.User, set.Profile, set.Shortlist, set.Task, set.University)),
		ToolsHandler:      httpH.NewToolsHandler(log, services.NewToolsService(log, set.User, set.Profile, writing.NewAssistant(llm.NewPool(llmtest.Text(toolsReply)), log))),
	})
	return &apiEnv{db: db, engine: engine, auth: auth}
}

func (e *apiEnv) do(t *testing.T, userID uuid.UUID, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		tok, err := e.auth.MintToken(userID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)

	var out map[string]any
	if ct := rec.Header().Get("Content-Type"); len(ct) >= 16 && ct[:16] == "application/json" {
		if bytes.HasPrefix(bytes.TrimSpace(rec.Body.Bytes()), []byte("{")) {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		}
	}
	return rec, out
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %v", body)
	return e
}

func TestHealthIsPublic(t *testing.T) {
	env := newAPIEnv(t, nil)
	rec, _ := env.do(t, uuid.Nil, stdhttp.MethodGet, "/healthcheck", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec, _ = env.do(t, uuid.Nil, stdhttp.MethodGet, "/readyz", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	env := newAPIEnv(t, nil)
	rec, body := env.do(t, uuid.Nil, stdhttp.MethodGet, "/api/profile", nil)
	require.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	require.Equal(t, "UNAUTHORIZED", errorOf(t, body)["code"])

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
}

func TestStageGatesOverHTTP(t *testing.T) {
	ctx := context.Background()
	env := newAPIEnv(t, nil)
	u := testutil.SeedUser(t, ctx, env.db, types.StageOnboarding)
	uni := testutil.SeedUniversity(t, ctx, env.db, "TU Munich", "Germany", testutil.Program("Computer Science", "Masters", 3000, 3.0))

	rec, body := env.do(t, u.ID, stdhttp.MethodPost, "/api/shortlist", map[string]any{"university_id": uni.ID})
	require.Equal(t, stdhttp.StatusForbidden, rec.Code)
	apiErr := errorOf(t, body)
	require.Equal(t, "STAGE_BLOCKED", apiErr["code"])
	details := apiErr["details"].(map[string]any)
	require.Equal(t, "ONBOARDING", details["current_stage"])
	require.Equal(t, "DISCOVERY", details["required_stage"])

	rec, _ = env.do(t, u.ID, stdhttp.MethodGet, "/api/universities", nil)
	require.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec, body = env.do(t, u.ID, stdhttp.MethodPost, "/api/onboarding/complete", nil)
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	require.Equal(t, "PROFILE_INCOMPLETE", errorOf(t, body)["code"])

	rec, _ = env.do(t, u.ID, stdhttp.MethodPut, "/api/profile", map[string]any{
		"gpa":             3.6,
		"field_of_study":  "Computer Science",
		"budget_per_year": 30000,
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec, body = env.do(t, u.ID, stdhttp.MethodPost, "/api/onboarding/complete", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Equal(t, "DISCOVERY", body["user"].(map[string]any)["current_stage"])

	rec, body = env.do(t, u.ID, stdhttp.MethodGet, "/api/universities?country=Germany", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["count"])

	rec, _ = env.do(t, u.ID, stdhttp.MethodPost, "/api/shortlist", map[string]any{"university_id": uni.ID})
	require.Equal(t, stdhttp.StatusCreated, rec.Code)

	rec, body = env.do(t, u.ID, stdhttp.MethodPost, "/api/shortlist/"+uintPath(uni.ID)+"/lock", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Equal(t, "APPLICATION", body["new_stage"])

	rec, body = env.do(t, u.ID, stdhttp.MethodPost, "/api/shortlist/"+uintPath(uni.ID)+"/unlock", nil)
	require.Equal(t, stdhttp.StatusConflict, rec.Code)
	require.Equal(t, "CONFIRMATION_REQUIRED", errorOf(t, body)["code"])

	rec, body = env.do(t, u.ID, stdhttp.MethodGet, "/api/tasks", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Len(t, body["tasks"], 4)

	rec, _ = env.do(t, u.ID, stdhttp.MethodPost, "/api/shortlist/"+uintPath(uni.ID)+"/unlock?confirm=true", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec, body = env.do(t, u.ID, stdhttp.MethodGet, "/api/tasks", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Len(t, body["tasks"], 0)
}

func TestChatEndpointAndRateLimit(t *testing.T) {
	ctx := context.Background()
	limiter := ratelimit.NewMemory(ratelimit.Config{Limit: 1, Window: time.Minute, Block: time.Minute})
	env := newAPIEnv(t, limiter)
	u := testutil.SeedUser(t, ctx, env.db, types.StageOnboarding)

	rec, body := env.do(t, u.ID, stdhttp.MethodPost, "/api/chat", map[string]any{"message": "Where do I start?"})
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Equal(t, "Start by completing your profile.", body["message"])
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	rec, body = env.do(t, u.ID, stdhttp.MethodPost, "/api/chat", map[string]any{"message": "And then?", "session_id": sessionID})
	require.Equal(t, stdhttp.StatusTooManyRequests, rec.Code)
	require.Equal(t, "RATE_LIMITED", errorOf(t, body)["code"])
	require.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec, body = env.do(t, u.ID, stdhttp.MethodGet, "/api/chat/sessions/"+sessionID+"/messages", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Len(t, body["messages"], 2)

	other := testutil.SeedUser(t, ctx, env.db, types.StageDiscovery)
	rec, _ = env.do(t, other.ID, stdhttp.MethodGet, "/api/chat/sessions/"+sessionID+"/messages", nil)
	require.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec, _ = env.do(t, u.ID, stdhttp.MethodGet, "/api/chat/sessions/not-a-uuid/messages", nil)
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}

func TestDashboardAndCompareOverHTTP(t *testing.T) {
	ctx := context.Background()
	env := newAPIEnv(t, nil)
	u := testutil.SeedUser(t, ctx, env.db, types.StageDiscovery)
	testutil.SeedProfile(t, ctx, env.db, u.ID, 3.6, 30000, "Computer Science")
	tum := testutil.SeedUniversity(t, ctx, env.db, "TU Munich", "Germany", testutil.Program("Computer Science", "Masters", 3000, 3.0))
	ucl := testutil.SeedUniversity(t, ctx, env.db, "UCL", "United Kingdom", testutil.Program("Data Science", "Masters", 35000, 3.3))
	pair := uintPath(tum.ID) + "," + uintPath(ucl.ID)

	rec, body := env.do(t, u.ID, stdhttp.MethodGet, "/api/dashboard", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Equal(t, "DISCOVERY", body["current_stage"])
	require.EqualValues(t, 0, body["shortlisted_count"])
	require.Equal(t, "Talk to the AI Counsellor to discover and shortlist universities", body["next_action"])

	rec, body = env.do(t, u.ID, stdhttp.MethodGet, "/api/universities/compare?ids="+pair, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	unis := body["universities"].([]any)
	require.Len(t, unis, 2)
	require.Equal(t, "TU Munich", unis[0].(map[string]any)["name"])

	rec, _ = env.do(t, u.ID, stdhttp.MethodGet, "/api/universities/compare?ids="+uintPath(tum.ID), nil)
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	rec, _ = env.do(t, u.ID, stdhttp.MethodGet, "/api/universities/compare?ids=a,b", nil)
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	rec, _ = env.do(t, u.ID, stdhttp.MethodGet, "/api/universities/compare?ids="+uintPath(tum.ID)+",9999", nil)
	require.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec, _ = env.do(t, u.ID, stdhttp.MethodPost, "/api/shortlist", map[string]any{"university_id": tum.ID})
	require.Equal(t, stdhttp.StatusCreated, rec.Code)
	rec, _ = env.do(t, u.ID, stdhttp.MethodPost, "/api/shortlist/"+uintPath(tum.ID)+"/lock", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec, body = env.do(t, u.ID, stdhttp.MethodGet, "/api/dashboard", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["locked_count"])
	require.EqualValues(t, 4, body["pending_tasks"])
	require.Equal(t, "Complete your application tasks and prepare documents", body["next_action"])

	rec, _ = env.do(t, u.ID, stdhttp.MethodGet, "/api/dashboard/timeline", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var timeline []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	require.Len(t, timeline, 1)
	require.Equal(t, "TU Munich", timeline[0]["university_name"])
	require.Equal(t, "Computer Science", timeline[0]["program_name"])
	require.Equal(t, "Jan 15", timeline[0]["deadline_display"])

	onboarding := testutil.SeedUser(t, ctx, env.db, types.StageOnboarding)
	rec, _ = env.do(t, onboarding.ID, stdhttp.MethodGet, "/api/universities/compare?ids="+pair, nil)
	require.Equal(t, stdhttp.StatusForbidden, rec.Code)
}

func TestChatSessionsOverHTTP(t *testing.T) {
	ctx := context.Background()
	env := newAPIEnv(t, nil)
	u := testutil.SeedUser(t, ctx, env.db, types.StageDiscovery)
	other := testutil.SeedUser(t, ctx, env.db, types.StageDiscovery)

	rec, body := env.do(t, u.ID, stdhttp.MethodPost, "/api/chat/sessions", nil)
	require.Equal(t, stdhttp.StatusCreated, rec.Code)
	require.Equal(t, "New Chat", body["title"])
	first := body["id"].(string)

	rec, body = env.do(t, u.ID, stdhttp.MethodPost, "/api/chat/sessions", map[string]any{"title": "Funding"})
	require.Equal(t, stdhttp.StatusCreated, rec.Code)
	second := body["id"].(string)

	rec, body = env.do(t, u.ID, stdhttp.MethodPatch, "/api/chat/sessions/"+first, map[string]any{"title": "Germany"})
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Equal(t, "Germany", body["title"])

	rec, _ = env.do(t, u.ID, stdhttp.MethodPatch, "/api/chat/sessions/"+first, map[string]any{"title": "  "})
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	rec, _ = env.do(t, other.ID, stdhttp.MethodPatch, "/api/chat/sessions/"+first, map[string]any{"title": "mine"})
	require.Equal(t, stdhttp.StatusNotFound, rec.Code)
	rec, _ = env.do(t, other.ID, stdhttp.MethodDelete, "/api/chat/sessions/"+first, nil)
	require.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec, _ = env.do(t, u.ID, stdhttp.MethodDelete, "/api/chat/sessions/"+first, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	rec, _ = env.do(t, u.ID, stdhttp.MethodGet, "/api/chat/sessions/"+first+"/messages", nil)
	require.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec, body = env.do(t, u.ID, stdhttp.MethodDelete, "/api/chat/sessions", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.EqualValues(t, 1, body["deleted"])
	rec, _ = env.do(t, u.ID, stdhttp.MethodGet, "/api/chat/sessions/"+second+"/messages", nil)
	require.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec, body = env.do(t, u.ID, stdhttp.MethodGet, "/api/chat/sessions", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Empty(t, body["sessions"])
}

func TestWritingToolsOverHTTP(t *testing.T) {
	ctx := context.Background()
	env := newAPIEnv(t, nil)
	sop := strings.Repeat("I want to study distributed systems. ", 10)

	discovery := testutil.SeedUser(t, ctx, env.db, types.StageDiscovery)
	rec, body := env.do(t, discovery.ID, stdhttp.MethodPost, "/api/sop/review", map[string]any{"text": sop})
	require.Equal(t, stdhttp.StatusForbidden, rec.Code)
	require.Equal(t, "STAGE_BLOCKED", errorOf(t, body)["code"])

	rec, body = env.do(t, discovery.ID, stdhttp.MethodPost, "/api/tools/cold-email", map[string]any{
		"professor_name": "Lee", "university_name": "KAIST", "research_area": "databases",
	})
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	require.Equal(t, "PROFILE_INCOMPLETE", errorOf(t, body)["code"])

	locked := testutil.SeedUser(t, ctx, env.db, types.StageLocked)
	testutil.SeedProfile(t, ctx, env.db, locked.ID, 3.4, 25000, "Computer Science")

	rec, _ = env.do(t, locked.ID, stdhttp.MethodPost, "/api/sop/review", map[string]any{"text": "Too short."})
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec, body = env.do(t, locked.ID, stdhttp.MethodPost, "/api/sop/review", map[string]any{"text": sop, "university_name": "KAIST"})
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.EqualValues(t, 72, body["overall_score"])
	require.Equal(t, "Good draft.", body["ai_feedback"])

	rec, body = env.do(t, locked.ID, stdhttp.MethodPost, "/api/tools/cold-email", map[string]any{"professor_name": "Lee"})
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_REQUEST", errorOf(t, body)["code"])

	rec, body = env.do(t, locked.ID, stdhttp.MethodPost, "/api/tools/cold-email", map[string]any{
		"professor_name": "Lee", "university_name": "KAIST", "research_area": "databases",
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	require.Equal(t, "Prospective student", body["subject_line"])
}

func uintPath(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
