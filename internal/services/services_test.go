package services

import (
	"context"
	"errors"
	"net/http"
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
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/ctxutil"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
)

type noChecklist struct{}

func (noChecklist) Generate(ctx context.Context, name, country string) ([]actions.ChecklistItem, error) {
	return nil, errors.New("offline")
}

type harness struct {
	db           *gorm.DB
	set          repos.Set
	shortlist    ShortlistService
	tasks        TaskService
	profiles     ProfileService
	universities UniversityService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
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
		Checklist:    noChecklist{},
		Log:          log,
	})
	return &harness{
		db:           db,
		set:          set,
		shortlist:    NewShortlistService(log, set.User, set.Profile, set.University, set.Shortlist, set.Task, exec),
		tasks:        NewTaskService(log, set.Task, exec),
		profiles:     NewProfileService(log, tx, set.User, set.Profile),
		universities: NewUniversityService(log, set.User, set.Profile, set.University, set.Shortlist),
	}
}

func requireCode(t *testing.T, err error, status int, code string) *apierr.Error {
	t.Helper()
	require.Error(t, err)
	ae, ok := apierr.As(err)
	require.True(t, ok, "expected api error, got %v", err)
	require.Equal(t, status, ae.Status)
	require.Equal(t, code, ae.Code)
	return ae
}

func TestShortlistServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	testutil.SeedProfile(t, ctx, h.db, u.ID, 3.6, 50000, "Computer Science")
	uni := testutil.SeedUniversity(t, ctx, h.db, "TU Munich", "Germany", testutil.Program("Computer Science", "Masters", 3000, 3.0))

	_, err := h.shortlist.Add(ctx, u.ID, uni.ID, "wild")
	requireCode(t, err, http.StatusBadRequest, apierr.CodeInvalidRequest)

	entry, err := h.shortlist.Add(ctx, u.ID, uni.ID, "")
	require.NoError(t, err)
	require.Equal(t, "TU Munich", entry.Result["university_name"])

	_, err = h.shortlist.Add(ctx, u.ID, uni.ID, "")
	requireCode(t, err, http.StatusConflict, apierr.CodeAlreadyExists)

	_, err = h.shortlist.Lock(ctx, u.ID, uni.ID)
	require.NoError(t, err)

	views, err := h.shortlist.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.True(t, views[0].IsLocked)
	require.EqualValues(t, 4, views[0].TaskCount)
	require.Equal(t, "Germany", views[0].Country)

	// APPLICATION freezes the shortlist and blocks unconfirmed unlocks.
	err = h.shortlist.Remove(ctx, u.ID, uni.ID)
	requireCode(t, err, http.StatusForbidden, apierr.CodeStageLocked)

	_, err = h.shortlist.Unlock(ctx, u.ID, uni.ID, false)
	ae := requireCode(t, err, http.StatusConflict, apierr.CodeConfirmationRequired)
	require.Equal(t, "APPLICATION", ae.Details["current_stage"])

	_, err = h.shortlist.Unlock(ctx, u.ID, uni.ID, true)
	require.NoError(t, err)
	require.NoError(t, h.shortlist.Remove(ctx, u.ID, uni.ID))

	err = h.shortlist.Remove(ctx, u.ID, uni.ID)
	requireCode(t, err, http.StatusNotFound, apierr.CodeNotFound)
}

func TestShortlistServiceRemoveAfterLock(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	testutil.SeedProfile(t, ctx, h.db, u.ID, 3.6, 50000, "Computer Science")
	a := testutil.SeedUniversity(t, ctx, h.db, "TU Munich", "Germany", testutil.Program("Computer Science", "Masters", 3000, 3.0))
	b := testutil.SeedUniversity(t, ctx, h.db, "RWTH Aachen", "Germany", testutil.Program("Computer Science", "Masters", 1000, 3.0))

	_, err := h.shortlist.Add(ctx, u.ID, a.ID, "")
	require.NoError(t, err)
	_, err = h.shortlist.Add(ctx, u.ID, b.ID, "")
	require.NoError(t, err)
	_, err = h.shortlist.Lock(ctx, u.ID, a.ID)
	require.NoError(t, err)

	err = h.shortlist.Remove(ctx, u.ID, b.ID)
	ae := requireCode(t, err, http.StatusForbidden, apierr.CodeStageLocked)
	require.Equal(t, "APPLICATION", ae.Details["current_stage"])

	kept, err := h.set.Shortlist.GetByUserAndUniversity(dbctx.Context{Ctx: ctx}, u.ID, b.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
}

func TestShortlistServiceRemoveLockedEntry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	uni := testutil.SeedUniversity(t, ctx, h.db, "TU Munich", "Germany", testutil.Program("Computer Science", "Masters", 3000, 3.0))
	testutil.SeedShortlist(t, ctx, h.db, u.ID, uni.ID, true)

	err := h.shortlist.Remove(ctx, u.ID, uni.ID)
	requireCode(t, err, http.StatusConflict, apierr.CodeEntryLocked)
}

func TestShortlistServiceOnboardingBlocked(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageOnboarding)
	uni := testutil.SeedUniversity(t, ctx, h.db, "MIT", "USA", testutil.Program("Computer Science", "Masters", 60000, 3.8))

	_, err := h.shortlist.Add(ctx, u.ID, uni.ID, "")
	ae := requireCode(t, err, http.StatusForbidden, apierr.CodeStageBlocked)
	require.Equal(t, "DISCOVERY", ae.Details["required_stage"])

	_, err = h.shortlist.Add(ctx, uuid.New(), uni.ID, "")
	requireCode(t, err, http.StatusNotFound, apierr.CodeNotFound)
}

func TestTaskServiceCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	other := testutil.SeedUser(t, ctx, h.db, types.StageApplication)

	_, err := h.tasks.Create(ctx, u.ID, TaskInput{Title: "Write SOP"})
	requireCode(t, err, http.StatusForbidden, apierr.CodeStageBlocked)

	require.NoError(t, h.set.User.UpdateStage(dbctx.Context{Ctx: ctx}, u.ID, types.StageApplication))
	task, err := h.tasks.Create(ctx, u.ID, TaskInput{Title: "Write SOP", Priority: 9})
	require.NoError(t, err)
	require.Equal(t, 3, task.Priority)

	status := "in_progress"
	due := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	updated, err := h.tasks.Update(ctx, u.ID, task.ID, TaskUpdate{Status: &status, DueDate: &due})
	require.NoError(t, err)
	require.Equal(t, types.TaskInProgress, updated.Status)

	bad := "DONE"
	_, err = h.tasks.Update(ctx, u.ID, task.ID, TaskUpdate{Status: &bad})
	requireCode(t, err, http.StatusBadRequest, apierr.CodeInvalidStatus)

	empty := "  "
	_, err = h.tasks.Update(ctx, u.ID, task.ID, TaskUpdate{Title: &empty})
	requireCode(t, err, http.StatusBadRequest, apierr.CodeInvalidRequest)

	_, err = h.tasks.Update(ctx, other.ID, task.ID, TaskUpdate{Status: &status})
	requireCode(t, err, http.StatusNotFound, apierr.CodeNotFound)

	list, err := h.tasks.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestProfileServiceOnboarding(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageOnboarding)

	_, err := h.profiles.CompleteOnboarding(ctx, u.ID)
	ae := requireCode(t, err, http.StatusBadRequest, apierr.CodeProfileIncomplete)
	require.Equal(t, []string{"gpa", "field_of_study", "budget_per_year"}, ae.Details["missing_fields"])

	gpa, field, budget := 3.7, " Computer Science ", 40000
	ielts := "completed"
	view, err := h.profiles.Upsert(ctx, u.ID, ProfileInput{
		GPA:                &gpa,
		FieldOfStudy:       &field,
		BudgetPerYear:      &budget,
		PreferredCountries: []string{"Germany", " ", "Canada"},
		IELTSTOEFLStatus:   &ielts,
	})
	require.NoError(t, err)
	require.Equal(t, "Computer Science", view.Profile.FieldOfStudy)
	require.Equal(t, []string{"Germany", "Canada"}, view.Profile.Countries())
	require.Equal(t, types.ExamCompleted, view.Profile.IELTSTOEFLStatus)
	require.Equal(t, "Not Started", view.Strength.SOP)

	view, err = h.profiles.CompleteOnboarding(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, types.StageDiscovery, view.User.CurrentStage)
	require.True(t, view.User.OnboardingCompleted)

	// Later stages are left alone.
	view, err = h.profiles.CompleteOnboarding(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, types.StageDiscovery, view.User.CurrentStage)
}

func TestProfileServiceValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageOnboarding)

	gpa := 4.5
	_, err := h.profiles.Upsert(ctx, u.ID, ProfileInput{GPA: &gpa})
	requireCode(t, err, http.StatusBadRequest, apierr.CodeInvalidRequest)

	sop := "published"
	_, err = h.profiles.Upsert(ctx, u.ID, ProfileInput{SOPStatus: &sop})
	requireCode(t, err, http.StatusBadRequest, apierr.CodeInvalidStatus)

	_, err = h.profiles.Get(ctx, uuid.New())
	requireCode(t, err, http.StatusNotFound, apierr.CodeNotFound)
}

func TestUniversityServiceList(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	testutil.SeedProfile(t, ctx, h.db, u.ID, 3.5, 30000, "Computer Science")
	tum := testutil.SeedUniversity(t, ctx, h.db, "TU Munich", "Germany", testutil.Program("Computer Science", "Masters", 3000, 3.0))
	mba := testutil.Program("Business Administration", "MBA", 20000, 3.0)
	mba.RequiresWorkExperience = true
	mba.MinWorkExperienceYears = 2
	testutil.SeedUniversity(t, ctx, h.db, "Mannheim", "Germany", mba)
	testutil.SeedUniversity(t, ctx, h.db, "Oxford", "UK", testutil.Program("Computer Science", "Masters", 45000, 3.7))
	testutil.SeedShortlist(t, ctx, h.db, u.ID, tum.ID, false)

	all, err := h.universities.List(ctx, u.ID, UniversityQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	de, err := h.universities.List(ctx, u.ID, UniversityQuery{Countries: []string{"germany"}, Discipline: "computer"})
	require.NoError(t, err)
	require.Len(t, de, 1)
	require.Equal(t, "TU Munich", de[0].Name)
	require.True(t, de[0].IsShortlisted)
	require.Equal(t, types.CategorySafe, de[0].Fit.Category)

	cheap, err := h.universities.List(ctx, u.ID, UniversityQuery{MaxBudget: 25000})
	require.NoError(t, err)
	require.Len(t, cheap, 2)

	mannheim, err := h.universities.List(ctx, u.ID, UniversityQuery{Degree: "MBA"})
	require.NoError(t, err)
	require.Len(t, mannheim, 1)
	require.False(t, mannheim[0].Programs[0].Eligible)
	require.NotEmpty(t, mannheim[0].Programs[0].MissingReasons)

	got, err := h.universities.Get(ctx, u.ID, tum.ID)
	require.NoError(t, err)
	require.Equal(t, "Germany", got.Country)

	_, err = h.universities.Get(ctx, u.ID, 9999)
	requireCode(t, err, http.StatusNotFound, apierr.CodeNotFound)
}

func TestUniversityServiceRequiresDiscovery(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageOnboarding)

	_, err := h.universities.List(ctx, u.ID, UniversityQuery{})
	requireCode(t, err, http.StatusForbidden, apierr.CodeStageBlocked)
}

func TestUniversityServiceCompare(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	testutil.SeedProfile(t, ctx, h.db, u.ID, 3.5, 30000, "Computer Science")
	tum := testutil.SeedUniversity(t, ctx, h.db, "TU Munich", "Germany", testutil.Program("Computer Science", "Masters", 3000, 3.0))
	ox := testutil.SeedUniversity(t, ctx, h.db, "Oxford", "UK", testutil.Program("Computer Science", "Masters", 45000, 3.7))

	got, err := h.universities.Compare(ctx, u.ID, []uint{ox.ID, tum.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Oxford", got[0].Name)
	require.Equal(t, "TU Munich", got[1].Name)
	require.NotEmpty(t, got[1].Programs)

	_, err = h.universities.Compare(ctx, u.ID, []uint{tum.ID})
	requireCode(t, err, http.StatusBadRequest, apierr.CodeInvalidRequest)
	_, err = h.universities.Compare(ctx, u.ID, []uint{1, 2, 3, 4, 5, 6})
	requireCode(t, err, http.StatusBadRequest, apierr.CodeInvalidRequest)
	_, err = h.universities.Compare(ctx, u.ID, []uint{tum.ID, 9999})
	requireCode(t, err, http.StatusNotFound, apierr.CodeNotFound)

	early := testutil.SeedUser(t, ctx, h.db, types.StageOnboarding)
	_, err = h.universities.Compare(ctx, early.ID, []uint{tum.ID, ox.ID})
	requireCode(t, err, http.StatusForbidden, apierr.CodeStageBlocked)
}

func TestAuthServiceRoundTrip(t *testing.T) {
	log := testutil.Logger(t)
	svc := NewAuthService(log, "secret", "advisor")
	id := uuid.New()

	tok, err := svc.MintToken(id, time.Hour)
	require.NoError(t, err)

	ctx, err := svc.SetContextFromToken(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, id, ctxutil.UserID(ctx))

	_, err = NewAuthService(log, "other", "advisor").SetContextFromToken(context.Background(), tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.SetContextFromToken(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := &authService{log: log, jwtSecretKey: "secret", now: func() time.Time { return time.Now().Add(-48 * time.Hour) }}
	old, err := expired.MintToken(id, time.Hour)
	require.NoError(t, err)
	_, err = svc.SetContextFromToken(context.Background(), old)
	require.ErrorIs(t, err, ErrInvalidToken)
}
