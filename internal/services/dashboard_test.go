package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/advisor-backend/internal/data/repos/testutil"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
)

func withDeadlines(p types.Program, js string) types.Program {
	p.Deadlines = datatypes.JSON([]byte(js))
	return p
}

func (h *harness) dashboard(t *testing.T, now time.Time) *dashboardService {
	s := NewDashboardService(testutil.Logger(t), h.set.User, h.set.Profile, h.set.Shortlist, h.set.Task, h.set.University).(*dashboardService)
	s.now = func() time.Time { return now }
	return s
}

func TestDashboardTimeline(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageApplication)
	testutil.SeedProfile(t, ctx, h.db, u.ID, 3.6, 50000, "Computer Science")

	a := testutil.SeedUniversity(t, ctx, h.db, "Alpha Tech", "USA",
		withDeadlines(testutil.Program("Business Analytics", "Masters", 30000, 3.0), `{"Fall": "Nov 5"}`),
		withDeadlines(testutil.Program("Computer Science", "Masters", 30000, 3.0), `{"Fall 2027": "2027-02-01", "Spring": "Oct 1"}`),
	)
	b := testutil.SeedUniversity(t, ctx, h.db, "Beta Institute", "USA",
		withDeadlines(testutil.Program("Computer Science", "Bachelors", 20000, 3.0), `{"Fall": "Nov 20"}`),
	)
	c := testutil.SeedUniversity(t, ctx, h.db, "Gamma University", "Canada",
		withDeadlines(testutil.Program("Computer Science", "Masters", 20000, 3.0), `{"Fall": "Dec 15"}`),
	)
	open := testutil.SeedUniversity(t, ctx, h.db, "Open College", "Canada", testutil.Program("Computer Science", "Masters", 20000, 3.0))
	for _, id := range []uint{a.ID, b.ID, c.ID} {
		testutil.SeedShortlist(t, ctx, h.db, u.ID, id, true)
	}
	testutil.SeedShortlist(t, ctx, h.db, u.ID, open.ID, false)

	now := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)
	items, err := h.dashboard(t, now).Timeline(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.Equal(t, "Beta Institute", items[0].UniversityName)
	require.Equal(t, 19, items[0].DaysLeft)
	require.Equal(t, DeadlineUrgent, items[0].Status)
	require.Equal(t, time.Date(2026, time.November, 20, 0, 0, 0, 0, time.UTC), items[0].DeadlineDate)

	require.Equal(t, "Gamma University", items[1].UniversityName)
	require.Equal(t, 44, items[1].DaysLeft)
	require.Equal(t, DeadlineWarning, items[1].Status)

	require.Equal(t, "Alpha Tech", items[2].UniversityName)
	require.Equal(t, "Computer Science", items[2].ProgramName)
	require.Equal(t, "2027-02-01", items[2].DeadlineDisplay)
	require.Equal(t, 92, items[2].DaysLeft)
	require.Equal(t, DeadlineSafe, items[2].Status)
}

func TestDashboardTimelineWithoutProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageLocked)
	uni := testutil.SeedUniversity(t, ctx, h.db, "Alpha Tech", "USA", testutil.Program("Computer Science", "Masters", 30000, 3.0))
	testutil.SeedShortlist(t, ctx, h.db, u.ID, uni.ID, true)

	items, err := h.dashboard(t, time.Now()).Timeline(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestDashboardSummary(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := testutil.SeedUser(t, ctx, h.db, types.StageDiscovery)
	testutil.SeedProfile(t, ctx, h.db, u.ID, 3.6, 50000, "Computer Science")
	uni := testutil.SeedUniversity(t, ctx, h.db, "Alpha Tech", "USA", testutil.Program("Computer Science", "Masters", 30000, 3.0))
	testutil.SeedShortlist(t, ctx, h.db, u.ID, uni.ID, false)
	_, err := h.set.Task.Create(dbctx.Context{Ctx: ctx}, []*types.Task{
		{UserID: u.ID, Title: "Book IELTS"},
		{UserID: u.ID, Title: "Draft SOP", Status: types.TaskInProgress},
	})
	require.NoError(t, err)

	d, err := h.dashboard(t, time.Now()).Summary(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, types.StageDiscovery, d.CurrentStage)
	require.EqualValues(t, 1, d.ShortlistedCount)
	require.EqualValues(t, 0, d.LockedCount)
	require.Equal(t, 1, d.PendingTasks)
	require.Equal(t, "Lock at least one university to proceed to application guidance", d.NextAction)
	require.Equal(t, "Computer Science", d.Profile.FieldOfStudy)
}

func TestNextAction(t *testing.T) {
	require.Equal(t, "Complete your profile to unlock the AI Counsellor", nextAction(types.StageOnboarding, 0))
	require.Equal(t, "Talk to the AI Counsellor to discover and shortlist universities", nextAction(types.StageDiscovery, 0))
	require.Equal(t, "Review your locked universities and proceed to applications", nextAction(types.StageLocked, 2))
	require.Equal(t, "Complete your application tasks and prepare documents", nextAction(types.StageApplication, 2))
}

func TestParseDeadline(t *testing.T) {
	d, ok := parseDeadline("Dec 1", 2027)
	require.True(t, ok)
	require.Equal(t, time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC), d)

	d, ok = parseDeadline("Jan 15", 2027)
	require.True(t, ok)
	require.Equal(t, 2027, d.Year())

	_, ok = parseDeadline("rolling", 2027)
	require.False(t, ok)
}
