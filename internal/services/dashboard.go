package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/catalogfilter"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

const (
	DeadlineUrgent  = "URGENT"
	DeadlineWarning = "WARNING"
	DeadlineSafe    = "SAFE"

	defaultDeadline = "Jan 15"
)

type Dashboard struct {
	User             *types.User          `json:"user"`
	Profile          *types.UserProfile   `json:"profile"`
	CurrentStage     types.Stage          `json:"current_stage"`
	ProfileStrength  eligibility.Strength `json:"profile_strength"`
	ShortlistedCount int64                `json:"shortlisted_count"`
	LockedCount      int64                `json:"locked_count"`
	PendingTasks     int                  `json:"pending_tasks"`
	NextAction       string               `json:"next_action"`
}

type TimelineItem struct {
	UniversityName  string    `json:"university_name"`
	ProgramName     string    `json:"program_name"`
	DeadlineDate    time.Time `json:"deadline_date"`
	DeadlineDisplay string    `json:"deadline_display"`
	DaysLeft        int       `json:"days_left"`
	Status          string    `json:"status"`
}

type DashboardService interface {
	Summary(ctx context.Context, userID uuid.UUID) (*Dashboard, error)
	// Timeline lists the application deadline of each locked university,
	// nearest first. Users without a profile get an empty timeline.
	Timeline(ctx context.Context, userID uuid.UUID) ([]TimelineItem, error)
}

type dashboardService struct {
	log          *logger.Logger
	users        repos.UserRepo
	profiles     repos.UserProfileRepo
	shortlist    repos.ShortlistRepo
	tasks        repos.TaskRepo
	universities repos.UniversityRepo
	now          func() time.Time
}

func NewDashboardService(
	log *logger.Logger,
	users repos.UserRepo,
	profiles repos.UserProfileRepo,
	shortlist repos.ShortlistRepo,
	tasks repos.TaskRepo,
	universities repos.UniversityRepo,
) DashboardService {
	return &dashboardService{
		log:          log.With("service", "DashboardService"),
		users:        users,
		profiles:     profiles,
		shortlist:    shortlist,
		tasks:        tasks,
		universities: universities,
		now:          time.Now,
	}
}

func (s *dashboardService) Summary(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	dbc := dbctx.Context{Ctx: ctx}
	u, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user")
	}
	p, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	shortlisted, err := s.shortlist.CountByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("count shortlist: %w", err)
	}
	locked, err := s.shortlist.CountLockedByUser(dbc, userID, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("count locked: %w", err)
	}
	tasks, err := s.tasks.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	pending := 0
	for _, t := range tasks {
		if t.Status == types.TaskPending {
			pending++
		}
	}
	return &Dashboard{
		User:             u,
		Profile:          p,
		CurrentStage:     u.CurrentStage,
		ProfileStrength:  eligibility.AnalyzeProfileStrength(eligibility.FromUserProfile(p)),
		ShortlistedCount: shortlisted,
		LockedCount:      locked,
		PendingTasks:     pending,
		NextAction:       nextAction(u.CurrentStage, shortlisted),
	}, nil
}

func nextAction(s types.Stage, shortlisted int64) string {
	switch s {
	case types.StageOnboarding:
		return "Complete your profile to unlock the AI Counsellor"
	case types.StageDiscovery:
		if shortlisted == 0 {
			return "Talk to the AI Counsellor to discover and shortlist universities"
		}
		return "Lock at least one university to proceed to application guidance"
	case types.StageLocked:
		return "Review your locked universities and proceed to applications"
	default:
		return "Complete your application tasks and prepare documents"
	}
}

func (s *dashboardService) Timeline(ctx context.Context, userID uuid.UUID) ([]TimelineItem, error) {
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	out := []TimelineItem{}
	if p == nil {
		return out, nil
	}
	entries, err := s.shortlist.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list shortlist: %w", err)
	}
	now := s.now()
	for _, e := range entries {
		if !e.IsLocked {
			continue
		}
		uni, err := s.universities.GetWithPrograms(dbc, e.UniversityID)
		if err != nil {
			return nil, fmt.Errorf("load university: %w", err)
		}
		if uni == nil {
			continue
		}
		out = append(out, timelineItem(*uni, p, now))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysLeft < out[j].DaysLeft })
	return out, nil
}

func timelineItem(uni types.University, p *types.UserProfile, now time.Time) TimelineItem {
	item := TimelineItem{UniversityName: uni.Name, ProgramName: "General Application", DeadlineDisplay: defaultDeadline}
	prog := bestProgram(uni.Programs, p)
	if prog != nil {
		item.ProgramName = prog.Name
		if d := fallDeadline(*prog); d != "" {
			item.DeadlineDisplay = d
		}
	}
	date, ok := parseDeadline(item.DeadlineDisplay, now.Year()+1)
	if !ok {
		item.DeadlineDate = now.AddDate(0, 0, 90)
		item.DaysLeft = 90
		item.Status = DeadlineSafe
		return item
	}
	item.DeadlineDate = date
	item.DaysLeft = int(date.Sub(now).Hours() / 24)
	switch {
	case item.DaysLeft < 30:
		item.Status = DeadlineUrgent
	case item.DaysLeft < 60:
		item.Status = DeadlineWarning
	default:
		item.Status = DeadlineSafe
	}
	return item
}

// bestProgram prefers the user's degree level, then a program named after
// their field, then the first candidate.
func bestProgram(programs []types.Program, p *types.UserProfile) *types.Program {
	if len(programs) == 0 {
		return nil
	}
	pool := programs
	if d := catalogfilter.DegreeOf(p.IntendedDegree); d != catalogfilter.DegreeAny {
		var level []types.Program
		for _, prog := range programs {
			if d.Matches(prog) {
				level = append(level, prog)
			}
		}
		if len(level) > 0 {
			pool = level
		}
	}
	if field := strings.ToLower(strings.TrimSpace(p.FieldOfStudy)); field != "" {
		for i := range pool {
			if strings.Contains(strings.ToLower(pool[i].Name), field) {
				return &pool[i]
			}
		}
	}
	return &pool[0]
}

// fallDeadline returns the deadline for a fall intake, or the first term in
// lexical order when none is labelled fall.
func fallDeadline(prog types.Program) string {
	m := prog.DeadlineMap()
	if len(m) == 0 {
		return ""
	}
	terms := make([]string, 0, len(m))
	for term := range m {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		if strings.Contains(strings.ToLower(term), "fall") && m[term] != "" {
			return m[term]
		}
	}
	return m[terms[0]]
}

// parseDeadline accepts ISO dates as-is. "Jan 2" style dates are placed in
// targetYear, or the year before for September through December.
func parseDeadline(raw string, targetYear int) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	t, err := time.Parse("Jan 2 2006", fmt.Sprintf("%s %d", raw, targetYear))
	if err != nil {
		return time.Time{}, false
	}
	if t.Month() >= time.September {
		t = t.AddDate(-1, 0, 0)
	}
	return t, true
}
