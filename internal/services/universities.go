package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/catalogfilter"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/stage"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type UniversityQuery struct {
	Countries  []string
	Discipline string
	Degree     string
	MaxBudget  int
}

type ProgramView struct {
	types.Program
	Eligible       bool     `json:"eligible"`
	MissingReasons []string `json:"missing_requirements,omitempty"`
}

type UniversityView struct {
	ID             uint               `json:"id"`
	Name           string             `json:"name"`
	Country        string             `json:"country"`
	City           string             `json:"city"`
	QSRanking      *int               `json:"qs_ranking"`
	IsPublic       bool               `json:"is_public"`
	TuitionPerYear *int               `json:"tuition_per_year"`
	Fit            eligibility.Result `json:"fit"`
	IsShortlisted  bool               `json:"is_shortlisted"`
	Programs       []ProgramView      `json:"programs"`
}

type UniversityService interface {
	List(ctx context.Context, userID uuid.UUID, q UniversityQuery) ([]UniversityView, error)
	Get(ctx context.Context, userID uuid.UUID, universityID uint) (*UniversityView, error)
	// Compare returns 2 to 5 universities side by side, in request order.
	Compare(ctx context.Context, userID uuid.UUID, ids []uint) ([]UniversityView, error)
}

const (
	minCompare = 2
	maxCompare = 5
)

type universityService struct {
	log          *logger.Logger
	users        repos.UserRepo
	profiles     repos.UserProfileRepo
	universities repos.UniversityRepo
	shortlist    repos.ShortlistRepo
}

func NewUniversityService(
	log *logger.Logger,
	users repos.UserRepo,
	profiles repos.UserProfileRepo,
	universities repos.UniversityRepo,
	shortlist repos.ShortlistRepo,
) UniversityService {
	return &universityService{
		log:          log.With("service", "UniversityService"),
		users:        users,
		profiles:     profiles,
		universities: universities,
		shortlist:    shortlist,
	}
}

// viewer loads what every catalog read needs and applies the DISCOVERY gate.
func (s *universityService) viewer(dbc dbctx.Context, userID uuid.UUID) (eligibility.Profile, map[uint]bool, error) {
	u, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return eligibility.Profile{}, nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return eligibility.Profile{}, nil, apierr.NotFound("user")
	}
	if v := stage.RequireMinimum(u.CurrentStage, types.StageDiscovery, "browse universities"); v != nil {
		return eligibility.Profile{}, nil, violationError(v)
	}
	prof, err := s.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return eligibility.Profile{}, nil, fmt.Errorf("load profile: %w", err)
	}
	entries, err := s.shortlist.ListByUser(dbc, userID)
	if err != nil {
		return eligibility.Profile{}, nil, fmt.Errorf("list shortlist: %w", err)
	}
	shortlisted := make(map[uint]bool, len(entries))
	for _, e := range entries {
		shortlisted[e.UniversityID] = true
	}
	return eligibility.FromUserProfile(prof), shortlisted, nil
}

func (s *universityService) List(ctx context.Context, userID uuid.UUID, q UniversityQuery) ([]UniversityView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	p, shortlisted, err := s.viewer(dbc, userID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.universities.ListWithPrograms(dbc)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	c := catalogfilter.Criteria{
		Discipline: strings.ToLower(strings.TrimSpace(q.Discipline)),
		Degree:     catalogfilter.DegreeOf(q.Degree),
		MaxBudget:  q.MaxBudget,
	}
	for _, country := range q.Countries {
		if n := strings.ToLower(strings.TrimSpace(country)); n != "" {
			if c.Countries == nil {
				c.Countries = map[string]bool{}
			}
			c.Countries[n] = true
		}
	}

	filtered := catalogfilter.Apply(catalog, c)
	out := make([]UniversityView, 0, len(filtered))
	for _, uni := range filtered {
		out = append(out, universityView(uni, p, shortlisted[uni.ID]))
	}
	return out, nil
}

func (s *universityService) Get(ctx context.Context, userID uuid.UUID, universityID uint) (*UniversityView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	p, shortlisted, err := s.viewer(dbc, userID)
	if err != nil {
		return nil, err
	}
	uni, err := s.universities.GetWithPrograms(dbc, universityID)
	if err != nil {
		return nil, fmt.Errorf("load university: %w", err)
	}
	if uni == nil {
		return nil, apierr.NotFound("university")
	}
	v := universityView(*uni, p, shortlisted[uni.ID])
	return &v, nil
}

func (s *universityService) Compare(ctx context.Context, userID uuid.UUID, ids []uint) ([]UniversityView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	p, shortlisted, err := s.viewer(dbc, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) < minCompare || len(ids) > maxCompare {
		return nil, apierr.Invalid(fmt.Errorf("compare needs between %d and %d university ids", minCompare, maxCompare))
	}
	out := make([]UniversityView, 0, len(ids))
	for _, id := range ids {
		uni, err := s.universities.GetWithPrograms(dbc, id)
		if err != nil {
			return nil, fmt.Errorf("load university: %w", err)
		}
		if uni == nil {
			return nil, apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "university %d not found", id)
		}
		out = append(out, universityView(*uni, p, shortlisted[uni.ID]))
	}
	return out, nil
}

func universityView(uni types.University, p eligibility.Profile, shortlisted bool) UniversityView {
	progs := make([]ProgramView, 0, len(uni.Programs))
	for _, prog := range uni.Programs {
		missing := eligibility.CheckEligibility(prog, p)
		progs = append(progs, ProgramView{Program: prog, Eligible: len(missing) == 0, MissingReasons: missing})
	}
	return UniversityView{
		ID:             uni.ID,
		Name:           uni.Name,
		Country:        uni.Country,
		City:           uni.City,
		QSRanking:      uni.QSRanking,
		IsPublic:       uni.IsPublic,
		TuitionPerYear: uni.TuitionPerYear,
		Fit:            eligibility.Categorize(uni, uni.Programs, p),
		IsShortlisted:  shortlisted,
		Programs:       progs,
	}
}
