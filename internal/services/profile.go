package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/advisor-backend/internal/data/aggregates"
	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/stage"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type ProfileInput struct {
	CurrentEducationLevel *string  `json:"current_education_level"`
	DegreeMajor           *string  `json:"degree_major"`
	GPA                   *float64 `json:"gpa"`
	WorkExperienceYears   *int     `json:"work_experience_years"`
	IntendedDegree        *string  `json:"intended_degree"`
	FieldOfStudy          *string  `json:"field_of_study"`
	PreferredCountries    []string `json:"preferred_countries"`
	BudgetPerYear         *int     `json:"budget_per_year"`
	FundingPlan           *string  `json:"funding_plan"`
	IELTSTOEFLStatus      *string  `json:"ielts_toefl_status"`
	GREGMATStatus         *string  `json:"gre_gmat_status"`
	SOPStatus             *string  `json:"sop_status"`
}

type ProfileView struct {
	User     *types.User          `json:"user"`
	Profile  *types.UserProfile   `json:"profile"`
	Strength eligibility.Strength `json:"strength"`
	NextStep string               `json:"next_step"`
}

type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileView, error)
	Upsert(ctx context.Context, userID uuid.UUID, in ProfileInput) (*ProfileView, error)
	// CompleteOnboarding moves an ONBOARDING user to DISCOVERY once the profile
	// has a GPA, field of study and budget. Later stages are left unchanged.
	CompleteOnboarding(ctx context.Context, userID uuid.UUID) (*ProfileView, error)
}

type profileService struct {
	log      *logger.Logger
	tx       aggregates.TxRunner
	users    repos.UserRepo
	profiles repos.UserProfileRepo
}

func NewProfileService(log *logger.Logger, tx aggregates.TxRunner, users repos.UserRepo, profiles repos.UserProfileRepo) ProfileService {
	return &profileService{log: log.With("service", "ProfileService"), tx: tx, users: users, profiles: profiles}
}

func (s *profileService) view(dbc dbctx.Context, userID uuid.UUID) (*ProfileView, error) {
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
	return &ProfileView{
		User:     u,
		Profile:  p,
		Strength: eligibility.AnalyzeProfileStrength(eligibility.FromUserProfile(p)),
		NextStep: stage.NextStep(u.CurrentStage),
	}, nil
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	return s.view(dbctx.Context{Ctx: ctx}, userID)
}

func (s *profileService) Upsert(ctx context.Context, userID uuid.UUID, in ProfileInput) (*ProfileView, error) {
	if in.GPA != nil && (*in.GPA < 0 || *in.GPA > 4.0) {
		return nil, apierr.Invalid(errors.New("gpa must be between 0 and 4.0"))
	}
	if in.BudgetPerYear != nil && *in.BudgetPerYear < 0 {
		return nil, apierr.Invalid(errors.New("budget_per_year must not be negative"))
	}
	if in.WorkExperienceYears != nil && *in.WorkExperienceYears < 0 {
		return nil, apierr.Invalid(errors.New("work_experience_years must not be negative"))
	}

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
	if p == nil {
		p = &types.UserProfile{
			UserID:           userID,
			IELTSTOEFLStatus: types.ExamNotStarted,
			GREGMATStatus:    types.ExamNotStarted,
			SOPStatus:        types.SOPNotStarted,
		}
	}
	if err := applyProfile(p, in); err != nil {
		return nil, err
	}
	if err := s.profiles.Upsert(dbc, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return s.view(dbc, userID)
}

func applyProfile(p *types.UserProfile, in ProfileInput) error {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setString(&p.CurrentEducationLevel, in.CurrentEducationLevel)
	setString(&p.DegreeMajor, in.DegreeMajor)
	setString(&p.IntendedDegree, in.IntendedDegree)
	setString(&p.FieldOfStudy, in.FieldOfStudy)
	setString(&p.FundingPlan, in.FundingPlan)
	if in.GPA != nil {
		p.GPA = in.GPA
	}
	if in.BudgetPerYear != nil {
		p.BudgetPerYear = in.BudgetPerYear
	}
	if in.WorkExperienceYears != nil {
		p.WorkExperienceYears = *in.WorkExperienceYears
	}
	if in.PreferredCountries != nil {
		clean := make([]string, 0, len(in.PreferredCountries))
		for _, c := range in.PreferredCountries {
			if c = strings.TrimSpace(c); c != "" {
				clean = append(clean, c)
			}
		}
		b, err := json.Marshal(clean)
		if err != nil {
			return fmt.Errorf("encode countries: %w", err)
		}
		p.PreferredCountries = datatypes.JSON(b)
	}
	for _, f := range []struct {
		dst   *string
		v     *string
		valid []string
	}{
		{&p.IELTSTOEFLStatus, in.IELTSTOEFLStatus, []string{types.ExamNotStarted, types.ExamInProgress, types.ExamCompleted}},
		{&p.GREGMATStatus, in.GREGMATStatus, []string{types.ExamNotStarted, types.ExamInProgress, types.ExamCompleted}},
		{&p.SOPStatus, in.SOPStatus, []string{types.SOPNotStarted, types.SOPDraft, types.SOPReady}},
	} {
		if f.v == nil {
			continue
		}
		v := strings.ToUpper(strings.TrimSpace(*f.v))
		if !contains(f.valid, v) {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeInvalidStatus, "Invalid status: %s", *f.v)
		}
		*f.dst = v
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *profileService) CompleteOnboarding(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		u, err := s.users.LockByID(dbc, userID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if u == nil {
			return apierr.NotFound("user")
		}
		if u.CurrentStage != types.StageOnboarding {
			return nil
		}
		p, err := s.profiles.GetByUserID(dbc, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if missing := missingOnboardingFields(p); len(missing) > 0 {
			return apierr.Newf(http.StatusBadRequest, apierr.CodeProfileIncomplete, "Complete your profile first: missing %s", strings.Join(missing, ", ")).
				WithDetails(map[string]any{
					"missing_fields": missing,
					"current_stage":  string(u.CurrentStage),
					"next_step":      stage.NextStep(u.CurrentStage),
				})
		}
		return s.users.CompleteOnboarding(dbc, userID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("onboarding completed", "user_id", userID)
	return s.Get(ctx, userID)
}

func missingOnboardingFields(p *types.UserProfile) []string {
	if p == nil {
		return []string{"gpa", "field_of_study", "budget_per_year"}
	}
	var missing []string
	if p.GPA == nil || *p.GPA <= 0 {
		missing = append(missing, "gpa")
	}
	if strings.TrimSpace(p.FieldOfStudy) == "" {
		missing = append(missing, "field_of_study")
	}
	if p.BudgetPerYear == nil || *p.BudgetPerYear <= 0 {
		missing = append(missing, "budget_per_year")
	}
	return missing
}
