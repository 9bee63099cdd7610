// Package seed loads universities, programs and demo users from YAML.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/yungbote/advisor-backend/internal/data/aggregates"
	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type File struct {
	Universities []University `yaml:"universities"`
	Users        []User       `yaml:"users"`
}

type University struct {
	Name           string     `yaml:"name"`
	Country        string     `yaml:"country"`
	City           string     `yaml:"city"`
	QSRanking      *int       `yaml:"qs_ranking"`
	IsPublic       *bool      `yaml:"is_public"`
	TuitionPerYear *int       `yaml:"tuition_per_year"`
	MinGPA         *float64   `yaml:"min_gpa"`
	AcceptanceRate *float64   `yaml:"acceptance_rate"`
	DataSource     string     `yaml:"data_source"`
	VerifiedAt     *time.Time `yaml:"verified_at"`
	Programs       []Program  `yaml:"programs"`
}

type Program struct {
	Name                   string            `yaml:"name"`
	DegreeLevel            string            `yaml:"degree_level"`
	Department             string            `yaml:"department"`
	Category               string            `yaml:"category"`
	Discipline             string            `yaml:"discipline"`
	TuitionPerYearUSD      int               `yaml:"tuition_per_year_usd"`
	MinGPA                 *float64          `yaml:"min_gpa"`
	IELTSMin               *float64          `yaml:"ielts_min"`
	TOEFLMin               *int              `yaml:"toefl_min"`
	GRERequired            bool              `yaml:"gre_required"`
	GMATRequired           bool              `yaml:"gmat_required"`
	RequiresWorkExperience bool              `yaml:"requires_work_experience"`
	MinWorkExperienceYears int               `yaml:"min_work_experience_years"`
	PortfolioRequired      bool              `yaml:"portfolio_required"`
	IntakeTerms            []string          `yaml:"intake_terms"`
	Deadlines              map[string]string `yaml:"deadlines"`
}

type User struct {
	Email    string   `yaml:"email"`
	FullName string   `yaml:"full_name"`
	Stage    string   `yaml:"stage"`
	Profile  *Profile `yaml:"profile"`
}

type Profile struct {
	CurrentEducationLevel string   `yaml:"current_education_level"`
	DegreeMajor           string   `yaml:"degree_major"`
	GPA                   *float64 `yaml:"gpa"`
	WorkExperienceYears   int      `yaml:"work_experience_years"`
	IntendedDegree        string   `yaml:"intended_degree"`
	FieldOfStudy          string   `yaml:"field_of_study"`
	PreferredCountries    []string `yaml:"preferred_countries"`
	BudgetPerYear         *int     `yaml:"budget_per_year"`
	FundingPlan           string   `yaml:"funding_plan"`
	IELTSTOEFLStatus      string   `yaml:"ielts_toefl_status"`
	GREGMATStatus         string   `yaml:"gre_gmat_status"`
	SOPStatus             string   `yaml:"sop_status"`
}

type Result struct {
	UniversitiesCreated int
	UniversitiesSkipped int
	UsersCreated        int
	UsersSkipped        int
}

func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}
	for i, u := range f.Universities {
		if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Country) == "" {
			return nil, fmt.Errorf("university %d: name and country are required", i)
		}
	}
	for i, u := range f.Users {
		if strings.TrimSpace(u.Email) == "" {
			return nil, fmt.Errorf("user %d: email is required", i)
		}
		if u.Stage != "" {
			if _, ok := types.ParseStage(u.Stage); !ok {
				return nil, fmt.Errorf("user %s: unknown stage %q", u.Email, u.Stage)
			}
		}
	}
	return &f, nil
}

func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

type Loader struct {
	log   *logger.Logger
	tx    aggregates.TxRunner
	repos repos.Set
}

func NewLoader(log *logger.Logger, tx aggregates.TxRunner, set repos.Set) *Loader {
	return &Loader{log: log.With("component", "SeedLoader"), tx: tx, repos: set}
}

// Apply inserts everything in f that is not already present. Universities are
// matched by name and country, users by email.
func (l *Loader) Apply(dbc dbctx.Context, f *File) (Result, error) {
	var res Result
	err := l.tx.InTx(dbc.Ctx, func(dbc dbctx.Context) error {
		for _, u := range f.Universities {
			existing, err := l.repos.University.GetByNameAndCountry(dbc, u.Name, u.Country)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", u.Name, err)
			}
			if existing != nil {
				res.UniversitiesSkipped++
				continue
			}
			row, err := u.model()
			if err != nil {
				return err
			}
			if _, err := l.repos.University.Create(dbc, []*types.University{row}); err != nil {
				return fmt.Errorf("create %s: %w", u.Name, err)
			}
			res.UniversitiesCreated++
		}
		for _, u := range f.Users {
			existing, err := l.repos.User.GetByEmail(dbc, u.Email)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", u.Email, err)
			}
			if existing != nil {
				res.UsersSkipped++
				continue
			}
			stage := types.StageOnboarding
			if s, ok := types.ParseStage(u.Stage); ok {
				stage = s
			}
			created, err := l.repos.User.Create(dbc, []*types.User{{
				Email:               strings.ToLower(strings.TrimSpace(u.Email)),
				FullName:            u.FullName,
				CurrentStage:        stage,
				OnboardingCompleted: stage != types.StageOnboarding,
			}})
			if err != nil {
				return fmt.Errorf("create user %s: %w", u.Email, err)
			}
			if u.Profile != nil {
				p, err := u.Profile.model(created[0].ID)
				if err != nil {
					return err
				}
				if err := l.repos.Profile.Upsert(dbc, p); err != nil {
					return fmt.Errorf("create profile %s: %w", u.Email, err)
				}
			}
			res.UsersCreated++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	l.log.Info("seed applied",
		"universities_created", res.UniversitiesCreated,
		"universities_skipped", res.UniversitiesSkipped,
		"users_created", res.UsersCreated,
		"users_skipped", res.UsersSkipped,
	)
	return res, nil
}

func (u University) model() (*types.University, error) {
	isPublic := true
	if u.IsPublic != nil {
		isPublic = *u.IsPublic
	}
	source := u.DataSource
	if source == "" {
		source = "seed"
	}
	row := &types.University{
		Name:           strings.TrimSpace(u.Name),
		Country:        strings.TrimSpace(u.Country),
		City:           u.City,
		QSRanking:      u.QSRanking,
		IsPublic:       isPublic,
		TuitionPerYear: u.TuitionPerYear,
		MinGPA:         u.MinGPA,
		AcceptanceRate: u.AcceptanceRate,
		DataSource:     source,
		VerifiedAt:     u.VerifiedAt,
	}
	for _, p := range u.Programs {
		prog, err := p.model()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.Name, err)
		}
		row.Programs = append(row.Programs, prog)
	}
	return row, nil
}

func (p Program) model() (types.Program, error) {
	category := strings.ToUpper(strings.TrimSpace(p.Category))
	if category == "" {
		category = "OTHER"
	}
	intakes, err := jsonOrNil(p.IntakeTerms)
	if err != nil {
		return types.Program{}, fmt.Errorf("program %s intake terms: %w", p.Name, err)
	}
	deadlines, err := jsonMapOrNil(p.Deadlines)
	if err != nil {
		return types.Program{}, fmt.Errorf("program %s deadlines: %w", p.Name, err)
	}
	return types.Program{
		Name:                   strings.TrimSpace(p.Name),
		DegreeLevel:            p.DegreeLevel,
		Department:             p.Department,
		Category:               category,
		Discipline:             p.Discipline,
		TuitionPerYearUSD:      p.TuitionPerYearUSD,
		MinGPA:                 p.MinGPA,
		IELTSMin:               p.IELTSMin,
		TOEFLMin:               p.TOEFLMin,
		GRERequired:            p.GRERequired,
		GMATRequired:           p.GMATRequired,
		RequiresWorkExperience: p.RequiresWorkExperience,
		MinWorkExperienceYears: p.MinWorkExperienceYears,
		PortfolioRequired:      p.PortfolioRequired,
		IntakeTerms:            intakes,
		Deadlines:              deadlines,
	}, nil
}

func (p Profile) model(userID uuid.UUID) (*types.UserProfile, error) {
	countries, err := jsonOrNil(p.PreferredCountries)
	if err != nil {
		return nil, fmt.Errorf("preferred countries: %w", err)
	}
	status := func(v, def string) string {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			return v
		}
		return def
	}
	return &types.UserProfile{
		UserID:                userID,
		CurrentEducationLevel: p.CurrentEducationLevel,
		DegreeMajor:           p.DegreeMajor,
		GPA:                   p.GPA,
		WorkExperienceYears:   p.WorkExperienceYears,
		IntendedDegree:        p.IntendedDegree,
		FieldOfStudy:          p.FieldOfStudy,
		PreferredCountries:    countries,
		BudgetPerYear:         p.BudgetPerYear,
		FundingPlan:           p.FundingPlan,
		IELTSTOEFLStatus:      status(p.IELTSTOEFLStatus, types.ExamNotStarted),
		GREGMATStatus:         status(p.GREGMATStatus, types.ExamNotStarted),
		SOPStatus:             status(p.SOPStatus, types.SOPNotStarted),
	}, nil
}

func jsonOrNil(v []string) (datatypes.JSON, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return encode(v)
}

func jsonMapOrNil(v map[string]string) (datatypes.JSON, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return encode(v)
}

func encode(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
