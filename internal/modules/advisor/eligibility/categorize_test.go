package eligibility

import (
	"testing"

	"github.com/stretchr/testify/require"

	types "github.com/yungbote/advisor-backend/internal/domain"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func program(minGPA float64, tuition int) types.Program {
	return types.Program{Name: "MS Computer Science", DegreeLevel: "Masters", MinGPA: f64(minGPA), TuitionPerYearUSD: tuition}
}

func TestCategorizeScenarios(t *testing.T) {
	cases := []struct {
		name     string
		profile  Profile
		prog     types.Program
		want     types.Category
		riskPart string
	}{
		{
			name:     "gpa gap is a dream",
			profile:  Profile{GPA: f64(2.8), Budget: intp(25000)},
			prog:     program(3.9, 58000),
			want:     types.CategoryDream,
			riskPart: "GPA requirement (3.9) is higher than your current GPA (2.8)",
		},
		{
			name:    "strong profile under budget is safe",
			profile: Profile{GPA: f64(3.8), Budget: intp(50000)},
			prog:    program(3.0, 20000),
			want:    types.CategorySafe,
		},
		{
			name:     "tuition over budget is a dream regardless of gpa",
			profile:  Profile{GPA: f64(4.0), Budget: intp(20000)},
			prog:     program(2.0, 30000),
			want:     types.CategoryDream,
			riskPart: "Tuition ($30,000) exceeds your budget ($20,000)",
		},
		{
			name:    "middle ground is a target",
			profile: Profile{GPA: f64(3.2), Budget: intp(40000)},
			prog:    program(3.1, 35000),
			want:    types.CategoryTarget,
		},
		{
			name:    "safe boundary is inclusive",
			profile: Profile{GPA: f64(3.5), Budget: intp(30000)},
			prog:    program(3.25, 30000),
			want:    types.CategorySafe,
		},
		{
			name:    "missing profile uses defaults",
			profile: Profile{},
			prog:    types.Program{TuitionPerYearUSD: 30000},
			want:    types.CategoryTarget,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CategorizeProgram(types.University{}, tc.prog, tc.profile)
			require.Equal(t, tc.want, got.Category)
			if tc.riskPart != "" {
				require.Contains(t, got.RiskReason, tc.riskPart)
			}
			again := CategorizeProgram(types.University{}, tc.prog, tc.profile)
			require.Equal(t, got, again)
		})
	}
}

func TestDreamWheneverGPAGapOrTuitionOverrun(t *testing.T) {
	for _, gpa := range []float64{2.0, 2.5, 3.0, 3.5} {
		for _, tuition := range []int{5000, 30000, 90000} {
			p := Profile{GPA: f64(gpa), Budget: intp(40000)}
			got := Classify(Terms{MinGPA: gpa + 0.31, Tuition: tuition}, p)
			require.Equal(t, types.CategoryDream, got.Category, "gpa=%v tuition=%d", gpa, tuition)
		}
	}
	for _, minGPA := range []float64{1.0, 3.0, 4.0} {
		p := Profile{GPA: f64(3.0), Budget: intp(10000)}
		got := Classify(Terms{MinGPA: minGPA, Tuition: 12001}, p)
		require.Equal(t, types.CategoryDream, got.Category, "min_gpa=%v", minGPA)
	}
}

func TestUniversityTermsFallbacks(t *testing.T) {
	uni := types.University{Name: "Test U"}
	progs := []types.Program{program(3.4, 42000), program(3.1, 28000), {TuitionPerYearUSD: 0}}

	terms := UniversityTerms(uni, progs)
	require.Equal(t, 3.1, terms.MinGPA)
	require.Equal(t, 28000, terms.Tuition)

	uni.MinGPA = f64(3.6)
	uni.TuitionPerYear = intp(55000)
	terms = UniversityTerms(uni, progs)
	require.Equal(t, 3.6, terms.MinGPA)
	require.Equal(t, 55000, terms.Tuition)

	terms = UniversityTerms(types.University{}, nil)
	require.Equal(t, DefaultMinGPA, terms.MinGPA)
	require.Equal(t, DefaultTuition, terms.Tuition)
}

func TestLabels(t *testing.T) {
	require.Equal(t, LevelLow, AcceptanceChance(0.05))
	require.Equal(t, LevelMedium, AcceptanceChance(0.1))
	require.Equal(t, LevelMedium, AcceptanceChance(0.39))
	require.Equal(t, LevelHigh, AcceptanceChance(0.4))
	require.Equal(t, LevelHigh, AcceptanceChance(0))

	require.Equal(t, LevelLow, CostLevel(14999))
	require.Equal(t, LevelMedium, CostLevel(15000))
	require.Equal(t, LevelHigh, CostLevel(40000))
}

func TestFormatting(t *testing.T) {
	require.Equal(t, "3.0", FormatGPA(3))
	require.Equal(t, "3.65", FormatGPA(3.65))
	require.Equal(t, "$58,000", FormatUSD(58000))
	require.Equal(t, "$999", FormatUSD(999))
	require.Equal(t, "$1,250,000", FormatUSD(1250000))
}

func TestCheckEligibility(t *testing.T) {
	mba := types.Program{
		Name:                   "MBA",
		RequiresWorkExperience: true,
		MinWorkExperienceYears: 3,
		GMATRequired:           true,
	}
	got := CheckEligibility(mba, Profile{WorkExperienceYears: 1, GradTestStatus: types.ExamInProgress})
	require.Equal(t, []string{"Requires 3y Work Exp (User: 1y)", "Requires GMAT"}, got)

	got = CheckEligibility(mba, Profile{WorkExperienceYears: 4, GradTestStatus: types.ExamCompleted})
	require.Empty(t, got)

	gre := types.Program{GRERequired: true}
	require.Equal(t, []string{"Requires GRE"}, CheckEligibility(gre, Profile{}))
}

func TestAnalyzeProfileStrength(t *testing.T) {
	s := AnalyzeProfileStrength(Profile{
		GPA:               f64(3.7),
		EnglishTestStatus: types.ExamCompleted,
		GradTestStatus:    types.ExamCompleted,
		SOPStatus:         "NOT_STARTED",
	})
	require.Equal(t, Strength{Academics: "Strong", Exams: "Completed", SOP: "Not Started", Overall: "Strong"}, s)

	s = AnalyzeProfileStrength(Profile{GPA: f64(2.2), GradTestStatus: types.ExamInProgress, SOPStatus: "READY"})
	require.Equal(t, "Weak", s.Academics)
	require.Equal(t, "In Progress", s.Exams)
	require.Equal(t, "Ready", s.SOP)

	s = AnalyzeProfileStrength(Profile{})
	require.Equal(t, "Weak", s.Academics)
	require.Equal(t, "Not Started", s.Exams)
}
