package eligibility

import (
	"fmt"
	"strconv"
	"strings"

	types "github.com/yungbote/advisor-backend/internal/domain"
)

const (
	LevelLow    = "Low"
	LevelMedium = "Medium"
	LevelHigh   = "High"

	defaultAcceptanceRate = 0.5
)

type Result struct {
	Category         types.Category `json:"category"`
	FitReason        string         `json:"fit_reason"`
	RiskReason       string         `json:"risk_reason"`
	AcceptanceChance string         `json:"acceptance_chance"`
	CostLevel        string         `json:"cost_level"`
}

// Terms are the admission thresholds a categorization is judged against.
type Terms struct {
	MinGPA         float64
	Tuition        int
	AcceptanceRate float64
}

// UniversityTerms resolves the thresholds of uni. University-level values win;
// otherwise the lowest program GPA floor and the cheapest program tuition in
// programs are used, then the package defaults.
func UniversityTerms(uni types.University, programs []types.Program) Terms {
	t := Terms{MinGPA: DefaultMinGPA, Tuition: DefaultTuition, AcceptanceRate: defaultAcceptanceRate}
	if uni.AcceptanceRate != nil && *uni.AcceptanceRate > 0 {
		t.AcceptanceRate = *uni.AcceptanceRate
	}

	if uni.MinGPA != nil && *uni.MinGPA > 0 {
		t.MinGPA = *uni.MinGPA
	} else {
		lowest := 0.0
		for _, p := range programs {
			if p.MinGPA != nil && *p.MinGPA > 0 && (lowest == 0 || *p.MinGPA < lowest) {
				lowest = *p.MinGPA
			}
		}
		if lowest > 0 {
			t.MinGPA = lowest
		}
	}

	if uni.TuitionPerYear != nil && *uni.TuitionPerYear > 0 {
		t.Tuition = *uni.TuitionPerYear
	} else {
		cheapest := 0
		for _, p := range programs {
			if p.TuitionPerYearUSD > 0 && (cheapest == 0 || p.TuitionPerYearUSD < cheapest) {
				cheapest = p.TuitionPerYearUSD
			}
		}
		if cheapest > 0 {
			t.Tuition = cheapest
		}
	}
	return t
}

// ProgramTerms resolves thresholds for a single program, falling back to the
// university values when the program leaves them unset.
func ProgramTerms(uni types.University, program types.Program) Terms {
	t := UniversityTerms(uni, nil)
	if program.MinGPA != nil && *program.MinGPA > 0 {
		t.MinGPA = *program.MinGPA
	}
	if program.TuitionPerYearUSD > 0 {
		t.Tuition = program.TuitionPerYearUSD
	}
	return t
}

// Categorize buckets uni into DREAM, TARGET or SAFE for profile p.
func Categorize(uni types.University, programs []types.Program, p Profile) Result {
	return Classify(UniversityTerms(uni, programs), p)
}

func CategorizeProgram(uni types.University, program types.Program, p Profile) Result {
	return Classify(ProgramTerms(uni, program), p)
}

// Classify applies the categorization rules to already resolved terms.
func Classify(t Terms, p Profile) Result {
	gpa := p.EffectiveGPA()
	budget := p.EffectiveBudget()

	var r Result
	switch {
	case t.MinGPA > gpa+0.3 || float64(t.Tuition) > float64(budget)*1.2:
		r.Category = types.CategoryDream
		r.FitReason = "Prestigious program aligned with your goals"
		if t.MinGPA > gpa+0.3 {
			r.RiskReason = fmt.Sprintf("GPA requirement (%s) is higher than your current GPA (%s)", FormatGPA(t.MinGPA), FormatGPA(gpa))
		} else {
			r.RiskReason = fmt.Sprintf("Tuition (%s) exceeds your budget (%s)", FormatUSD(t.Tuition), FormatUSD(budget))
		}
	case t.MinGPA <= gpa-0.2 && t.Tuition <= budget:
		r.Category = types.CategorySafe
		r.FitReason = fmt.Sprintf("Your GPA (%s) exceeds requirements (%s) and fits budget", FormatGPA(gpa), FormatGPA(t.MinGPA))
		r.RiskReason = "Lower competition may mean less networking opportunities"
	default:
		r.Category = types.CategoryTarget
		r.FitReason = "Good match - your profile meets requirements and budget"
		r.RiskReason = "Competitive admission with moderate acceptance chances"
	}
	r.AcceptanceChance = AcceptanceChance(t.AcceptanceRate)
	r.CostLevel = CostLevel(t.Tuition)
	return r
}

func AcceptanceChance(rate float64) string {
	if rate <= 0 {
		rate = defaultAcceptanceRate
	}
	switch {
	case rate < 0.1:
		return LevelLow
	case rate < 0.4:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func CostLevel(tuition int) string {
	switch {
	case tuition < 15000:
		return LevelLow
	case tuition < 40000:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// FormatGPA renders a GPA with at least one decimal ("3.0", "3.65").
func FormatGPA(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatUSD renders n as "$58,000".
func FormatUSD(n int) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := strconv.Itoa(n)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}
