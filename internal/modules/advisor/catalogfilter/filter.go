package catalogfilter

import (
	"strings"

	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/intent"
)

// Criteria is the resolved, normalized form of an intent's constraints.
type Criteria struct {
	Countries  map[string]bool
	Discipline string
	Degree     Degree
	MaxBudget  int
}

// Resolve normalizes in, substituting the profile's field of study when the
// intent names no discipline and is not explicitly about one.
func Resolve(in intent.Intent, p eligibility.Profile) Criteria {
	c := Criteria{
		Discipline: norm(in.TargetDiscipline),
		Degree:     DegreeOf(in.TargetDegree),
	}
	if c.Discipline == "" && !in.StrictDiscipline() {
		c.Discipline = norm(p.FieldOfStudy)
	}
	for _, country := range in.TargetCountries {
		if n := norm(country); n != "" {
			if c.Countries == nil {
				c.Countries = map[string]bool{}
			}
			c.Countries[n] = true
		}
	}
	if in.MaxBudgetUSD != nil && *in.MaxBudgetUSD > 0 {
		c.MaxBudget = *in.MaxBudgetUSD
	}
	return c
}

// Filter narrows catalog to universities with at least one program that
// satisfies the intent. Returned universities are copies carrying only their
// surviving programs; catalog itself is never modified.
func Filter(catalog []types.University, in intent.Intent, p eligibility.Profile) []types.University {
	return Apply(catalog, Resolve(in, p))
}

func Apply(catalog []types.University, c Criteria) []types.University {
	out := make([]types.University, 0, len(catalog))
	for _, uni := range catalog {
		if len(c.Countries) > 0 && !c.Countries[norm(uni.Country)] {
			continue
		}
		var kept []types.Program
		for _, prog := range uni.Programs {
			if c.Accepts(prog) {
				kept = append(kept, prog)
			}
		}
		if len(kept) > 0 {
			out = append(out, uni.WithPrograms(kept))
		}
	}
	return out
}

// Accepts applies the per-program discipline, degree and budget rules.
func (c Criteria) Accepts(prog types.Program) bool {
	if c.Discipline != "" {
		if !strings.Contains(norm(prog.Name), c.Discipline) && !strings.Contains(norm(prog.Discipline), c.Discipline) {
			return false
		}
	}
	if c.Degree != DegreeAny && !c.Degree.Matches(prog) {
		return false
	}
	if c.MaxBudget > 0 && prog.TuitionPerYearUSD > c.MaxBudget {
		return false
	}
	return true
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
