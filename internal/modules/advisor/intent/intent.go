package intent

import (
	"strings"

	types "github.com/yungbote/advisor-backend/internal/domain"
)

type Label string

const (
	ProfileAnalysis      Label = "PROFILE_ANALYSIS"
	UniversityDiscovery  Label = "UNIVERSITY_DISCOVERY"
	ProgramSpecificQuery Label = "PROGRAM_SPECIFIC_QUERY"
	FieldSwitch          Label = "FIELD_SWITCH"
	ExamStrategy         Label = "EXAM_STRATEGY"
	Comparison           Label = "COMPARISON"
	NextSteps            Label = "NEXT_STEPS"
	OutOfScope           Label = "OUT_OF_SCOPE"
)

var labels = []Label{
	ProfileAnalysis,
	UniversityDiscovery,
	ProgramSpecificQuery,
	FieldSwitch,
	ExamStrategy,
	Comparison,
	NextSteps,
	OutOfScope,
}

func Labels() []Label { return append([]Label(nil), labels...) }

func ParseLabel(raw string) (Label, bool) {
	l := Label(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range labels {
		if l == known {
			return l, true
		}
	}
	return "", false
}

// Intent is the structured reading of one user message. It is recomputed for
// every message and never persisted.
type Intent struct {
	Type                       Label          `json:"intent"`
	TargetDiscipline           string         `json:"target_discipline,omitempty"`
	TargetDegree               string         `json:"target_degree,omitempty"`
	MaxBudgetUSD               *int           `json:"max_budget_usd,omitempty"`
	TargetCountries            []string       `json:"target_countries,omitempty"`
	CategoryPreference         types.Category `json:"category_preference,omitempty"`
	ExplicitUniversityMentions []string       `json:"explicit_university_mentions,omitempty"`
}

// Default is the general discovery intent used whenever classification fails.
func Default() Intent {
	return Intent{Type: UniversityDiscovery}
}

// StrictDiscipline reports whether the intent names its discipline explicitly,
// in which case the profile's own field must not be substituted.
func (in Intent) StrictDiscipline() bool {
	return in.Type == FieldSwitch || in.Type == ProgramSpecificQuery
}
