package eligibility

import (
	"fmt"
	"strings"

	types "github.com/yungbote/advisor-backend/internal/domain"
)

// CheckEligibility lists the hard admission requirements of program that p
// does not meet. An empty result means the student is eligible.
func CheckEligibility(program types.Program, p Profile) []string {
	var reasons []string
	if program.RequiresWorkExperience && p.WorkExperienceYears < program.MinWorkExperienceYears {
		reasons = append(reasons, fmt.Sprintf("Requires %dy Work Exp (User: %dy)", program.MinWorkExperienceYears, p.WorkExperienceYears))
	}
	if program.GMATRequired && !p.gradTestDone() {
		reasons = append(reasons, "Requires GMAT")
	}
	if program.GRERequired && !p.gradTestDone() {
		reasons = append(reasons, "Requires GRE")
	}
	return reasons
}

type Strength struct {
	Academics string `json:"academics"`
	Exams     string `json:"exams"`
	SOP       string `json:"sop"`
	Overall   string `json:"overall"`
}

// AnalyzeProfileStrength summarizes readiness from GPA and exam/SOP statuses.
// Unlike categorization, a missing GPA counts as zero here.
func AnalyzeProfileStrength(p Profile) Strength {
	gpa := 0.0
	if p.GPA != nil {
		gpa = *p.GPA
	}
	english := strings.ToUpper(p.EnglishTestStatus)
	grad := strings.ToUpper(p.GradTestStatus)
	bothDone := english == types.ExamCompleted && grad == types.ExamCompleted

	var s Strength
	switch {
	case gpa >= 3.5 && bothDone:
		s.Academics = "Strong"
	case gpa < 2.5:
		s.Academics = "Weak"
	default:
		s.Academics = "Average"
	}

	switch {
	case bothDone:
		s.Exams = "Completed"
	case english == types.ExamInProgress || grad == types.ExamInProgress:
		s.Exams = "In Progress"
	default:
		s.Exams = "Not Started"
	}

	s.SOP = titleStatus(p.SOPStatus)
	s.Overall = s.Academics
	return s
}

// titleStatus turns "NOT_STARTED" into "Not Started".
func titleStatus(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Not Started"
	}
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(raw), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
