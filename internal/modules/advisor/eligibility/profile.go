package eligibility

import (
	"strings"

	types "github.com/yungbote/advisor-backend/internal/domain"
)

const (
	DefaultGPA     = 3.0
	DefaultBudget  = 50000
	DefaultMinGPA  = 3.0
	DefaultTuition = 30000
)

// Profile is the slice of a user profile the recommendation core reads.
// Nil pointers mean the student has not provided the value.
type Profile struct {
	GPA                 *float64
	Budget              *int
	FieldOfStudy        string
	IntendedDegree      string
	Countries           []string
	WorkExperienceYears int
	EnglishTestStatus   string
	GradTestStatus      string
	SOPStatus           string
}

func FromUserProfile(p *types.UserProfile) Profile {
	if p == nil {
		return Profile{}
	}
	return Profile{
		GPA:                 p.GPA,
		Budget:              p.BudgetPerYear,
		FieldOfStudy:        strings.TrimSpace(p.FieldOfStudy),
		IntendedDegree:      strings.TrimSpace(p.IntendedDegree),
		Countries:           p.Countries(),
		WorkExperienceYears: p.WorkExperienceYears,
		EnglishTestStatus:   p.IELTSTOEFLStatus,
		GradTestStatus:      p.GREGMATStatus,
		SOPStatus:           p.SOPStatus,
	}
}

// EffectiveGPA returns the GPA used for categorization; missing or zero becomes 3.0.
func (p Profile) EffectiveGPA() float64 {
	if p.GPA == nil || *p.GPA <= 0 {
		return DefaultGPA
	}
	return *p.GPA
}

// EffectiveBudget returns the yearly budget used for categorization; missing or zero becomes 50000.
func (p Profile) EffectiveBudget() int {
	if p.Budget == nil || *p.Budget <= 0 {
		return DefaultBudget
	}
	return *p.Budget
}

func (p Profile) gradTestDone() bool {
	return strings.EqualFold(p.GradTestStatus, types.ExamCompleted)
}
