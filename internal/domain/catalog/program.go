package catalog

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	CategorySTEM          = "STEM"
	CategoryEngineering   = "ENGINEERING"
	CategoryBusiness      = "BUSINESS"
	CategoryDesign        = "DESIGN"
	CategorySocialScience = "SOCIAL_SCIENCE"
	CategoryOther         = "OTHER"
)

type Program struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UniversityID uint   `gorm:"not null;index;column:university_id" json:"university_id"`
	Name         string `gorm:"not null;column:name" json:"name"`
	DegreeLevel  string `gorm:"not null;column:degree_level" json:"degree_level"`
	Department   string `gorm:"column:department" json:"department"`
	Category     string `gorm:"not null;default:OTHER;column:program_category" json:"program_category"`
	Discipline   string `gorm:"column:program_discipline" json:"program_discipline"`

	TuitionPerYearUSD int `gorm:"not null;column:tuition_per_year_usd" json:"tuition_per_year_usd"`

	MinGPA                 *float64 `gorm:"column:min_gpa" json:"min_gpa"`
	IELTSMin               *float64 `gorm:"column:ielts_min" json:"ielts_min"`
	TOEFLMin               *int     `gorm:"column:toefl_min" json:"toefl_min"`
	GRERequired            bool     `gorm:"not null;default:false;column:gre_required" json:"gre_required"`
	GMATRequired           bool     `gorm:"not null;default:false;column:gmat_required" json:"gmat_required"`
	RequiresWorkExperience bool     `gorm:"not null;default:false;column:requires_work_experience" json:"requires_work_experience"`
	MinWorkExperienceYears int      `gorm:"not null;default:0;column:min_work_experience_years" json:"min_work_experience_years"`
	PortfolioRequired      bool     `gorm:"not null;default:false;column:portfolio_required" json:"portfolio_required"`

	IntakeTerms datatypes.JSON `gorm:"column:intake_terms" json:"intake_terms"`
	Deadlines   datatypes.JSON `gorm:"column:deadlines" json:"deadlines"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Program) TableName() string { return "program" }

// Intakes decodes IntakeTerms; malformed JSON yields nil.
func (p Program) Intakes() []string {
	if len(p.IntakeTerms) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(p.IntakeTerms, &out); err != nil {
		return nil
	}
	return out
}

// DeadlineMap decodes Deadlines (intake term -> date text); malformed JSON
// yields nil.
func (p Program) DeadlineMap() map[string]string {
	if len(p.Deadlines) == 0 {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal(p.Deadlines, &out); err != nil {
		return nil
	}
	return out
}
