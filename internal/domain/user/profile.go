package user

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ExamNotStarted = "NOT_STARTED"
	ExamInProgress = "IN_PROGRESS"
	ExamCompleted  = "COMPLETED"

	SOPNotStarted = "NOT_STARTED"
	SOPDraft      = "DRAFT"
	SOPReady      = "READY"
)

type UserProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	CurrentEducationLevel string   `gorm:"column:current_education_level" json:"current_education_level"`
	DegreeMajor           string   `gorm:"column:degree_major" json:"degree_major"`
	GPA                   *float64 `gorm:"column:gpa" json:"gpa"`
	WorkExperienceYears   int      `gorm:"not null;default:0;column:work_experience_years" json:"work_experience_years"`

	IntendedDegree     string         `gorm:"column:intended_degree" json:"intended_degree"`
	FieldOfStudy       string         `gorm:"column:field_of_study" json:"field_of_study"`
	PreferredCountries datatypes.JSON `gorm:"column:preferred_countries" json:"preferred_countries"`

	BudgetPerYear *int   `gorm:"column:budget_per_year" json:"budget_per_year"`
	FundingPlan   string `gorm:"column:funding_plan" json:"funding_plan"`

	IELTSTOEFLStatus string `gorm:"not null;default:NOT_STARTED;column:ielts_toefl_status" json:"ielts_toefl_status"`
	GREGMATStatus    string `gorm:"not null;default:NOT_STARTED;column:gre_gmat_status" json:"gre_gmat_status"`
	SOPStatus        string `gorm:"not null;default:NOT_STARTED;column:sop_status" json:"sop_status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profile" }

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Countries decodes PreferredCountries; malformed JSON yields nil.
func (p *UserProfile) Countries() []string {
	if p == nil || len(p.PreferredCountries) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(p.PreferredCountries, &out); err != nil {
		return nil
	}
	return out
}
