package catalog

import (
	"time"
)

type University struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"not null;index;column:name" json:"name"`
	Country        string     `gorm:"not null;index;column:country" json:"country"`
	City           string     `gorm:"column:city" json:"city"`
	QSRanking      *int       `gorm:"column:qs_ranking" json:"qs_ranking"`
	IsPublic       bool       `gorm:"not null;default:true;column:is_public" json:"is_public"`
	TuitionPerYear *int       `gorm:"column:tuition_per_year" json:"tuition_per_year"`
	MinGPA         *float64   `gorm:"column:min_gpa" json:"min_gpa"`
	AcceptanceRate *float64   `gorm:"column:acceptance_rate" json:"acceptance_rate"`
	DataSource     string     `gorm:"column:data_source" json:"data_source"`
	VerifiedAt     *time.Time `gorm:"column:verified_at" json:"verified_at"`

	Programs []Program `gorm:"foreignKey:UniversityID" json:"programs,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (University) TableName() string { return "university" }

// WithPrograms returns a shallow copy of u carrying programs instead of u.Programs.
func (u University) WithPrograms(programs []Program) University {
	u.Programs = programs
	return u
}
