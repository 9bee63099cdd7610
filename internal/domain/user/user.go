package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email               string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	FullName            string    `gorm:"column:full_name" json:"full_name"`
	CurrentStage        Stage     `gorm:"not null;default:ONBOARDING;column:current_stage" json:"current_stage"`
	OnboardingCompleted bool      `gorm:"not null;default:false;column:onboarding_completed" json:"onboarding_completed"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CurrentStage == "" {
		u.CurrentStage = StageOnboarding
	}
	return nil
}
