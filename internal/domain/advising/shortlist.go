package advising

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is the DREAM/TARGET/SAFE fit bucket of a university for a user.
type Category string

const (
	CategoryDream  Category = "DREAM"
	CategoryTarget Category = "TARGET"
	CategorySafe   Category = "SAFE"
)

func ParseCategory(raw string) (Category, bool) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(raw))); c {
	case CategoryDream, CategoryTarget, CategorySafe:
		return c, true
	default:
		return "", false
	}
}

type ShortlistEntry struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_shortlist_user_university" json:"user_id"`
	UniversityID uint       `gorm:"not null;uniqueIndex:idx_shortlist_user_university" json:"university_id"`
	Category     Category   `gorm:"not null;default:TARGET;column:category" json:"category"`
	IsLocked     bool       `gorm:"not null;default:false;column:is_locked" json:"is_locked"`
	LockedAt     *time.Time `gorm:"column:locked_at" json:"locked_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ShortlistEntry) TableName() string { return "shortlist_entry" }

func (e *ShortlistEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
