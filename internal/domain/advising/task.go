package advising

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

func ParseTaskStatus(raw string) (TaskStatus, bool) {
	switch s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return s, true
	default:
		return "", false
	}
}

// ClampPriority maps any value into 1 (high) .. 3 (low); 0 means "unset" and becomes 2.
func ClampPriority(p int) int {
	switch {
	case p == 0:
		return 2
	case p < 1:
		return 1
	case p > 3:
		return 3
	default:
		return p
	}
}

type Task struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ShortlistEntryID *uuid.UUID `gorm:"type:uuid;index;column:shortlist_entry_id" json:"shortlist_entry_id"`
	Title            string     `gorm:"not null;column:title" json:"title"`
	Description      string     `gorm:"column:description" json:"description"`
	Priority         int        `gorm:"not null;default:2;column:priority" json:"priority"`
	Status           TaskStatus `gorm:"not null;default:PENDING;column:status" json:"status"`
	DueDate          *time.Time `gorm:"column:due_date" json:"due_date"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Task) TableName() string { return "task" }

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
	t.Priority = ClampPriority(t.Priority)
	return nil
}
