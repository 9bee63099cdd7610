package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one append-only conversation turn.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_message_session_created,priority:1" json:"session_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Role      string    `gorm:"not null;column:role" json:"role"`
	Content   string    `gorm:"type:text;not null;column:content" json:"content"`

	// Fingerprint is set on assistant turns and feeds duplicate detection.
	Fingerprint string `gorm:"column:fingerprint" json:"-"`

	ActionsTaken           datatypes.JSON `gorm:"column:actions_taken" json:"actions_taken,omitempty"`
	SuggestedUniversities  datatypes.JSON `gorm:"column:suggested_universities" json:"suggested_universities,omitempty"`
	SuggestedNextQuestions datatypes.JSON `gorm:"column:suggested_next_questions" json:"suggested_next_questions,omitempty"`

	CreatedAt time.Time `gorm:"not null;index:idx_chat_message_session_created,priority:2" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
