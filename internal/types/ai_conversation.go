package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConversationRoleUser      = "user"
	ConversationRoleAssistant = "assistant"
	ConversationRoleSystem    = "system"
)

type AIConversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IntentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"intent_id"`
	Intent    *Intent   `gorm:"constraint:OnDelete:CASCADE;foreignKey:IntentID;references:ID" json:"intent,omitempty"`
	Role      string    `gorm:"column:role;not null" json:"role"`
	Content   string    `gorm:"column:content;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (AIConversation) TableName() string { return "ai_conversation" }
