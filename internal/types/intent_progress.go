package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type IntentProgress struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	IntentID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"intent_id"`
	Intent             *Intent        `gorm:"constraint:OnDelete:CASCADE;foreignKey:IntentID;references:ID" json:"intent,omitempty"`
	ProgressPercentage float64        `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	Milestone          string         `gorm:"column:milestone" json:"milestone"`
	AIAssessment       datatypes.JSON `gorm:"column:ai_assessment" json:"ai_assessment"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
}

func (IntentProgress) TableName() string { return "intent_progress" }
