package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	VerificationTypeInitial  = "initial"
	VerificationTypePeriodic = "periodic"
)

type VerificationRecord struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IntentID         uuid.UUID `gorm:"type:uuid;not null;index" json:"intent_id"`
	Intent           *Intent   `gorm:"constraint:OnDelete:CASCADE;foreignKey:IntentID;references:ID" json:"intent,omitempty"`
	VerificationType string    `gorm:"column:verification_type;not null" json:"verification_type"`
	AIAnalysis       string    `gorm:"column:ai_analysis" json:"ai_analysis"`
	Passed           bool      `gorm:"column:passed;not null" json:"passed"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (VerificationRecord) TableName() string { return "verification_record" }
