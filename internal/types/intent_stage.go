package types

import (
	"time"

	"github.com/google/uuid"
)

type IntentStage struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	IntentID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"intent_id"`
	Intent             *Intent    `gorm:"constraint:OnDelete:CASCADE;foreignKey:IntentID;references:ID" json:"intent,omitempty"`
	StageName          string     `gorm:"column:stage_name;not null" json:"stage_name"`
	StageOrder         int        `gorm:"column:stage_order;not null" json:"stage_order"`
	Description        string     `gorm:"column:description" json:"description"`
	VerificationPoints string     `gorm:"column:verification_points" json:"verification_points"`
	Completed          bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt        *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null" json:"updated_at"`
}

func (IntentStage) TableName() string { return "intent_stage" }

// CopyForIntent snapshots a stage for a purchased intent copy. The completed
// flag travels with the snapshot; nothing in the system sets it yet.
func (s *IntentStage) CopyForIntent(intentID uuid.UUID) *IntentStage {
	return &IntentStage{
		ID:                 uuid.New(),
		IntentID:           intentID,
		StageName:          s.StageName,
		StageOrder:         s.StageOrder,
		Description:        s.Description,
		VerificationPoints: s.VerificationPoints,
		Completed:          s.Completed,
		CompletedAt:        s.CompletedAt,
	}
}
