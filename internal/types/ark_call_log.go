package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ArkCallLog is an audit row for one outbound model call. Failures to write
// it never fail the call that produced it.
type ArkCallLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	IntentID  *uuid.UUID     `gorm:"type:uuid;index" json:"intent_id,omitempty"`
	CallType  string         `gorm:"column:call_type;not null" json:"call_type"`
	Model     string         `gorm:"column:model;not null" json:"model"`
	Prompt    string         `gorm:"column:prompt" json:"prompt"`
	Response  string         `gorm:"column:response" json:"response"`
	Success   bool           `gorm:"column:success;not null" json:"success"`
	Error     string         `gorm:"column:error" json:"error"`
	Usage     datatypes.JSON `gorm:"column:usage" json:"usage"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (ArkCallLog) TableName() string { return "ark_call_log" }
