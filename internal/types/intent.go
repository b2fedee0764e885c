package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	IntentStatusActive    = "active"
	IntentStatusCompleted = "completed"
	IntentStatusAbandoned = "abandoned"
	IntentStatusPaused    = "paused"
)

func ValidIntentStatus(status string) bool {
	switch status {
	case IntentStatusActive, IntentStatusCompleted, IntentStatusAbandoned, IntentStatusPaused:
		return true
	}
	return false
}

type Intent struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User             *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title            string    `gorm:"column:title;not null" json:"title"`
	Description      string    `gorm:"column:description" json:"description"`
	Category         string    `gorm:"column:category" json:"category"`
	TimeWindowDays   int       `gorm:"column:time_window_days;not null" json:"time_window_days"`
	CredibilityScore float64   `gorm:"column:credibility_score;not null;default:0" json:"credibility_score"`
	Status           string    `gorm:"column:status;not null;default:active" json:"status"`
	Stage            string    `gorm:"column:stage" json:"stage"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (Intent) TableName() string { return "intent" }

// CopyForBuyer builds the buyer's snapshot of a purchased intent. Every
// copyable column is listed explicitly so a schema change cannot silently
// drop a field from the marketplace copy. Status is forced back to active;
// the copy evolves independently of the seller's original from here on.
func (i *Intent) CopyForBuyer(buyerID uuid.UUID) *Intent {
	return &Intent{
		ID:               uuid.New(),
		UserID:           buyerID,
		Title:            i.Title,
		Description:      i.Description,
		Category:         i.Category,
		TimeWindowDays:   i.TimeWindowDays,
		CredibilityScore: i.CredibilityScore,
		Status:           IntentStatusActive,
		Stage:            i.Stage,
	}
}
