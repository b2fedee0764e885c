package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ListingStatusAvailable = "available"
	ListingStatusPurchased = "purchased"
	ListingStatusExpired   = "expired"

	TransactionTypeSubscription = "subscription"
	TransactionTypeOneTime      = "one-time"
)

type IntentMarketplace struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	IntentID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"intent_id"`
	Intent          *Intent    `gorm:"constraint:OnDelete:CASCADE;foreignKey:IntentID;references:ID" json:"intent,omitempty"`
	SellerID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"seller_id"`
	BuyerID         *uuid.UUID `gorm:"type:uuid;index" json:"buyer_id,omitempty"`
	Price           *float64   `gorm:"column:price" json:"price,omitempty"`
	Status          string     `gorm:"column:status;not null;default:available" json:"status"`
	TransactionType string     `gorm:"column:transaction_type;not null;default:subscription" json:"transaction_type"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	PurchasedAt     *time.Time `gorm:"column:purchased_at" json:"purchased_at,omitempty"`
}

func (IntentMarketplace) TableName() string { return "intent_marketplace" }
