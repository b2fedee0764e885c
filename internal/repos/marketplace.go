package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/types"
)

// BrowseListing is one row of the marketplace browse view: every
// non-abandoned intent joined with its owner and, when present, its single
// available listing.
type BrowseListing struct {
	IntentID          uuid.UUID  `gorm:"column:intent_id" json:"intent_id"`
	MarketplaceID     *uuid.UUID `gorm:"column:marketplace_id" json:"marketplace_id,omitempty"`
	Title             string     `gorm:"column:title" json:"title"`
	Description       string     `gorm:"column:description" json:"description"`
	Category          string     `gorm:"column:category" json:"category"`
	CredibilityScore  float64    `gorm:"column:credibility_score" json:"credibility_score"`
	TimeWindowDays    int        `gorm:"column:time_window_days" json:"time_window_days"`
	Status            string     `gorm:"column:status" json:"status"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"created_at"`
	SellerEmail       string     `gorm:"column:seller_email" json:"seller_email"`
	SellerName        string     `gorm:"column:seller_name" json:"seller_name"`
	Price             *float64   `gorm:"column:price" json:"price,omitempty"`
	TransactionType   *string    `gorm:"column:transaction_type" json:"transaction_type,omitempty"`
	MarketplaceStatus *string    `gorm:"column:marketplace_status" json:"marketplace_status,omitempty"`
}

type BrowseFilters struct {
	Category       string
	MinCredibility *float64
}

type MarketplaceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, listings []*types.IntentMarketplace) ([]*types.IntentMarketplace, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, listingIDs []uuid.UUID) ([]*types.IntentMarketplace, error)
	GetAvailableByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID) ([]*types.IntentMarketplace, error)
	GetPurchasedByIntentAndBuyer(ctx context.Context, tx *gorm.DB, intentID, buyerID uuid.UUID) ([]*types.IntentMarketplace, error)
	MarkPurchased(ctx context.Context, tx *gorm.DB, listingID, buyerID uuid.UUID, purchasedAt time.Time) error
	Browse(ctx context.Context, tx *gorm.DB, filters BrowseFilters) ([]*BrowseListing, error)
	DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error
}

type marketplaceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMarketplaceRepo(db *gorm.DB, baseLog *logger.Logger) MarketplaceRepo {
	return &marketplaceRepo{db: db, log: baseLog.With("repo", "MarketplaceRepo")}
}

func (mr *marketplaceRepo) Create(ctx context.Context, tx *gorm.DB, listings []*types.IntentMarketplace) ([]*types.IntentMarketplace, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(listings) == 0 {
		return []*types.IntentMarketplace{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (mr *marketplaceRepo) GetByIDs(ctx context.Context, tx *gorm.DB, listingIDs []uuid.UUID) ([]*types.IntentMarketplace, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.IntentMarketplace
	if len(listingIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", listingIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *marketplaceRepo) GetAvailableByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID) ([]*types.IntentMarketplace, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.IntentMarketplace
	if err := transaction.WithContext(ctx).
		Where("intent_id = ? AND status = ?", intentID, types.ListingStatusAvailable).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *marketplaceRepo) GetPurchasedByIntentAndBuyer(ctx context.Context, tx *gorm.DB, intentID, buyerID uuid.UUID) ([]*types.IntentMarketplace, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.IntentMarketplace
	if err := transaction.WithContext(ctx).
		Where("intent_id = ? AND buyer_id = ? AND status = ?", intentID, buyerID, types.ListingStatusPurchased).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *marketplaceRepo) MarkPurchased(ctx context.Context, tx *gorm.DB, listingID, buyerID uuid.UUID, purchasedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.IntentMarketplace{}).
		Where("id = ?", listingID).
		Updates(map[string]interface{}{
			"buyer_id":     buyerID,
			"status":       types.ListingStatusPurchased,
			"purchased_at": purchasedAt,
		}).Error
}

func (mr *marketplaceRepo) Browse(ctx context.Context, tx *gorm.DB, filters BrowseFilters) ([]*BrowseListing, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	q := transaction.WithContext(ctx).
		Table("intent AS i").
		Select(`i.id AS intent_id,
			m.id AS marketplace_id,
			i.title,
			i.description,
			i.category,
			i.credibility_score,
			i.time_window_days,
			i.status,
			i.created_at,
			u.email AS seller_email,
			u.name AS seller_name,
			m.price,
			m.transaction_type,
			m.status AS marketplace_status`).
		Joins(`JOIN "user" u ON u.id = i.user_id`).
		Joins(`LEFT JOIN intent_marketplace m ON m.intent_id = i.id AND m.status = ?`, types.ListingStatusAvailable).
		Where("i.status <> ?", types.IntentStatusAbandoned)

	if filters.Category != "" {
		q = q.Where("i.category = ?", filters.Category)
	}
	if filters.MinCredibility != nil {
		q = q.Where("i.credibility_score >= ?", *filters.MinCredibility)
	}

	var results []*BrowseListing
	if err := q.Order("i.credibility_score DESC, i.created_at DESC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *marketplaceRepo) DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(intentIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("intent_id IN ?", intentIDs).
		Delete(&types.IntentMarketplace{}).Error
}
