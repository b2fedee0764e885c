package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	rediscache "github.com/intentlab/intent-backend/internal/clients/redis"
	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/repos"
	"github.com/intentlab/intent-backend/internal/types"
	"github.com/intentlab/intent-backend/internal/utils"
)

const browseCacheTTL = 30 * time.Second

type MarketplaceService interface {
	Publish(ctx context.Context, intentID, sellerID uuid.UUID, price *float64, transactionType string) (*types.IntentMarketplace, error)
	Browse(ctx context.Context, filters repos.BrowseFilters) ([]*repos.BrowseListing, error)
	Purchase(ctx context.Context, listingOrIntentID, buyerID uuid.UUID) (uuid.UUID, error)
}

type marketplaceService struct {
	db         *gorm.DB
	log        *logger.Logger
	cache      *rediscache.Cache
	intentRepo repos.IntentRepo
	stageRepo  repos.IntentStageRepo
	mpRepo     repos.MarketplaceRepo
}

func NewMarketplaceService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cache *rediscache.Cache,
	intentRepo repos.IntentRepo,
	stageRepo repos.IntentStageRepo,
	mpRepo repos.MarketplaceRepo,
) MarketplaceService {
	return &marketplaceService{
		db:         db,
		log:        baseLog.With("service", "MarketplaceService"),
		cache:      cache,
		intentRepo: intentRepo,
		stageRepo:  stageRepo,
		mpRepo:     mpRepo,
	}
}

// Publish lists an intent on the marketplace. At most one available listing
// may exist per intent at a time.
func (s *marketplaceService) Publish(ctx context.Context, intentID, sellerID uuid.UUID, price *float64, transactionType string) (*types.IntentMarketplace, error) {
	intents, err := s.intentRepo.GetByIDs(ctx, nil, []uuid.UUID{intentID})
	if err != nil {
		return nil, fmt.Errorf("load intent: %w", err)
	}
	if len(intents) == 0 {
		return nil, ErrIntentNotFound
	}
	if intents[0].UserID != sellerID {
		return nil, ErrNotOwner
	}

	existing, err := s.mpRepo.GetAvailableByIntentID(ctx, nil, intentID)
	if err != nil {
		return nil, fmt.Errorf("check existing listings: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrAlreadyListed
	}

	if transactionType == "" {
		transactionType = types.TransactionTypeSubscription
	}
	listing := &types.IntentMarketplace{
		ID:              uuid.New(),
		IntentID:        intentID,
		SellerID:        sellerID,
		Price:           price,
		Status:          types.ListingStatusAvailable,
		TransactionType: transactionType,
	}
	if _, err := s.mpRepo.Create(ctx, nil, []*types.IntentMarketplace{listing}); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return listing, nil
}

// Browse returns every non-abandoned intent joined with its owner and any
// available listing. Seller emails are masked before the rows leave the
// service. Results are cached briefly per filter combination.
func (s *marketplaceService) Browse(ctx context.Context, filters repos.BrowseFilters) ([]*repos.BrowseListing, error) {
	cacheKey := browseCacheKey(filters)
	if raw, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached []*repos.BrowseListing
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	listings, err := s.mpRepo.Browse(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("browse marketplace: %w", err)
	}
	for _, l := range listings {
		l.SellerEmail = utils.MaskEmail(l.SellerEmail)
		if l.SellerName == "" {
			l.SellerName = l.SellerEmail
		}
	}

	if raw, err := json.Marshal(listings); err == nil {
		s.cache.Set(ctx, cacheKey, raw, browseCacheTTL)
	}
	return listings, nil
}

func browseCacheKey(filters repos.BrowseFilters) string {
	minCred := "-"
	if filters.MinCredibility != nil {
		minCred = fmt.Sprintf("%g", *filters.MinCredibility)
	}
	return fmt.Sprintf("marketplace:browse:%s:%s", filters.Category, minCred)
}

// Purchase resolves the id as a listing first and falls back to treating it
// as an intent id, then deep-copies the seller's intent and stages into a new
// intent owned by the buyer. Repeat purchases return the existing copy.
func (s *marketplaceService) Purchase(ctx context.Context, listingOrIntentID, buyerID uuid.UUID) (uuid.UUID, error) {
	var (
		listing *types.IntentMarketplace
		intent  *types.Intent
	)

	listings, err := s.mpRepo.GetByIDs(ctx, nil, []uuid.UUID{listingOrIntentID})
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve listing: %w", err)
	}
	if len(listings) > 0 {
		listing = listings[0]
		intents, err := s.intentRepo.GetByIDs(ctx, nil, []uuid.UUID{listing.IntentID})
		if err != nil {
			return uuid.Nil, fmt.Errorf("load listed intent: %w", err)
		}
		if len(intents) == 0 {
			return uuid.Nil, ErrIntentNotFound
		}
		intent = intents[0]
	} else {
		// Not a listing id. The auto-list-and-buy path treats the id as an
		// intent id and purchases any available listing, or records the
		// purchase directly when none exists.
		intents, err := s.intentRepo.GetByIDs(ctx, nil, []uuid.UUID{listingOrIntentID})
		if err != nil {
			return uuid.Nil, fmt.Errorf("resolve intent: %w", err)
		}
		if len(intents) == 0 {
			return uuid.Nil, ErrListingNotFound
		}
		intent = intents[0]
		available, err := s.mpRepo.GetAvailableByIntentID(ctx, nil, intent.ID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("load available listing: %w", err)
		}
		if len(available) > 0 {
			listing = available[0]
		}
	}

	sellerID := intent.UserID
	if listing != nil {
		sellerID = listing.SellerID
	}
	if sellerID == buyerID {
		return uuid.Nil, ErrSelfPurchase
	}

	// A buyer who already holds a purchased record for this intent and owns
	// a copy with the same title and description gets the existing copy back.
	// This runs before the availability check so a repeat purchase of a
	// listing this buyer already flipped stays idempotent.
	purchased, err := s.mpRepo.GetPurchasedByIntentAndBuyer(ctx, nil, intent.ID, buyerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check prior purchases: %w", err)
	}
	if len(purchased) > 0 {
		copies, err := s.intentRepo.GetByUserAndTitle(ctx, nil, buyerID, intent.Title, intent.Description)
		if err != nil {
			return uuid.Nil, fmt.Errorf("load existing copy: %w", err)
		}
		if len(copies) > 0 {
			return copies[0].ID, nil
		}
	}

	if listing != nil && listing.Status != types.ListingStatusAvailable {
		return uuid.Nil, ErrListingUnavailable
	}

	stages, err := s.stageRepo.GetByIntentID(ctx, nil, intent.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load stages: %w", err)
	}

	copyIntent := intent.CopyForBuyer(buyerID)
	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if listing != nil {
			if err := s.mpRepo.MarkPurchased(ctx, tx, listing.ID, buyerID, now); err != nil {
				return fmt.Errorf("mark listing purchased: %w", err)
			}
		} else {
			record := &types.IntentMarketplace{
				ID:              uuid.New(),
				IntentID:        intent.ID,
				SellerID:        sellerID,
				BuyerID:         &buyerID,
				Status:          types.ListingStatusPurchased,
				TransactionType: types.TransactionTypeSubscription,
				PurchasedAt:     &now,
			}
			if _, err := s.mpRepo.Create(ctx, tx, []*types.IntentMarketplace{record}); err != nil {
				return fmt.Errorf("record purchase: %w", err)
			}
		}

		if _, err := s.intentRepo.Create(ctx, tx, []*types.Intent{copyIntent}); err != nil {
			return fmt.Errorf("copy intent: %w", err)
		}
		if len(stages) > 0 {
			copyStages := make([]*types.IntentStage, 0, len(stages))
			for _, st := range stages {
				copyStages = append(copyStages, st.CopyForIntent(copyIntent.ID))
			}
			if _, err := s.stageRepo.Create(ctx, tx, copyStages); err != nil {
				return fmt.Errorf("copy stages: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.log.Info("Purchase completed", "buyer_id", buyerID, "source_intent_id", intent.ID, "copy_intent_id", copyIntent.ID)
	return copyIntent.ID, nil
}
