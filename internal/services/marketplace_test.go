package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/repos"
	"github.com/intentlab/intent-backend/internal/types"
)

func newTestMarketplaceService(t *testing.T, gdb *gorm.DB, r testRepos) MarketplaceService {
	t.Helper()
	return NewMarketplaceService(gdb, testLogger(t), nil, r.intent, r.stage, r.marketplace)
}

func TestPublish_RejectsSecondAvailableListing(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	seller := seedUser(t, r, "seller@example.com")
	intent := seedIntent(t, r, seller.ID, "marathon training")
	svc := newTestMarketplaceService(t, gdb, r)

	price := 9.9
	if _, err := svc.Publish(context.Background(), intent.ID, seller.ID, &price, ""); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if _, err := svc.Publish(context.Background(), intent.ID, seller.ID, &price, ""); !errors.Is(err, ErrAlreadyListed) {
		t.Fatalf("expected ErrAlreadyListed, got %v", err)
	}
	listings, err := r.marketplace.GetAvailableByIntentID(context.Background(), nil, intent.ID)
	if err != nil {
		t.Fatalf("load listings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected exactly one available listing, got %d", len(listings))
	}
	if listings[0].TransactionType != types.TransactionTypeSubscription {
		t.Fatalf("expected default transaction type, got %q", listings[0].TransactionType)
	}
}

func TestPublish_RequiresOwnership(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	seller := seedUser(t, r, "seller2@example.com")
	other := seedUser(t, r, "other@example.com")
	intent := seedIntent(t, r, seller.ID, "not yours")
	svc := newTestMarketplaceService(t, gdb, r)

	if _, err := svc.Publish(context.Background(), intent.ID, other.ID, nil, ""); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestPurchase_SelfPurchaseRejectedOnBothPaths(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	seller := seedUser(t, r, "selfbuy@example.com")
	intent := seedIntent(t, r, seller.ID, "own goal")
	svc := newTestMarketplaceService(t, gdb, r)

	listing, err := svc.Publish(context.Background(), intent.ID, seller.ID, nil, "")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := svc.Purchase(context.Background(), listing.ID, seller.ID); !errors.Is(err, ErrSelfPurchase) {
		t.Fatalf("listing path: expected ErrSelfPurchase, got %v", err)
	}
	if _, err := svc.Purchase(context.Background(), intent.ID, seller.ID); !errors.Is(err, ErrSelfPurchase) {
		t.Fatalf("intent path: expected ErrSelfPurchase, got %v", err)
	}
	intents, _ := r.intent.GetByUserIDs(context.Background(), nil, []uuid.UUID{seller.ID})
	if len(intents) != 1 {
		t.Fatalf("no copy should exist after rejected purchases, got %d intents", len(intents))
	}
}

func TestPurchase_UnavailableListingRejected(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	seller := seedUser(t, r, "expired-seller@example.com")
	buyer := seedUser(t, r, "expired-buyer@example.com")
	intent := seedIntent(t, r, seller.ID, "stale offer")
	svc := newTestMarketplaceService(t, gdb, r)

	listing := &types.IntentMarketplace{
		ID:              uuid.New(),
		IntentID:        intent.ID,
		SellerID:        seller.ID,
		Status:          types.ListingStatusExpired,
		TransactionType: types.TransactionTypeSubscription,
	}
	if _, err := r.marketplace.Create(context.Background(), nil, []*types.IntentMarketplace{listing}); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	if _, err := svc.Purchase(context.Background(), listing.ID, buyer.ID); !errors.Is(err, ErrListingUnavailable) {
		t.Fatalf("expected ErrListingUnavailable, got %v", err)
	}
}

func TestPurchase_DeepCopiesIntentAndStages(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	ctx := context.Background()
	seller := seedUser(t, r, "copy-seller@example.com")
	buyer := seedUser(t, r, "copy-buyer@example.com")
	intent := seedIntent(t, r, seller.ID, "startup plan")
	if err := r.intent.UpdateStatus(ctx, nil, intent.ID, types.IntentStatusCompleted); err != nil {
		t.Fatalf("set seller status: %v", err)
	}
	stages := []*types.IntentStage{
		{ID: uuid.New(), IntentID: intent.ID, StageName: "validate", StageOrder: 1, VerificationPoints: "interviews"},
		{ID: uuid.New(), IntentID: intent.ID, StageName: "build", StageOrder: 2, VerificationPoints: "mvp"},
	}
	if _, err := r.stage.Create(ctx, nil, stages); err != nil {
		t.Fatalf("seed stages: %v", err)
	}
	svc := newTestMarketplaceService(t, gdb, r)
	listing, err := svc.Publish(ctx, intent.ID, seller.ID, nil, types.TransactionTypeOneTime)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	copyID, err := svc.Purchase(ctx, listing.ID, buyer.ID)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if copyID == intent.ID {
		t.Fatalf("copy must be a new intent")
	}

	copies, err := r.intent.GetByIDs(ctx, nil, []uuid.UUID{copyID})
	if err != nil || len(copies) != 1 {
		t.Fatalf("load copy: %v (%d)", err, len(copies))
	}
	copyIntent := copies[0]
	if copyIntent.UserID != buyer.ID {
		t.Fatalf("copy owned by %v, want buyer", copyIntent.UserID)
	}
	if copyIntent.Title != intent.Title || copyIntent.Description != intent.Description {
		t.Fatalf("scalar fields not copied: %+v", copyIntent)
	}
	if copyIntent.Status != types.IntentStatusActive {
		t.Fatalf("copy status must be forced to active, got %q", copyIntent.Status)
	}

	copyStages, err := r.stage.GetByIntentID(ctx, nil, copyID)
	if err != nil {
		t.Fatalf("load copy stages: %v", err)
	}
	if len(copyStages) != 2 {
		t.Fatalf("expected 2 copied stages, got %d", len(copyStages))
	}
	for i, cs := range copyStages {
		if cs.ID == stages[i].ID {
			t.Fatalf("copied stage shares id with original")
		}
		if cs.StageName != stages[i].StageName || cs.StageOrder != stages[i].StageOrder {
			t.Fatalf("stage %d not copied faithfully: %+v", i, cs)
		}
	}

	// The listing flipped exactly once.
	purchased, err := r.marketplace.GetPurchasedByIntentAndBuyer(ctx, nil, intent.ID, buyer.ID)
	if err != nil || len(purchased) != 1 {
		t.Fatalf("expected one purchased record: %v (%d)", err, len(purchased))
	}
	if purchased[0].PurchasedAt == nil || purchased[0].BuyerID == nil || *purchased[0].BuyerID != buyer.ID {
		t.Fatalf("purchase metadata missing: %+v", purchased[0])
	}

	// Copies evolve independently.
	if err := r.intent.UpdateStage(ctx, nil, copyID, "pivoted"); err != nil {
		t.Fatalf("mutate copy: %v", err)
	}
	original, _ := r.intent.GetByIDs(ctx, nil, []uuid.UUID{intent.ID})
	if original[0].Stage == "pivoted" {
		t.Fatalf("mutating the copy must not touch the original")
	}
}

func TestPurchase_DuplicateIsIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	ctx := context.Background()
	seller := seedUser(t, r, "dup-seller@example.com")
	buyer := seedUser(t, r, "dup-buyer@example.com")
	intent := seedIntent(t, r, seller.ID, "language course")
	svc := newTestMarketplaceService(t, gdb, r)
	listing, err := svc.Publish(ctx, intent.ID, seller.ID, nil, "")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	firstID, err := svc.Purchase(ctx, listing.ID, buyer.ID)
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	secondID, err := svc.Purchase(ctx, listing.ID, buyer.ID)
	if err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	if secondID != firstID {
		t.Fatalf("duplicate purchase created a new copy: %v != %v", secondID, firstID)
	}
	buyerIntents, _ := r.intent.GetByUserIDs(ctx, nil, []uuid.UUID{buyer.ID})
	if len(buyerIntents) != 1 {
		t.Fatalf("expected exactly one buyer copy, got %d", len(buyerIntents))
	}
}

func TestPurchase_ByIntentIDWithoutListing(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	ctx := context.Background()
	seller := seedUser(t, r, "direct-seller@example.com")
	buyer := seedUser(t, r, "direct-buyer@example.com")
	intent := seedIntent(t, r, seller.ID, "unlisted goal")
	svc := newTestMarketplaceService(t, gdb, r)

	copyID, err := svc.Purchase(ctx, intent.ID, buyer.ID)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	copies, _ := r.intent.GetByIDs(ctx, nil, []uuid.UUID{copyID})
	if len(copies) != 1 || copies[0].UserID != buyer.ID {
		t.Fatalf("expected buyer copy, got %+v", copies)
	}
	purchased, err := r.marketplace.GetPurchasedByIntentAndBuyer(ctx, nil, intent.ID, buyer.ID)
	if err != nil || len(purchased) != 1 {
		t.Fatalf("expected purchase record on auto-list path: %v (%d)", err, len(purchased))
	}
}

func TestPurchase_UnknownIDIsNotFound(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	buyer := seedUser(t, r, "lost-buyer@example.com")
	svc := newTestMarketplaceService(t, gdb, r)

	if _, err := svc.Purchase(context.Background(), uuid.New(), buyer.ID); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestBrowse_MasksSellerEmailAndFilters(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	ctx := context.Background()
	seller := seedUser(t, r, "ab.cdefg@example.com")
	intent := seedIntent(t, r, seller.ID, "visible goal")
	if err := r.intent.UpdateCredibilityScore(ctx, nil, intent.ID, 70); err != nil {
		t.Fatalf("set score: %v", err)
	}
	abandoned := seedIntent(t, r, seller.ID, "abandoned goal")
	if err := r.intent.UpdateStatus(ctx, nil, abandoned.ID, types.IntentStatusAbandoned); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	svc := newTestMarketplaceService(t, gdb, r)
	if _, err := svc.Publish(ctx, intent.ID, seller.ID, nil, ""); err != nil {
		t.Fatalf("publish: %v", err)
	}

	listings, err := svc.Browse(ctx, repos.BrowseFilters{})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("abandoned intents must be excluded, got %d rows", len(listings))
	}
	row := listings[0]
	if row.SellerEmail != "ab***g@example.com" {
		t.Fatalf("email not masked, got %q", row.SellerEmail)
	}
	if row.MarketplaceID == nil {
		t.Fatalf("available listing should be joined in")
	}

	minCred := 80.0
	filtered, err := svc.Browse(ctx, repos.BrowseFilters{MinCredibility: &minCred})
	if err != nil {
		t.Fatalf("Browse filtered: %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("min_credibility filter should exclude the row, got %d", len(filtered))
	}
	byCategory, err := svc.Browse(ctx, repos.BrowseFilters{Category: "学习成长"})
	if err != nil {
		t.Fatalf("Browse by category: %v", err)
	}
	if len(byCategory) != 1 {
		t.Fatalf("category filter should match, got %d", len(byCategory))
	}
}
