package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/repos"
	"github.com/intentlab/intent-backend/internal/types"
)

const profileVerificationWindow = 5

// IntentProfile is the full read model for one intent.
type IntentProfile struct {
	Intent              *types.Intent               `json:"intent"`
	Stages              []*types.IntentStage        `json:"stages"`
	CredibilityScore    float64                     `json:"credibility_score"`
	ProgressPercentage  float64                     `json:"progress_percentage"`
	RecentVerifications []*types.VerificationRecord `json:"recent_verifications"`
}

type IntentService interface {
	CreateIntent(ctx context.Context, userID uuid.UUID, userInput string) (*IntentProfile, error)
	ListIntents(ctx context.Context, userID uuid.UUID) ([]*types.Intent, error)
	GetIntentProfile(ctx context.Context, intentID, userID uuid.UUID) (*IntentProfile, error)
	DeleteIntent(ctx context.Context, intentID, userID uuid.UUID) error
	VerifyIntent(ctx context.Context, intentID, userID uuid.UUID) (*VerificationResult, error)
	TrackIntent(ctx context.Context, intentID, userID uuid.UUID) (*EvolutionResult, error)
	UpdateStatus(ctx context.Context, intentID, userID uuid.UUID, status string) error
	GetOwnedIntent(ctx context.Context, intentID, userID uuid.UUID) (*types.Intent, error)
}

type intentService struct {
	db           *gorm.DB
	log          *logger.Logger
	miner        IntentMinerService
	planner      StagePlannerService
	verifier     VerificationService
	tracker      EvolutionService
	intentRepo   repos.IntentRepo
	stageRepo    repos.IntentStageRepo
	recordRepo   repos.VerificationRecordRepo
	convoRepo    repos.AIConversationRepo
	progressRepo repos.IntentProgressRepo
	mpRepo       repos.MarketplaceRepo
}

func NewIntentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	miner IntentMinerService,
	planner StagePlannerService,
	verifier VerificationService,
	tracker EvolutionService,
	intentRepo repos.IntentRepo,
	stageRepo repos.IntentStageRepo,
	recordRepo repos.VerificationRecordRepo,
	convoRepo repos.AIConversationRepo,
	progressRepo repos.IntentProgressRepo,
	mpRepo repos.MarketplaceRepo,
) IntentService {
	return &intentService{
		db:           db,
		log:          baseLog.With("service", "IntentService"),
		miner:        miner,
		planner:      planner,
		verifier:     verifier,
		tracker:      tracker,
		intentRepo:   intentRepo,
		stageRepo:    stageRepo,
		recordRepo:   recordRepo,
		convoRepo:    convoRepo,
		progressRepo: progressRepo,
		mpRepo:       mpRepo,
	}
}

// CreateIntent runs the full creation pipeline: mine the structured record
// from free text, persist the intent, plan stages, run the initial
// verification. Mining failure aborts creation; planner and verifier
// failures degrade it (empty plan, score 0, no record) so a model outage
// never loses the user's intent.
func (s *intentService) CreateIntent(ctx context.Context, userID uuid.UUID, userInput string) (*IntentProfile, error) {
	mined, err := s.miner.MineIntent(ctx, userInput, nil)
	if err != nil {
		s.log.Error("Intent mining failed", "user_id", userID, "error", err)
		return nil, err
	}

	intent := &types.Intent{
		ID:               uuid.New(),
		UserID:           userID,
		Title:            mined.Title,
		Description:      mined.Description,
		Category:         mined.Category,
		TimeWindowDays:   mined.TimeWindowDays,
		CredibilityScore: 0,
		Status:           types.IntentStatusActive,
		Stage:            "initial",
	}
	if _, err := s.intentRepo.Create(ctx, nil, []*types.Intent{intent}); err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}

	planned, err := s.planner.PlanStages(ctx, intent)
	if err != nil {
		s.log.Warn("Stage planning failed, continuing without a plan", "intent_id", intent.ID, "error", err)
		planned = nil
	}
	if len(planned) > 0 {
		stages := make([]*types.IntentStage, 0, len(planned))
		for _, p := range planned {
			stages = append(stages, &types.IntentStage{
				ID:                 uuid.New(),
				IntentID:           intent.ID,
				StageName:          p.StageName,
				StageOrder:         p.StageOrder,
				Description:        p.Description,
				VerificationPoints: p.VerificationPoints,
			})
		}
		if _, err := s.stageRepo.Create(ctx, nil, stages); err != nil {
			return nil, fmt.Errorf("persist stages: %w", err)
		}
	}

	if verification, err := s.verifier.Verify(ctx, intent.ID); err != nil {
		s.log.Warn("Initial verification failed, intent keeps score 0", "intent_id", intent.ID, "error", err)
	} else if err := s.applyVerification(ctx, intent.ID, types.VerificationTypeInitial, verification); err != nil {
		return nil, err
	}

	return s.getProfile(ctx, intent.ID)
}

func (s *intentService) ListIntents(ctx context.Context, userID uuid.UUID) ([]*types.Intent, error) {
	return s.intentRepo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
}

func (s *intentService) GetOwnedIntent(ctx context.Context, intentID, userID uuid.UUID) (*types.Intent, error) {
	intents, err := s.intentRepo.GetByIDs(ctx, nil, []uuid.UUID{intentID})
	if err != nil {
		return nil, fmt.Errorf("load intent: %w", err)
	}
	if len(intents) == 0 {
		return nil, ErrIntentNotFound
	}
	if intents[0].UserID != userID {
		return nil, ErrNotOwner
	}
	return intents[0], nil
}

func (s *intentService) GetIntentProfile(ctx context.Context, intentID, userID uuid.UUID) (*IntentProfile, error) {
	if _, err := s.GetOwnedIntent(ctx, intentID, userID); err != nil {
		return nil, err
	}
	return s.getProfile(ctx, intentID)
}

func (s *intentService) getProfile(ctx context.Context, intentID uuid.UUID) (*IntentProfile, error) {
	intents, err := s.intentRepo.GetByIDs(ctx, nil, []uuid.UUID{intentID})
	if err != nil {
		return nil, fmt.Errorf("load intent: %w", err)
	}
	if len(intents) == 0 {
		return nil, ErrIntentNotFound
	}
	intent := intents[0]

	var (
		stages        []*types.IntentStage
		verifications []*types.VerificationRecord
		progress      []*types.IntentProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stages, err = s.stageRepo.GetByIntentID(gctx, nil, intentID)
		return err
	})
	g.Go(func() error {
		var err error
		verifications, err = s.recordRepo.GetRecentByIntentID(gctx, nil, intentID, profileVerificationWindow)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.progressRepo.GetRecentByIntentID(gctx, nil, intentID, 1)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble profile: %w", err)
	}

	if stages == nil {
		stages = []*types.IntentStage{}
	}
	if verifications == nil {
		verifications = []*types.VerificationRecord{}
	}
	progressPercentage := 0.0
	if len(progress) > 0 {
		progressPercentage = progress[0].ProgressPercentage
	}

	return &IntentProfile{
		Intent:              intent,
		Stages:              stages,
		CredibilityScore:    intent.CredibilityScore,
		ProgressPercentage:  progressPercentage,
		RecentVerifications: verifications,
	}, nil
}

// DeleteIntent removes the intent and every dependent record in one
// transaction.
func (s *intentService) DeleteIntent(ctx context.Context, intentID, userID uuid.UUID) error {
	if _, err := s.GetOwnedIntent(ctx, intentID, userID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uuid.UUID{intentID}
		if err := s.recordRepo.DeleteByIntentIDs(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete verification records: %w", err)
		}
		if err := s.stageRepo.DeleteByIntentIDs(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete stages: %w", err)
		}
		if err := s.progressRepo.DeleteByIntentIDs(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete progress: %w", err)
		}
		if err := s.convoRepo.DeleteByIntentIDs(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete conversations: %w", err)
		}
		if err := s.mpRepo.DeleteByIntentIDs(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete marketplace listings: %w", err)
		}
		if err := s.intentRepo.DeleteByIDs(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete intent: %w", err)
		}
		return nil
	})
}

// VerifyIntent is the explicit re-verification action. Unlike the creation
// path it does not swallow failures: an engine error surfaces with no state
// mutated.
func (s *intentService) VerifyIntent(ctx context.Context, intentID, userID uuid.UUID) (*VerificationResult, error) {
	if _, err := s.GetOwnedIntent(ctx, intentID, userID); err != nil {
		return nil, err
	}
	verification, err := s.verifier.Verify(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if err := s.applyVerification(ctx, intentID, types.VerificationTypePeriodic, verification); err != nil {
		return nil, err
	}
	return verification, nil
}

func (s *intentService) applyVerification(ctx context.Context, intentID uuid.UUID, verificationType string, verification *VerificationResult) error {
	if err := s.intentRepo.UpdateCredibilityScore(ctx, nil, intentID, verification.CredibilityScore); err != nil {
		return fmt.Errorf("update credibility score: %w", err)
	}
	record := &types.VerificationRecord{
		ID:               uuid.New(),
		IntentID:         intentID,
		VerificationType: verificationType,
		AIAnalysis:       verification.Analysis,
		Passed:           verification.Passed,
	}
	if _, err := s.recordRepo.Create(ctx, nil, []*types.VerificationRecord{record}); err != nil {
		return fmt.Errorf("append verification record: %w", err)
	}
	return nil
}

// TrackIntent re-classifies the intent's evolution and applies the tracker's
// side effects: the stage label is overwritten and a progress snapshot is
// appended.
func (s *intentService) TrackIntent(ctx context.Context, intentID, userID uuid.UUID) (*EvolutionResult, error) {
	if _, err := s.GetOwnedIntent(ctx, intentID, userID); err != nil {
		return nil, err
	}
	evolution, err := s.tracker.TrackEvolution(ctx, intentID)
	if err != nil {
		return nil, err
	}

	if err := s.intentRepo.UpdateStage(ctx, nil, intentID, evolution.CurrentStage); err != nil {
		return nil, fmt.Errorf("update stage: %w", err)
	}
	assessment, err := json.Marshal(evolution.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("serialize recommendations: %w", err)
	}
	row := &types.IntentProgress{
		ID:                 uuid.New(),
		IntentID:           intentID,
		ProgressPercentage: evolution.ProgressPercentage,
		Milestone:          evolution.NextMilestone,
		AIAssessment:       datatypes.JSON(assessment),
	}
	if _, err := s.progressRepo.Create(ctx, nil, []*types.IntentProgress{row}); err != nil {
		return nil, fmt.Errorf("append progress row: %w", err)
	}
	return evolution, nil
}

func (s *intentService) UpdateStatus(ctx context.Context, intentID, userID uuid.UUID, status string) error {
	if !types.ValidIntentStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if _, err := s.GetOwnedIntent(ctx, intentID, userID); err != nil {
		return err
	}
	return s.intentRepo.UpdateStatus(ctx, nil, intentID, status)
}
