package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/types"
)

type IntentStageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, stages []*types.IntentStage) ([]*types.IntentStage, error)
	GetByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID) ([]*types.IntentStage, error)
	DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error
}

type intentStageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIntentStageRepo(db *gorm.DB, baseLog *logger.Logger) IntentStageRepo {
	return &intentStageRepo{db: db, log: baseLog.With("repo", "IntentStageRepo")}
}

func (sr *intentStageRepo) Create(ctx context.Context, tx *gorm.DB, stages []*types.IntentStage) ([]*types.IntentStage, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(stages) == 0 {
		return []*types.IntentStage{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&stages).Error; err != nil {
		return nil, err
	}
	return stages, nil
}

// GetByIntentID returns the execution plan in stage_order. Ordinals are
// persisted exactly as the planner produced them, so callers must not assume
// uniqueness.
func (sr *intentStageRepo) GetByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID) ([]*types.IntentStage, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.IntentStage
	if err := transaction.WithContext(ctx).
		Where("intent_id = ?", intentID).
		Order("stage_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *intentStageRepo) DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(intentIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("intent_id IN ?", intentIDs).
		Delete(&types.IntentStage{}).Error
}
