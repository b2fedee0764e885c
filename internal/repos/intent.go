package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/types"
)

type IntentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, intents []*types.Intent) ([]*types.Intent, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) ([]*types.Intent, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Intent, error)
	GetByUserAndTitle(ctx context.Context, tx *gorm.DB, userID uuid.UUID, title, description string) ([]*types.Intent, error)
	UpdateCredibilityScore(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, score float64) error
	UpdateStage(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, stage string) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, status string) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error
}

type intentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIntentRepo(db *gorm.DB, baseLog *logger.Logger) IntentRepo {
	return &intentRepo{db: db, log: baseLog.With("repo", "IntentRepo")}
}

func (ir *intentRepo) Create(ctx context.Context, tx *gorm.DB, intents []*types.Intent) ([]*types.Intent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	if len(intents) == 0 {
		return []*types.Intent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&intents).Error; err != nil {
		return nil, err
	}
	return intents, nil
}

func (ir *intentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) ([]*types.Intent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var results []*types.Intent
	if len(intentIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", intentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ir *intentRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Intent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var results []*types.Intent
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ir *intentRepo) GetByUserAndTitle(ctx context.Context, tx *gorm.DB, userID uuid.UUID, title, description string) ([]*types.Intent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	var results []*types.Intent
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND title = ? AND description = ?", userID, title, description).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ir *intentRepo) UpdateCredibilityScore(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, score float64) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Intent{}).
		Where("id = ?", intentID).
		Update("credibility_score", score).Error
}

func (ir *intentRepo) UpdateStage(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, stage string) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Intent{}).
		Where("id = ?", intentID).
		Update("stage", stage).Error
}

func (ir *intentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Intent{}).
		Where("id = ?", intentID).
		Update("status", status).Error
}

func (ir *intentRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}
	if len(intentIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", intentIDs).
		Delete(&types.Intent{}).Error
}
