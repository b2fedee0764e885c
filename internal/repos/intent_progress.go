package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/types"
)

type IntentProgressRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.IntentProgress) ([]*types.IntentProgress, error)
	GetRecentByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, limit int) ([]*types.IntentProgress, error)
	DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error
}

type intentProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIntentProgressRepo(db *gorm.DB, baseLog *logger.Logger) IntentProgressRepo {
	return &intentProgressRepo{db: db, log: baseLog.With("repo", "IntentProgressRepo")}
}

func (pr *intentProgressRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.IntentProgress) ([]*types.IntentProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(rows) == 0 {
		return []*types.IntentProgress{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetRecentByIntentID returns the newest snapshots first; the first row is
// the current progress reading.
func (pr *intentProgressRepo) GetRecentByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, limit int) ([]*types.IntentProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.IntentProgress
	if err := transaction.WithContext(ctx).
		Where("intent_id = ?", intentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *intentProgressRepo) DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(intentIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("intent_id IN ?", intentIDs).
		Delete(&types.IntentProgress{}).Error
}
