package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/types"
)

type AIConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, turns []*types.AIConversation) ([]*types.AIConversation, error)
	GetRecentByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, limit int) ([]*types.AIConversation, error)
	DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error
}

type aiConversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAIConversationRepo(db *gorm.DB, baseLog *logger.Logger) AIConversationRepo {
	return &aiConversationRepo{db: db, log: baseLog.With("repo", "AIConversationRepo")}
}

func (cr *aiConversationRepo) Create(ctx context.Context, tx *gorm.DB, turns []*types.AIConversation) ([]*types.AIConversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(turns) == 0 {
		return []*types.AIConversation{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}

// GetRecentByIntentID returns the newest turns first; callers replaying the
// conversation to the model reverse it into chronological order.
func (cr *aiConversationRepo) GetRecentByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, limit int) ([]*types.AIConversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.AIConversation
	if err := transaction.WithContext(ctx).
		Where("intent_id = ?", intentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *aiConversationRepo) DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(intentIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("intent_id IN ?", intentIDs).
		Delete(&types.AIConversation{}).Error
}
