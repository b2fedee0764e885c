package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/types"
)

type VerificationRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, records []*types.VerificationRecord) ([]*types.VerificationRecord, error)
	GetRecentByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, limit int) ([]*types.VerificationRecord, error)
	DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error
}

type verificationRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVerificationRecordRepo(db *gorm.DB, baseLog *logger.Logger) VerificationRecordRepo {
	return &verificationRecordRepo{db: db, log: baseLog.With("repo", "VerificationRecordRepo")}
}

func (vr *verificationRecordRepo) Create(ctx context.Context, tx *gorm.DB, records []*types.VerificationRecord) ([]*types.VerificationRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if len(records) == 0 {
		return []*types.VerificationRecord{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetRecentByIntentID returns the newest records first.
func (vr *verificationRecordRepo) GetRecentByIntentID(ctx context.Context, tx *gorm.DB, intentID uuid.UUID, limit int) ([]*types.VerificationRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var results []*types.VerificationRecord
	if err := transaction.WithContext(ctx).
		Where("intent_id = ?", intentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (vr *verificationRecordRepo) DeleteByIntentIDs(ctx context.Context, tx *gorm.DB, intentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if len(intentIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("intent_id IN ?", intentIDs).
		Delete(&types.VerificationRecord{}).Error
}
