package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/types"
)

type ArkCallLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ArkCallLog) ([]*types.ArkCallLog, error)
}

type arkCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArkCallLogRepo(db *gorm.DB, baseLog *logger.Logger) ArkCallLogRepo {
	return &arkCallLogRepo{db: db, log: baseLog.With("repo", "ArkCallLogRepo")}
}

func (ar *arkCallLogRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ArkCallLog) ([]*types.ArkCallLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(rows) == 0 {
		return []*types.ArkCallLog{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
