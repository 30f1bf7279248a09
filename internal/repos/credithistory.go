package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

type CreditHistoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.CreditHistory) (*types.CreditHistory, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.CreditHistory, error)
	DeductionExists(ctx context.Context, tx *gorm.DB, userID, videoID, creditType string) (bool, error)
}

type creditHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCreditHistoryRepo(db *gorm.DB, baseLog *logger.Logger) CreditHistoryRepo {
	repoLog := baseLog.With("repo", "CreditHistoryRepo")
	return &creditHistoryRepo{db: db, log: repoLog}
}

func (cr *creditHistoryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.CreditHistory) (*types.CreditHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (cr *creditHistoryRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string, limit int) ([]*types.CreditHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	query := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.CreditHistory
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// DeductionExists reports whether this user was already charged this
// credit type for this video. Used to keep retried jobs from double
// charging.
func (cr *creditHistoryRepo) DeductionExists(ctx context.Context, tx *gorm.DB, userID, videoID, creditType string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CreditHistory{}).
		Where("user_id = ? AND video_id = ? AND credit_type = ? AND operation = ?",
			userID, videoID, creditType, types.CreditOpDeduct).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
