package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

type ProgressRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, progress *types.UserProgress) (*types.UserProgress, error)
	Get(ctx context.Context, tx *gorm.DB, userID, videoID string) (*types.UserProgress, error)
	DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	repoLog := baseLog.With("repo", "ProgressRepo")
	return &progressRepo{db: db, log: repoLog}
}

func (pr *progressRepo) Upsert(ctx context.Context, tx *gorm.DB, progress *types.UserProgress) (*types.UserProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	progress.UpdatedAt = time.Now()
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"progress_data", "last_timestamp", "updated_at"}),
		}).
		Create(progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}

func (pr *progressRepo) Get(ctx context.Context, tx *gorm.DB, userID, videoID string) (*types.UserProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.UserProgress
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (pr *progressRepo) DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.UserProgress{}).Error
}
