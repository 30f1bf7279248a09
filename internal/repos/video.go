package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

type VideoRepo interface {
	Create(ctx context.Context, tx *gorm.DB, video *types.Video) (*types.Video, error)
	GetByID(ctx context.Context, tx *gorm.DB, videoID string) (*types.Video, error)
	Exists(ctx context.Context, tx *gorm.DB, videoID string) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, videoID string, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, videoID string) error
}

type videoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	repoLog := baseLog.With("repo", "VideoRepo")
	return &videoRepo{db: db, log: repoLog}
}

func (vr *videoRepo) Create(ctx context.Context, tx *gorm.DB, video *types.Video) (*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	if err := transaction.WithContext(ctx).Create(video).Error; err != nil {
		return nil, err
	}
	return video, nil
}

func (vr *videoRepo) GetByID(ctx context.Context, tx *gorm.DB, videoID string) (*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var result types.Video
	if err := transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (vr *videoRepo) Exists(ctx context.Context, tx *gorm.DB, videoID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Video{}).
		Where("video_id = ?", videoID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (vr *videoRepo) UpdateFields(ctx context.Context, tx *gorm.DB, videoID string, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Video{}).
		Where("video_id = ?", videoID).
		Updates(fields).Error
}

func (vr *videoRepo) Delete(ctx context.Context, tx *gorm.DB, videoID string) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.Video{}).Error
}
