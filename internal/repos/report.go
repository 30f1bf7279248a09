package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

type ReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, report *types.LearningReport) (*types.LearningReport, error)
	GetByID(ctx context.Context, tx *gorm.DB, reportID string) (*types.LearningReport, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.LearningReport, error)
	GetLatestByUserVideo(ctx context.Context, tx *gorm.DB, userID, videoID string) (*types.LearningReport, error)
	DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	repoLog := baseLog.With("repo", "ReportRepo")
	return &reportRepo{db: db, log: repoLog}
}

func (rr *reportRepo) Create(ctx context.Context, tx *gorm.DB, report *types.LearningReport) (*types.LearningReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if err := transaction.WithContext(ctx).Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

func (rr *reportRepo) GetByID(ctx context.Context, tx *gorm.DB, reportID string) (*types.LearningReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.LearningReport
	if err := transaction.WithContext(ctx).
		Where("report_id = ?", reportID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (rr *reportRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.LearningReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.LearningReport
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *reportRepo) GetLatestByUserVideo(ctx context.Context, tx *gorm.DB, userID, videoID string) (*types.LearningReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.LearningReport
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Order("created_at desc").
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (rr *reportRepo) DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.LearningReport{}).Error
}
