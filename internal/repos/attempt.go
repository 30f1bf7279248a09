package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

type AttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *types.UserAttempt) (*types.UserAttempt, error)
	CountByUserQuestion(ctx context.Context, tx *gorm.DB, userID, questionID string) (int64, error)
	GetByUserVideo(ctx context.Context, tx *gorm.DB, userID, videoID string) ([]*types.UserAttempt, error)
	GetByUserVideoType(ctx context.Context, tx *gorm.DB, userID, videoID, questionType string) ([]*types.UserAttempt, error)
	DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	repoLog := baseLog.With("repo", "AttemptRepo")
	return &attemptRepo{db: db, log: repoLog}
}

// Create persists one answer event. AttemptNumber is filled in here as
// 1 + the count of prior attempts by the same user on the same question.
// Count and insert share one transaction so concurrent submissions for
// the same (user, question) cannot observe the same prior count.
func (ar *attemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *types.UserAttempt) (*types.UserAttempt, error) {
	if tx != nil {
		return ar.createIn(ctx, tx, attempt)
	}

	var created *types.UserAttempt
	err := ar.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var err error
		created, err = ar.createIn(ctx, txx, attempt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (ar *attemptRepo) createIn(ctx context.Context, tx *gorm.DB, attempt *types.UserAttempt) (*types.UserAttempt, error) {
	prior, err := ar.CountByUserQuestion(ctx, tx, attempt.UserID, attempt.QuestionID)
	if err != nil {
		return nil, err
	}
	attempt.AttemptNumber = int(prior) + 1

	if err := tx.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (ar *attemptRepo) CountByUserQuestion(ctx context.Context, tx *gorm.DB, userID, questionID string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.UserAttempt{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ar *attemptRepo) GetByUserVideo(ctx context.Context, tx *gorm.DB, userID, videoID string) ([]*types.UserAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.UserAttempt
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Order("created_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *attemptRepo) GetByUserVideoType(ctx context.Context, tx *gorm.DB, userID, videoID, questionType string) ([]*types.UserAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.UserAttempt
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND video_id = ? AND question_type = ?", userID, videoID, questionType).
		Order("created_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *attemptRepo) DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.UserAttempt{}).Error
}
