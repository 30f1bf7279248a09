package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, project *types.Project) (*types.Project, error)
	GetByID(ctx context.Context, tx *gorm.DB, projectID string) (*types.Project, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Project, error)
	Delete(ctx context.Context, tx *gorm.DB, projectID string) error

	LinkVideo(ctx context.Context, tx *gorm.DB, projectID, videoID string) error
	UnlinkVideo(ctx context.Context, tx *gorm.DB, projectID, videoID string) error
	CountLinksForVideo(ctx context.Context, tx *gorm.DB, videoID string) (int64, error)
	LinkExists(ctx context.Context, tx *gorm.DB, projectID, videoID string) (bool, error)
	VideoIDsForProject(ctx context.Context, tx *gorm.DB, projectID string) ([]string, error)
	DeleteLinksByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	repoLog := baseLog.With("repo", "ProjectRepo")
	return &projectRepo{db: db, log: repoLog}
}

func (pr *projectRepo) Create(ctx context.Context, tx *gorm.DB, project *types.Project) (*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (pr *projectRepo) GetByID(ctx context.Context, tx *gorm.DB, projectID string) (*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Project
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (pr *projectRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Project
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *projectRepo) Delete(ctx context.Context, tx *gorm.DB, projectID string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Delete(&types.Project{}).Error
}

func (pr *projectRepo) LinkVideo(ctx context.Context, tx *gorm.DB, projectID, videoID string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	exists, err := pr.LinkExists(ctx, transaction, projectID, videoID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	link := &types.ProjectVideo{ProjectID: projectID, VideoID: videoID}
	return transaction.WithContext(ctx).Create(link).Error
}

func (pr *projectRepo) UnlinkVideo(ctx context.Context, tx *gorm.DB, projectID, videoID string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Where("project_id = ? AND video_id = ?", projectID, videoID).
		Delete(&types.ProjectVideo{}).Error
}

func (pr *projectRepo) CountLinksForVideo(ctx context.Context, tx *gorm.DB, videoID string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ProjectVideo{}).
		Where("video_id = ?", videoID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (pr *projectRepo) LinkExists(ctx context.Context, tx *gorm.DB, projectID, videoID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ProjectVideo{}).
		Where("project_id = ? AND video_id = ?", projectID, videoID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (pr *projectRepo) VideoIDsForProject(ctx context.Context, tx *gorm.DB, projectID string) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var ids []string
	if err := transaction.WithContext(ctx).
		Model(&types.ProjectVideo{}).
		Where("project_id = ?", projectID).
		Order("added_at asc").
		Pluck("video_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (pr *projectRepo) DeleteLinksByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.ProjectVideo{}).Error
}
