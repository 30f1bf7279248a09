package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

type NotesRepo interface {
	Create(ctx context.Context, tx *gorm.DB, notes *types.VideoNotes) (*types.VideoNotes, error)
	GetByVideoID(ctx context.Context, tx *gorm.DB, videoID string) (*types.VideoNotes, error)
	ReplaceContent(ctx context.Context, tx *gorm.DB, videoID, title string, sections datatypes.JSON) error
	DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error
}

type notesRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotesRepo(db *gorm.DB, baseLog *logger.Logger) NotesRepo {
	repoLog := baseLog.With("repo", "NotesRepo")
	return &notesRepo{db: db, log: repoLog}
}

func (nr *notesRepo) Create(ctx context.Context, tx *gorm.DB, notes *types.VideoNotes) (*types.VideoNotes, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	if err := transaction.WithContext(ctx).Create(notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (nr *notesRepo) GetByVideoID(ctx context.Context, tx *gorm.DB, videoID string) (*types.VideoNotes, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	var result types.VideoNotes
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

// ReplaceContent overwrites title and sections wholesale. Partial section
// edits are a client concern.
func (nr *notesRepo) ReplaceContent(ctx context.Context, tx *gorm.DB, videoID, title string, sections datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.VideoNotes{}).
		Where("video_id = ?", videoID).
		Updates(map[string]any{
			"title":      title,
			"sections":   sections,
			"updated_at": time.Now(),
		}).Error
}

func (nr *notesRepo) DeleteByVideoID(ctx context.Context, tx *gorm.DB, videoID string) error {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}

	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.VideoNotes{}).Error
}
