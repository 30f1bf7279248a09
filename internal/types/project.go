package types

import (
	"time"

	"github.com/google/uuid"
)

// Project groups videos for a user. Membership lives exclusively in the
// project_videos junction; videos carry no back-reference.
type Project struct {
	ProjectID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey;column:project_id" json:"project_id"`
	UserID      string    `gorm:"index;not null;column:user_id" json:"user_id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

type ProjectVideo struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID string    `gorm:"uniqueIndex:idx_project_video;not null;column:project_id" json:"project_id"`
	VideoID   string    `gorm:"uniqueIndex:idx_project_video;not null;column:video_id" json:"video_id"`
	AddedAt   time.Time `gorm:"not null;default:now()" json:"added_at"`
}

func (ProjectVideo) TableName() string {
	return "project_videos"
}
