package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserProgress tracks playback position per (user, video). Upserted on
// every heartbeat from the client.
type UserProgress struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        string         `gorm:"uniqueIndex:idx_progress_user_video;not null;column:user_id" json:"user_id"`
	VideoID       string         `gorm:"uniqueIndex:idx_progress_user_video;not null;column:video_id" json:"video_id"`
	ProgressData  datatypes.JSON `gorm:"column:progress_data" json:"progress_data,omitempty"`
	LastTimestamp float64        `gorm:"not null;default:0;column:last_timestamp" json:"last_timestamp"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
