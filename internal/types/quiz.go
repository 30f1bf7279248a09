package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Quiz is an immutable snapshot of generated questions for one quiz session.
type Quiz struct {
	QuizID    uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey;column:quiz_id" json:"quiz_id"`
	VideoID   string         `gorm:"index;not null;column:video_id" json:"video_id"`
	Questions datatypes.JSON `gorm:"not null;column:questions" json:"questions"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
