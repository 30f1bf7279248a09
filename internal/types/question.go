package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Question is a persisted flashcard question for a video. Quiz questions
// live inside the quiz row; whether an attempt was a flashcard or a quiz
// answer is a tag on the attempt, not on the question.
type Question struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VideoID         string         `gorm:"index;not null;column:video_id" json:"video_id"`
	QuestionText    string         `gorm:"not null;column:question_text" json:"question_text"`
	Options         datatypes.JSON `gorm:"not null;column:options" json:"options"`
	CorrectAnswer   int            `gorm:"not null;column:correct_answer" json:"correct_answer"`
	Explanation     string         `gorm:"column:explanation" json:"explanation"`
	Difficulty      string         `gorm:"not null;default:medium;column:difficulty" json:"difficulty"`
	VideoSegment    datatypes.JSON `gorm:"column:video_segment" json:"video_segment"`
	ShowAtTimestamp float64        `gorm:"column:show_at_timestamp" json:"show_at_timestamp"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Question) TableName() string {
	return "questions"
}
