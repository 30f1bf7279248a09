package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	QuestionTypeFlashcard = "flashcard"
	QuestionTypeQuiz      = "quiz"
)

// UserAttempt is one answer event. Append-only; attempt_number is
// 1 + count of prior attempts by the same (user_id, question_id).
type UserAttempt struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         string    `gorm:"index:idx_attempt_user_video;not null;column:user_id" json:"user_id"`
	VideoID        string    `gorm:"index:idx_attempt_user_video;not null;column:video_id" json:"video_id"`
	QuestionID     string    `gorm:"index;not null;column:question_id" json:"question_id"`
	QuestionType   string    `gorm:"not null;column:question_type" json:"question_type"`
	SelectedAnswer int       `gorm:"not null;column:selected_answer" json:"selected_answer"`
	CorrectAnswer  int       `gorm:"not null;column:correct_answer" json:"correct_answer"`
	IsCorrect      bool      `gorm:"not null;column:is_correct" json:"is_correct"`
	AttemptNumber  int       `gorm:"not null;default:1;column:attempt_number" json:"attempt_number"`
	Timestamp      float64   `gorm:"column:timestamp" json:"timestamp"`
	QuizID         *string   `gorm:"column:quiz_id" json:"quiz_id,omitempty"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (UserAttempt) TableName() string {
	return "user_attempts"
}
