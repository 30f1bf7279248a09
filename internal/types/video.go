package types

import (
	"time"

	"gorm.io/datatypes"
)

// Processing status vocabulary. Part of the wire contract: the frontend
// polls these exact strings.
const (
	StatusProcessing                = "processing"
	StatusTranscribing              = "transcribing"
	StatusTranscribingBatch         = "transcribing_batch"
	StatusGeneratingFlashcards      = "generating_flashcards"
	StatusGeneratingFlashcardsBatch = "generating_flashcards_batch"
	StatusCompleted                 = "completed"
	StatusFailed                    = "failed"
)

type Video struct {
	VideoID          string         `gorm:"primaryKey;column:video_id" json:"video_id"`
	Title            string         `gorm:"not null;column:title" json:"title"`
	Duration         float64        `gorm:"not null;column:duration" json:"duration"`
	URL              string         `gorm:"not null;column:url" json:"url"`
	Transcript       datatypes.JSON `gorm:"column:transcript" json:"transcript,omitempty"`
	ProcessingStatus string         `gorm:"not null;default:processing;column:processing_status" json:"processing_status"`
	ErrorMessage     string         `gorm:"column:error_message" json:"error_message,omitempty"`
	BatchCurrent     int            `gorm:"not null;default:0;column:batch_current" json:"batch_current"`
	BatchTotal       int            `gorm:"not null;default:0;column:batch_total" json:"batch_total"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Video) TableName() string {
	return "videos"
}

// Terminal reports whether the video has reached a terminal processing state.
func (v *Video) Terminal() bool {
	return v.ProcessingStatus == StatusCompleted || v.ProcessingStatus == StatusFailed
}
