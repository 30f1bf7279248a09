package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobTypeVideoProcess = "video_process"

	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// JobRun is a row-claimed background job. Workers claim runnable rows
// with SKIP LOCKED, so a crashed worker never wedges the queue.
type JobRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobType    string         `gorm:"index;not null;column:job_type" json:"job_type"`
	VideoID    string         `gorm:"index;not null;column:video_id" json:"video_id"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	Status     string         `gorm:"index;not null;default:queued;column:status" json:"status"`
	Attempts   int            `gorm:"not null;default:0;column:attempts" json:"attempts"`
	LastError  string         `gorm:"column:last_error" json:"last_error,omitempty"`
	RunAfter   time.Time      `gorm:"index;not null;default:now();column:run_after" json:"run_after"`
	StartedAt  *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (JobRun) TableName() string {
	return "job_runs"
}
