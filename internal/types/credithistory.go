package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	CreditTypeTranscription = "transcription"
	CreditTypeNotes         = "notes"

	CreditOpAdd    = "add"
	CreditOpDeduct = "deduct"
)

// CreditHistory is the append-only audit of every balance-modifying
// operation. The history row is the idempotency record for deductions.
type CreditHistory struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        string         `gorm:"index;not null;column:user_id" json:"user_id"`
	VideoID       *string        `gorm:"index;column:video_id" json:"video_id,omitempty"`
	ProjectID     *string        `gorm:"column:project_id" json:"project_id,omitempty"`
	CreditType    string         `gorm:"not null;column:credit_type" json:"credit_type"`
	Amount        int            `gorm:"not null;column:amount" json:"amount"`
	Operation     string         `gorm:"not null;column:operation" json:"operation"`
	BalanceBefore int            `gorm:"not null;column:balance_before" json:"balance_before"`
	BalanceAfter  int            `gorm:"not null;column:balance_after" json:"balance_after"`
	Description   string         `gorm:"column:description" json:"description"`
	Metadata      datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (CreditHistory) TableName() string {
	return "credit_history"
}
