package types

import (
	"time"
)

const RoleDeveloper = "developer"

// User is the identity/credit projection this service owns. Auth happens
// upstream; user ids arrive validated.
type User struct {
	ID                   string    `gorm:"primaryKey;column:id" json:"id"`
	Role                 string    `gorm:"not null;default:user;column:role" json:"role"`
	TranscriptionCredits int       `gorm:"not null;default:0;column:transcription_credits" json:"transcription_credits"`
	NotesCredits         int       `gorm:"not null;default:0;column:notes_credits" json:"notes_credits"`
	Company              string    `gorm:"column:company" json:"company,omitempty"`
	Country              string    `gorm:"column:country" json:"country,omitempty"`
	Currency             string    `gorm:"not null;default:USD;column:currency" json:"currency"`
	CreatedAt            time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasUnlimited reports whether credit checks are bypassed for this user.
func (u *User) HasUnlimited() bool {
	return u.Role == RoleDeveloper
}
