package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Diagram types accepted in notes sections.
const (
	DiagramFlow     = "flow"
	DiagramPie      = "pie"
	DiagramState    = "state"
	DiagramSequence = "sequence"
	DiagramClass    = "class"
	DiagramGantt    = "gantt"
	DiagramMindmap  = "mindmap"
	DiagramGit      = "git"
)

type VideoNotes struct {
	NotesID   uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey;column:notes_id" json:"notes_id"`
	VideoID   string         `gorm:"uniqueIndex;not null;column:video_id" json:"video_id"`
	Title     string         `gorm:"not null;column:title" json:"title"`
	Sections  datatypes.JSON `gorm:"not null;column:sections" json:"sections"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (VideoNotes) TableName() string {
	return "video_notes"
}

type NotesSection struct {
	Heading     string         `json:"heading"`
	Content     string         `json:"content"`
	KeyConcepts []string       `json:"key_concepts"`
	Diagrams    []NotesDiagram `json:"diagrams"`
}

type NotesDiagram struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Title   string `json:"title"`
	Purpose string `json:"purpose"`
}
