package types

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Go-side uuid assignment so inserts work on drivers without uuid-ossp.
// Postgres keeps the column default as a second line of defense.

func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (q *Quiz) BeforeCreate(*gorm.DB) error {
	if q.QuizID == uuid.Nil {
		q.QuizID = uuid.New()
	}
	return nil
}

func (a *UserAttempt) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (r *LearningReport) BeforeCreate(*gorm.DB) error {
	if r.ReportID == uuid.Nil {
		r.ReportID = uuid.New()
	}
	return nil
}

func (n *VideoNotes) BeforeCreate(*gorm.DB) error {
	if n.NotesID == uuid.Nil {
		n.NotesID = uuid.New()
	}
	return nil
}

func (p *UserProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (h *CreditHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ProjectID == uuid.Nil {
		p.ProjectID = uuid.New()
	}
	return nil
}

func (pv *ProjectVideo) BeforeCreate(*gorm.DB) error {
	if pv.ID == uuid.Nil {
		pv.ID = uuid.New()
	}
	return nil
}

func (j *JobRun) BeforeCreate(*gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
