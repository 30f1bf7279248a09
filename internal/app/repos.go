package app

import (
	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
)

type Repos struct {
	User          repos.UserRepo
	Video         repos.VideoRepo
	Question      repos.QuestionRepo
	Quiz          repos.QuizRepo
	Attempt       repos.AttemptRepo
	Report        repos.ReportRepo
	Notes         repos.NotesRepo
	Progress      repos.ProgressRepo
	Project       repos.ProjectRepo
	CreditHistory repos.CreditHistoryRepo
	JobRun        repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Video:         repos.NewVideoRepo(db, log),
		Question:      repos.NewQuestionRepo(db, log),
		Quiz:          repos.NewQuizRepo(db, log),
		Attempt:       repos.NewAttemptRepo(db, log),
		Report:        repos.NewReportRepo(db, log),
		Notes:         repos.NewNotesRepo(db, log),
		Progress:      repos.NewProgressRepo(db, log),
		Project:       repos.NewProjectRepo(db, log),
		CreditHistory: repos.NewCreditHistoryRepo(db, log),
		JobRun:        repos.NewJobRunRepo(db, log),
	}
}
