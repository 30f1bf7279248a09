package app

import (
	"github.com/recapio/recapio-backend/internal/handlers"
	"github.com/recapio/recapio-backend/internal/logger"
)

type Handlers struct {
	Video    *handlers.VideoHandler
	Quiz     *handlers.QuizHandler
	Notes    *handlers.NotesHandler
	Reports  *handlers.ReportsHandler
	User     *handlers.UserHandler
	Project  *handlers.ProjectHandler
	Progress *handlers.ProgressHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, repos Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Video:    handlers.NewVideoHandler(log, services.Pipeline, repos.Video, repos.Question),
		Quiz:     handlers.NewQuizHandler(log, services.QuizPlanner, services.Ledger, repos.Video, repos.Question, repos.Quiz, repos.Attempt, cfg.FinalQuizQuestions),
		Notes:    handlers.NewNotesHandler(log, services.Notes, services.Ledger, repos.Video, repos.Notes),
		Reports:  handlers.NewReportsHandler(log, services.Reports, repos.Video, repos.Question, repos.Quiz, repos.Attempt, repos.Report),
		User:     handlers.NewUserHandler(log, services.Ledger, repos.CreditHistory),
		Project:  handlers.NewProjectHandler(log, services.Pipeline, repos.Project),
		Progress: handlers.NewProgressHandler(log, repos.Progress),
	}
}
