package app

import (
	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/jobs"
	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/services"
)

type Services struct {
	Intake      services.VideoIntakeService
	Transcriber services.Transcriber
	Flashcards  services.FlashcardGenerator
	QuizPlanner services.QuizPlanner
	Notes       services.NotesGenerator
	Reports     services.ReportGenerator
	Ledger      services.CreditLedger
	Pipeline    services.VideoPipeline

	JobWorker *jobs.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	intake := services.NewVideoIntakeService(log, clients.Media, clients.Captions, cfg.MaxVideoDuration)
	transcriber := services.NewTranscriber(log, clients.Captions, clients.Speech, clients.Media, cfg.FlashcardInterval)
	flashcards := services.NewFlashcardGenerator(log, clients.OpenAI)
	quizPlanner := services.NewQuizPlanner(log, clients.OpenAI, cfg.QuestionsPerSegment)
	notes := services.NewNotesGenerator(log, clients.OpenAI)
	reports := services.NewReportGenerator(log, clients.OpenAI)
	ledger := services.NewCreditLedger(db, log, repos.User, repos.CreditHistory)

	pipeline := services.NewVideoPipeline(services.PipelineDeps{
		DB:  db,
		Log: log,
		Config: services.PipelineConfig{
			MaxVideoDuration: cfg.MaxVideoDuration,
			BatchThreshold:   cfg.BatchThreshold,
			BatchSize:        cfg.BatchSize,
			SegmentInterval:  cfg.FlashcardInterval,
		},
		Intake:      intake,
		Transcriber: transcriber,
		Flashcards:  flashcards,
		Ledger:      ledger,
		Notifier:    clients.Notifier,
		Videos:      repos.Video,
		Questions:   repos.Question,
		Quizzes:     repos.Quiz,
		Attempts:    repos.Attempt,
		Reports:     repos.Report,
		Notes:       repos.Notes,
		Progress:    repos.Progress,
		Projects:    repos.Project,
		Jobs:        repos.JobRun,
	})

	worker := jobs.NewWorker(db, log, repos.JobRun, pipeline)

	return Services{
		Intake:      intake,
		Transcriber: transcriber,
		Flashcards:  flashcards,
		QuizPlanner: quizPlanner,
		Notes:       notes,
		Reports:     reports,
		Ledger:      ledger,
		Pipeline:    pipeline,
		JobWorker:   worker,
	}
}
