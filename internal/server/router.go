package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/recapio/recapio-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName     string
	VideoHandler    *handlers.VideoHandler
	QuizHandler     *handlers.QuizHandler
	NotesHandler    *handlers.NotesHandler
	ReportsHandler  *handlers.ReportsHandler
	UserHandler     *handlers.UserHandler
	ProjectHandler  *handlers.ProjectHandler
	ProgressHandler *handlers.ProgressHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Video
		api.POST("/video/process-async", cfg.VideoHandler.ProcessVideo)
		api.GET("/video/:video_id/status", cfg.VideoHandler.GetStatus)
		api.GET("/video/:video_id", cfg.VideoHandler.GetVideo)
		api.DELETE("/video/:video_id", cfg.VideoHandler.DeleteVideo)

		// Quiz
		api.POST("/quiz/generate", cfg.QuizHandler.GenerateQuiz)
		api.POST("/quiz/submit", cfg.QuizHandler.SubmitQuiz)
		api.GET("/quiz/:quiz_id", cfg.QuizHandler.GetQuiz)

		// Notes
		api.POST("/notes/generate", cfg.NotesHandler.GenerateNotes)
		api.GET("/notes/:video_id", cfg.NotesHandler.GetNotes)
		api.PUT("/notes/:video_id", cfg.NotesHandler.UpdateNotes)

		// Reports + attempts
		api.POST("/reports/attempt", cfg.ReportsHandler.RecordAttempt)
		api.POST("/reports/generate", cfg.ReportsHandler.GenerateReport)
		api.GET("/reports/user/:user_id", cfg.ReportsHandler.GetUserReports)
		api.GET("/reports/attempts/:user_id/:video_id", cfg.ReportsHandler.GetUserAttempts)
		api.GET("/reports/:report_id", cfg.ReportsHandler.GetReport)

		// Users
		api.GET("/users/:user_id/credits", cfg.UserHandler.GetCredits)
		api.GET("/users/:user_id/credits/history", cfg.UserHandler.GetCreditHistory)
		api.GET("/users/:user_id/profile", cfg.UserHandler.GetProfile)

		// Projects
		api.POST("/projects", cfg.ProjectHandler.CreateProject)
		api.GET("/projects/user/:user_id", cfg.ProjectHandler.GetUserProjects)
		api.GET("/projects/:project_id/videos", cfg.ProjectHandler.GetProjectVideos)
		api.DELETE("/projects/:project_id", cfg.ProjectHandler.DeleteProject)

		// Playback progress
		api.PUT("/progress", cfg.ProgressHandler.SaveProgress)
		api.GET("/progress/:user_id/:video_id", cfg.ProgressHandler.GetProgress)
	}

	return router
}
