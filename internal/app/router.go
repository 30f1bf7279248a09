package app

import (
	"github.com/gin-gonic/gin"

	"github.com/recapio/recapio-backend/internal/server"
)

func wireRouter(handlers Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:     "recapio-backend",
		VideoHandler:    handlers.Video,
		QuizHandler:     handlers.Quiz,
		NotesHandler:    handlers.Notes,
		ReportsHandler:  handlers.Reports,
		UserHandler:     handlers.User,
		ProjectHandler:  handlers.Project,
		ProgressHandler: handlers.Progress,
	})
}
