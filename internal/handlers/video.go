package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/services"
	"github.com/recapio/recapio-backend/internal/types"
)

type VideoHandler struct {
	log       *logger.Logger
	pipeline  services.VideoPipeline
	videos    repos.VideoRepo
	questions repos.QuestionRepo
}

func NewVideoHandler(log *logger.Logger, pipeline services.VideoPipeline, videos repos.VideoRepo, questions repos.QuestionRepo) *VideoHandler {
	return &VideoHandler{
		log:       log.With("handler", "VideoHandler"),
		pipeline:  pipeline,
		videos:    videos,
		questions: questions,
	}
}

// POST /api/video/process-async
// Validate and admit a video, then return immediately; transcription and
// flashcard generation run in the background worker.
func (h *VideoHandler) ProcessVideo(c *gin.Context) {
	var req services.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.VideoURL == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("video_url is required"))
		return
	}

	resp, err := h.pipeline.ProcessVideoAsync(c.Request.Context(), req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// GET /api/video/:video_id/status
func (h *VideoHandler) GetStatus(c *gin.Context) {
	status, err := h.pipeline.Status(c.Request.Context(), c.Param("video_id"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, status)
}

// GET /api/video/:video_id
// Full video record with transcript and flashcards.
func (h *VideoHandler) GetVideo(c *gin.Context) {
	videoID := c.Param("video_id")
	ctx := c.Request.Context()

	video, err := h.videos.GetByID(ctx, nil, videoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if video == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("video not found"))
		return
	}

	questions, err := h.questions.GetByVideoID(ctx, nil, videoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	var transcript json.RawMessage
	if len(video.Transcript) > 0 {
		transcript = json.RawMessage(video.Transcript)
	}

	RespondOK(c, gin.H{
		"video_id":          video.VideoID,
		"title":             video.Title,
		"duration":          video.Duration,
		"url":               video.URL,
		"processing_status": video.ProcessingStatus,
		"transcript":        transcript,
		"questions":         questions,
	})
}

// DELETE /api/video/:video_id
// Optional project_id query scopes the delete to an unlink; the video row
// goes only when no project still references it.
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	videoID := c.Param("video_id")
	projectID := c.Query("project_id")

	deletedCompletely, err := h.pipeline.Delete(c.Request.Context(), videoID, projectID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	message := "Video removed from project"
	if deletedCompletely {
		message = "Video deleted"
	}
	RespondOK(c, gin.H{
		"message":            message,
		"video_id":           videoID,
		"deleted_completely": deletedCompletely,
	})
}

func decodeTranscript(video *types.Video) (*types.VideoTranscript, error) {
	if len(video.Transcript) == 0 {
		return nil, nil
	}
	var t types.VideoTranscript
	if err := json.Unmarshal(video.Transcript, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
