package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/types"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress repos.ProgressRepo
}

func NewProgressHandler(log *logger.Logger, progress repos.ProgressRepo) *ProgressHandler {
	return &ProgressHandler{
		log:      log.With("handler", "ProgressHandler"),
		progress: progress,
	}
}

type SaveProgressRequest struct {
	UserID        string          `json:"user_id"`
	VideoID       string          `json:"video_id"`
	ProgressData  json.RawMessage `json:"progress_data,omitempty"`
	LastTimestamp float64         `json:"last_timestamp"`
}

// PUT /api/progress
// Upsert keyed on (user_id, video_id).
func (h *ProgressHandler) SaveProgress(c *gin.Context) {
	var req SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.UserID == "" || req.VideoID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("user_id and video_id are required"))
		return
	}

	record := &types.UserProgress{
		UserID:        req.UserID,
		VideoID:       req.VideoID,
		LastTimestamp: req.LastTimestamp,
	}
	if len(req.ProgressData) > 0 {
		record.ProgressData = datatypes.JSON(req.ProgressData)
	}

	saved, err := h.progress.Upsert(c.Request.Context(), nil, record)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": saved})
}

// GET /api/progress/:user_id/:video_id
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	progress, err := h.progress.Get(c.Request.Context(), nil, c.Param("user_id"), c.Param("video_id"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if progress == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("no progress recorded"))
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}
