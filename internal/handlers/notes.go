package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/recapio/recapio-backend/internal/apierr"
	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/services"
	"github.com/recapio/recapio-backend/internal/types"
)

type NotesHandler struct {
	log       *logger.Logger
	generator services.NotesGenerator
	ledger    services.CreditLedger
	videos    repos.VideoRepo
	notes     repos.NotesRepo
}

func NewNotesHandler(log *logger.Logger, generator services.NotesGenerator, ledger services.CreditLedger, videos repos.VideoRepo, notes repos.NotesRepo) *NotesHandler {
	return &NotesHandler{
		log:       log.With("handler", "NotesHandler"),
		generator: generator,
		ledger:    ledger,
		videos:    videos,
		notes:     notes,
	}
}

type GenerateNotesRequest struct {
	VideoID string `json:"video_id"`
	UserID  string `json:"user_id,omitempty"`
}

// POST /api/notes/generate
// Notes are one-per-video: a second request returns the existing notes
// without charging again.
func (h *NotesHandler) GenerateNotes(c *gin.Context) {
	var req GenerateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.VideoID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("video_id is required"))
		return
	}

	ctx := c.Request.Context()
	video, err := h.videos.GetByID(ctx, nil, req.VideoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if video == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("video not found"))
		return
	}

	existing, err := h.notes.GetByVideoID(ctx, nil, req.VideoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if existing != nil {
		RespondOK(c, gin.H{
			"message": "Notes already exist for this video",
			"notes":   existing,
		})
		return
	}

	if video.ProcessingStatus != types.StatusCompleted {
		RespondError(c, http.StatusBadRequest, "video_not_ready", services.ErrVideoNotCompleted)
		return
	}

	transcript, err := decodeTranscript(video)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if transcript == nil || transcript.FullText == "" {
		RespondError(c, http.StatusBadRequest, "transcript_missing", errors.New("video has no transcript"))
		return
	}

	cost := services.NotesCost(len(transcript.FullText))
	if req.UserID != "" {
		ok, available, err := h.ledger.HasCredits(ctx, req.UserID, types.CreditTypeNotes, cost)
		if err != nil {
			RespondAPIError(c, err)
			return
		}
		if !ok {
			RespondAPIError(c, apierr.InsufficientCredits(cost, available))
			return
		}
	}

	notes, err := h.generator.Generate(ctx, req.VideoID, video.Title, transcript)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	stored, err := h.notes.Create(ctx, nil, notes)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	if req.UserID != "" {
		if err := h.ledger.Deduct(ctx, req.UserID, types.CreditTypeNotes, cost, &req.VideoID,
			fmt.Sprintf("Notes generation for %q", video.Title), nil); err != nil {
			h.log.Error("notes credit deduction failed", "user_id", req.UserID, "video_id", req.VideoID, "error", err)
		}
	}

	RespondOK(c, gin.H{
		"message": "Notes generated successfully",
		"notes":   stored,
	})
}

// GET /api/notes/:video_id
func (h *NotesHandler) GetNotes(c *gin.Context) {
	notes, err := h.notes.GetByVideoID(c.Request.Context(), nil, c.Param("video_id"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if notes == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("notes not found for this video"))
		return
	}
	RespondOK(c, gin.H{"notes": notes})
}

type UpdateNotesRequest struct {
	Title    string               `json:"title"`
	Sections []types.NotesSection `json:"sections"`
}

// PUT /api/notes/:video_id
// Full replacement of title and sections.
func (h *NotesHandler) UpdateNotes(c *gin.Context) {
	videoID := c.Param("video_id")

	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Sections) == 0 {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("sections must not be empty"))
		return
	}

	ctx := c.Request.Context()
	existing, err := h.notes.GetByVideoID(ctx, nil, videoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if existing == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("notes not found for this video"))
		return
	}

	sectionsJSON, err := json.Marshal(req.Sections)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	title := req.Title
	if title == "" {
		title = existing.Title
	}
	if err := h.notes.ReplaceContent(ctx, nil, videoID, title, datatypes.JSON(sectionsJSON)); err != nil {
		RespondAPIError(c, err)
		return
	}

	updated, err := h.notes.GetByVideoID(ctx, nil, videoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"notes": updated})
}
