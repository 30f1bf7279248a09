package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/services"
	"github.com/recapio/recapio-backend/internal/types"
)

type ReportsHandler struct {
	log       *logger.Logger
	generator services.ReportGenerator
	videos    repos.VideoRepo
	questions repos.QuestionRepo
	quizzes   repos.QuizRepo
	attempts  repos.AttemptRepo
	reports   repos.ReportRepo
}

func NewReportsHandler(
	log *logger.Logger,
	generator services.ReportGenerator,
	videos repos.VideoRepo,
	questions repos.QuestionRepo,
	quizzes repos.QuizRepo,
	attempts repos.AttemptRepo,
	reports repos.ReportRepo,
) *ReportsHandler {
	return &ReportsHandler{
		log:       log.With("handler", "ReportsHandler"),
		generator: generator,
		videos:    videos,
		questions: questions,
		quizzes:   quizzes,
		attempts:  attempts,
		reports:   reports,
	}
}

type AttemptSubmission struct {
	UserID         string  `json:"user_id"`
	VideoID        string  `json:"video_id"`
	QuestionID     string  `json:"question_id"`
	QuestionType   string  `json:"question_type"`
	SelectedAnswer int     `json:"selected_answer"`
	CorrectAnswer  int     `json:"correct_answer"`
	Timestamp      float64 `json:"timestamp,omitempty"`
	QuizID         *string `json:"quiz_id,omitempty"`
}

// POST /api/reports/attempt
// Records one answer event. Correctness is computed here, not trusted
// from the client.
func (h *ReportsHandler) RecordAttempt(c *gin.Context) {
	var sub AttemptSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if sub.UserID == "" || sub.VideoID == "" || sub.QuestionID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("user_id, video_id and question_id are required"))
		return
	}
	if sub.QuestionType != types.QuestionTypeFlashcard && sub.QuestionType != types.QuestionTypeQuiz {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("question_type must be flashcard or quiz"))
		return
	}

	isCorrect := sub.SelectedAnswer == sub.CorrectAnswer
	attempt, err := h.attempts.Create(c.Request.Context(), nil, &types.UserAttempt{
		UserID:         sub.UserID,
		VideoID:        sub.VideoID,
		QuestionID:     sub.QuestionID,
		QuestionType:   sub.QuestionType,
		SelectedAnswer: sub.SelectedAnswer,
		CorrectAnswer:  sub.CorrectAnswer,
		IsCorrect:      isCorrect,
		Timestamp:      sub.Timestamp,
		QuizID:         sub.QuizID,
	})
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"success":        true,
		"is_correct":     isCorrect,
		"attempt_number": attempt.AttemptNumber,
	})
}

type GenerateReportRequest struct {
	UserID  string `json:"user_id"`
	VideoID string `json:"video_id"`
	QuizID  string `json:"quiz_id"`
}

// POST /api/reports/generate
// Builds a learning report from the full attempt history for this video,
// assessing both flashcard and quiz questions.
func (h *ReportsHandler) GenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.UserID == "" || req.VideoID == "" || req.QuizID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("user_id, video_id and quiz_id are required"))
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

	transcript, err := decodeTranscript(video)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	transcriptText := ""
	if transcript != nil {
		transcriptText = transcript.FullText
	}

	attempts, err := h.attempts.GetByUserVideo(ctx, nil, req.UserID, req.VideoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	questions, err := h.questions.GetByVideoID(ctx, nil, req.VideoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	// Quiz questions live inside the quiz snapshot, not the questions
	// table; merge them so quiz attempts resolve to their question text.
	quiz, err := h.quizzes.GetByID(ctx, nil, req.QuizID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if quiz != nil {
		var quizQuestions []types.Question
		if err := json.Unmarshal(quiz.Questions, &quizQuestions); err == nil {
			for i := range quizQuestions {
				questions = append(questions, &quizQuestions[i])
			}
		}
	}

	report, err := h.generator.Generate(ctx, services.ReportInput{
		UserID:         req.UserID,
		VideoID:        req.VideoID,
		QuizID:         req.QuizID,
		TranscriptText: transcriptText,
		Attempts:       attempts,
		Questions:      questions,
	})
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	stored, err := h.reports.Create(ctx, nil, report)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"success":   true,
		"report_id": stored.ReportID,
		"report":    stored,
	})
}

// GET /api/reports/:report_id
func (h *ReportsHandler) GetReport(c *gin.Context) {
	ctx := c.Request.Context()
	report, err := h.reports.GetByID(ctx, nil, c.Param("report_id"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if report == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("report not found"))
		return
	}

	attempts, err := h.attempts.GetByUserVideo(ctx, nil, report.UserID, report.VideoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"report":        report,
		"attempts_data": attempts,
	})
}

// GET /api/reports/user/:user_id
// Optional video_id query narrows to one video.
func (h *ReportsHandler) GetUserReports(c *gin.Context) {
	userID := c.Param("user_id")
	videoID := c.Query("video_id")

	ctx := c.Request.Context()
	reports, err := h.reports.GetByUser(ctx, nil, userID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if videoID != "" {
		filtered := reports[:0]
		for _, r := range reports {
			if r.VideoID == videoID {
				filtered = append(filtered, r)
			}
		}
		reports = filtered
	}

	RespondOK(c, gin.H{
		"user_id":       userID,
		"total_reports": len(reports),
		"reports":       reports,
	})
}

// GET /api/reports/attempts/:user_id/:video_id
func (h *ReportsHandler) GetUserAttempts(c *gin.Context) {
	userID := c.Param("user_id")
	videoID := c.Param("video_id")

	var (
		attempts []*types.UserAttempt
		err      error
	)
	switch questionType := c.Query("type"); questionType {
	case "":
		attempts, err = h.attempts.GetByUserVideo(c.Request.Context(), nil, userID, videoID)
	case types.QuestionTypeFlashcard, types.QuestionTypeQuiz:
		attempts, err = h.attempts.GetByUserVideoType(c.Request.Context(), nil, userID, videoID, questionType)
	default:
		RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("unknown question type %q", questionType))
		return
	}
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"user_id":        userID,
		"video_id":       videoID,
		"total_attempts": len(attempts),
		"attempts":       attempts,
	})
}
