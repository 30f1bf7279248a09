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

const defaultQuizQuestions = 10

type QuizHandler struct {
	log          *logger.Logger
	planner      services.QuizPlanner
	ledger       services.CreditLedger
	videos       repos.VideoRepo
	questions    repos.QuestionRepo
	quizzes      repos.QuizRepo
	attempts     repos.AttemptRepo
	defaultCount int
}

func NewQuizHandler(
	log *logger.Logger,
	planner services.QuizPlanner,
	ledger services.CreditLedger,
	videos repos.VideoRepo,
	questions repos.QuestionRepo,
	quizzes repos.QuizRepo,
	attempts repos.AttemptRepo,
	defaultCount int,
) *QuizHandler {
	if defaultCount <= 0 {
		defaultCount = defaultQuizQuestions
	}
	return &QuizHandler{
		log:          log.With("handler", "QuizHandler"),
		planner:      planner,
		ledger:       ledger,
		videos:       videos,
		questions:    questions,
		quizzes:      quizzes,
		attempts:     attempts,
		defaultCount: defaultCount,
	}
}

type GenerateQuizRequest struct {
	VideoID      string `json:"video_id"`
	UserID       string `json:"user_id,omitempty"`
	NumQuestions int    `json:"num_questions,omitempty"`
}

// POST /api/quiz/generate
// Builds a quiz over the whole video. With a user id and prior attempts
// the mix adapts toward that user's weak questions.
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	var req GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.VideoID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("video_id is required"))
		return
	}
	n := req.NumQuestions
	if n <= 0 {
		n = h.defaultCount
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
	if video.ProcessingStatus != types.StatusCompleted {
		RespondError(c, http.StatusBadRequest, "video_not_ready", services.ErrVideoNotCompleted)
		return
	}

	transcript, err := decodeTranscript(video)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if transcript == nil || len(transcript.Segments) == 0 {
		RespondError(c, http.StatusBadRequest, "transcript_missing", errors.New("video has no transcript"))
		return
	}

	if req.UserID != "" {
		ok, available, err := h.ledger.HasCredits(ctx, req.UserID, types.CreditTypeNotes, services.QuizCreditCost)
		if err != nil {
			RespondAPIError(c, err)
			return
		}
		if !ok {
			RespondAPIError(c, apierr.InsufficientCredits(services.QuizCreditCost, available))
			return
		}
	}

	existing, err := h.questions.GetByVideoID(ctx, nil, req.VideoID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	var priorAttempts []*types.UserAttempt
	if req.UserID != "" {
		priorAttempts, err = h.attempts.GetByUserVideo(ctx, nil, req.UserID, req.VideoID)
		if err != nil {
			RespondAPIError(c, err)
			return
		}
	}

	planned, err := h.planner.PlanQuiz(ctx, req.VideoID, req.UserID, transcript.Segments, existing, priorAttempts, n)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	questionsJSON, err := json.Marshal(planned)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	quiz, err := h.quizzes.Create(ctx, nil, &types.Quiz{
		VideoID:   req.VideoID,
		Questions: datatypes.JSON(questionsJSON),
	})
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	if req.UserID != "" {
		quizID := quiz.QuizID.String()
		if err := h.ledger.Deduct(ctx, req.UserID, types.CreditTypeNotes, services.QuizCreditCost, &req.VideoID,
			fmt.Sprintf("Quiz generation for %q", video.Title),
			map[string]any{"quiz_id": quizID}); err != nil {
			h.log.Error("quiz credit deduction failed", "user_id", req.UserID, "quiz_id", quizID, "error", err)
		}
	}

	RespondOK(c, gin.H{
		"quiz_id":         quiz.QuizID,
		"questions":       planned,
		"total_questions": len(planned),
	})
}

type QuizAnswer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer int    `json:"selected_answer"`
}

type QuizSubmission struct {
	QuizID  string       `json:"quiz_id"`
	Answers []QuizAnswer `json:"answers"`
}

// POST /api/quiz/submit
// Grades against the stored quiz snapshot. Incorrect answers carry their
// source segment so the player can jump back to the weak spot.
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	var sub QuizSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	quiz, err := h.quizzes.GetByID(c.Request.Context(), nil, sub.QuizID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if quiz == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("quiz not found"))
		return
	}

	var questions []types.Question
	if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
		RespondAPIError(c, err)
		return
	}
	byID := make(map[string]*types.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID.String()] = &questions[i]
	}

	correctCount := 0
	details := make([]gin.H, 0, len(sub.Answers))
	weakSegments := make([]json.RawMessage, 0)

	for _, answer := range sub.Answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			continue
		}
		isCorrect := answer.SelectedAnswer == question.CorrectAnswer
		if isCorrect {
			correctCount++
		}

		detail := gin.H{
			"question_id":     question.ID,
			"question_text":   question.QuestionText,
			"selected_answer": answer.SelectedAnswer,
			"correct_answer":  question.CorrectAnswer,
			"is_correct":      isCorrect,
			"explanation":     question.Explanation,
			"video_segment":   nil,
		}
		if !isCorrect {
			if len(question.VideoSegment) > 0 {
				segment := json.RawMessage(question.VideoSegment)
				detail["video_segment"] = segment
				weakSegments = append(weakSegments, segment)
			}
		}
		details = append(details, detail)
	}

	total := len(questions)
	score := 0.0
	if total > 0 {
		score = roundScore(float64(correctCount) / float64(total) * 100)
	}

	RespondOK(c, gin.H{
		"quiz_id":          sub.QuizID,
		"total_questions":  total,
		"correct_answers":  correctCount,
		"score_percentage": score,
		"details":          details,
		"weak_areas":       weakSegments,
	})
}

// GET /api/quiz/:quiz_id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quiz, err := h.quizzes.GetByID(c.Request.Context(), nil, c.Param("quiz_id"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if quiz == nil {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("quiz not found"))
		return
	}

	var questions []types.Question
	if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"quiz_id":         quiz.QuizID,
		"video_id":        quiz.VideoID,
		"questions":       questions,
		"total_questions": len(questions),
	})
}

func roundScore(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
