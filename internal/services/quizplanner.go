package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

const weakAccuracyThreshold = 0.70

// QuizPlanner builds the final quiz for a video. With a known user and
// prior attempts it splits the budget 60/40 between adaptive questions
// (biased toward the user's weakest items) and general review.
type QuizPlanner interface {
	PlanQuiz(ctx context.Context, videoID, userID string, segments []types.VideoSegment, existing []*types.Question, priorAttempts []*types.UserAttempt, n int) ([]*types.Question, error)
}

type quizPlanner struct {
	log             *logger.Logger
	openai          OpenAIClient
	perSegmentFloor int
}

func NewQuizPlanner(log *logger.Logger, openai OpenAIClient, perSegmentFloor int) QuizPlanner {
	if perSegmentFloor < 1 {
		perSegmentFloor = 1
	}
	return &quizPlanner{
		log:             log.With("service", "QuizPlanner"),
		openai:          openai,
		perSegmentFloor: perSegmentFloor,
	}
}

type questionAccuracy struct {
	QuestionID string
	Accuracy   float64
	Attempts   int
}

// weakestQuestions computes per-question accuracy over the given
// attempts and returns up to limit questions under the weak threshold,
// weakest first.
func weakestQuestions(attempts []*types.UserAttempt, limit int) []questionAccuracy {
	type tally struct{ total, correct int }
	byQuestion := map[string]*tally{}
	for _, a := range attempts {
		t, ok := byQuestion[a.QuestionID]
		if !ok {
			t = &tally{}
			byQuestion[a.QuestionID] = t
		}
		t.total++
		if a.IsCorrect {
			t.correct++
		}
	}

	weak := make([]questionAccuracy, 0, len(byQuestion))
	for id, t := range byQuestion {
		acc := float64(t.correct) / float64(t.total)
		if acc < weakAccuracyThreshold {
			weak = append(weak, questionAccuracy{QuestionID: id, Accuracy: acc, Attempts: t.total})
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		if weak[i].Accuracy != weak[j].Accuracy {
			return weak[i].Accuracy < weak[j].Accuracy
		}
		return weak[i].QuestionID < weak[j].QuestionID
	})
	if len(weak) > limit {
		weak = weak[:limit]
	}
	return weak
}

func (p *quizPlanner) PlanQuiz(ctx context.Context, videoID, userID string, segments []types.VideoSegment, existing []*types.Question, priorAttempts []*types.UserAttempt, n int) ([]*types.Question, error) {
	if n <= 0 {
		n = 10
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("no transcript segments for video %s", videoID)
	}

	adaptive := userID != "" && len(priorAttempts) > 0
	var out []*types.Question

	if adaptive {
		focus := p.buildFocusSignal(priorAttempts, existing)
		adaptiveCount := int(math.Round(0.6 * float64(n)))
		reviewCount := n - adaptiveCount

		adaptiveQs, err := p.generateAcross(ctx, videoID, segments, adaptiveCount, focus, true)
		if err != nil {
			return nil, err
		}
		reviewQs, err := p.generateAcross(ctx, videoID, segments, reviewCount, "", false)
		if err != nil {
			return nil, err
		}
		out = append(adaptiveQs, reviewQs...)
	} else {
		var err error
		out, err = p.generateAcross(ctx, videoID, segments, n, "", false)
		if err != nil {
			return nil, err
		}
	}

	// Pad with a final general-review pass, then truncate to exactly n.
	for len(out) < n {
		extra, err := p.generateAcross(ctx, videoID, segments, n-len(out), "", false)
		if err != nil {
			return nil, err
		}
		if len(extra) == 0 {
			break
		}
		out = append(out, extra...)
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// buildFocusSignal summarizes the user's weakest items so the LLM can
// bias new questions toward those concepts. Attempts are partitioned by
// type so weak flashcards and weak quiz questions both surface.
func (p *quizPlanner) buildFocusSignal(attempts []*types.UserAttempt, existing []*types.Question) string {
	textByID := map[string]string{}
	for _, q := range existing {
		textByID[q.ID.String()] = q.QuestionText
	}

	var flashcard, quiz []*types.UserAttempt
	for _, a := range attempts {
		if a.QuestionType == types.QuestionTypeQuiz {
			quiz = append(quiz, a)
		} else {
			flashcard = append(flashcard, a)
		}
	}

	var b strings.Builder
	appendWeak := func(label string, weak []questionAccuracy) {
		if len(weak) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s the viewer struggled with:\n", label)
		for _, w := range weak {
			text := textByID[w.QuestionID]
			if text == "" {
				continue
			}
			fmt.Fprintf(&b, "- %q (answered correctly %.0f%% of %d attempts)\n", text, w.Accuracy*100, w.Attempts)
		}
	}
	appendWeak("Flashcard questions", weakestQuestions(flashcard, 10))
	appendWeak("Quiz questions", weakestQuestions(quiz, 10))
	return b.String()
}

func (p *quizPlanner) generateAcross(ctx context.Context, videoID string, segments []types.VideoSegment, count int, focus string, harder bool) ([]*types.Question, error) {
	if count <= 0 {
		return nil, nil
	}

	perSegment := count / len(segments)
	if perSegment < p.perSegmentFloor {
		perSegment = p.perSegmentFloor
	}

	out := make([]*types.Question, 0, count)
	for i, segment := range segments {
		if len(out) >= count {
			break
		}
		if strings.TrimSpace(segment.Text) == "" {
			continue
		}
		for k := 0; k < perSegment && len(out) < count; k++ {
			q, err := p.generateOne(ctx, segment, neighborContext(segments, i), focus, harder)
			if err != nil {
				p.log.Warn("quiz question generation failed, using fallback",
					"video_id", videoID,
					"segment_start", segment.StartTime,
					"error", err,
				)
				q = fallbackQuestion(segment)
			}
			record, err := toQuestionRecord(videoID, segment, q)
			if err != nil {
				return nil, err
			}
			out = append(out, record)
		}
	}
	return out, nil
}

func (p *quizPlanner) generateOne(ctx context.Context, segment types.VideoSegment, surrounding, focus string, harder bool) (*generatedQuestion, error) {
	var prompt strings.Builder
	prompt.WriteString("Based on the following video segment content, generate one multiple-choice question for a final comprehension quiz.\n\n")
	fmt.Fprintf(&prompt, "Video Segment (Time: %s - %s):\n%s\n",
		formatTimestamp(segment.StartTime), formatTimestamp(segment.EndTime), segment.Text)
	if surrounding != "" {
		fmt.Fprintf(&prompt, "\nSurrounding context (do not quiz on this, use it only to disambiguate):\n%s\n", surrounding)
	}
	if focus != "" {
		fmt.Fprintf(&prompt, "\n%s\nBias this question toward the concepts behind those weak items.\n", focus)
	}
	if harder {
		prompt.WriteString("\nTarget difficulty: medium or hard.")
	}

	raw, err := p.openai.GenerateJSON(ctx, flashcardSystemPrompt, prompt.String(), "quiz_question", questionSchema)
	if err != nil {
		return nil, err
	}

	var q generatedQuestion
	if err := decodeInto(raw, &q); err != nil {
		return nil, fmt.Errorf("decode quiz question: %w", err)
	}
	if len(q.Options) != 4 || q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
		return nil, fmt.Errorf("malformed quiz question: %d options, answer %d", len(q.Options), q.CorrectAnswer)
	}
	if harder && q.Difficulty == types.DifficultyEasy {
		q.Difficulty = types.DifficultyMedium
	}
	if q.Difficulty == "" {
		q.Difficulty = types.DifficultyMedium
	}
	return &q, nil
}
