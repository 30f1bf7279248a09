package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

// FlashcardGenerator turns transcript segments into one multiple-choice
// question per segment. Generation failures degrade to a deterministic
// fallback question rather than failing the pipeline.
type FlashcardGenerator interface {
	GenerateForSegments(ctx context.Context, videoID string, segments []types.VideoSegment) ([]*types.Question, error)
}

type flashcardGenerator struct {
	log    *logger.Logger
	openai OpenAIClient
}

func NewFlashcardGenerator(log *logger.Logger, openai OpenAIClient) FlashcardGenerator {
	return &flashcardGenerator{
		log:    log.With("service", "FlashcardGenerator"),
		openai: openai,
	}
}

var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question_text": map[string]any{"type": "string"},
		"options": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"minItems": 4,
			"maxItems": 4,
		},
		"correct_answer": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
		"explanation":    map[string]any{"type": "string"},
		"difficulty":     map[string]any{"type": "string", "enum": []string{"easy", "medium", "hard"}},
	},
	"required":             []string{"question_text", "options", "correct_answer", "explanation", "difficulty"},
	"additionalProperties": false,
}

const flashcardSystemPrompt = "You are an expert educational content creator who generates " +
	"insightful questions to test comprehension of video content."

func (g *flashcardGenerator) GenerateForSegments(ctx context.Context, videoID string, segments []types.VideoSegment) ([]*types.Question, error) {
	questions := make([]*types.Question, 0, len(segments))

	for i, segment := range segments {
		if strings.TrimSpace(segment.Text) == "" {
			continue
		}

		q, err := g.generateOne(ctx, segment, neighborContext(segments, i))
		if err != nil {
			g.log.Warn("question generation failed, using fallback",
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
		questions = append(questions, record)
	}

	return questions, nil
}

type generatedQuestion struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

func (g *flashcardGenerator) generateOne(ctx context.Context, segment types.VideoSegment, surrounding string) (*generatedQuestion, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Based on the following video segment content, generate one multiple-choice question to test the viewer's understanding.\n\n")
	fmt.Fprintf(&prompt, "Video Segment (Time: %s - %s):\n%s\n",
		formatTimestamp(segment.StartTime), formatTimestamp(segment.EndTime), segment.Text)
	if surrounding != "" {
		fmt.Fprintf(&prompt, "\nSurrounding context (do not quiz on this, use it only to disambiguate):\n%s\n", surrounding)
	}
	prompt.WriteString("\nMake the question specific to the content discussed in this segment.")

	raw, err := g.openai.GenerateJSON(ctx, flashcardSystemPrompt, prompt.String(), "segment_question", questionSchema)
	if err != nil {
		return nil, err
	}

	var q generatedQuestion
	if err := decodeInto(raw, &q); err != nil {
		return nil, fmt.Errorf("decode generated question: %w", err)
	}
	if len(q.Options) != 4 || q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
		return nil, fmt.Errorf("malformed generated question: %d options, answer %d", len(q.Options), q.CorrectAnswer)
	}
	if q.Difficulty == "" {
		q.Difficulty = types.DifficultyMedium
	}
	return &q, nil
}

// neighborContext returns short excerpts of the adjacent segments.
func neighborContext(segments []types.VideoSegment, i int) string {
	var parts []string
	if i > 0 {
		parts = append(parts, "Before: "+truncate(segments[i-1].Text, 200))
	}
	if i < len(segments)-1 {
		parts = append(parts, "After: "+truncate(segments[i+1].Text, 200))
	}
	return strings.Join(parts, "\n")
}

func fallbackQuestion(segment types.VideoSegment) *generatedQuestion {
	return &generatedQuestion{
		QuestionText: fmt.Sprintf("What was discussed during the segment from %s to %s?",
			formatTimestamp(segment.StartTime), formatTimestamp(segment.EndTime)),
		Options: []string{
			truncate(segment.Text, 50) + "...",
			"Unrelated topic A",
			"Unrelated topic B",
			"Unrelated topic C",
		},
		CorrectAnswer: 0,
		Explanation:   fmt.Sprintf("This segment covered: %s...", truncate(segment.Text, 100)),
		Difficulty:    types.DifficultyEasy,
	}
}

func toQuestionRecord(videoID string, segment types.VideoSegment, q *generatedQuestion) (*types.Question, error) {
	optionsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return nil, err
	}
	segmentJSON, err := json.Marshal(segment)
	if err != nil {
		return nil, err
	}
	return &types.Question{
		ID:              uuid.New(),
		VideoID:         videoID,
		QuestionText:    q.QuestionText,
		Options:         datatypes.JSON(optionsJSON),
		CorrectAnswer:   q.CorrectAnswer,
		Explanation:     q.Explanation,
		Difficulty:      q.Difficulty,
		VideoSegment:    datatypes.JSON(segmentJSON),
		ShowAtTimestamp: segment.EndTime,
	}, nil
}

func formatTimestamp(sec float64) string {
	total := int(sec)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
