package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/recapio/recapio-backend/internal/types"
)

func validQuestionResponse(text string) map[string]any {
	return map[string]any{
		"question_text":  text,
		"options":        []any{"a", "b", "c", "d"},
		"correct_answer": float64(2),
		"explanation":    "because",
		"difficulty":     "hard",
	}
}

func TestGenerateForSegments_UsesModelOutput(t *testing.T) {
	openai := &fakeOpenAI{fn: func(_, _, _ string, _ map[string]any) (map[string]any, error) {
		return validQuestionResponse("What is covered here?"), nil
	}}
	gen := NewFlashcardGenerator(newTestLogger(t), openai)

	segments := []types.VideoSegment{
		{StartTime: 0, EndTime: 120, Text: "first part"},
		{StartTime: 120, EndTime: 240, Text: "   "},
		{StartTime: 240, EndTime: 300, Text: "third part"},
	}
	questions, err := gen.GenerateForSegments(context.Background(), "vid1", segments)
	if err != nil {
		t.Fatalf("GenerateForSegments: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("blank segment should be skipped, got %d questions", len(questions))
	}

	q := questions[0]
	if q.VideoID != "vid1" || q.QuestionText != "What is covered here?" {
		t.Fatalf("unexpected question: %#v", q)
	}
	if q.CorrectAnswer != 2 || q.Difficulty != types.DifficultyHard {
		t.Fatalf("unexpected answer/difficulty: %#v", q)
	}
	if q.ShowAtTimestamp != 120 {
		t.Fatalf("show_at_timestamp should be the segment end, got %v", q.ShowAtTimestamp)
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil || len(options) != 4 {
		t.Fatalf("options should round-trip as 4 strings: %v %#v", err, options)
	}
	var seg types.VideoSegment
	if err := json.Unmarshal(q.VideoSegment, &seg); err != nil || seg.StartTime != 0 || seg.EndTime != 120 {
		t.Fatalf("segment snapshot wrong: %v %#v", err, seg)
	}
}

func TestGenerateForSegments_FallsBackOnModelError(t *testing.T) {
	openai := &fakeOpenAI{fn: func(_, _, _ string, _ map[string]any) (map[string]any, error) {
		return nil, errors.New("model down")
	}}
	gen := NewFlashcardGenerator(newTestLogger(t), openai)

	seg := types.VideoSegment{StartTime: 120, EndTime: 240, Text: "the content of this segment"}
	questions, err := gen.GenerateForSegments(context.Background(), "vid1", []types.VideoSegment{seg})
	if err != nil {
		t.Fatalf("fallback should not surface the model error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 fallback question, got %d", len(questions))
	}

	q := questions[0]
	if q.QuestionText != "What was discussed during the segment from 2:00 to 4:00?" {
		t.Fatalf("unexpected fallback text: %q", q.QuestionText)
	}
	if q.CorrectAnswer != 0 || q.Difficulty != types.DifficultyEasy {
		t.Fatalf("fallback should be easy with answer 0: %#v", q)
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		t.Fatalf("unmarshal options: %v", err)
	}
	if !strings.HasPrefix(options[0], "the content of this segment") || !strings.HasSuffix(options[0], "...") {
		t.Fatalf("fallback correct option should quote the segment: %q", options[0])
	}
}

func TestGenerateForSegments_MalformedModelOutputFallsBack(t *testing.T) {
	openai := &fakeOpenAI{fn: func(_, _, _ string, _ map[string]any) (map[string]any, error) {
		return map[string]any{
			"question_text":  "bad",
			"options":        []any{"a", "b"},
			"correct_answer": float64(0),
		}, nil
	}}
	gen := NewFlashcardGenerator(newTestLogger(t), openai)

	questions, err := gen.GenerateForSegments(context.Background(), "vid1",
		[]types.VideoSegment{{StartTime: 0, EndTime: 60, Text: "text"}})
	if err != nil {
		t.Fatalf("GenerateForSegments: %v", err)
	}
	if questions[0].Difficulty != types.DifficultyEasy {
		t.Fatalf("malformed output should degrade to the fallback question: %#v", questions[0])
	}
}

func TestNeighborContext(t *testing.T) {
	segments := []types.VideoSegment{
		{Text: "first"},
		{Text: "second"},
		{Text: "third"},
	}
	mid := neighborContext(segments, 1)
	if !strings.Contains(mid, "Before: first") || !strings.Contains(mid, "After: third") {
		t.Fatalf("unexpected context: %q", mid)
	}
	if got := neighborContext(segments, 0); strings.Contains(got, "Before:") {
		t.Fatalf("first segment has no before context: %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	for sec, want := range map[float64]string{0: "0:00", 65: "1:05", 600: "10:00", 3599: "59:59"} {
		if got := formatTimestamp(sec); got != want {
			t.Fatalf("formatTimestamp(%v) = %q, want %q", sec, got, want)
		}
	}
}

func TestTruncate_KeepsRuneBoundaries(t *testing.T) {
	// "é" is two bytes; cutting inside it must back off to "h".
	if got := truncate("héllo", 2); got != "h" {
		t.Fatalf("truncate split a rune: %q", got)
	}
	if got := truncate("héllo", 3); got != "hé" {
		t.Fatalf("truncate(héllo, 3) = %q", got)
	}
	if got := truncate("ascii", 3); got != "asc" {
		t.Fatalf("truncate(ascii, 3) = %q", got)
	}
	if got := truncate(strings.Repeat("é", 40), 51); !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
}
