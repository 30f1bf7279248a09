package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/recapio/recapio-backend/internal/types"
)

func strPtr(s string) *string { return &s }

func TestAnalyzePerformance(t *testing.T) {
	attempts := []*types.UserAttempt{
		{QuestionID: "q1", QuestionType: types.QuestionTypeFlashcard, IsCorrect: true},
		{QuestionID: "q1", QuestionType: types.QuestionTypeFlashcard, IsCorrect: false},
		{QuestionID: "q2", QuestionType: types.QuestionTypeQuiz, QuizID: strPtr("qa"), IsCorrect: true},
		{QuestionID: "q3", QuestionType: types.QuestionTypeQuiz, QuizID: strPtr("qa"), IsCorrect: false},
		{QuestionID: "q2", QuestionType: types.QuestionTypeQuiz, QuizID: strPtr("qb"), IsCorrect: true},
	}

	stats := analyzePerformance(attempts)
	if stats.TotalAttempts != 5 || stats.CorrectCount != 3 || stats.IncorrectCount != 2 {
		t.Fatalf("unexpected totals: %#v", stats)
	}
	if stats.AccuracyRate != 60 {
		t.Fatalf("unexpected accuracy: %v", stats.AccuracyRate)
	}
	// Session qa scored 50, session qb scored 100; sessions weigh equally.
	if stats.QuizAverageScore != 75 {
		t.Fatalf("unexpected quiz average: %v", stats.QuizAverageScore)
	}
	if q1 := stats.ByQuestion["q1"]; q1.Attempts != 2 || q1.Correct != 1 {
		t.Fatalf("unexpected per-question stats: %#v", q1)
	}
}

func TestAnalyzePerformance_Empty(t *testing.T) {
	stats := analyzePerformance(nil)
	if stats.TotalAttempts != 0 || stats.AccuracyRate != 0 || stats.QuizAverageScore != 0 {
		t.Fatalf("empty attempts should yield zero stats: %#v", stats)
	}
}

func TestAttemptBreakdown(t *testing.T) {
	attempts := []*types.UserAttempt{
		{QuestionType: types.QuestionTypeFlashcard, IsCorrect: true},
		{QuestionType: types.QuestionTypeFlashcard, IsCorrect: true},
		{QuestionType: types.QuestionTypeFlashcard, IsCorrect: false},
		{QuestionType: types.QuestionTypeQuiz, IsCorrect: false},
	}

	b := attemptBreakdown(attempts)
	if b.Flashcards.Total != 3 || b.Flashcards.Correct != 2 || b.Flashcards.Accuracy != 66.67 {
		t.Fatalf("unexpected flashcard breakdown: %#v", b.Flashcards)
	}
	if b.Quiz.Total != 1 || b.Quiz.Accuracy != 0 {
		t.Fatalf("unexpected quiz breakdown: %#v", b.Quiz)
	}
}

func TestMasteryPartition(t *testing.T) {
	attempts := []*types.UserAttempt{
		{QuestionID: "mastered", IsCorrect: true},
		{QuestionID: "mastered", IsCorrect: true},
		{QuestionID: "learning", IsCorrect: true},
		{QuestionID: "learning", IsCorrect: false},
		{QuestionID: "weak", IsCorrect: false},
		{QuestionID: "weak", IsCorrect: false},
		{QuestionID: "weak", IsCorrect: true},
	}

	m := masteryPartition(attempts)
	if len(m.Mastered) != 1 || m.Mastered[0].QuestionID != "mastered" {
		t.Fatalf("unexpected mastered: %#v", m.Mastered)
	}
	if len(m.Learning) != 1 || m.Learning[0].QuestionID != "learning" {
		t.Fatalf("unexpected learning: %#v", m.Learning)
	}
	if len(m.NeedsReview) != 1 || m.NeedsReview[0].QuestionID != "weak" {
		t.Fatalf("unexpected needs_review: %#v", m.NeedsReview)
	}
	if m.NeedsReview[0].Accuracy != 0.33 || m.NeedsReview[0].Attempts != 3 {
		t.Fatalf("unexpected accuracy rounding: %#v", m.NeedsReview[0])
	}
}

func TestMasteryPartition_BucketsOnRawAccuracy(t *testing.T) {
	// 39/49 ≈ 0.7959 rounds to 0.80 for display but is below the
	// mastered threshold, so the question stays in learning.
	var attempts []*types.UserAttempt
	for i := 0; i < 49; i++ {
		attempts = append(attempts, &types.UserAttempt{QuestionID: "q1", IsCorrect: i < 39})
	}

	m := masteryPartition(attempts)
	if len(m.Mastered) != 0 {
		t.Fatalf("0.7959 must not round into mastered: %#v", m.Mastered)
	}
	if len(m.Learning) != 1 || m.Learning[0].QuestionID != "q1" {
		t.Fatalf("expected q1 in learning: %#v", m.Learning)
	}
	if m.Learning[0].Accuracy != 0.8 {
		t.Fatalf("display accuracy should still round: %#v", m.Learning[0])
	}
}

func TestWordFrequency(t *testing.T) {
	text := "Neural networks process data. Neural networks learn from data, and the networks improve."
	freq := wordFrequency(text, 3)
	if len(freq) != 3 {
		t.Fatalf("expected top 3, got %#v", freq)
	}
	if freq[0].word != "networks" || freq[0].count != 3 {
		t.Fatalf("unexpected top word: %#v", freq[0])
	}
	for _, kv := range freq {
		if len(kv.word) <= 3 || reportStopWords[kv.word] {
			t.Fatalf("stop word or short word leaked: %#v", kv)
		}
	}
}

func TestFallbackTakeaways(t *testing.T) {
	transcript := "Neural networks process training data in layers. " +
		"The weather was nice outside today somewhere. " +
		"Training data shapes how networks generalize to new inputs."
	freq := wordFrequency(transcript, wordFrequencyTopN)

	takeaways := fallbackTakeaways(transcript, freq)
	if len(takeaways) == 0 {
		t.Fatal("expected at least one takeaway")
	}
	for _, tk := range takeaways {
		if strings.Contains(tk, "weather") {
			t.Fatalf("sentence without enough keyword hits selected: %q", tk)
		}
	}
}

func TestNormalizeImportance(t *testing.T) {
	keywords := []struct {
		Keyword    string  `json:"keyword"`
		Importance float64 `json:"importance"`
	}{
		{Keyword: "low", Importance: 1},
		{Keyword: "mid", Importance: 5.5},
		{Keyword: "high", Importance: 10},
	}
	out := normalizeImportance(keywords)
	if out["low"] != 20 || out["high"] != 100 {
		t.Fatalf("range should map to [20, 100]: %#v", out)
	}
	if out["mid"] != 60 {
		t.Fatalf("midpoint should map to 60: %#v", out)
	}
}

func TestRecommendVideosLLM_QueriesAndURLs(t *testing.T) {
	openai := &fakeOpenAI{fn: func(_, user, schemaName string, _ map[string]any) (map[string]any, error) {
		if schemaName != "video_recommendations" {
			t.Fatalf("unexpected schema: %s", schemaName)
		}
		if !strings.Contains(user, "chain rule") || strings.Contains(user, "matrices") {
			t.Fatalf("prompt should carry only high-severity concepts: %q", user)
		}
		return map[string]any{
			"recommendations": []any{
				map[string]any{
					"concept":        "chain rule",
					"why_helpful":    "Rebuilds the intuition step by step.",
					"search_queries": []any{"chain rule intuition"},
				},
			},
		}, nil
	}}
	g := &reportGenerator{log: newTestLogger(t), openai: openai}

	recs, err := g.recommendVideosLLM(context.Background(), []types.WeakConcept{
		{Concept: "chain rule", Severity: "high"},
		{Concept: "matrices", Severity: "low"},
	})
	if err != nil {
		t.Fatalf("recommendVideosLLM: %v", err)
	}
	if len(recs) != 1 || recs[0].Concept != "chain rule" {
		t.Fatalf("unexpected recommendations: %#v", recs)
	}
	if recs[0].WhyHelpful == "" {
		t.Fatalf("why_helpful dropped: %#v", recs[0])
	}
	if !strings.Contains(recs[0].SearchURLs[0], "chain+rule+intuition") {
		t.Fatalf("search url not encoded locally: %q", recs[0].SearchURLs[0])
	}
}

func TestRecommendVideosLLM_NoHighSeveritySkipsModel(t *testing.T) {
	openai := &fakeOpenAI{}
	g := &reportGenerator{log: newTestLogger(t), openai: openai}

	recs, err := g.recommendVideosLLM(context.Background(), []types.WeakConcept{
		{Concept: "matrices", Severity: "low"},
	})
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected empty recommendations: %v %#v", err, recs)
	}
	if openai.calls != 0 {
		t.Fatalf("model should not be called with nothing to recommend")
	}
}

func TestRecommendVideos_HighSeverityOnly(t *testing.T) {
	g := &reportGenerator{log: newTestLogger(t)}
	recs := g.recommendVideos([]types.WeakConcept{
		{Concept: "chain rule", Severity: "high"},
		{Concept: "matrices", Severity: "low"},
		{Concept: "loss functions", Severity: "high"},
	})
	if len(recs) != 2 {
		t.Fatalf("expected 2 high-severity recommendations, got %#v", recs)
	}
	if recs[0].Concept != "chain rule" {
		t.Fatalf("unexpected first concept: %#v", recs[0])
	}
	if !strings.Contains(recs[0].SearchURLs[0], "chain+rule+tutorial") {
		t.Fatalf("search url not encoded: %q", recs[0].SearchURLs[0])
	}
}

func TestGenerate_DegradesToFallbacksWhenModelFails(t *testing.T) {
	openai := &fakeOpenAI{fn: func(_, _, _ string, _ map[string]any) (map[string]any, error) {
		return nil, errors.New("model down")
	}}
	gen := NewReportGenerator(newTestLogger(t), openai)

	in := ReportInput{
		UserID:         "user1",
		VideoID:        "vid1",
		QuizID:         "quiz1",
		TranscriptText: "Neural networks process training data in layers. Training data shapes how networks generalize.",
		Attempts: []*types.UserAttempt{
			{QuestionID: "q1", QuestionType: types.QuestionTypeFlashcard, IsCorrect: false},
			{QuestionID: "q1", QuestionType: types.QuestionTypeFlashcard, IsCorrect: true},
		},
		Questions: []*types.Question{},
	}

	report, err := gen.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate should survive model failure: %v", err)
	}
	if report.UserID != "user1" || report.VideoID != "vid1" || report.QuizID != "quiz1" {
		t.Fatalf("identity fields wrong: %#v", report)
	}
	if report.VideoType != "unknown" || report.Domain != "general" {
		t.Fatalf("expected fallback classification: %q %q", report.VideoType, report.Domain)
	}

	var wf map[string]float64
	if err := json.Unmarshal(report.WordFrequency, &wf); err != nil || len(wf) == 0 {
		t.Fatalf("word frequency fallback missing: %v %#v", err, wf)
	}
	var growth types.GrowthAnalysis
	if err := json.Unmarshal(report.WeakAreas, &growth); err != nil {
		t.Fatalf("weak areas not valid json: %v", err)
	}
	if growth.WeakConcepts == nil || growth.KnowledgeGaps == nil {
		t.Fatalf("growth fallback should have empty slices, not nulls: %#v", growth)
	}
	var perf types.PerformanceStats
	if err := json.Unmarshal(report.PerformanceStats, &perf); err != nil || perf.TotalAttempts != 2 {
		t.Fatalf("performance stats wrong: %v %#v", err, perf)
	}
	var takeaways []string
	if err := json.Unmarshal(report.KeyTakeaways, &takeaways); err != nil {
		t.Fatalf("takeaways not valid json: %v", err)
	}
}
