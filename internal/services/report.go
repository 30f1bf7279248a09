package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

const (
	reportTranscriptExcerpt = 1500
	wordFrequencyTopN       = 30

	masteredThreshold    = 0.80
	needsReviewThreshold = 0.50
)

// ReportInput carries everything the report pipeline reads. The report
// itself is a frozen snapshot; nothing here is mutated.
type ReportInput struct {
	UserID         string
	VideoID        string
	QuizID         string
	TranscriptText string
	Attempts       []*types.UserAttempt
	Questions      []*types.Question
}

type ReportGenerator interface {
	Generate(ctx context.Context, in ReportInput) (*types.LearningReport, error)
}

type reportGenerator struct {
	log    *logger.Logger
	openai OpenAIClient
}

func NewReportGenerator(log *logger.Logger, openai OpenAIClient) ReportGenerator {
	return &reportGenerator{
		log:    log.With("service", "ReportGenerator"),
		openai: openai,
	}
}

func (g *reportGenerator) Generate(ctx context.Context, in ReportInput) (*types.LearningReport, error) {
	perf := analyzePerformance(in.Attempts)
	breakdown := attemptBreakdown(in.Attempts)
	mastery := masteryPartition(in.Attempts)
	incorrectTexts := incorrectQuestionTexts(in.Attempts, in.Questions)

	var (
		semantics *semanticExtraction
		growth    *types.GrowthAnalysis
		path      *types.LearningPath
		takeaways []string
	)

	// Independent LLM passes run concurrently; each degrades to its
	// deterministic fallback on failure instead of failing the report.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s, err := g.extractSemantics(egCtx, in.TranscriptText)
		if err != nil {
			g.log.Warn("semantic extraction failed, using word frequency fallback", "video_id", in.VideoID, "error", err)
			s = fallbackSemantics(in.TranscriptText)
		}
		semantics = s
		return nil
	})
	eg.Go(func() error {
		a, err := g.analyzeGrowthAreas(egCtx, incorrectTexts, in.TranscriptText)
		if err != nil {
			g.log.Warn("growth analysis failed, using empty analysis", "video_id", in.VideoID, "error", err)
			a = &types.GrowthAnalysis{WeakConcepts: []types.WeakConcept{}, KnowledgeGaps: []string{}, Recommendations: []string{}}
		}
		growth = a
		return nil
	})
	eg.Go(func() error {
		p, err := g.buildLearningPath(egCtx, in.TranscriptText, mastery)
		if err != nil {
			g.log.Warn("learning path generation failed, using empty path", "video_id", in.VideoID, "error", err)
			p = &types.LearningPath{Nodes: []types.LearningPathNode{}, Edges: []types.LearningPathEdge{}, NextSteps: []string{}}
		}
		path = p
		return nil
	})
	eg.Go(func() error {
		t, err := g.extractTakeaways(egCtx, in.TranscriptText)
		if err != nil || len(t) == 0 {
			if err != nil {
				g.log.Warn("takeaway extraction failed, using sentence fallback", "video_id", in.VideoID, "error", err)
			}
			t = fallbackTakeaways(in.TranscriptText, wordFrequency(in.TranscriptText, wordFrequencyTopN))
		}
		takeaways = t
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Recommendations consume the growth analysis, so this pass runs
	// after the join. Template queries cover any model failure.
	recs, recErr := g.recommendVideosLLM(ctx, growth.WeakConcepts)
	if recErr != nil {
		g.log.Warn("video recommendation generation failed, using query templates", "video_id", in.VideoID, "error", recErr)
		recs = g.recommendVideos(growth.WeakConcepts)
	}

	report := &types.LearningReport{
		ReportID:  uuid.New(),
		UserID:    in.UserID,
		VideoID:   in.VideoID,
		QuizID:    in.QuizID,
		VideoType: semantics.VideoType,
		Domain:    semantics.Domain,
	}

	var err error
	if report.WordFrequency, err = marshalJSON(semantics.WordFrequency); err != nil {
		return nil, err
	}
	if report.MainTopics, err = marshalJSON(semantics.MainTopics); err != nil {
		return nil, err
	}
	if report.PerformanceStats, err = marshalJSON(perf); err != nil {
		return nil, err
	}
	if report.AttemptBreakdown, err = marshalJSON(breakdown); err != nil {
		return nil, err
	}
	if report.WeakAreas, err = marshalJSON(growth); err != nil {
		return nil, err
	}
	if report.MasteryAnalysis, err = marshalJSON(mastery); err != nil {
		return nil, err
	}
	if report.LearningPath, err = marshalJSON(path); err != nil {
		return nil, err
	}
	if report.VideoRecommendations, err = marshalJSON(recs); err != nil {
		return nil, err
	}
	if report.KeyTakeaways, err = marshalJSON(takeaways); err != nil {
		return nil, err
	}
	return report, nil
}

func marshalJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// ---- performance aggregation ----

func analyzePerformance(attempts []*types.UserAttempt) types.PerformanceStats {
	stats := types.PerformanceStats{ByQuestion: map[string]types.QuestionStats{}}
	if len(attempts) == 0 {
		return stats
	}

	for _, a := range attempts {
		stats.TotalAttempts++
		if a.IsCorrect {
			stats.CorrectCount++
		} else {
			stats.IncorrectCount++
		}
		q := stats.ByQuestion[a.QuestionID]
		q.Attempts++
		if a.IsCorrect {
			q.Correct++
		} else {
			q.Incorrect++
		}
		q.QuestionType = a.QuestionType
		stats.ByQuestion[a.QuestionID] = q
	}
	stats.AccuracyRate = round2(float64(stats.CorrectCount) / float64(stats.TotalAttempts) * 100)
	stats.QuizAverageScore = quizAverageScore(attempts)
	return stats
}

// quizAverageScore is the mean over distinct quiz sessions, where one
// session's score is correct/total for that quiz_id. Sessions with more
// attempts do not outweigh shorter ones.
func quizAverageScore(attempts []*types.UserAttempt) float64 {
	type tally struct{ total, correct int }
	sessions := map[string]*tally{}
	for _, a := range attempts {
		if a.QuestionType != types.QuestionTypeQuiz || a.QuizID == nil || *a.QuizID == "" {
			continue
		}
		t, ok := sessions[*a.QuizID]
		if !ok {
			t = &tally{}
			sessions[*a.QuizID] = t
		}
		t.total++
		if a.IsCorrect {
			t.correct++
		}
	}
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, t := range sessions {
		sum += float64(t.correct) / float64(t.total) * 100
	}
	return round2(sum / float64(len(sessions)))
}

func attemptBreakdown(attempts []*types.UserAttempt) types.AttemptBreakdown {
	tallyOf := func(questionType string) types.TypeBreakdown {
		var b types.TypeBreakdown
		for _, a := range attempts {
			if a.QuestionType != questionType {
				continue
			}
			b.Total++
			if a.IsCorrect {
				b.Correct++
			} else {
				b.Incorrect++
			}
		}
		if b.Total > 0 {
			b.Accuracy = round2(float64(b.Correct) / float64(b.Total) * 100)
		}
		return b
	}
	return types.AttemptBreakdown{
		Flashcards: tallyOf(types.QuestionTypeFlashcard),
		Quiz:       tallyOf(types.QuestionTypeQuiz),
	}
}

func masteryPartition(attempts []*types.UserAttempt) types.MasteryAnalysis {
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

	// Bucketing compares the raw ratio; rounding is display-only, so
	// 0.795 stays in learning rather than rounding up into mastered.
	type scored struct {
		item types.MasteryItem
		raw  float64
	}
	items := make([]scored, 0, len(byQuestion))
	for id, t := range byQuestion {
		raw := float64(t.correct) / float64(t.total)
		items = append(items, scored{
			item: types.MasteryItem{
				QuestionID: id,
				Accuracy:   round2(raw),
				Attempts:   t.total,
			},
			raw: raw,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].raw != items[j].raw {
			return items[i].raw > items[j].raw
		}
		return items[i].item.QuestionID < items[j].item.QuestionID
	})

	out := types.MasteryAnalysis{
		Mastered:    []types.MasteryItem{},
		Learning:    []types.MasteryItem{},
		NeedsReview: []types.MasteryItem{},
	}
	for _, s := range items {
		switch {
		case s.raw >= masteredThreshold:
			if len(out.Mastered) < 10 {
				out.Mastered = append(out.Mastered, s.item)
			}
		case s.raw >= needsReviewThreshold:
			if len(out.Learning) < 10 {
				out.Learning = append(out.Learning, s.item)
			}
		default:
			if len(out.NeedsReview) < 10 {
				out.NeedsReview = append(out.NeedsReview, s.item)
			}
		}
	}
	return out
}

func incorrectQuestionTexts(attempts []*types.UserAttempt, questions []*types.Question) []string {
	textByID := map[string]string{}
	for _, q := range questions {
		textByID[q.ID.String()] = q.QuestionText
	}
	seen := map[string]bool{}
	var out []string
	for _, a := range attempts {
		if a.IsCorrect || seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true
		if text := textByID[a.QuestionID]; text != "" {
			out = append(out, text)
		}
	}
	return out
}

// ---- semantic extraction ----

type semanticExtraction struct {
	VideoType     string             `json:"video_type"`
	Domain        string             `json:"domain"`
	MainTopics    []string           `json:"main_topics"`
	WordFrequency map[string]float64 `json:"word_frequency"`
}

var semanticsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"video_type":  map[string]any{"type": "string"},
		"domain":      map[string]any{"type": "string"},
		"main_topics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"keywords": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"keyword":    map[string]any{"type": "string"},
					"importance": map[string]any{"type": "number"},
				},
				"required":             []string{"keyword", "importance"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"video_type", "domain", "main_topics", "keywords"},
	"additionalProperties": false,
}

const reportSystemPrompt = "You are a learning analytics engine. You analyze educational video transcripts " +
	"and learner performance, and respond only with the requested JSON."

func (g *reportGenerator) extractSemantics(ctx context.Context, transcript string) (*semanticExtraction, error) {
	excerpt := truncate(transcript, notesTranscriptLimit)
	prompt := fmt.Sprintf(
		"Classify this video transcript. Give video_type (e.g. lecture, tutorial, talk), the subject domain, "+
			"3-7 main topics, and 10-30 important keywords each scored by importance.\n\nTranscript:\n%s", excerpt)

	raw, err := g.openai.GenerateJSON(ctx, reportSystemPrompt, prompt, "semantic_extraction", semanticsSchema)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		VideoType  string   `json:"video_type"`
		Domain     string   `json:"domain"`
		MainTopics []string `json:"main_topics"`
		Keywords   []struct {
			Keyword    string  `json:"keyword"`
			Importance float64 `json:"importance"`
		} `json:"keywords"`
	}
	if err := decodeInto(raw, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Keywords) == 0 {
		return nil, fmt.Errorf("semantic extraction returned no keywords")
	}

	return &semanticExtraction{
		VideoType:     decoded.VideoType,
		Domain:        decoded.Domain,
		MainTopics:    decoded.MainTopics,
		WordFrequency: normalizeImportance(decoded.Keywords),
	}, nil
}

// normalizeImportance rescales raw keyword scores into [20, 100] so the
// frontend word cloud renders consistently regardless of model scale.
func normalizeImportance(keywords []struct {
	Keyword    string  `json:"keyword"`
	Importance float64 `json:"importance"`
}) map[string]float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, k := range keywords {
		lo = math.Min(lo, k.Importance)
		hi = math.Max(hi, k.Importance)
	}
	out := make(map[string]float64, len(keywords))
	for _, k := range keywords {
		if hi == lo {
			out[k.Keyword] = 60
			continue
		}
		out[k.Keyword] = round2(20 + (k.Importance-lo)/(hi-lo)*80)
	}
	return out
}

func fallbackSemantics(transcript string) *semanticExtraction {
	freq := wordFrequency(transcript, wordFrequencyTopN)
	wf := make(map[string]float64, len(freq))
	topics := make([]string, 0, 5)
	for i, kv := range freq {
		wf[kv.word] = float64(kv.count)
		if i < 5 {
			topics = append(topics, kv.word)
		}
	}
	return &semanticExtraction{
		VideoType:     "unknown",
		Domain:        "general",
		MainTopics:    topics,
		WordFrequency: wf,
	}
}

// ---- deterministic word frequency ----

var reportStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "were": true, "been": true, "be": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "must": true,
	"can": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true,
	"they": true, "what": true, "which": true, "who": true, "when": true,
	"where": true, "why": true, "how": true, "all": true, "each": true,
	"every": true, "some": true, "any": true, "few": true, "more": true,
	"most": true, "other": true, "into": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true, "between": true,
	"under": true, "again": true, "further": true, "then": true, "once": true,
	"here": true, "there": true, "both": true, "such": true, "no": true,
	"nor": true, "not": true, "only": true, "own": true, "same": true,
	"so": true, "than": true, "too": true, "very": true, "s": true, "t": true,
	"just": true, "now": true,
}

var nonLetterRe = regexp.MustCompile(`[^a-z\s]`)

type wordCount struct {
	word  string
	count int
}

// wordFrequency is the LLM-free keyword extraction: lowercase, strip
// everything but letters, drop stop words and words of 3 characters or
// fewer, count, return the top n by count.
func wordFrequency(text string, n int) []wordCount {
	clean := nonLetterRe.ReplaceAllString(strings.ToLower(text), "")
	counts := map[string]int{}
	for _, w := range strings.Fields(clean) {
		if len(w) <= 3 || reportStopWords[w] {
			continue
		}
		counts[w]++
	}
	out := make([]wordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, wordCount{word: w, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].word < out[j].word
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// fallbackTakeaways picks sentences that mention at least two of the
// top-10 frequent words. Up to five, in transcript order.
func fallbackTakeaways(transcript string, freq []wordCount) []string {
	topWords := make([]string, 0, 10)
	for i, kv := range freq {
		if i >= 10 {
			break
		}
		topWords = append(topWords, kv.word)
	}

	var out []string
	for _, sentence := range sentenceSplitRe.Split(transcript, -1) {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 20 {
			continue
		}
		lower := strings.ToLower(sentence)
		hits := 0
		for _, w := range topWords {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		if hits >= 2 {
			out = append(out, sentence)
			if len(out) == 5 {
				break
			}
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// ---- growth analysis ----

var growthSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"weak_concepts": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"concept":     map[string]any{"type": "string"},
					"severity":    map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
					"description": map[string]any{"type": "string"},
				},
				"required":             []string{"concept", "severity", "description"},
				"additionalProperties": false,
			},
		},
		"knowledge_gaps":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"recommendations": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required":             []string{"weak_concepts", "knowledge_gaps", "recommendations"},
	"additionalProperties": false,
}

func (g *reportGenerator) analyzeGrowthAreas(ctx context.Context, incorrectTexts []string, transcript string) (*types.GrowthAnalysis, error) {
	if len(incorrectTexts) == 0 {
		return &types.GrowthAnalysis{WeakConcepts: []types.WeakConcept{}, KnowledgeGaps: []string{}, Recommendations: []string{}}, nil
	}

	var prompt strings.Builder
	prompt.WriteString("The learner answered these questions incorrectly:\n")
	for _, t := range incorrectTexts {
		fmt.Fprintf(&prompt, "- %s\n", t)
	}
	fmt.Fprintf(&prompt, "\nVideo context:\n%s\n", truncate(transcript, reportTranscriptExcerpt))
	prompt.WriteString("\nIdentify the underlying weak concepts with severity, name concrete knowledge gaps, " +
		"and give prioritized recommendations. Frame everything as growth opportunities, never as failures.")

	raw, err := g.openai.GenerateJSON(ctx, reportSystemPrompt, prompt.String(), "growth_analysis", growthSchema)
	if err != nil {
		return nil, err
	}
	var analysis types.GrowthAnalysis
	if err := decodeInto(raw, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ---- learning path ----

var learningPathSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"nodes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":     map[string]any{"type": "string"},
					"topic":  map[string]any{"type": "string"},
					"status": map[string]any{"type": "string", "enum": []string{"mastered", "learning", "locked"}},
				},
				"required":             []string{"id", "topic", "status"},
				"additionalProperties": false,
			},
		},
		"edges": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from": map[string]any{"type": "string"},
					"to":   map[string]any{"type": "string"},
				},
				"required":             []string{"from", "to"},
				"additionalProperties": false,
			},
		},
		"next_steps": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required":             []string{"nodes", "edges", "next_steps"},
	"additionalProperties": false,
}

func (g *reportGenerator) buildLearningPath(ctx context.Context, transcript string, mastery types.MasteryAnalysis) (*types.LearningPath, error) {
	prompt := fmt.Sprintf(
		"Design a small topic dependency graph for this material: nodes with status, directed edges from "+
			"prerequisite to dependent topic, and an ordered next_steps list. The learner has mastered %d items, "+
			"is learning %d, and needs review on %d.\n\nVideo context:\n%s",
		len(mastery.Mastered), len(mastery.Learning), len(mastery.NeedsReview),
		truncate(transcript, reportTranscriptExcerpt))

	raw, err := g.openai.GenerateJSON(ctx, reportSystemPrompt, prompt, "learning_path", learningPathSchema)
	if err != nil {
		return nil, err
	}
	var path types.LearningPath
	if err := decodeInto(raw, &path); err != nil {
		return nil, err
	}
	return &path, nil
}

// ---- takeaways ----

var takeawaysSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"takeaways": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"minItems": 5,
			"maxItems": 5,
		},
	},
	"required":             []string{"takeaways"},
	"additionalProperties": false,
}

func (g *reportGenerator) extractTakeaways(ctx context.Context, transcript string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Give exactly five supportive, specific key takeaways from this video transcript:\n\n%s",
		truncate(transcript, notesTranscriptLimit))

	raw, err := g.openai.GenerateJSON(ctx, reportSystemPrompt, prompt, "key_takeaways", takeawaysSchema)
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Takeaways []string `json:"takeaways"`
	}
	if err := decodeInto(raw, &decoded); err != nil {
		return nil, err
	}
	return decoded.Takeaways, nil
}

// ---- video recommendations ----

var recommendationsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"recommendations": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"concept":     map[string]any{"type": "string"},
					"why_helpful": map[string]any{"type": "string"},
					"search_queries": map[string]any{
						"type":     "array",
						"items":    map[string]any{"type": "string"},
						"minItems": 1,
						"maxItems": 2,
					},
				},
				"required":             []string{"concept", "why_helpful", "search_queries"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"recommendations"},
	"additionalProperties": false,
}

// recommendVideosLLM asks the model for 1-2 search queries per
// high-severity weak concept plus a why-helpful line. The search URLs
// are always built here, not by the model.
func (g *reportGenerator) recommendVideosLLM(ctx context.Context, weak []types.WeakConcept) ([]types.VideoRecommendation, error) {
	var concepts []string
	for _, c := range weak {
		if c.Severity == "high" {
			concepts = append(concepts, c.Concept)
		}
		if len(concepts) == 5 {
			break
		}
	}
	if len(concepts) == 0 {
		return []types.VideoRecommendation{}, nil
	}

	prompt := fmt.Sprintf(
		"The viewer struggled with these concepts: %s.\n"+
			"For each concept give 1-2 YouTube search queries that would surface a good remedial video, "+
			"and one supportive sentence on why watching it helps.",
		strings.Join(concepts, "; "))

	raw, err := g.openai.GenerateJSON(ctx, reportSystemPrompt, prompt, "video_recommendations", recommendationsSchema)
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Recommendations []struct {
			Concept       string   `json:"concept"`
			WhyHelpful    string   `json:"why_helpful"`
			SearchQueries []string `json:"search_queries"`
		} `json:"recommendations"`
	}
	if err := decodeInto(raw, &decoded); err != nil {
		return nil, err
	}

	out := []types.VideoRecommendation{}
	for _, r := range decoded.Recommendations {
		if r.Concept == "" || len(r.SearchQueries) == 0 {
			continue
		}
		urls := make([]string, 0, len(r.SearchQueries))
		for _, q := range r.SearchQueries {
			urls = append(urls, "https://www.youtube.com/results?search_query="+url.QueryEscape(q))
		}
		out = append(out, types.VideoRecommendation{
			Concept:       r.Concept,
			SearchQueries: r.SearchQueries,
			SearchURLs:    urls,
			WhyHelpful:    r.WhyHelpful,
		})
		if len(out) == 5 {
			break
		}
	}
	return out, nil
}

// recommendVideos is deterministic given the weak concepts: up to five
// high-severity concepts, each with search queries and encoded URLs.
func (g *reportGenerator) recommendVideos(weak []types.WeakConcept) []types.VideoRecommendation {
	out := []types.VideoRecommendation{}
	for _, c := range weak {
		if c.Severity != "high" {
			continue
		}
		queries := []string{
			c.Concept + " tutorial",
			c.Concept + " explained",
		}
		urls := make([]string, 0, len(queries))
		for _, q := range queries {
			urls = append(urls, "https://www.youtube.com/results?search_query="+url.QueryEscape(q))
		}
		out = append(out, types.VideoRecommendation{
			Concept:       c.Concept,
			SearchQueries: queries,
			SearchURLs:    urls,
		})
		if len(out) == 5 {
			break
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
