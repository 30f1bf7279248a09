package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/recapio/recapio-backend/internal/apierr"
	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

// notesTranscriptLimit caps how much transcript goes into the prompt.
const notesTranscriptLimit = 10000

type NotesGenerator interface {
	Generate(ctx context.Context, videoID, videoTitle string, transcript *types.VideoTranscript) (*types.VideoNotes, error)
}

type notesGenerator struct {
	log    *logger.Logger
	openai OpenAIClient
}

func NewNotesGenerator(log *logger.Logger, openai OpenAIClient) NotesGenerator {
	return &notesGenerator{
		log:    log.With("service", "NotesGenerator"),
		openai: openai,
	}
}

var notesSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{"type": "string"},
		"sections": map[string]any{
			"type":     "array",
			"minItems": 3,
			"maxItems": 5,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"heading":      map[string]any{"type": "string"},
					"content":      map[string]any{"type": "string"},
					"key_concepts": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"diagrams": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"type": map[string]any{
									"type": "string",
									"enum": []string{"flow", "pie", "state", "sequence", "class", "gantt", "mindmap", "git"},
								},
								"code":    map[string]any{"type": "string"},
								"title":   map[string]any{"type": "string"},
								"purpose": map[string]any{"type": "string"},
							},
							"required":             []string{"type", "code", "title", "purpose"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"heading", "content", "key_concepts", "diagrams"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"title", "sections"},
	"additionalProperties": false,
}

const notesSystemPrompt = "You are an expert at producing structured study notes from video transcripts. " +
	"You write concise markdown and choose diagrams that genuinely clarify the material."

func (g *notesGenerator) Generate(ctx context.Context, videoID, videoTitle string, transcript *types.VideoTranscript) (*types.VideoNotes, error) {
	if transcript == nil || strings.TrimSpace(transcript.FullText) == "" {
		return nil, apierr.NotFound(fmt.Sprintf("transcript for video %s", videoID))
	}

	text := truncate(transcript.FullText, notesTranscriptLimit)

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Create comprehensive study notes for the video %q from this transcript:\n\n%s\n\n", videoTitle, text)
	prompt.WriteString("Produce 3-5 sections. Across the whole document include 2-4 diagrams using at least 2 distinct diagram types. ")
	prompt.WriteString("Diagram code must be valid mermaid for the declared type. Each section lists its key concepts.")

	raw, err := g.openai.GenerateJSON(ctx, notesSystemPrompt, prompt.String(), "video_notes", notesSchema)
	if err != nil {
		return nil, apierr.LLMSynthesisFailed(fmt.Errorf("notes generation for %s: %w", videoID, err))
	}

	var decoded struct {
		Title    string               `json:"title"`
		Sections []types.NotesSection `json:"sections"`
	}
	if err := decodeInto(raw, &decoded); err != nil {
		return nil, apierr.LLMSynthesisFailed(fmt.Errorf("decode notes for %s: %w", videoID, err))
	}
	if len(decoded.Sections) == 0 {
		return nil, apierr.LLMSynthesisFailed(fmt.Errorf("notes for %s came back with no sections", videoID))
	}
	if decoded.Title == "" {
		decoded.Title = videoTitle
	}

	sectionsJSON, err := json.Marshal(decoded.Sections)
	if err != nil {
		return nil, err
	}

	return &types.VideoNotes{
		NotesID:  uuid.New(),
		VideoID:  videoID,
		Title:    decoded.Title,
		Sections: datatypes.JSON(sectionsJSON),
	}, nil
}
