package app

import (
	"fmt"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/services"
)

type Clients struct {
	OpenAI   services.OpenAIClient
	Speech   services.SpeechProvider
	Media    services.MediaToolsService
	Captions services.CaptionProvider
	Notifier *services.ProgressNotifier
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	openai, err := services.NewOpenAIClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Speech-to-text is the caption fallback; without credentials the
	// service still runs on caption tracks alone.
	speech, err := services.NewSpeechProvider(log)
	if err != nil {
		log.Warn("speech provider unavailable, caption-only transcription", "error", err)
		speech = nil
	}

	return Clients{
		OpenAI:   openai,
		Speech:   speech,
		Media:    services.NewMediaToolsService(log),
		Captions: services.NewCaptionProvider(log),
		Notifier: services.NewProgressNotifier(log),
	}, nil
}
