package app

import (
	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/utils"
)

type Config struct {
	MaxVideoDuration    float64
	FlashcardInterval   float64
	QuestionsPerSegment int
	FinalQuizQuestions  int
	BatchThreshold      float64
	BatchSize           float64
}

func LoadConfig(log *logger.Logger) Config {
	maxVideoDuration := utils.GetEnvAsInt("MAX_VIDEO_DURATION", 3600, log)
	flashcardInterval := utils.GetEnvAsInt("FLASHCARD_INTERVAL", 120, log)
	questionsPerSegment := utils.GetEnvAsInt("QUESTIONS_PER_SEGMENT", 1, log)
	finalQuizQuestions := utils.GetEnvAsInt("FINAL_QUIZ_QUESTIONS", 10, log)
	batchThreshold := utils.GetEnvAsInt("BATCH_THRESHOLD", 600, log)
	batchSize := utils.GetEnvAsInt("BATCH_SIZE", 600, log)
	return Config{
		MaxVideoDuration:    float64(maxVideoDuration),
		FlashcardInterval:   float64(flashcardInterval),
		QuestionsPerSegment: questionsPerSegment,
		FinalQuizQuestions:  finalQuizQuestions,
		BatchThreshold:      float64(batchThreshold),
		BatchSize:           float64(batchSize),
	}
}
