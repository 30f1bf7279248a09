package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LearningReport is a frozen snapshot of derived statistics and LLM
// analyses taken at generation time. Never mutated afterwards.
type LearningReport struct {
	ReportID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey;column:report_id" json:"report_id"`
	UserID               string         `gorm:"index:idx_report_user_video;not null;column:user_id" json:"user_id"`
	VideoID              string         `gorm:"index:idx_report_user_video;not null;column:video_id" json:"video_id"`
	QuizID               string         `gorm:"not null;column:quiz_id" json:"quiz_id"`
	WordFrequency        datatypes.JSON `gorm:"column:word_frequency" json:"word_frequency"`
	PerformanceStats     datatypes.JSON `gorm:"column:performance_stats" json:"performance_stats"`
	AttemptBreakdown     datatypes.JSON `gorm:"column:attempt_breakdown" json:"attempt_breakdown"`
	WeakAreas            datatypes.JSON `gorm:"column:weak_areas" json:"weak_areas"`
	MasteryAnalysis      datatypes.JSON `gorm:"column:mastery_analysis" json:"mastery_analysis"`
	LearningPath         datatypes.JSON `gorm:"column:learning_path" json:"learning_path"`
	VideoRecommendations datatypes.JSON `gorm:"column:video_recommendations" json:"video_recommendations"`
	KeyTakeaways         datatypes.JSON `gorm:"column:key_takeaways" json:"key_takeaways"`
	VideoType            string         `gorm:"column:video_type" json:"video_type"`
	Domain               string         `gorm:"column:domain" json:"domain"`
	MainTopics           datatypes.JSON `gorm:"column:main_topics" json:"main_topics"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (LearningReport) TableName() string {
	return "learning_reports"
}

// Value shapes serialized into the JSON columns above.

type PerformanceStats struct {
	TotalAttempts    int                      `json:"total_attempts"`
	CorrectCount     int                      `json:"correct_count"`
	IncorrectCount   int                      `json:"incorrect_count"`
	AccuracyRate     float64                  `json:"accuracy_rate"`
	QuizAverageScore float64                  `json:"quiz_average_score"`
	ByQuestion       map[string]QuestionStats `json:"by_question"`
}

type QuestionStats struct {
	Attempts     int    `json:"attempts"`
	Correct      int    `json:"correct"`
	Incorrect    int    `json:"incorrect"`
	QuestionType string `json:"question_type"`
}

type TypeBreakdown struct {
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Accuracy  float64 `json:"accuracy"`
}

type AttemptBreakdown struct {
	Flashcards TypeBreakdown `json:"flashcards"`
	Quiz       TypeBreakdown `json:"quiz"`
}

type WeakConcept struct {
	Concept     string `json:"concept"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type GrowthAnalysis struct {
	WeakConcepts    []WeakConcept `json:"weak_concepts"`
	KnowledgeGaps   []string      `json:"knowledge_gaps"`
	Recommendations []string      `json:"recommendations"`
}

// MasteryAnalysis partitions questions by per-question accuracy:
// mastered >= 0.80, learning 0.50..0.79, needs_review < 0.50.
type MasteryAnalysis struct {
	Mastered    []MasteryItem `json:"mastered"`
	Learning    []MasteryItem `json:"learning"`
	NeedsReview []MasteryItem `json:"needs_review"`
}

type MasteryItem struct {
	QuestionID string  `json:"question_id"`
	Accuracy   float64 `json:"accuracy"`
	Attempts   int     `json:"attempts"`
}

// LearningPath is a small DAG of topic nodes; cycles are impossible by
// construction because it is stored as id-keyed node and edge lists.
type LearningPath struct {
	Nodes     []LearningPathNode `json:"nodes"`
	Edges     []LearningPathEdge `json:"edges"`
	NextSteps []string           `json:"next_steps"`
}

type LearningPathNode struct {
	ID     string `json:"id"`
	Topic  string `json:"topic"`
	Status string `json:"status"` // mastered | learning | locked
}

type LearningPathEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type VideoRecommendation struct {
	Concept       string   `json:"concept"`
	SearchQueries []string `json:"search_queries"`
	SearchURLs    []string `json:"search_urls"`
	WhyHelpful    string   `json:"why_helpful,omitempty"`
}
