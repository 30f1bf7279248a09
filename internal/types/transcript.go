package types

// VideoSegment is a contiguous time-aligned slice of a transcript.
// Timestamps are absolute video time in seconds.
type VideoSegment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// VideoTranscript is the complete time-aligned transcript for a video.
type VideoTranscript struct {
	Segments []VideoSegment `json:"segments"`
	FullText string         `json:"full_text"`
	Duration float64        `json:"duration"`
}

// FlashCard binds a question to the playback timestamp at which the UI
// should surface it (the source segment's end time).
type FlashCard struct {
	Question        QuestionData `json:"question"`
	ShowAtTimestamp float64      `json:"show_at_timestamp"`
}

// QuestionData is the wire/storage shape of a multiple-choice question.
// Exactly 4 options; CorrectAnswer indexes into Options.
type QuestionData struct {
	ID              string       `json:"id"`
	QuestionText    string       `json:"question_text"`
	Options         []string     `json:"options"`
	CorrectAnswer   int          `json:"correct_answer"`
	Explanation     string       `json:"explanation"`
	Difficulty      string       `json:"difficulty"`
	VideoSegment    VideoSegment `json:"video_segment"`
	ShowAtTimestamp float64      `json:"show_at_timestamp,omitempty"`
}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)
