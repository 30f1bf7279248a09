package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/recapio/recapio-backend/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

// Schema created by hand because the model tags carry postgres defaults
// (uuid_generate_v4, now) that sqlite cannot parse.
var testSchema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL DEFAULT 'user',
		transcription_credits INTEGER NOT NULL DEFAULT 0,
		notes_credits INTEGER NOT NULL DEFAULT 0,
		company TEXT,
		country TEXT,
		currency TEXT NOT NULL DEFAULT 'USD',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE credit_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		video_id TEXT,
		project_id TEXT,
		credit_type TEXT NOT NULL,
		amount INTEGER NOT NULL,
		operation TEXT NOT NULL,
		balance_before INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		description TEXT,
		metadata TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE videos (
		video_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		duration REAL NOT NULL,
		url TEXT NOT NULL,
		transcript TEXT,
		processing_status TEXT NOT NULL DEFAULT 'processing',
		error_message TEXT,
		batch_current INTEGER NOT NULL DEFAULT 0,
		batch_total INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE questions (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		question_text TEXT NOT NULL,
		options TEXT NOT NULL,
		correct_answer INTEGER NOT NULL,
		explanation TEXT,
		difficulty TEXT NOT NULL DEFAULT 'medium',
		video_segment TEXT,
		show_at_timestamp REAL,
		created_at DATETIME
	)`,
	`CREATE TABLE quizzes (
		quiz_id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		questions TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE user_attempts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		question_type TEXT NOT NULL,
		selected_answer INTEGER NOT NULL,
		correct_answer INTEGER NOT NULL,
		is_correct INTEGER NOT NULL,
		attempt_number INTEGER NOT NULL DEFAULT 1,
		timestamp REAL,
		quiz_id TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE learning_reports (
		report_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		quiz_id TEXT NOT NULL,
		word_frequency TEXT,
		performance_stats TEXT,
		attempt_breakdown TEXT,
		weak_areas TEXT,
		mastery_analysis TEXT,
		learning_path TEXT,
		video_recommendations TEXT,
		key_takeaways TEXT,
		video_type TEXT,
		domain TEXT,
		main_topics TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE video_notes (
		notes_id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		sections TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE user_progress (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		progress_data TEXT,
		last_timestamp REAL NOT NULL DEFAULT 0,
		updated_at DATETIME,
		UNIQUE (user_id, video_id)
	)`,
	`CREATE TABLE projects (
		project_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE project_videos (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		added_at DATETIME,
		UNIQUE (project_id, video_id)
	)`,
	`CREATE TABLE job_runs (
		id TEXT PRIMARY KEY,
		job_type TEXT NOT NULL,
		video_id TEXT NOT NULL,
		payload TEXT,
		status TEXT NOT NULL DEFAULT 'queued',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		run_after DATETIME NOT NULL,
		started_at DATETIME,
		finished_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// ---- fakes ----

type fakeOpenAI struct {
	calls   int
	prompts []string
	fn      func(system, user, schemaName string, schema map[string]any) (map[string]any, error)
}

func (f *fakeOpenAI) GenerateJSON(_ context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.calls++
	f.prompts = append(f.prompts, user)
	return f.fn(system, user, schemaName, schema)
}

type fakeCaptions struct {
	languages []string
	langErr   error
	entries   []CaptionEntry
	fetchErr  error
}

func (f *fakeCaptions) ListTrackLanguages(context.Context, string) ([]string, error) {
	if f.langErr != nil {
		return nil, f.langErr
	}
	return f.languages, nil
}

func (f *fakeCaptions) FetchEnglish(context.Context, string) ([]CaptionEntry, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.entries, nil
}

type fakeSpeech struct {
	result *SpeechResult
	err    error
}

func (f *fakeSpeech) TranscribeAudioBytes(context.Context, []byte, string) (*SpeechResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSpeech) Close() error { return nil }

type fakeMedia struct {
	meta     *MediaMetadata
	metaErr  error
	lastOpts AudioDownloadOptions
}

func (f *fakeMedia) AssertReady(context.Context) error { return nil }

func (f *fakeMedia) ProbeMetadata(context.Context, string) (*MediaMetadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeMedia) DownloadAudio(_ context.Context, _ string, opts AudioDownloadOptions) (string, func(), error) {
	f.lastOpts = opts
	dir, err := os.MkdirTemp("", "audio")
	if err != nil {
		return "", func() {}, err
	}
	path := filepath.Join(dir, "audio.flac")
	if err := os.WriteFile(path, []byte("fake-flac"), 0o644); err != nil {
		return "", func() {}, err
	}
	return path, func() { _ = os.RemoveAll(dir) }, nil
}
