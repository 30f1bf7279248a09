package repos

import (
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

// Tables are created by hand because the model tags carry postgres
// defaults (uuid_generate_v4, now) that sqlite cannot parse.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range []string{
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
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
