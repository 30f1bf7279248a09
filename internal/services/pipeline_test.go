package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/apierr"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/types"
)

type recordingTranscriber struct {
	windows []*TimeWindow
	err     error
}

func (r *recordingTranscriber) Transcribe(_ context.Context, _, _ string, duration float64, window *TimeWindow) (*types.VideoTranscript, error) {
	if r.err != nil {
		return nil, r.err
	}
	var cp *TimeWindow
	if window != nil {
		w := *window
		cp = &w
	}
	r.windows = append(r.windows, cp)
	base, limit := windowBounds(duration, window)
	seg := types.VideoSegment{StartTime: base, EndTime: limit, Text: "segment text"}
	return buildTranscript([]types.VideoSegment{seg}, limit-base), nil
}

type fakeFlashcards struct{}

func (fakeFlashcards) GenerateForSegments(_ context.Context, videoID string, segments []types.VideoSegment) ([]*types.Question, error) {
	out := make([]*types.Question, 0, len(segments))
	for _, s := range segments {
		out = append(out, &types.Question{
			ID:              uuid.New(),
			VideoID:         videoID,
			QuestionText:    "what happened",
			Options:         datatypes.JSON([]byte(`["a","b","c","d"]`)),
			CorrectAnswer:   0,
			Difficulty:      types.DifficultyEasy,
			ShowAtTimestamp: s.EndTime,
		})
	}
	return out, nil
}

type pipelineFixture struct {
	db          *gorm.DB
	pipeline    VideoPipeline
	ledger      CreditLedger
	transcriber *recordingTranscriber

	videos    repos.VideoRepo
	questions repos.QuestionRepo
	projects  repos.ProjectRepo
	jobs      repos.JobRunRepo
	history   repos.CreditHistoryRepo
}

func newPipelineFixture(t *testing.T, meta *MediaMetadata) *pipelineFixture {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)

	users := repos.NewUserRepo(db, log)
	history := repos.NewCreditHistoryRepo(db, log)
	videos := repos.NewVideoRepo(db, log)
	questions := repos.NewQuestionRepo(db, log)
	quizzes := repos.NewQuizRepo(db, log)
	attempts := repos.NewAttemptRepo(db, log)
	reports := repos.NewReportRepo(db, log)
	notes := repos.NewNotesRepo(db, log)
	progress := repos.NewProgressRepo(db, log)
	projects := repos.NewProjectRepo(db, log)
	jobs := repos.NewJobRunRepo(db, log)

	ledger := NewCreditLedger(db, log, users, history)
	captions := &fakeCaptions{languages: []string{"en"}}
	intake := NewVideoIntakeService(log, &fakeMedia{meta: meta}, captions, 3600)
	transcriber := &recordingTranscriber{}

	pipeline := NewVideoPipeline(PipelineDeps{
		DB:          db,
		Log:         log,
		Config:      PipelineConfig{MaxVideoDuration: 3600, BatchThreshold: 600, BatchSize: 600, SegmentInterval: 120},
		Intake:      intake,
		Transcriber: transcriber,
		Flashcards:  fakeFlashcards{},
		Ledger:      ledger,
		Notifier:    nil,
		Videos:      videos,
		Questions:   questions,
		Quizzes:     quizzes,
		Attempts:    attempts,
		Reports:     reports,
		Notes:       notes,
		Progress:    progress,
		Projects:    projects,
		Jobs:        jobs,
	})

	return &pipelineFixture{
		db:          db,
		pipeline:    pipeline,
		ledger:      ledger,
		transcriber: transcriber,
		videos:      videos,
		questions:   questions,
		projects:    projects,
		jobs:        jobs,
		history:     history,
	}
}

func TestTranscriptionCost(t *testing.T) {
	for dur, want := range map[float64]int{0: 0, 1: 1, 59: 1, 60: 1, 61: 2, 600: 10, 3600: 60} {
		if got := TranscriptionCost(dur); got != want {
			t.Fatalf("TranscriptionCost(%v) = %d, want %d", dur, got, want)
		}
	}
}

func TestProcessVideoAsync_AdmitsAndEnqueues(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Title: "Lecture", Duration: 300})
	ctx := context.Background()
	seedUser(t, f.db, &types.User{ID: "user1", TranscriptionCredits: 5})

	resp, err := f.pipeline.ProcessVideoAsync(ctx, ProcessRequest{
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		UserID:   "user1",
	})
	if err != nil {
		t.Fatalf("ProcessVideoAsync: %v", err)
	}
	if resp.VideoID != "dQw4w9WgXcQ" || resp.ProcessingStatus != types.StatusProcessing {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if resp.Message != "Video processing started" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}

	video, err := f.videos.GetByID(ctx, nil, "dQw4w9WgXcQ")
	if err != nil || video == nil {
		t.Fatalf("video row missing: %v", err)
	}
	if video.Title != "Lecture" || video.Duration != 300 {
		t.Fatalf("unexpected video row: %#v", video)
	}

	job, err := f.jobs.GetLatestByVideo(ctx, nil, "dQw4w9WgXcQ", types.JobTypeVideoProcess)
	if err != nil || job == nil {
		t.Fatalf("job row missing: %v", err)
	}
	var payload JobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.UserID != "user1" || payload.URL == "" {
		t.Fatalf("unexpected payload: %#v", payload)
	}

	// Admission only gates; the charge waits for success.
	user, _ := f.ledger.GetUser(ctx, "user1")
	if user.TranscriptionCredits != 5 {
		t.Fatalf("credits must not be charged at admission: %#v", user)
	}
}

func TestProcessVideoAsync_InsufficientCreditsWritesNothing(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Title: "Lecture", Duration: 300})
	ctx := context.Background()
	seedUser(t, f.db, &types.User{ID: "user1", TranscriptionCredits: 4})

	_, err := f.pipeline.ProcessVideoAsync(ctx, ProcessRequest{
		VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		UserID:   "user1",
	})
	var ce *apierr.CreditsError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CreditsError, got %v", err)
	}
	if ce.Required != 5 || ce.Available != 4 {
		t.Fatalf("unexpected required/available: %#v", ce)
	}

	video, _ := f.videos.GetByID(ctx, nil, "dQw4w9WgXcQ")
	if video != nil {
		t.Fatalf("rejected submission must not persist a video: %#v", video)
	}
	job, _ := f.jobs.GetLatestByVideo(ctx, nil, "dQw4w9WgXcQ", types.JobTypeVideoProcess)
	if job != nil {
		t.Fatalf("rejected submission must not enqueue: %#v", job)
	}
}

func TestProcessVideoAsync_ResubmitIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Title: "Lecture", Duration: 300})
	ctx := context.Background()

	if _, err := f.videos.Create(ctx, nil, &types.Video{
		VideoID:          "dQw4w9WgXcQ",
		Title:            "Existing",
		Duration:         300,
		URL:              "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		ProcessingStatus: types.StatusCompleted,
	}); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	project, err := f.projects.Create(ctx, nil, &types.Project{UserID: "user1", Name: "course"})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}

	resp, err := f.pipeline.ProcessVideoAsync(ctx, ProcessRequest{
		VideoURL:  "https://youtu.be/dQw4w9WgXcQ",
		ProjectID: project.ProjectID.String(),
		UserID:    "user1",
	})
	if err != nil {
		t.Fatalf("ProcessVideoAsync: %v", err)
	}
	if resp.Message != "Video already processed" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
	if resp.Title != "Existing" {
		t.Fatalf("resubmit should report the stored video: %#v", resp)
	}

	linked, err := f.projects.LinkExists(ctx, nil, project.ProjectID.String(), "dQw4w9WgXcQ")
	if err != nil || !linked {
		t.Fatalf("resubmit should link the project: linked=%v err=%v", linked, err)
	}
	job, _ := f.jobs.GetLatestByVideo(ctx, nil, "dQw4w9WgXcQ", types.JobTypeVideoProcess)
	if job != nil {
		t.Fatalf("resubmit must not enqueue a new job: %#v", job)
	}
}

func TestProcessVideoJob_StandardPathCompletesAndChargesOnce(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Duration: 300})
	ctx := context.Background()
	seedUser(t, f.db, &types.User{ID: "user1", TranscriptionCredits: 10})

	if _, err := f.videos.Create(ctx, nil, &types.Video{
		VideoID: "vid1", Title: "Lecture", Duration: 300, URL: "http://x",
		ProcessingStatus: types.StatusProcessing,
	}); err != nil {
		t.Fatalf("seed video: %v", err)
	}

	payload := JobPayload{URL: "http://x", UserID: "user1"}
	if err := f.pipeline.ProcessVideoJob(ctx, "vid1", payload); err != nil {
		t.Fatalf("ProcessVideoJob: %v", err)
	}

	video, _ := f.videos.GetByID(ctx, nil, "vid1")
	if video.ProcessingStatus != types.StatusCompleted {
		t.Fatalf("unexpected status: %#v", video)
	}
	var transcript types.VideoTranscript
	if err := json.Unmarshal(video.Transcript, &transcript); err != nil || len(transcript.Segments) == 0 {
		t.Fatalf("transcript not persisted: %v %#v", err, transcript)
	}
	questions, _ := f.questions.GetByVideoID(ctx, nil, "vid1")
	if len(questions) == 0 {
		t.Fatal("flashcards not persisted")
	}

	user, _ := f.ledger.GetUser(ctx, "user1")
	if user.TranscriptionCredits != 5 {
		t.Fatalf("expected 5 credits charged for 300s, got balance %d", user.TranscriptionCredits)
	}

	// Re-running a completed job is a no-op.
	if err := f.pipeline.ProcessVideoJob(ctx, "vid1", payload); err != nil {
		t.Fatalf("rerun: %v", err)
	}
	user, _ = f.ledger.GetUser(ctx, "user1")
	if user.TranscriptionCredits != 5 {
		t.Fatalf("rerun must not charge again: %d", user.TranscriptionCredits)
	}
}

func TestProcessVideoJob_RetryAfterSuccessNeverDoubleCharges(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Duration: 300})
	ctx := context.Background()
	seedUser(t, f.db, &types.User{ID: "user1", TranscriptionCredits: 10})

	if _, err := f.videos.Create(ctx, nil, &types.Video{
		VideoID: "vid1", Title: "Lecture", Duration: 300, URL: "http://x",
		ProcessingStatus: types.StatusProcessing,
	}); err != nil {
		t.Fatalf("seed video: %v", err)
	}

	payload := JobPayload{URL: "http://x", UserID: "user1"}
	if err := f.pipeline.ProcessVideoJob(ctx, "vid1", payload); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Simulate a retry that reprocesses from a non-terminal state.
	if err := f.videos.UpdateFields(ctx, nil, "vid1", map[string]any{"processing_status": types.StatusProcessing}); err != nil {
		t.Fatalf("reset status: %v", err)
	}
	if err := f.pipeline.ProcessVideoJob(ctx, "vid1", payload); err != nil {
		t.Fatalf("second run: %v", err)
	}

	user, _ := f.ledger.GetUser(ctx, "user1")
	if user.TranscriptionCredits != 5 {
		t.Fatalf("history row must make the charge idempotent, balance %d", user.TranscriptionCredits)
	}
	entries, _ := f.history.GetByUser(ctx, nil, "user1", 0)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one deduction row, got %d", len(entries))
	}
}

func TestProcessVideoJob_RetryChargesCompletedButUnchargedVideo(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Duration: 300})
	ctx := context.Background()

	if _, err := f.videos.Create(ctx, nil, &types.Video{
		VideoID: "vid1", Title: "Lecture", Duration: 300, URL: "http://x",
		ProcessingStatus: types.StatusProcessing,
	}); err != nil {
		t.Fatalf("seed video: %v", err)
	}

	// The user row is missing, so processing succeeds but the
	// post-success deduction fails and the job reports an error.
	payload := JobPayload{URL: "http://x", UserID: "user1"}
	if err := f.pipeline.ProcessVideoJob(ctx, "vid1", payload); err == nil {
		t.Fatal("expected deduction failure on first run")
	}
	video, _ := f.videos.GetByID(ctx, nil, "vid1")
	if video.ProcessingStatus != types.StatusCompleted {
		t.Fatalf("processing itself succeeded, status %q", video.ProcessingStatus)
	}

	// The retry must not short-circuit on the completed status: the
	// charge is still owed.
	seedUser(t, f.db, &types.User{ID: "user1", TranscriptionCredits: 10})
	if err := f.pipeline.ProcessVideoJob(ctx, "vid1", payload); err != nil {
		t.Fatalf("retry: %v", err)
	}

	user, _ := f.ledger.GetUser(ctx, "user1")
	if user.TranscriptionCredits != 5 {
		t.Fatalf("retry must charge the completed video, balance %d", user.TranscriptionCredits)
	}
	entries, _ := f.history.GetByUser(ctx, nil, "user1", 0)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one deduction row, got %d", len(entries))
	}
}

func TestProcessVideoJob_BatchedWindows(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Duration: 1500})
	ctx := context.Background()

	if _, err := f.videos.Create(ctx, nil, &types.Video{
		VideoID: "vid1", Title: "Long lecture", Duration: 1500, URL: "http://x",
		ProcessingStatus: types.StatusProcessing,
	}); err != nil {
		t.Fatalf("seed video: %v", err)
	}

	if err := f.pipeline.ProcessVideoJob(ctx, "vid1", JobPayload{URL: "http://x"}); err != nil {
		t.Fatalf("ProcessVideoJob: %v", err)
	}

	want := []TimeWindow{{0, 600}, {600, 1200}, {1200, 1500}}
	if len(f.transcriber.windows) != len(want) {
		t.Fatalf("expected %d windows, got %#v", len(want), f.transcriber.windows)
	}
	for i, w := range f.transcriber.windows {
		if w == nil || w.Start != want[i].Start || w.End != want[i].End {
			t.Fatalf("window %d: got %#v, want %#v", i, w, want[i])
		}
	}

	video, _ := f.videos.GetByID(ctx, nil, "vid1")
	if video.ProcessingStatus != types.StatusCompleted || video.BatchCurrent != 0 || video.BatchTotal != 0 {
		t.Fatalf("batch counters must reset on completion: %#v", video)
	}
	questions, _ := f.questions.GetByVideoID(ctx, nil, "vid1")
	if len(questions) != 3 {
		t.Fatalf("expected one question per batch segment, got %d", len(questions))
	}
}

func TestProcessVideoJob_FailureMarksVideoAndSkipsCharge(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Duration: 300})
	ctx := context.Background()
	seedUser(t, f.db, &types.User{ID: "user1", TranscriptionCredits: 10})
	f.transcriber.err = errors.New("upstream unavailable")

	if _, err := f.videos.Create(ctx, nil, &types.Video{
		VideoID: "vid1", Title: "Lecture", Duration: 300, URL: "http://x",
		ProcessingStatus: types.StatusProcessing,
	}); err != nil {
		t.Fatalf("seed video: %v", err)
	}

	err := f.pipeline.ProcessVideoJob(ctx, "vid1", JobPayload{URL: "http://x", UserID: "user1"})
	if err == nil {
		t.Fatal("expected processing error")
	}

	video, _ := f.videos.GetByID(ctx, nil, "vid1")
	if video.ProcessingStatus != types.StatusFailed || video.ErrorMessage == "" {
		t.Fatalf("failure not recorded: %#v", video)
	}
	user, _ := f.ledger.GetUser(ctx, "user1")
	if user.TranscriptionCredits != 10 {
		t.Fatalf("failed processing must not charge: %d", user.TranscriptionCredits)
	}
}

func TestStatus(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Duration: 300})
	ctx := context.Background()

	if _, err := f.pipeline.Status(ctx, "ghost"); apierr.StatusOf(err) != 404 {
		t.Fatalf("expected 404 for unknown video, got %v", err)
	}

	if _, err := f.videos.Create(ctx, nil, &types.Video{
		VideoID: "vid1", Title: "Lecture", Duration: 1500, URL: "http://x",
		ProcessingStatus: types.StatusTranscribingBatch, BatchCurrent: 2, BatchTotal: 3,
	}); err != nil {
		t.Fatalf("seed video: %v", err)
	}

	status, err := f.pipeline.Status(ctx, "vid1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.ProcessingStatus != types.StatusTranscribingBatch || status.BatchCurrent != 2 || status.BatchTotal != 3 {
		t.Fatalf("unexpected status: %#v", status)
	}
	if status.HasTranscript {
		t.Fatal("no transcript yet")
	}
}

func TestDelete_UnlinkThenCascade(t *testing.T) {
	f := newPipelineFixture(t, &MediaMetadata{Duration: 300})
	ctx := context.Background()

	if _, err := f.videos.Create(ctx, nil, &types.Video{
		VideoID: "vid1", Title: "Lecture", Duration: 300, URL: "http://x",
		ProcessingStatus: types.StatusCompleted,
	}); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	if _, err := f.questions.Create(ctx, nil, []*types.Question{{
		ID: uuid.New(), VideoID: "vid1", QuestionText: "q",
		Options: datatypes.JSON([]byte(`["a","b","c","d"]`)),
	}}); err != nil {
		t.Fatalf("seed question: %v", err)
	}

	projA, _ := f.projects.Create(ctx, nil, &types.Project{UserID: "user1", Name: "a"})
	projB, _ := f.projects.Create(ctx, nil, &types.Project{UserID: "user1", Name: "b"})
	for _, p := range []string{projA.ProjectID.String(), projB.ProjectID.String()} {
		if err := f.projects.LinkVideo(ctx, nil, p, "vid1"); err != nil {
			t.Fatalf("link: %v", err)
		}
	}

	// First delete only drops the link; another project still holds it.
	deleted, err := f.pipeline.Delete(ctx, "vid1", projA.ProjectID.String())
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Fatal("video should survive while another project links it")
	}
	if video, _ := f.videos.GetByID(ctx, nil, "vid1"); video == nil {
		t.Fatal("video row gone too early")
	}

	// Last link: full cascade.
	deleted, err = f.pipeline.Delete(ctx, "vid1", projB.ProjectID.String())
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected full delete on last unlink")
	}
	if video, _ := f.videos.GetByID(ctx, nil, "vid1"); video != nil {
		t.Fatalf("video row should be gone: %#v", video)
	}
	if questions, _ := f.questions.GetByVideoID(ctx, nil, "vid1"); len(questions) != 0 {
		t.Fatalf("cascade left questions behind: %#v", questions)
	}

	if _, err := f.pipeline.Delete(ctx, "vid1", ""); apierr.StatusOf(err) != 404 {
		t.Fatalf("expected 404 after delete, got %v", err)
	}
}
