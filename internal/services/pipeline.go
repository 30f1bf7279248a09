package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/apierr"
	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/types"
)

type PipelineConfig struct {
	MaxVideoDuration float64 // seconds; reject longer
	BatchThreshold   float64 // videos longer than this use the batch path
	BatchSize        float64 // window length per batch
	SegmentInterval  float64 // transcript re-chunk length
}

type ProcessRequest struct {
	VideoURL  string `json:"video_url"`
	Title     string `json:"title,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type ProcessResponse struct {
	VideoID          string  `json:"video_id"`
	Title            string  `json:"title"`
	Duration         float64 `json:"duration"`
	URL              string  `json:"url"`
	ProcessingStatus string  `json:"processing_status"`
	Message          string  `json:"message"`
}

type StatusResponse struct {
	ProcessingStatus string `json:"processing_status"`
	ErrorMessage     string `json:"error_message,omitempty"`
	HasTranscript    bool   `json:"has_transcript"`
	FlashcardCount   int    `json:"flashcard_count"`
	BatchCurrent     int    `json:"batch_current"`
	BatchTotal       int    `json:"batch_total"`
}

// JobPayload rides in the job_runs row between submission and the worker.
type JobPayload struct {
	URL    string `json:"url"`
	UserID string `json:"user_id,omitempty"`
}

// VideoPipeline is the public entrypoint of the processing flow:
// validate, admit against credits, persist, enqueue, and let the worker
// drive the batch processor. Credits are deducted only after success.
type VideoPipeline interface {
	ProcessVideoAsync(ctx context.Context, req ProcessRequest) (*ProcessResponse, error)
	ProcessVideoJob(ctx context.Context, videoID string, payload JobPayload) error
	Status(ctx context.Context, videoID string) (*StatusResponse, error)
	Delete(ctx context.Context, videoID string, projectID string) (bool, error)
}

type videoPipeline struct {
	db  *gorm.DB
	log *logger.Logger
	cfg PipelineConfig

	intake      VideoIntakeService
	transcriber Transcriber
	flashcards  FlashcardGenerator
	ledger      CreditLedger
	notifier    *ProgressNotifier

	videos    repos.VideoRepo
	questions repos.QuestionRepo
	quizzes   repos.QuizRepo
	attempts  repos.AttemptRepo
	reports   repos.ReportRepo
	notes     repos.NotesRepo
	progress  repos.ProgressRepo
	projects  repos.ProjectRepo
	jobs      repos.JobRunRepo
}

type PipelineDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Config      PipelineConfig
	Intake      VideoIntakeService
	Transcriber Transcriber
	Flashcards  FlashcardGenerator
	Ledger      CreditLedger
	Notifier    *ProgressNotifier

	Videos    repos.VideoRepo
	Questions repos.QuestionRepo
	Quizzes   repos.QuizRepo
	Attempts  repos.AttemptRepo
	Reports   repos.ReportRepo
	Notes     repos.NotesRepo
	Progress  repos.ProgressRepo
	Projects  repos.ProjectRepo
	Jobs      repos.JobRunRepo
}

func NewVideoPipeline(d PipelineDeps) VideoPipeline {
	cfg := d.Config
	if cfg.MaxVideoDuration <= 0 {
		cfg.MaxVideoDuration = 3600
	}
	if cfg.BatchThreshold <= 0 {
		cfg.BatchThreshold = 600
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 600
	}
	if cfg.SegmentInterval <= 0 {
		cfg.SegmentInterval = 120
	}
	return &videoPipeline{
		db:          d.DB,
		log:         d.Log.With("service", "VideoPipeline"),
		cfg:         cfg,
		intake:      d.Intake,
		transcriber: d.Transcriber,
		flashcards:  d.Flashcards,
		ledger:      d.Ledger,
		notifier:    d.Notifier,
		videos:      d.Videos,
		questions:   d.Questions,
		quizzes:     d.Quizzes,
		attempts:    d.Attempts,
		reports:     d.Reports,
		notes:       d.Notes,
		progress:    d.Progress,
		projects:    d.Projects,
		jobs:        d.Jobs,
	}
}

// TranscriptionCost is the admission price: one credit per started minute.
func TranscriptionCost(durationSec float64) int {
	return int(math.Ceil(durationSec / 60))
}

func (p *videoPipeline) ProcessVideoAsync(ctx context.Context, req ProcessRequest) (*ProcessResponse, error) {
	videoID, err := p.intake.CanonicalID(req.VideoURL)
	if err != nil {
		return nil, err
	}

	// Resubmission of a known video is idempotent: relink if asked, then
	// report the existing state without touching credits.
	existing, err := p.videos.GetByID(ctx, nil, videoID)
	if err != nil {
		return nil, apierr.DependencyFailure(err)
	}
	if existing != nil {
		if req.ProjectID != "" {
			if err := p.projects.LinkVideo(ctx, nil, req.ProjectID, videoID); err != nil {
				return nil, apierr.DependencyFailure(err)
			}
		}
		msg := "Video already processed"
		if !existing.Terminal() {
			msg = "Video is already being processed"
		}
		return &ProcessResponse{
			VideoID:          existing.VideoID,
			Title:            existing.Title,
			Duration:         existing.Duration,
			URL:              existing.URL,
			ProcessingStatus: existing.ProcessingStatus,
			Message:          msg,
		}, nil
	}

	meta, err := p.intake.FetchMetadata(ctx, req.VideoURL)
	if err != nil {
		return nil, err
	}
	if err := p.intake.Validate(ctx, videoID, meta); err != nil {
		return nil, err
	}

	if req.UserID != "" {
		required := TranscriptionCost(meta.Duration)
		ok, available, err := p.ledger.HasCredits(ctx, req.UserID, types.CreditTypeTranscription, required)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apierr.InsufficientCredits(required, available)
		}
	}

	title := req.Title
	if title == "" {
		title = meta.Title
	}

	video := &types.Video{
		VideoID:          videoID,
		Title:            title,
		Duration:         meta.Duration,
		URL:              req.VideoURL,
		ProcessingStatus: types.StatusProcessing,
	}
	if _, err := p.videos.Create(ctx, nil, video); err != nil {
		return nil, apierr.DependencyFailure(err)
	}

	if req.ProjectID != "" {
		if err := p.projects.LinkVideo(ctx, nil, req.ProjectID, videoID); err != nil {
			return nil, apierr.DependencyFailure(err)
		}
	}

	payload, err := json.Marshal(JobPayload{URL: req.VideoURL, UserID: req.UserID})
	if err != nil {
		return nil, err
	}
	if _, err := p.jobs.Create(ctx, nil, &types.JobRun{
		JobType: types.JobTypeVideoProcess,
		VideoID: videoID,
		Payload: datatypes.JSON(payload),
	}); err != nil {
		return nil, apierr.DependencyFailure(err)
	}

	p.log.Info("video admitted for processing", "video_id", videoID, "duration", meta.Duration)
	return &ProcessResponse{
		VideoID:          videoID,
		Title:            title,
		Duration:         meta.Duration,
		URL:              req.VideoURL,
		ProcessingStatus: types.StatusProcessing,
		Message:          "Video processing started",
	}, nil
}

// ProcessVideoJob runs in the worker. Any returned error has already
// been captured on the video record as status failed.
func (p *videoPipeline) ProcessVideoJob(ctx context.Context, videoID string, payload JobPayload) error {
	video, err := p.videos.GetByID(ctx, nil, videoID)
	if err != nil {
		return err
	}
	if video == nil {
		return fmt.Errorf("video %s not found", videoID)
	}
	// An already-completed video skips processing but still falls
	// through to the deduction: a retry after a transient charge
	// failure must not leave the video completed and uncharged.
	if video.ProcessingStatus != types.StatusCompleted {
		if err := p.runProcessing(ctx, video, payload); err != nil {
			p.markFailed(ctx, videoID, err)
			return err
		}
	}

	// Deduction is post-success and once per video; the history row is
	// the idempotency record across job retries.
	if payload.UserID != "" {
		deducted, err := p.ledger.AlreadyDeducted(ctx, payload.UserID, videoID, types.CreditTypeTranscription)
		if err != nil {
			return err
		}
		if !deducted {
			cost := TranscriptionCost(video.Duration)
			if err := p.ledger.Deduct(ctx, payload.UserID, types.CreditTypeTranscription, cost, &videoID,
				fmt.Sprintf("Transcription of %q (%.0fs)", video.Title, video.Duration), nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *videoPipeline) runProcessing(ctx context.Context, video *types.Video, payload JobPayload) error {
	if video.Duration > p.cfg.BatchThreshold {
		return p.runBatched(ctx, video, payload)
	}
	return p.runStandard(ctx, video, payload)
}

func (p *videoPipeline) runStandard(ctx context.Context, video *types.Video, payload JobPayload) error {
	if err := p.setStatus(ctx, video.VideoID, types.StatusTranscribing, 0, 0); err != nil {
		return err
	}

	transcript, err := p.transcriber.Transcribe(ctx, payload.URL, video.VideoID, video.Duration, nil)
	if err != nil {
		return err
	}
	if len(transcript.Segments) == 0 {
		return apierr.TranscriptionFailed(fmt.Errorf("empty transcript for %s", video.VideoID))
	}

	if err := p.setStatus(ctx, video.VideoID, types.StatusGeneratingFlashcards, 0, 0); err != nil {
		return err
	}

	questions, err := p.flashcards.GenerateForSegments(ctx, video.VideoID, transcript.Segments)
	if err != nil {
		return err
	}
	if _, err := p.questions.Create(ctx, nil, questions); err != nil {
		return err
	}

	return p.finalize(ctx, video.VideoID, transcript)
}

// runBatched walks half-open windows of BatchSize seconds. Flashcards
// for a finished batch are queryable before the next batch starts.
func (p *videoPipeline) runBatched(ctx context.Context, video *types.Video, payload JobPayload) error {
	total := int(math.Ceil(video.Duration / p.cfg.BatchSize))

	var allSegments []types.VideoSegment
	for i := 0; i < total; i++ {
		window := &TimeWindow{
			Start: float64(i) * p.cfg.BatchSize,
			End:   math.Min(float64(i+1)*p.cfg.BatchSize, video.Duration),
		}

		if err := p.setStatus(ctx, video.VideoID, types.StatusTranscribingBatch, i+1, total); err != nil {
			return err
		}

		transcript, err := p.transcriber.Transcribe(ctx, payload.URL, video.VideoID, video.Duration, window)
		if err != nil {
			return err
		}

		if err := p.setStatus(ctx, video.VideoID, types.StatusGeneratingFlashcardsBatch, i+1, total); err != nil {
			return err
		}

		questions, err := p.flashcards.GenerateForSegments(ctx, video.VideoID, transcript.Segments)
		if err != nil {
			return err
		}
		if _, err := p.questions.Create(ctx, nil, questions); err != nil {
			return err
		}

		allSegments = append(allSegments, transcript.Segments...)
	}

	if len(allSegments) == 0 {
		return apierr.TranscriptionFailed(fmt.Errorf("empty transcript for %s", video.VideoID))
	}
	return p.finalize(ctx, video.VideoID, buildTranscript(allSegments, video.Duration))
}

func (p *videoPipeline) finalize(ctx context.Context, videoID string, transcript *types.VideoTranscript) error {
	raw, err := json.Marshal(transcript)
	if err != nil {
		return err
	}
	if err := p.videos.UpdateFields(ctx, nil, videoID, map[string]any{
		"transcript":        datatypes.JSON(raw),
		"processing_status": types.StatusCompleted,
		"error_message":     "",
		"batch_current":     0,
		"batch_total":       0,
	}); err != nil {
		return err
	}
	p.notifier.PublishStatus(ctx, videoID, types.StatusCompleted, 0, 0, "")
	p.log.Info("video processing completed", "video_id", videoID, "segments", len(transcript.Segments))
	return nil
}

func (p *videoPipeline) setStatus(ctx context.Context, videoID, status string, batchCurrent, batchTotal int) error {
	if err := p.videos.UpdateFields(ctx, nil, videoID, map[string]any{
		"processing_status": status,
		"batch_current":     batchCurrent,
		"batch_total":       batchTotal,
	}); err != nil {
		return err
	}
	p.notifier.PublishStatus(ctx, videoID, status, batchCurrent, batchTotal, "")
	return nil
}

func (p *videoPipeline) markFailed(ctx context.Context, videoID string, cause error) {
	if err := p.videos.UpdateFields(ctx, nil, videoID, map[string]any{
		"processing_status": types.StatusFailed,
		"error_message":     cause.Error(),
	}); err != nil {
		p.log.Error("failed to record failure state", "video_id", videoID, "error", err)
	}
	p.notifier.PublishStatus(ctx, videoID, types.StatusFailed, 0, 0, cause.Error())
}

func (p *videoPipeline) Status(ctx context.Context, videoID string) (*StatusResponse, error) {
	video, err := p.videos.GetByID(ctx, nil, videoID)
	if err != nil {
		return nil, apierr.DependencyFailure(err)
	}
	if video == nil {
		return nil, apierr.NotFound(fmt.Sprintf("video %s", videoID))
	}

	questions, err := p.questions.GetByVideoID(ctx, nil, videoID)
	if err != nil {
		return nil, apierr.DependencyFailure(err)
	}

	return &StatusResponse{
		ProcessingStatus: video.ProcessingStatus,
		ErrorMessage:     video.ErrorMessage,
		HasTranscript:    len(video.Transcript) > 0,
		FlashcardCount:   len(questions),
		BatchCurrent:     video.BatchCurrent,
		BatchTotal:       video.BatchTotal,
	}, nil
}

// Delete removes a video. With a project id, only the link is dropped;
// the video itself goes once no project retains a link. The cascade
// follows dependency order so no orphan rows survive.
func (p *videoPipeline) Delete(ctx context.Context, videoID, projectID string) (bool, error) {
	video, err := p.videos.GetByID(ctx, nil, videoID)
	if err != nil {
		return false, apierr.DependencyFailure(err)
	}
	if video == nil {
		return false, apierr.NotFound(fmt.Sprintf("video %s", videoID))
	}

	deletedCompletely := false
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if projectID != "" {
			if err := p.projects.UnlinkVideo(ctx, tx, projectID, videoID); err != nil {
				return err
			}
			remaining, err := p.projects.CountLinksForVideo(ctx, tx, videoID)
			if err != nil {
				return err
			}
			if remaining > 0 {
				return nil
			}
		}

		for _, del := range []func(context.Context, *gorm.DB, string) error{
			p.attempts.DeleteByVideoID,
			p.reports.DeleteByVideoID,
			p.progress.DeleteByVideoID,
			p.notes.DeleteByVideoID,
			p.quizzes.DeleteByVideoID,
			p.questions.DeleteByVideoID,
			p.projects.DeleteLinksByVideoID,
		} {
			if err := del(ctx, tx, videoID); err != nil {
				return err
			}
		}
		if err := p.videos.Delete(ctx, tx, videoID); err != nil {
			return err
		}
		deletedCompletely = true
		return nil
	})
	if err != nil {
		return false, apierr.DependencyFailure(err)
	}
	return deletedCompletely, nil
}

var ErrVideoNotCompleted = errors.New("video processing not completed")
