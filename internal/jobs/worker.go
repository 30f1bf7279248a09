package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/services"
	"github.com/recapio/recapio-backend/internal/types"
)

const (
	pollInterval = 1 * time.Second
	maxAttempts  = 5
	retryDelay   = 30 * time.Second
)

// Worker drains job_runs and drives the video pipeline. Claims use
// SKIP LOCKED so multiple workers never double-process a job.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	pipeline services.VideoPipeline
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, pipeline services.VideoPipeline) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		pipeline: pipeline,
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				job, err := w.repo.ClaimNextRunnable(ctx, w.db, maxAttempts, retryDelay)
				if err != nil {
					w.log.Warn("ClaimNextRunnable failed", "error", err)
					continue
				}
				if job == nil {
					continue
				}
				w.runOne(ctx, job)
			}
		}
	}()
}

func (w *Worker) runOne(ctx context.Context, job *types.JobRun) {
	var runErr error
	// A panicking handler must still leave the job in a terminal state.
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
				runErr = fmt.Errorf("panic: %v", r)
			}
		}()
		runErr = w.dispatch(ctx, job)
	}()

	now := time.Now().UTC()
	updates := map[string]any{
		"status":      types.JobStatusSucceeded,
		"finished_at": now,
	}
	if runErr != nil {
		updates["status"] = types.JobStatusFailed
		updates["last_error"] = runErr.Error()
		w.log.Warn("job failed", "job_id", job.ID, "job_type", job.JobType, "attempts", job.Attempts, "error", runErr)
	}
	if err := w.repo.UpdateFields(ctx, w.db, job.ID, updates); err != nil {
		w.log.Error("failed to finalize job", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) dispatch(ctx context.Context, job *types.JobRun) error {
	switch job.JobType {
	case types.JobTypeVideoProcess:
		var payload services.JobPayload
		if len(job.Payload) > 0 {
			if err := json.Unmarshal(job.Payload, &payload); err != nil {
				return fmt.Errorf("decode payload for job %s: %w", job.ID, err)
			}
		}
		return w.pipeline.ProcessVideoJob(ctx, job.VideoID, payload)
	default:
		return fmt.Errorf("no handler registered for job_type=%s", job.JobType)
	}
}
