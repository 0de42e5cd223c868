package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsift/finsift/internal/classify"
	"github.com/finsift/finsift/internal/common"
	"github.com/finsift/finsift/internal/model"
)

// Default batch pacing. Small chunks with a pause between them keep the
// inference provider under its rate limit on deep scans.
const (
	DefaultChunkSize  = 5
	DefaultChunkDelay = 200 * time.Millisecond
)

// BatchOptions configures one batch run.
type BatchOptions struct {
	UserContext *classify.UserContext
	ChunkSize   int
	ChunkDelay  time.Duration
	UseDeep     bool
}

// StartBatch registers a job and launches it in the background. The returned
// job ID is immediately pollable via GetJob.
func (e *Engine) StartBatch(ctx context.Context, userID string, msgs []model.IncomingMessage, opts BatchOptions) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("userID is required")
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("at least one message is required")
	}
	if opts.UseDeep && e.deep == nil {
		return "", fmt.Errorf("deep strategy requested but no inference provider configured")
	}

	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkDelay <= 0 {
		opts.ChunkDelay = DefaultChunkDelay
	}

	job := &model.BatchJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    model.JobQueued,
		Total:     len(msgs),
		StartedAt: time.Now().UTC(),
	}
	e.jobs.add(job)

	go e.runBatch(ctx, job.ID, userID, msgs, opts)

	return job.ID, nil
}

// GetJob returns a point-in-time snapshot of a job. Counters reflect the
// last completed chunk; polling never blocks the worker.
func (e *Engine) GetJob(jobID string) (*model.BatchJob, error) {
	return e.jobs.snapshot(jobID)
}

func (e *Engine) runBatch(ctx context.Context, jobID, userID string, msgs []model.IncomingMessage, opts BatchOptions) {
	e.jobs.update(jobID, func(j *model.BatchJob) {
		j.Status = model.JobRunning
	})

	slog.Info("Batch started",
		"job_id", jobID,
		"user_id", userID,
		"total", len(msgs),
		"chunk_size", opts.ChunkSize,
		"deep", opts.UseDeep)

	itemOpts := Options{
		UserContext: opts.UserContext,
		UseDeep:     opts.UseDeep,
	}

	for start := 0; start < len(msgs); start += opts.ChunkSize {
		end := min(start+opts.ChunkSize, len(msgs))

		chunk := make([]model.ItemOutcome, 0, end-start)
		for _, msg := range msgs[start:end] {
			outcome, err := e.ProcessMessage(ctx, userID, msg, itemOpts)
			if err != nil {
				// Orchestration failure: the run cannot continue.
				e.failJob(jobID, chunk, err)
				return
			}
			chunk = append(chunk, toItemOutcome(msg, outcome))
		}

		e.jobs.update(jobID, func(j *model.BatchJob) {
			appendChunk(j, chunk)
		})

		if end < len(msgs) {
			select {
			case <-ctx.Done():
				e.failJob(jobID, nil, ctx.Err())
				return
			case <-time.After(opts.ChunkDelay):
			}
		}
	}

	e.jobs.update(jobID, func(j *model.BatchJob) {
		j.Status = model.JobCompleted
		j.CompletedAt = time.Now().UTC()
	})

	common.LogInfo("Batch completed", common.Fields{"job_id": jobID, "user_id": userID})
}

func (e *Engine) failJob(jobID string, partial []model.ItemOutcome, cause error) {
	e.jobs.update(jobID, func(j *model.BatchJob) {
		appendChunk(j, partial)
		j.Status = model.JobFailed
		j.Error = cause.Error()
		j.CompletedAt = time.Now().UTC()
	})
	common.LogError(cause, "Batch failed", common.Fields{"job_id": jobID})
}

func appendChunk(j *model.BatchJob, chunk []model.ItemOutcome) {
	j.Items = append(j.Items, chunk...)
	for _, item := range chunk {
		j.Processed++
		if item.Success {
			j.Succeeded++
		} else {
			j.Failed++
		}
	}
}

func toItemOutcome(msg model.IncomingMessage, outcome Outcome) model.ItemOutcome {
	item := model.ItemOutcome{Message: msg}

	switch outcome.Status {
	case StatusRecorded:
		item.Success = true
		item.Result = outcome.Result
	case StatusFiltered:
		item.Success = true
		item.ErrorReason = "filtered: " + strings.ToLower(string(outcome.Classification.Reason))
	case StatusDuplicate:
		item.Success = true
		item.ErrorReason = "duplicate"
	case StatusFailed:
		item.ErrorReason = outcome.Err.Error()
	}

	return item
}
