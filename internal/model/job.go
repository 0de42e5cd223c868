package model

import "time"

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

// Job status constants. Queued is instantaneous; Completed and Failed are
// terminal.
const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// ItemOutcome records what happened to one message within a batch run.
// Filtered and duplicate messages are successes with an explanatory reason,
// never failures.
type ItemOutcome struct {
	Result      *ExtractionResult
	ErrorReason string
	Message     IncomingMessage
	Success     bool
}

// BatchJob is a pollable snapshot of one batch run. Mutated only by the
// orchestrator that owns it; read-only once terminal.
type BatchJob struct {
	StartedAt   time.Time
	CompletedAt time.Time
	ID          string
	UserID      string
	Error       string
	Items       []ItemOutcome
	Status      JobStatus
	Total       int
	Processed   int
	Succeeded   int
	Failed      int
}

// Terminal reports whether the job has finished, successfully or not.
func (j *BatchJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
