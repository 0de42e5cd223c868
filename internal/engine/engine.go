// Package engine orchestrates the message pipeline: classification,
// fingerprint reservation, field extraction, and persistence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finsift/finsift/internal/classify"
	"github.com/finsift/finsift/internal/common"
	"github.com/finsift/finsift/internal/dedup"
	"github.com/finsift/finsift/internal/extract"
	"github.com/finsift/finsift/internal/model"
	"github.com/finsift/finsift/internal/service"
)

// OutcomeStatus describes what the pipeline did with one message.
type OutcomeStatus string

// Outcome status constants. Filtered and Duplicate are expected outcomes,
// never failures, and must not be presented with failure styling.
const (
	StatusRecorded  OutcomeStatus = "RECORDED"
	StatusFiltered  OutcomeStatus = "FILTERED"
	StatusDuplicate OutcomeStatus = "DUPLICATE"
	StatusFailed    OutcomeStatus = "FAILED"
)

// Outcome is the result of processing a single message. Err explains a
// Failed outcome; on Filtered it carries ErrFilteredByClassifier (or
// ErrClassificationSkipped for uncertain messages) so callers can branch
// with errors.Is.
type Outcome struct {
	Err              error
	Result           *model.ExtractionResult
	RecordID         string
	ExistingRecordID string
	Status           OutcomeStatus
	Classification   model.ClassificationResult
}

// Options controls one processing call.
type Options struct {
	UserContext *classify.UserContext
	// UseDeep selects the inference-backed strategy for this call.
	UseDeep bool
	// AttemptUncertain lets an Uncertain classification proceed to
	// extraction. The interactive path sets this; bulk paths usually skip.
	AttemptUncertain bool
	// Force bypasses the deduplicator entirely for a user-initiated
	// re-parse. The reserver has no override path by design.
	Force bool
}

// Engine wires the pipeline stages together.
type Engine struct {
	storage    service.Storage
	classifier *classify.Classifier
	reserver   *dedup.Reserver
	fast       extract.Strategy
	deep       extract.Strategy
	jobs       *jobRegistry
	retryOpts  service.RetryOptions
}

// Config holds engine construction options.
type Config struct {
	Storage   service.Storage
	Reserver  *dedup.Reserver
	Fast      extract.Strategy
	Deep      extract.Strategy // nil when no inference provider is configured
	RetryOpts service.RetryOptions
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Reserver == nil {
		return nil, fmt.Errorf("reserver is required")
	}
	if cfg.Fast == nil {
		return nil, fmt.Errorf("fast strategy is required")
	}

	return &Engine{
		storage:    cfg.Storage,
		classifier: classify.New(),
		reserver:   cfg.Reserver,
		fast:       cfg.Fast,
		deep:       cfg.Deep,
		jobs:       newJobRegistry(),
		retryOpts:  cfg.RetryOpts,
	}, nil
}

// ProcessMessage runs the interactive single-message path. The returned
// error is reserved for orchestration failures (persistence unreachable);
// extraction problems surface inside the Outcome.
func (e *Engine) ProcessMessage(ctx context.Context, userID string, msg model.IncomingMessage, opts Options) (Outcome, error) {
	strategy, err := e.pickStrategy(opts)
	if err != nil {
		return Outcome{}, err
	}

	classification := e.classifier.Classify(msg, opts.UserContext)
	outcome := Outcome{Classification: classification}

	if !shouldExtract(classification, opts) {
		outcome.Status = StatusFiltered
		outcome.Err = common.ErrFilteredByClassifier
		if classification.Reason == model.ReasonUncertain {
			outcome.Err = common.ErrClassificationSkipped
		}
		slog.Debug("Message filtered",
			"reason", classification.Reason,
			"confidence", classification.Confidence,
			"keywords", classification.MatchedKeywords)
		return outcome, nil
	}

	fingerprint := model.Fingerprint(userID, msg)

	if !opts.Force {
		reservation, reserveErr := e.reserver.CheckAndReserve(ctx, userID, fingerprint)
		if reserveErr != nil {
			return Outcome{}, fmt.Errorf("dedup reservation failed: %w", reserveErr)
		}
		if !reservation.Accepted {
			outcome.Status = StatusDuplicate
			outcome.ExistingRecordID = reservation.ExistingRecordID
			return outcome, nil
		}
	}

	result, err := strategy.Extract(ctx, msg)
	if err != nil {
		e.releaseReservation(ctx, userID, fingerprint, opts)
		slog.Warn("Extraction failed",
			"user_id", userID,
			"strategy", strategy.Name(),
			"retryable", common.IsRetryable(err),
			"error", err)
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome, nil
	}

	// The engine enforces the record invariants once, so the two strategies
	// can never diverge on what is persistable.
	if err := result.Validate(time.Now().UTC()); err != nil {
		e.releaseReservation(ctx, userID, fingerprint, opts)
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome, nil
	}

	var recordID string
	saveErr := common.WithRetry(ctx, func() error {
		var err error
		recordID, err = e.storage.SaveTransaction(ctx, userID, result, fingerprint)
		if errors.Is(err, common.ErrDuplicateEntry) {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		return err
	}, e.retryOpts)
	if saveErr != nil {
		if errors.Is(saveErr, common.ErrDuplicateEntry) {
			// Force re-parse raced with an existing record.
			outcome.Status = StatusDuplicate
			return outcome, nil
		}
		e.releaseReservation(ctx, userID, fingerprint, opts)
		return Outcome{}, fmt.Errorf("failed to persist transaction: %w", saveErr)
	}

	outcome.Status = StatusRecorded
	outcome.Result = result
	outcome.RecordID = recordID

	slog.Info("Transaction recorded",
		"user_id", userID,
		"record_id", recordID,
		"vendor", result.Vendor,
		"amount", result.Amount,
		"strategy", strategy.Name())

	return outcome, nil
}

// releaseReservation frees the fingerprint after a clean failure so a later
// rescan can retry the message. A crash before this point leaves the
// fingerprint reserved: at-most-once is favored over double-counting.
func (e *Engine) releaseReservation(ctx context.Context, userID, fingerprint string, opts Options) {
	if opts.Force {
		return
	}
	if err := e.reserver.Release(ctx, userID, fingerprint); err != nil {
		slog.Warn("Failed to release fingerprint reservation",
			"user_id", userID,
			"error", err)
	}
}

func (e *Engine) pickStrategy(opts Options) (extract.Strategy, error) {
	if !opts.UseDeep {
		return e.fast, nil
	}
	if e.deep == nil {
		return nil, fmt.Errorf("%w: deep strategy requested but no inference provider configured", common.ErrMissingConfig)
	}
	return e.deep, nil
}

func shouldExtract(c model.ClassificationResult, opts Options) bool {
	if c.ShouldExtract() {
		return true
	}
	return opts.AttemptUncertain && c.Reason == model.ReasonUncertain
}
