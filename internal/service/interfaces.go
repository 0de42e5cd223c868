// Package service defines the interfaces for the application's collaborators.
package service

import (
	"context"
	"time"

	"github.com/finsift/finsift/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
	Limit     int
	Offset    int
}

// Storage defines the contract for the persistence collaborator.
type Storage interface {
	// SaveTransaction persists one extraction together with its fingerprint
	// and returns the new record ID.
	SaveTransaction(ctx context.Context, userID string, result *model.ExtractionResult, fingerprint string) (string, error)
	GetTransaction(ctx context.Context, userID, recordID string) (*model.ExtractionResult, error)
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]model.ExtractionResult, error)

	// FingerprintExists reports whether a fingerprint has already been
	// recorded for the user.
	FingerprintExists(ctx context.Context, userID, fingerprint string) (bool, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Categorizer is the external category-suggestion collaborator. The extractor
// consults it only to refine the keyword-based default.
type Categorizer interface {
	Categorize(ctx context.Context, vendor string) (category string, confidence float64, err error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
