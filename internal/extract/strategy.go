// Package extract turns an accepted message into a structured transaction
// record via one of two interchangeable strategies: a fast offline pattern
// matcher and a slower inference-backed deep parser.
package extract

import (
	"context"

	"github.com/finsift/finsift/internal/model"
)

// Strategy names, used for logging and job reporting.
const (
	StrategyFast = "fast"
	StrategyDeep = "deep"
)

// Strategy is the common contract for both extraction backends, so batch and
// interactive callers share identical error handling regardless of which
// backend ran. Strategies are never silently mixed within one run.
type Strategy interface {
	Extract(ctx context.Context, msg model.IncomingMessage) (*model.ExtractionResult, error)
	Name() string
}
