package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsift/finsift/internal/common"
	"github.com/finsift/finsift/internal/infer"
	"github.com/finsift/finsift/internal/model"
)

// DeepStrategy delegates the full message to the inference collaborator and
// validates the returned fields against the same invariants as the fast path.
// It is strictly slower and only runs when the caller asked for it.
type DeepStrategy struct {
	client infer.Client
	now    func() time.Time
}

// NewDeepStrategy creates the inference-backed extraction strategy.
func NewDeepStrategy(client infer.Client) *DeepStrategy {
	return &DeepStrategy{
		client: client,
		now:    time.Now,
	}
}

// Name implements Strategy.
func (s *DeepStrategy) Name() string { return StrategyDeep }

// Extract implements Strategy.
func (s *DeepStrategy) Extract(ctx context.Context, msg model.IncomingMessage) (*model.ExtractionResult, error) {
	fields, err := s.client.Infer(ctx, msg.Body)
	if err != nil {
		if errors.Is(err, common.ErrUpstreamUnavailable) || errors.Is(err, common.ErrUpstreamInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
	}

	result, err := s.fromFields(fields, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamInvalid, err)
	}

	return result, nil
}

// fromFields maps the provider payload into the domain record, rejecting
// anything that violates the extraction invariants.
func (s *DeepStrategy) fromFields(fields *infer.StructuredFields, msg model.IncomingMessage) (*model.ExtractionResult, error) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(fields.Amount, ",", ""))
	if err != nil {
		return nil, fmt.Errorf("unparseable amount %q", fields.Amount)
	}

	direction := model.TransactionDirection(strings.ToUpper(fields.Direction))

	occurredAt, err := time.Parse("2006-01-02", fields.Date)
	if err != nil {
		// The provider occasionally omits the date; the device timestamp is
		// the next best signal.
		occurredAt = msg.ReceivedAt().Truncate(24 * time.Hour)
	}
	now := s.now()
	if occurredAt.After(now) {
		occurredAt = time.Date(now.Year(), occurredAt.Month(), occurredAt.Day(), 0, 0, 0, 0, time.UTC)
	}

	vendor := strings.TrimSpace(fields.Vendor)
	if vendor == "" {
		return nil, fmt.Errorf("missing vendor")
	}

	category := strings.TrimSpace(fields.Category)
	if category == "" {
		category = DefaultCategory
	}

	confidence := fields.Confidence
	if confidence <= 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", fields.Confidence)
	}

	result := &model.ExtractionResult{
		Vendor:              vendor,
		Amount:              amount,
		OccurredAt:          occurredAt,
		Direction:           direction,
		Category:            category,
		Confidence:          confidence,
		PaymentMethod:       fields.PaymentMethod,
		CardLastFour:        fields.CardLastFour,
		UPIReference:        fields.UPIReference,
		IsSubscription:      fields.IsSubscription,
		SubscriptionService: fields.SubscriptionService,
		SourceMessage:       msg.Body,
	}

	if err := result.Validate(now); err != nil {
		return nil, err
	}

	return result, nil
}
