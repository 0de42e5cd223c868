package extract

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsift/finsift/internal/common"
	"github.com/finsift/finsift/internal/infer"
	"github.com/finsift/finsift/internal/model"
)

func newTestDeepStrategy(client infer.Client) *DeepStrategy {
	s := NewDeepStrategy(client)
	s.now = fixedNow
	return s
}

func validFields() *infer.StructuredFields {
	return &infer.StructuredFields{
		Vendor:        "Swiggy",
		Amount:        "450.00",
		Date:          "2024-09-10",
		Direction:     "DEBIT",
		Category:      "Food & Dining",
		PaymentMethod: "UPI",
		UPIReference:  "123456789",
		Confidence:    0.92,
	}
}

func TestDeepStrategy_MapsProviderFields(t *testing.T) {
	mock := &infer.MockClient{
		InferFunc: func(_ context.Context, _ string) (*infer.StructuredFields, error) {
			return validFields(), nil
		},
	}
	s := newTestDeepStrategy(mock)

	msg := model.IncomingMessage{Body: "Rs 450.00 debited at SWIGGY", DeviceTimestamp: fixedNow().UnixMilli()}
	result, err := s.Extract(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, "Swiggy", result.Vendor)
	assert.True(t, result.Amount.Equal(decimal.RequireFromString("450.00")))
	assert.Equal(t, model.DirectionDebit, result.Direction)
	assert.Equal(t, time.Date(2024, time.September, 10, 0, 0, 0, 0, time.UTC), result.OccurredAt)
	assert.Equal(t, "UPI", result.PaymentMethod)
	assert.Equal(t, "123456789", result.UPIReference)
	assert.Equal(t, msg.Body, result.SourceMessage)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
}

func TestDeepStrategy_InvalidFields(t *testing.T) {
	tests := []struct {
		mutate func(*infer.StructuredFields)
		name   string
	}{
		{name: "negative amount", mutate: func(f *infer.StructuredFields) { f.Amount = "-450" }},
		{name: "zero amount", mutate: func(f *infer.StructuredFields) { f.Amount = "0" }},
		{name: "unparseable amount", mutate: func(f *infer.StructuredFields) { f.Amount = "four fifty" }},
		{name: "implausible amount", mutate: func(f *infer.StructuredFields) { f.Amount = "2000000" }},
		{name: "unknown direction", mutate: func(f *infer.StructuredFields) { f.Direction = "SIDEWAYS" }},
		{name: "missing vendor", mutate: func(f *infer.StructuredFields) { f.Vendor = "  " }},
		{name: "confidence out of range", mutate: func(f *infer.StructuredFields) { f.Confidence = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			tt.mutate(fields)

			mock := &infer.MockClient{
				InferFunc: func(_ context.Context, _ string) (*infer.StructuredFields, error) {
					return fields, nil
				},
			}
			s := newTestDeepStrategy(mock)

			_, err := s.Extract(context.Background(), model.IncomingMessage{Body: "x"})
			assert.ErrorIs(t, err, common.ErrUpstreamInvalid)
		})
	}
}

func TestDeepStrategy_UpstreamUnavailablePassesThrough(t *testing.T) {
	mock := &infer.MockClient{
		InferFunc: func(_ context.Context, _ string) (*infer.StructuredFields, error) {
			return nil, common.ErrUpstreamUnavailable
		},
	}
	s := newTestDeepStrategy(mock)

	_, err := s.Extract(context.Background(), model.IncomingMessage{Body: "x"})
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestDeepStrategy_FutureDateRewritten(t *testing.T) {
	fields := validFields()
	fields.Date = "2026-01-10"

	mock := &infer.MockClient{
		InferFunc: func(_ context.Context, _ string) (*infer.StructuredFields, error) {
			return fields, nil
		},
	}
	s := newTestDeepStrategy(mock)

	result, err := s.Extract(context.Background(), model.IncomingMessage{Body: "x"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), result.OccurredAt)
}

func TestDeepStrategy_MissingDateFallsBackToDeviceTime(t *testing.T) {
	fields := validFields()
	fields.Date = ""

	mock := &infer.MockClient{
		InferFunc: func(_ context.Context, _ string) (*infer.StructuredFields, error) {
			return fields, nil
		},
	}
	s := newTestDeepStrategy(mock)

	device := time.Date(2025, time.February, 3, 18, 45, 0, 0, time.UTC)
	result, err := s.Extract(context.Background(), model.IncomingMessage{Body: "x", DeviceTimestamp: device.UnixMilli()})
	require.NoError(t, err)
	assert.Equal(t, device.Truncate(24*time.Hour), result.OccurredAt)
}
