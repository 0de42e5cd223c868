// Package infer wraps the external inference service used by the deep
// extraction strategy. Providers are opaque beyond the Client contract.
package infer

import "context"

// StructuredFields is the field set a provider must return for one message.
type StructuredFields struct {
	Vendor              string  `json:"vendor"`
	Amount              string  `json:"amount"`
	Date                string  `json:"date"`
	Direction           string  `json:"direction"`
	Category            string  `json:"category"`
	PaymentMethod       string  `json:"payment_method,omitempty"`
	CardLastFour        string  `json:"card_last_four,omitempty"`
	UPIReference        string  `json:"upi_reference,omitempty"`
	SubscriptionService string  `json:"subscription_service,omitempty"`
	Confidence          float64 `json:"confidence"`
	IsSubscription      bool    `json:"is_subscription"`
}

// Client defines the interface for inference providers.
type Client interface {
	Infer(ctx context.Context, messageText string) (*StructuredFields, error)
	Close() error
}

// Config holds provider configuration.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	RequestsPerMinute int
	Timeout           int // seconds per call
}
