package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection indicates whether money left or entered the account.
type TransactionDirection string

// Transaction direction constants.
const (
	DirectionDebit  TransactionDirection = "DEBIT"
	DirectionCredit TransactionDirection = "CREDIT"
)

// MaxPlausibleAmount is the upper bound for a believable single transaction.
var MaxPlausibleAmount = decimal.NewFromInt(1_000_000)

// ExtractionResult is the structured record produced from one accepted
// message. Amount is always a positive magnitude; direction is carried
// separately, never encoded as sign.
type ExtractionResult struct {
	OccurredAt          time.Time
	Vendor              string
	Category            string
	PaymentMethod       string
	CardLastFour        string
	UPIReference        string
	SubscriptionService string
	SourceMessage       string
	Amount              decimal.Decimal
	Confidence          float64
	Direction           TransactionDirection
	IsSubscription      bool
}

// Validate checks the invariants every extraction must satisfy regardless of
// which strategy produced it.
func (r *ExtractionResult) Validate(now time.Time) error {
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be positive, got %s", r.Amount)
	}
	if r.Amount.GreaterThan(MaxPlausibleAmount) {
		return fmt.Errorf("amount %s exceeds plausible maximum", r.Amount)
	}
	if r.Direction != DirectionDebit && r.Direction != DirectionCredit {
		return fmt.Errorf("unknown direction %q", r.Direction)
	}
	if r.OccurredAt.After(now) {
		return fmt.Errorf("transaction date %s is in the future", r.OccurredAt.Format("2006-01-02"))
	}
	if r.CardLastFour != "" && len(r.CardLastFour) != 4 {
		return fmt.Errorf("card last four must be 4 digits, got %q", r.CardLastFour)
	}
	return nil
}
