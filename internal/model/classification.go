package model

// ClassificationReason indicates why a message was accepted or filtered.
type ClassificationReason string

// Classification reason constants, in pipeline priority order.
const (
	ReasonValidTransaction    ClassificationReason = "VALID_TRANSACTION"
	ReasonPossibleTransaction ClassificationReason = "POSSIBLE_TRANSACTION"
	ReasonTransactionRequest  ClassificationReason = "TRANSACTION_REQUEST"
	ReasonOneTimeCode         ClassificationReason = "ONE_TIME_CODE"
	ReasonPromotional         ClassificationReason = "PROMOTIONAL"
	ReasonDuplicateSpam       ClassificationReason = "DUPLICATE_SPAM"
	ReasonUncertain           ClassificationReason = "UNCERTAIN"
)

// ClassificationResult is the verdict for one message. It gates whether
// extraction runs and is never persisted on its own.
type ClassificationResult struct {
	Reason             ClassificationReason
	MatchedKeywords    []string
	Confidence         float64
	IsValidTransaction bool
}

// ShouldExtract reports whether the message may proceed to field extraction.
func (r ClassificationResult) ShouldExtract() bool {
	return r.Reason == ReasonValidTransaction || r.Reason == ReasonPossibleTransaction
}
