// Package classify labels incoming messages as transactions, requests,
// one-time codes, or noise before any extraction runs.
package classify

import (
	"regexp"
	"strings"

	"github.com/finsift/finsift/internal/model"
)

// Confidence levels for each classification branch.
const (
	confidenceRequest       = 0.9
	confidenceOneTimeCode   = 0.95
	confidencePromotional   = 0.8
	confidenceTransaction   = 0.8
	confidencePerExtraMatch = 0.1
	confidencePossible      = 0.6
	confidenceUncertain     = 0.3
	confidenceDuplicateSpam = 0.9

	trustedSenderBoost = 0.2

	// promotionalThreshold is the minimum number of distinct promotional
	// hits before a message is treated as marketing.
	promotionalThreshold = 2

	// spamSimilarityThreshold and spamRepeatThreshold drive the repeated
	// blast detection: a message near-identical to more than
	// spamRepeatThreshold recent messages from the same sender is spam even
	// if it passes the lexicon checks individually.
	spamSimilarityThreshold = 0.8
	spamRepeatThreshold     = 2
)

// amountTokenPattern matches an amount-shaped token: a currency marker
// followed by digits.
var amountTokenPattern = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*[\d,]+(?:\.\d+)?`)

// UserContext carries optional per-user signals for the second pass.
type UserContext struct {
	TrustedSenders []string
	RecentMessages []model.IncomingMessage
}

// Classifier labels messages using priority-ordered lexicon checks. It is a
// pure function of the message plus the optional user context.
type Classifier struct {
	trustedSenders []string
}

// New creates a classifier with the default trusted-institution list.
func New() *Classifier {
	return &Classifier{trustedSenders: defaultTrustedSenders}
}

// Classify labels one message. First match wins; only ValidTransaction and
// PossibleTransaction results proceed to extraction.
func (c *Classifier) Classify(msg model.IncomingMessage, uc *UserContext) model.ClassificationResult {
	body := strings.ToLower(msg.Body)

	if matched := matchAny(body, requestLexicon); len(matched) > 0 {
		return model.ClassificationResult{
			Reason:          model.ReasonTransactionRequest,
			Confidence:      confidenceRequest,
			MatchedKeywords: matched,
		}
	}

	if matched := matchAny(body, oneTimeCodeLexicon); len(matched) > 0 {
		return model.ClassificationResult{
			Reason:          model.ReasonOneTimeCode,
			Confidence:      confidenceOneTimeCode,
			MatchedKeywords: matched,
		}
	}

	if matched := matchAny(body, promotionalLexicon); len(matched) >= promotionalThreshold {
		return c.adjust(msg, uc, model.ClassificationResult{
			Reason:          model.ReasonPromotional,
			Confidence:      confidencePromotional,
			MatchedKeywords: matched,
		})
	}

	if matched := matchAny(body, transactionLexicon); len(matched) > 0 {
		extra := len(matched)
		if extra > 2 {
			extra = 2
		}
		return c.adjust(msg, uc, model.ClassificationResult{
			Reason:             model.ReasonValidTransaction,
			IsValidTransaction: true,
			Confidence:         capConfidence(confidenceTransaction + confidencePerExtraMatch*float64(extra)),
			MatchedKeywords:    matched,
		})
	}

	if amountTokenPattern.MatchString(body) {
		if matched := matchAny(body, bankingTerms); len(matched) > 0 {
			return c.adjust(msg, uc, model.ClassificationResult{
				Reason:          model.ReasonPossibleTransaction,
				Confidence:      confidencePossible,
				MatchedKeywords: matched,
			})
		}
	}

	return model.ClassificationResult{
		Reason:     model.ReasonUncertain,
		Confidence: confidenceUncertain,
	}
}

// adjust applies the context-aware second pass: trusted-sender confidence
// boost and repeated-blast spam detection.
func (c *Classifier) adjust(msg model.IncomingMessage, uc *UserContext, result model.ClassificationResult) model.ClassificationResult {
	if c.isRepeatedBlast(msg, uc) {
		return model.ClassificationResult{
			Reason:          model.ReasonDuplicateSpam,
			Confidence:      confidenceDuplicateSpam,
			MatchedKeywords: result.MatchedKeywords,
		}
	}

	if result.ShouldExtract() && c.isTrustedSender(msg.Sender, uc) {
		result.Confidence = capConfidence(result.Confidence + trustedSenderBoost)
	}

	return result
}

func (c *Classifier) isTrustedSender(sender string, uc *UserContext) bool {
	s := strings.ToLower(sender)
	for _, trusted := range c.trustedSenders {
		if strings.Contains(s, trusted) {
			return true
		}
	}
	if uc != nil {
		for _, trusted := range uc.TrustedSenders {
			if strings.Contains(s, strings.ToLower(trusted)) {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) isRepeatedBlast(msg model.IncomingMessage, uc *UserContext) bool {
	if uc == nil || len(uc.RecentMessages) == 0 {
		return false
	}

	tokens := tokenSet(msg.Body)
	repeats := 0
	for _, recent := range uc.RecentMessages {
		if !strings.EqualFold(recent.Sender, msg.Sender) {
			continue
		}
		if jaccard(tokens, tokenSet(recent.Body)) > spamSimilarityThreshold {
			repeats++
			if repeats > spamRepeatThreshold {
				return true
			}
		}
	}
	return false
}

// matchAny returns the distinct lexicon phrases found in the body.
func matchAny(body string, lexicon []string) []string {
	var matched []string
	for _, phrase := range lexicon {
		if strings.Contains(body, phrase) {
			matched = append(matched, strings.TrimSpace(phrase))
		}
	}
	return matched
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard computes token-set similarity between two messages.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func capConfidence(c float64) float64 {
	if c > 1.0 {
		return 1.0
	}
	return c
}
