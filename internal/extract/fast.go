package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsift/finsift/internal/common"
	"github.com/finsift/finsift/internal/model"
	"github.com/finsift/finsift/internal/service"
)

// Fast-strategy confidence is a fixed composite: high when both amount and a
// specific vendor pattern matched, scaled down when only fallback vendor
// resolution applied.
const (
	fastConfidenceSpecific = 0.85
	fastConfidenceFallback = 0.6
)

// amountPatterns are tried in order; the first plausible match wins.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`₹\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)\brs\.?\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)\binr\.?\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)\bamount\b\D{0,20}?([\d,]+(?:\.\d{1,2})?)`),
}

// vendorPatterns are tried in order; the first non-trivial capture wins and
// marks the extraction as having a specific vendor.
var vendorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bpaid to\s+([A-Za-z][A-Za-z0-9@ &._-]*?)(?:\s+(?:on|for|via|using|from)\b|[.,;\n]|$)`),
	regexp.MustCompile(`(?i)\bupi\b.*?\bto\s+([A-Za-z][A-Za-z0-9@ &._-]*?)(?:\s+(?:on|for|via|using|from)\b|[.,;\n]|$)`),
	regexp.MustCompile(`(?i)\bat\s+([A-Za-z][A-Za-z0-9 &._-]*?)(?:\s+(?:on|for|via|using|from)\b|[.,;\n]|$)`),
	regexp.MustCompile(`(?i)\bmerchant[:\s]+([A-Za-z][A-Za-z0-9 &._-]*?)(?:[.,;\n]|$)`),
	regexp.MustCompile(`(?i)\btowards\s+([A-Za-z][A-Za-z0-9 &._-]*?)(?:[.,;\n]|$)`),
}

// institutionTable resolves a vendor from bank/wallet brand names found
// anywhere in the body when no vendor pattern matched.
var institutionTable = []struct {
	Term string
	Name string
}{
	{"hdfc", "HDFC Bank"},
	{"icici", "ICICI Bank"},
	{"sbi", "SBI"},
	{"axis", "Axis Bank"},
	{"kotak", "Kotak Bank"},
	{"paytm", "Paytm"},
	{"phonepe", "PhonePe"},
	{"google pay", "Google Pay"},
	{"gpay", "Google Pay"},
	{"amazon pay", "Amazon Pay"},
	{"mobikwik", "MobiKwik"},
}

var creditTerms = []string{"credited", "received", "refund", "deposited"}

var (
	numericDatePattern = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})\b`)
	monthDatePattern   = regexp.MustCompile(`(?i)\b(\d{1,2})[- ](jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[- ](\d{2,4})\b`)

	cardLastFourPattern = regexp.MustCompile(`(?i)(?:\*\*+|x{2,}|card ending\s*|card no\.?\s*\D{0,4})(\d{4})\b`)
	upiRefPattern       = regexp.MustCompile(`(?i)upi\s*(?:ref(?:erence)?(?:\s*no)?\.?)?\s*[:/#]?\s*(\d{6,})`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// FastStrategy extracts fields with ordered regex passes. It is always
// available and has no external dependency.
type FastStrategy struct {
	categorizer service.Categorizer
	now         func() time.Time
}

// NewFastStrategy creates the offline extraction strategy. The categorizer is
// optional; when present it may refine the keyword-based category.
func NewFastStrategy(categorizer service.Categorizer) *FastStrategy {
	return &FastStrategy{
		categorizer: categorizer,
		now:         time.Now,
	}
}

// Name implements Strategy.
func (s *FastStrategy) Name() string { return StrategyFast }

// Extract implements Strategy.
func (s *FastStrategy) Extract(ctx context.Context, msg model.IncomingMessage) (*model.ExtractionResult, error) {
	amount, ok := findAmount(msg.Body)
	if !ok {
		return nil, common.ErrNoAmountFound
	}

	vendor, specific := s.findVendor(msg.Body)

	confidence := fastConfidenceFallback
	if specific {
		confidence = fastConfidenceSpecific
	}

	result := &model.ExtractionResult{
		Vendor:        vendor,
		Amount:        amount,
		OccurredAt:    s.findDate(msg),
		Direction:     findDirection(msg.Body),
		Category:      categorize(ctx, s.categorizer, msg.Body, vendor),
		Confidence:    confidence,
		PaymentMethod: findPaymentMethod(msg.Body),
		SourceMessage: msg.Body,
	}

	if m := cardLastFourPattern.FindStringSubmatch(msg.Body); m != nil {
		result.CardLastFour = m[1]
	}
	if m := upiRefPattern.FindStringSubmatch(msg.Body); m != nil {
		result.UPIReference = m[1]
	}
	result.IsSubscription, result.SubscriptionService = detectSubscription(msg.Body, vendor)

	return result, nil
}

// findAmount returns the first plausible amount in the body.
func findAmount(body string) (decimal.Decimal, bool) {
	for _, pattern := range amountPatterns {
		for _, m := range pattern.FindAllStringSubmatch(body, -1) {
			raw := strings.ReplaceAll(m[1], ",", "")
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				continue
			}
			if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(model.MaxPlausibleAmount) {
				continue
			}
			return amount, true
		}
	}
	return decimal.Decimal{}, false
}

// findVendor resolves the vendor name. The bool result reports whether a
// specific vendor pattern matched, as opposed to fallback resolution.
func (s *FastStrategy) findVendor(body string) (string, bool) {
	for _, pattern := range vendorPatterns {
		if m := pattern.FindStringSubmatch(body); m != nil {
			vendor := cleanVendor(m[1])
			if vendorIsTrivial(vendor) {
				continue
			}
			return vendor, true
		}
	}

	lower := strings.ToLower(body)
	for _, inst := range institutionTable {
		if strings.Contains(lower, inst.Term) {
			return inst.Name, false
		}
	}

	return genericVendorLabel(lower), false
}

// genericVendorLabel derives a label from the dominant transaction verb when
// nothing better is available.
func genericVendorLabel(lower string) string {
	switch {
	case strings.Contains(lower, "upi"):
		return "UPI Transfer"
	case strings.Contains(lower, "atm") || strings.Contains(lower, "withdrawn"):
		return "ATM Withdrawal"
	case strings.Contains(lower, "auto debit") || strings.Contains(lower, "autopay") || strings.Contains(lower, "standing instruction"):
		return "Auto Debit"
	default:
		return "Bank Transaction"
	}
}

func cleanVendor(raw string) string {
	vendor := strings.Join(strings.Fields(raw), " ")
	return strings.Trim(vendor, " .,-_")
}

// vendorIsTrivial rejects captures too short to be a real name once
// non-alphanumerics are stripped.
func vendorIsTrivial(vendor string) bool {
	var alnum int
	for _, r := range vendor {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			alnum++
		}
	}
	return alnum <= 2
}

func findDirection(body string) model.TransactionDirection {
	lower := strings.ToLower(body)
	for _, term := range creditTerms {
		if strings.Contains(lower, term) {
			return model.DirectionCredit
		}
	}
	return model.DirectionDebit
}

// findDate parses the first date-shaped token. Two-digit years expand by
// +2000. Dates in the future get the current year instead: messages never
// legitimately arrive from the future, so a future date means a reused
// template or locale ambiguity. Without any date token the device timestamp
// wins.
func (s *FastStrategy) findDate(msg model.IncomingMessage) time.Time {
	now := s.now()

	day, month, year, ok := firstDateToken(msg.Body)
	if !ok {
		return msg.ReceivedAt()
	}

	if year < 100 {
		year += 2000
	}

	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject tokens that do not round-trip (e.g. 31-02).
	if parsed.Day() != day || parsed.Month() != time.Month(month) {
		return msg.ReceivedAt()
	}

	if parsed.After(now) {
		parsed = time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	}

	return parsed
}

// firstDateToken finds the earliest day-month-year token in the body,
// numeric or with a spelled month.
func firstDateToken(body string) (day, month, year int, ok bool) {
	numeric := numericDatePattern.FindStringSubmatchIndex(body)
	spelled := monthDatePattern.FindStringSubmatchIndex(body)

	useSpelled := spelled != nil && (numeric == nil || spelled[0] < numeric[0])

	switch {
	case useSpelled:
		m := monthDatePattern.FindStringSubmatch(body[spelled[0]:])
		day = atoi(m[1])
		month = int(monthIndex[strings.ToLower(m[2])])
		year = atoi(m[3])
		return day, month, year, month > 0 && day >= 1 && day <= 31
	case numeric != nil:
		m := numericDatePattern.FindStringSubmatch(body[numeric[0]:])
		day = atoi(m[1])
		month = atoi(m[2])
		year = atoi(m[3])
		return day, month, year, month >= 1 && month <= 12 && day >= 1 && day <= 31
	default:
		return 0, 0, 0, false
	}
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func findPaymentMethod(body string) string {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "upi"):
		return "UPI"
	case strings.Contains(lower, "credit card"):
		return "Credit Card"
	case strings.Contains(lower, "debit card") || strings.Contains(lower, "card"):
		return "Debit Card"
	case strings.Contains(lower, "atm"):
		return "ATM"
	case strings.Contains(lower, "neft") || strings.Contains(lower, "imps") || strings.Contains(lower, "rtgs") || strings.Contains(lower, "netbanking"):
		return "Bank Transfer"
	default:
		return ""
	}
}
