package extract

import (
	"context"
	"strings"

	"github.com/finsift/finsift/internal/service"
)

// DefaultCategory is assigned when no keyword set matches.
const DefaultCategory = "Others"

// Implicit confidence of the keyword categorizer, used when deciding whether
// an external suggestion should override it.
const (
	keywordMatchConfidence   = 0.7
	defaultCategoryConfident = 0.3
)

// categoryKeyword maps a category to the terms that imply it. Order matters:
// first match wins.
type categoryKeywords struct {
	Category string
	Keywords []string
}

var categoryTable = []categoryKeywords{
	{"Food & Dining", []string{"swiggy", "zomato", "dominos", "pizza", "restaurant", "cafe", "food", "dining", "eatery", "biryani", "mcdonald", "kfc", "starbucks"}},
	{"Transport", []string{"uber", "ola", "rapido", "metro", "irctc", "redbus", "fuel", "petrol", "diesel", "parking", "fastag", "cab", "taxi"}},
	{"Shopping", []string{"amazon", "flipkart", "myntra", "ajio", "meesho", "nykaa", "mall", "store", "mart", "shopping"}},
	{"Utilities", []string{"electricity", "water bill", "gas bill", "broadband", "recharge", "airtel", "jio", " vi ", "bsnl", "dth", "postpaid", "prepaid"}},
	{"Healthcare", []string{"hospital", "pharmacy", "apollo", "medplus", "clinic", "diagnostic", "medical", "doctor", "1mg", "practo"}},
	{"Financial", []string{"emi", "loan", "insurance", "premium", "mutual fund", "sip", "zerodha", "groww", "investment", "credit card bill"}},
	{"Education", []string{"school", "college", "university", "tuition", "course", "udemy", "byjus", "exam fee"}},
	{"Entertainment", []string{"netflix", "hotstar", "spotify", "prime video", "bookmyshow", "movie", "cinema", "pvr", "inox", "gaming"}},
}

// subscriptionServices maps body/vendor terms to the recurring service they
// imply.
var subscriptionServices = []struct {
	Term    string
	Service string
}{
	{"netflix", "Netflix"},
	{"hotstar", "Hotstar"},
	{"spotify", "Spotify"},
	{"prime video", "Prime Video"},
	{"youtube premium", "YouTube Premium"},
	{"apple music", "Apple Music"},
	{"google one", "Google One"},
	{"audible", "Audible"},
}

// categorize assigns a category by scanning the keyword sets against body and
// vendor, first match wins. When a Categorizer collaborator is available its
// suggestion replaces the keyword result if it is more confident.
func categorize(ctx context.Context, categorizer service.Categorizer, body, vendor string) string {
	search := strings.ToLower(body + " " + vendor)

	category := DefaultCategory
	confidence := defaultCategoryConfident
	for _, entry := range categoryTable {
		if containsAny(search, entry.Keywords) {
			category = entry.Category
			confidence = keywordMatchConfidence
			break
		}
	}

	if categorizer != nil {
		suggested, suggestedConfidence, err := categorizer.Categorize(ctx, vendor)
		if err == nil && suggested != "" && suggestedConfidence > confidence {
			return suggested
		}
	}

	return category
}

// detectSubscription reports whether the message looks like a recurring
// charge and, if so, for which service.
func detectSubscription(body, vendor string) (bool, string) {
	search := strings.ToLower(body + " " + vendor)
	for _, svc := range subscriptionServices {
		if strings.Contains(search, svc.Term) {
			return true, svc.Service
		}
	}
	if strings.Contains(search, "subscription") || strings.Contains(search, "auto debit") || strings.Contains(search, "autopay") {
		return true, ""
	}
	return false, ""
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
