package classify

// Lexicons are plain data so new phrases are additions, not logic changes.
// All matching is done against the lowercased message body.

// requestLexicon marks pending authorizations. These describe money that has
// not moved yet and must never be recorded as a transaction.
var requestLexicon = []string{
	"has requested",
	"is requesting",
	"payment request",
	"requested money",
	"will be debited",
	"tap to pay",
	"tap to approve",
	"approve payment",
	"approve the payment",
	"collect request",
	"authorise payment",
	"authorize payment",
}

// oneTimeCodeLexicon marks verification messages.
var oneTimeCodeLexicon = []string{
	"otp",
	"one time password",
	"one-time password",
	"verification code",
	"security code",
	"do not share",
	"don't share",
	"expires in",
	"valid for",
	"login code",
}

// promotionalLexicon marks marketing blasts. A single match is not enough:
// bank messages legitimately mention "offer balance" and the like, so the
// classifier requires two distinct hits.
var promotionalLexicon = []string{
	"offer",
	"cashback",
	"discount",
	"promo code",
	"coupon",
	"buy now",
	"shop now",
	"sale",
	"limited time",
	"exclusive",
	"rewards",
	"win ",
	"free ",
	"hurry",
	"last chance",
}

// transactionLexicon marks completed movements of money.
var transactionLexicon = []string{
	"debited",
	"credited",
	"withdrawn",
	"deposited",
	"spent",
	"paid to",
	"payment of",
	"transaction successful",
	"txn of",
	"purchase of",
	"sent from",
	"received from",
	"available balance",
	"avl bal",
	"a/c balance",
	"upi ref",
	"imps",
	"neft",
}

// bankingTerms support the possible-transaction fallback: an amount-shaped
// token plus one of these suggests a transaction the other lexicons missed.
var bankingTerms = []string{
	"bank",
	"a/c",
	"account",
	"upi",
	"wallet",
	"card",
	"atm",
	"branch",
}

// defaultTrustedSenders lists institution sender IDs that raise confidence
// for transaction-shaped results.
var defaultTrustedSenders = []string{
	"hdfcbk",
	"icicib",
	"sbiinb",
	"sbibnk",
	"axisbk",
	"kotakb",
	"paytmb",
	"phonpe",
	"gpay",
	"ybl",
}
