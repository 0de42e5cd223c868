package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finsift/finsift/internal/model"
)

func TestClassifier_Classify(t *testing.T) {
	c := New()

	tests := []struct {
		name           string
		body           string
		sender         string
		wantReason     model.ClassificationReason
		wantConfidence float64
		wantExtract    bool
	}{
		{
			name:           "completed debit is a valid transaction",
			body:           "Rs 450.00 debited from A/c **1234 on 10-Sep-24 at SWIGGY BANGALORE for UPI/123456789. Avl Bal Rs 15,234.56",
			sender:         "VM-BANKSMS",
			wantReason:     model.ReasonValidTransaction,
			wantConfidence: 1.0,
			wantExtract:    true,
		},
		{
			name:           "payment request never becomes a transaction",
			body:           "John Doe is requesting Rs 500.00 via UPI. Tap to approve payment.",
			sender:         "VM-UPIAPP",
			wantReason:     model.ReasonTransactionRequest,
			wantConfidence: 0.9,
			wantExtract:    false,
		},
		{
			name:           "pending debit alert is a request",
			body:           "Rs 199 will be debited from your account for your subscription tomorrow",
			sender:         "VM-SUBSVC",
			wantReason:     model.ReasonTransactionRequest,
			wantConfidence: 0.9,
			wantExtract:    false,
		},
		{
			name:           "otp message",
			body:           "Your OTP for login is 482910. Do not share it with anyone. Expires in 10 minutes.",
			sender:         "VM-BANKSMS",
			wantReason:     model.ReasonOneTimeCode,
			wantConfidence: 0.95,
			wantExtract:    false,
		},
		{
			name:           "two promotional hits filter the message",
			body:           "Mega sale! Get 20% cashback on every order. Shop now!",
			sender:         "VM-SHOPCO",
			wantReason:     model.ReasonPromotional,
			wantConfidence: 0.8,
			wantExtract:    false,
		},
		{
			name:           "single promotional word is not enough",
			body:           "Amount of Rs 100 credited to your bank account as festive offer payout",
			sender:         "VM-BANKSMS",
			wantReason:     model.ReasonValidTransaction,
			wantExtract:    true,
			wantConfidence: 0.9,
		},
		{
			name:           "amount plus banking term is a possible transaction",
			body:           "INR 2,500 processed via UPI successfully",
			sender:         "VM-UPIAPP",
			wantReason:     model.ReasonPossibleTransaction,
			wantConfidence: 0.6,
			wantExtract:    true,
		},
		{
			name:           "unrelated text is uncertain",
			body:           "Hey, are we still on for dinner tonight?",
			sender:         "+919812345678",
			wantReason:     model.ReasonUncertain,
			wantConfidence: 0.3,
			wantExtract:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(model.IncomingMessage{Body: tt.body, Sender: tt.sender}, nil)

			assert.Equal(t, tt.wantReason, result.Reason)
			assert.InDelta(t, tt.wantConfidence, result.Confidence, 0.001)
			assert.Equal(t, tt.wantExtract, result.ShouldExtract())
		})
	}
}

func TestClassifier_MatchedKeywordsAreEvidence(t *testing.T) {
	c := New()

	result := c.Classify(model.IncomingMessage{
		Body:   "Rs 450.00 debited from A/c. Avl Bal Rs 100",
		Sender: "VM-BANKSMS",
	}, nil)

	assert.Contains(t, result.MatchedKeywords, "debited")
	assert.Contains(t, result.MatchedKeywords, "avl bal")
}

func TestClassifier_TrustedSenderBoost(t *testing.T) {
	c := New()
	msg := model.IncomingMessage{
		Body:   "INR 2,500 processed via UPI successfully",
		Sender: "AD-HDFCBK",
	}

	// Possible transaction baseline is 0.6; trusted sender adds 0.2.
	result := c.Classify(msg, nil)
	assert.Equal(t, model.ReasonPossibleTransaction, result.Reason)
	assert.InDelta(t, 0.8, result.Confidence, 0.001)

	// Boost is capped at 1.0.
	strong := model.IncomingMessage{
		Body:   "Rs 450 debited from A/c. Avl Bal Rs 100. UPI Ref 1234",
		Sender: "AD-HDFCBK",
	}
	result = c.Classify(strong, nil)
	assert.InDelta(t, 1.0, result.Confidence, 0.001)
}

func TestClassifier_UserTrustedSenders(t *testing.T) {
	c := New()
	uc := &UserContext{TrustedSenders: []string{"MYBANK"}}

	result := c.Classify(model.IncomingMessage{
		Body:   "INR 2,500 processed via UPI successfully",
		Sender: "VM-MYBANK",
	}, uc)

	assert.InDelta(t, 0.8, result.Confidence, 0.001)
}

func TestClassifier_RepeatedBlastIsSpam(t *testing.T) {
	c := New()
	body := "Rs 999 cashback credited! Avl Bal offer ends today, transaction successful"
	sender := "VM-SPAMCO"

	recent := make([]model.IncomingMessage, 0, 4)
	for i := 0; i < 4; i++ {
		recent = append(recent, model.IncomingMessage{Body: body, Sender: sender})
	}

	// Individually the message passes the transaction lexicon, but three or
	// more near-duplicates from the same sender override it.
	result := c.Classify(model.IncomingMessage{Body: body, Sender: sender}, &UserContext{RecentMessages: recent})

	assert.Equal(t, model.ReasonDuplicateSpam, result.Reason)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)
	assert.False(t, result.ShouldExtract())
}

func TestClassifier_FewRepeatsAreNotSpam(t *testing.T) {
	c := New()
	body := "Rs 450 debited from A/c at SWIGGY"
	sender := "VM-BANKSMS"

	recent := []model.IncomingMessage{
		{Body: body, Sender: sender},
		{Body: body, Sender: sender},
	}

	result := c.Classify(model.IncomingMessage{Body: body, Sender: sender}, &UserContext{RecentMessages: recent})
	assert.Equal(t, model.ReasonValidTransaction, result.Reason)
}

func TestJaccard(t *testing.T) {
	a := tokenSet("rs 100 debited from account")
	b := tokenSet("rs 100 debited from account")
	assert.InDelta(t, 1.0, jaccard(a, b), 0.001)

	c := tokenSet("completely different words here")
	assert.Less(t, jaccard(a, c), 0.1)
}
