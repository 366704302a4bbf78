// Package intent decides how the assistant answers an inbound message. Rules
// are evaluated in a fixed order and the first one that matches wins.
package intent

import "strings"

// Kind identifies the response strategy for a message.
type Kind int

const (
	KindFallback Kind = iota
	KindAdmin
	KindPaymentConfirmation
	KindPurchaseQuote
	KindReminder
	KindPurchaseIntent
	KindAdReply
	KindPriceList
	KindRecommendations
	KindInstallmentPlan
	KindPictureLink
)

var kindNames = map[Kind]string{
	KindFallback:            "fallback",
	KindAdmin:               "admin_report",
	KindPaymentConfirmation: "payment_confirmation",
	KindPurchaseQuote:       "purchase_quote",
	KindReminder:            "reminder",
	KindPurchaseIntent:      "purchase_intent",
	KindAdReply:             "ad_reply",
	KindPriceList:           "price_list",
	KindRecommendations:     "recommendations",
	KindInstallmentPlan:     "installment_plan",
	KindPictureLink:         "picture_link",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Keyword sets, matched as case-insensitive substrings.
var (
	PurchaseKeywords       = []string{"buy", "order", "purchase", "pay", "eft", "transfer", "secure"}
	AdKeywords             = []string{"know more", "tell me more", "about this", "interested", "details", "what's this", "what’s this", "ad", "advertisement"}
	PriceKeywords          = []string{"price", "model", "discount", "cost"}
	RecommendationKeywords = []string{"recommend", "suggest", "bundle", "accessories"}
	InstallmentKeywords    = []string{"installment", "installments", "monthly", "plan"}
	PictureKeywords        = []string{"picture", "pictures", "image", "images", "see", "look"}
)

// Message is the text under classification with its lowercased form.
type Message struct {
	Text  string
	Lower string
}

// Match is the outcome of classification. Only the field belonging to Kind
// is populated.
type Match struct {
	Kind         Kind
	Purchase     PurchaseRequest // KindPurchaseQuote
	Reminder     ReminderRequest // KindReminder
	OrderDetails string          // KindPaymentConfirmation; may be empty
}

// Rule pairs a predicate with the strategy it selects.
type Rule struct {
	Kind  Kind
	Match func(Message) (Match, bool)
}

type Classifier struct {
	rules []Rule
}

// NewClassifier builds the rule list. An empty secretPhrase disables the
// admin rule.
func NewClassifier(secretPhrase string) *Classifier {
	phrase := strings.ToLower(strings.TrimSpace(secretPhrase))

	rules := []Rule{
		{KindAdmin, func(m Message) (Match, bool) {
			return Match{Kind: KindAdmin}, phrase != "" && strings.Contains(m.Lower, phrase)
		}},
		{KindPaymentConfirmation, func(m Message) (Match, bool) {
			if !strings.HasPrefix(strings.TrimSpace(m.Lower), "paid") {
				return Match{}, false
			}
			return Match{Kind: KindPaymentConfirmation, OrderDetails: OrderDetails(strings.TrimSpace(m.Text))}, true
		}},
		{KindPurchaseQuote, func(m Message) (Match, bool) {
			p, ok := ParsePurchase(m.Text)
			return Match{Kind: KindPurchaseQuote, Purchase: p}, ok
		}},
		{KindReminder, func(m Message) (Match, bool) {
			r, ok := ParseReminder(m.Text)
			return Match{Kind: KindReminder, Reminder: r}, ok
		}},
		keywordRule(KindPurchaseIntent, PurchaseKeywords),
		{KindAdReply, func(m Message) (Match, bool) {
			ok := containsAny(m.Lower, AdKeywords) && !containsAny(m.Lower, PurchaseKeywords)
			return Match{Kind: KindAdReply}, ok
		}},
		keywordRule(KindPriceList, PriceKeywords),
		keywordRule(KindRecommendations, RecommendationKeywords),
		keywordRule(KindInstallmentPlan, InstallmentKeywords),
		keywordRule(KindPictureLink, PictureKeywords),
	}
	return &Classifier{rules: rules}
}

// Classify returns the first matching rule's result, or KindFallback.
func (c *Classifier) Classify(text string) Match {
	msg := Message{Text: text, Lower: strings.ToLower(text)}
	for _, r := range c.rules {
		if m, ok := r.Match(msg); ok {
			return m
		}
	}
	return Match{Kind: KindFallback}
}

// Order lists the rule kinds in evaluation order.
func (c *Classifier) Order() []Kind {
	kinds := make([]Kind, len(c.rules))
	for i, r := range c.rules {
		kinds[i] = r.Kind
	}
	return kinds
}

func keywordRule(kind Kind, keywords []string) Rule {
	return Rule{kind, func(m Message) (Match, bool) {
		return Match{Kind: kind}, containsAny(m.Lower, keywords)
	}}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
