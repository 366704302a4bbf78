package intent

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PurchaseRequest is a fully specified purchase: model, color and storage,
// optionally with the price the customer expects to pay.
type PurchaseRequest struct {
	Model            string
	Color            string
	StorageGB        int
	CustomerPrice    int
	HasCustomerPrice bool
}

// Item is the ledger description of the request, e.g. "Iphone 13 (Pink, 128gb)".
func (p PurchaseRequest) Item() string {
	return fmt.Sprintf("%s (%s, %dgb)", p.Model, p.Color, p.StorageGB)
}

var purchasePattern = regexp.MustCompile(
	`(?i)interested\s+in\s+buying\s+an?\s+(.+?)\s*\(\s*([^,()]+?)\s*,\s*(\d+)\s*gb\s*\)(?:\s*for\s*r\s*(\d[\d,]*))?`)

// ParsePurchase recognizes "interested in buying a(n) <model> (<color>, <N>GB)"
// with an optional trailing "for R<price>". Model and color come back in title
// case.
func ParsePurchase(text string) (PurchaseRequest, bool) {
	m := purchasePattern.FindStringSubmatch(text)
	if m == nil {
		return PurchaseRequest{}, false
	}
	// A storage size that does not parse stays 0, which no catalog entry
	// offers, so the request is still answered as unavailable.
	storage, err := strconv.Atoi(m[3])
	if err != nil {
		storage = 0
	}

	req := PurchaseRequest{
		Model:     titleCase(m[1]),
		Color:     titleCase(m[2]),
		StorageGB: storage,
	}
	if m[4] != "" {
		if price, err := strconv.Atoi(strings.ReplaceAll(m[4], ",", "")); err == nil {
			req.CustomerPrice = price
			req.HasCustomerPrice = true
		}
	}
	return req, true
}

// Unit is the time unit of a reminder request.
type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
)

// Seconds is the length of one unit.
func (u Unit) Seconds() int64 {
	switch u {
	case UnitMinute:
		return 60
	case UnitHour:
		return 3600
	case UnitDay:
		return 24 * 3600
	}
	return 0
}

// Word returns the unit name for n, pluralized when n != 1.
func (u Unit) Word(n int64) string {
	if n == 1 {
		return string(u)
	}
	return string(u) + "s"
}

// ReminderRequest is "remind me in <N> <unit>" converted to seconds.
type ReminderRequest struct {
	Value   int64
	Unit    Unit
	Seconds int64
}

func (r ReminderRequest) Duration() time.Duration {
	return time.Duration(r.Seconds) * time.Second
}

var reminderPattern = regexp.MustCompile(`(?i)remind me in (\d+) (minutes?|hours?|days?)\b`)

// ParseReminder recognizes "remind me in <N> <minute(s)|hour(s)|day(s)>".
// N must be at least 1.
func ParseReminder(text string) (ReminderRequest, bool) {
	m := reminderPattern.FindStringSubmatch(text)
	if m == nil {
		return ReminderRequest{}, false
	}
	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || value < 1 {
		return ReminderRequest{}, false
	}

	unit := Unit(strings.TrimSuffix(strings.ToLower(m[2]), "s"))
	per := unit.Seconds()
	if value > math.MaxInt64/int64(time.Second)/per {
		return ReminderRequest{}, false
	}
	return ReminderRequest{Value: value, Unit: unit, Seconds: value * per}, true
}

var aboutPattern = regexp.MustCompile(`(?i)about`)

// ReminderText returns what follows the first "about" in text, trimmed. ok is
// false when text has no "about" at all.
func ReminderText(text string) (string, bool) {
	loc := aboutPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return strings.TrimSpace(text[loc[1]:]), true
}

// OrderDetails returns the text after "PAID" and the first whitespace.
func OrderDetails(text string) string {
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i:])
}

// PendingItem describes a generic purchase message: whatever follows the last
// "buy " when the message mentions buying at all.
func PendingItem(text string) string {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "buy") {
		return "Pending item"
	}
	parts := strings.Split(lower, "buy ")
	if item := strings.TrimSpace(parts[len(parts)-1]); item != "" {
		return item
	}
	return "Pending item"
}

// cases.Caser is stateful, so each call gets its own.
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
