// Package ledger tracks the sales funnel: pending orders, completed sales,
// and payments customers have promised for a given weekday.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DefaultAmount is recorded when the real price of an order is not known,
// e.g. a generic "I want to buy" message or a payment with no pending order.
const DefaultAmount = 9599

// DateLayout formats CompletedDate.
const DateLayout = "2006-01-02"

var (
	ErrInvalidRecord = errors.New("invalid sale record")
	ErrInvalidDay    = errors.New("invalid weekday")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusPromised  Status = "promised"
)

type SaleRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Item          string    `json:"item"`
	Amount        int       `json:"amount"`
	Status        Status    `json:"status"`
	Day           string    `json:"day,omitempty"`            // promised only
	CompletedDate string    `json:"completed_date,omitempty"` // completed only
	CreatedAt     time.Time `json:"created_at"`
}

// Snapshot is a point-in-time copy of every record, grouped by status.
// Within each group records keep the order in which they entered it.
type Snapshot struct {
	Completed []SaleRecord `json:"completed"`
	Pending   []SaleRecord `json:"pending"`
	Promised  []SaleRecord `json:"promised"`
}

// Ledger is the funnel store. Implementations serialize mutations so that a
// payment confirmation moves exactly one pending record.
type Ledger interface {
	// AddPending appends a pending order for userID.
	AddPending(ctx context.Context, userID, item string, amount int) (SaleRecord, error)

	// AddPromised records a payment the customer promised to make on day.
	AddPromised(ctx context.Context, userID, item string, amount int, day time.Weekday) (SaleRecord, error)

	// CompletePayment moves the oldest pending record of userID to completed,
	// stamped with today's date. When userID has nothing pending, a completed
	// record for details at DefaultAmount is inserted instead. The bool
	// reports whether an existing pending record was resolved.
	CompletePayment(ctx context.Context, userID, details string) (SaleRecord, bool, error)

	Snapshot(ctx context.Context) (Snapshot, error)

	Close() error
}

// ParseWeekday accepts a full or three-letter English weekday name in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			name := strings.ToLower(d.String())
			if s == name || s == name[:3] {
				return d, nil
			}
		}
	}
	return 0, ErrInvalidDay
}

func validate(userID, item string, amount int) error {
	if strings.TrimSpace(userID) == "" {
		return errors.Join(ErrInvalidRecord, errors.New("user id is required"))
	}
	if strings.TrimSpace(item) == "" {
		return errors.Join(ErrInvalidRecord, errors.New("item is required"))
	}
	if amount < 0 {
		return errors.Join(ErrInvalidRecord, errors.New("amount must not be negative"))
	}
	return nil
}
