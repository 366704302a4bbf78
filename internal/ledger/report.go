package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Report renders the admin sales report. Only promises for now's weekday are
// listed. Report never mutates anything, so asking twice gives the same text.
func Report(snap Snapshot, now time.Time) string {
	today := now.Weekday().String()

	var b strings.Builder
	b.WriteString("📊 Sales Report\n\n")

	fmt.Fprintf(&b, "Completed Sales: %d\n", len(snap.Completed))
	for _, r := range snap.Completed {
		fmt.Fprintf(&b, "- %s: %s (R%d) on %s\n", r.UserID, r.Item, r.Amount, r.CompletedDate)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Pending Sales: %d\n", len(snap.Pending))
	for _, r := range snap.Pending {
		fmt.Fprintf(&b, "- %s: %s (R%d)\n", r.UserID, r.Item, r.Amount)
	}
	b.WriteString("\n")

	due := PromisedOn(snap, now.Weekday())
	fmt.Fprintf(&b, "Promised Today (%s): %d\n", today, len(due))
	for _, r := range due {
		fmt.Fprintf(&b, "- %s: %s (R%d)\n", r.UserID, r.Item, r.Amount)
	}
	return b.String()
}

// PromisedOn filters the promised records due on day.
func PromisedOn(snap Snapshot, day time.Weekday) []SaleRecord {
	var out []SaleRecord
	for _, r := range snap.Promised {
		if r.Day == day.String() {
			out = append(out, r)
		}
	}
	return out
}
