package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
)

func reportFixture() Snapshot {
	return Snapshot{
		Completed: []SaleRecord{
			{UserID: "+27820000001", Item: "Iphone 13 (Pink, 128gb)", Amount: 7549, Status: StatusCompleted, CompletedDate: "2024-03-01"},
			{UserID: "+27820000002", Item: "iPhone 12 Pro", Amount: DefaultAmount, Status: StatusCompleted, CompletedDate: "2024-03-02"},
		},
		Pending: []SaleRecord{
			{UserID: "+27820000003", Item: "Iphone 14 Pro (Space Black, 256gb)", Amount: 13199, Status: StatusPending},
		},
		Promised: []SaleRecord{
			{UserID: "+27820000004", Item: "iPhone 15 Pro", Amount: 13799, Status: StatusPromised, Day: "Monday"},
			{UserID: "+27820000005", Item: "iPhone 16 Pro", Amount: 14999, Status: StatusPromised, Day: "Friday"},
		},
	}
}

func TestReportGolden(t *testing.T) {
	got := Report(reportFixture(), monday)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report", []byte(got))
}

func TestReportEmptyLedger(t *testing.T) {
	got := Report(Snapshot{}, monday)
	want := "📊 Sales Report\n\nCompleted Sales: 0\n\nPending Sales: 0\n\nPromised Today (Monday): 0\n"
	if got != want {
		t.Errorf("Report() = %q, want %q", got, want)
	}
}

func TestReportOnlyListsTodaysPromises(t *testing.T) {
	friday := monday.Add(4 * 24 * time.Hour)
	got := Report(reportFixture(), friday)

	if !strings.Contains(got, "Promised Today (Friday): 1\n- +27820000005: iPhone 16 Pro (R14999)") {
		t.Errorf("Report() missing Friday promise:\n%s", got)
	}
	if strings.Contains(got, "+27820000004") {
		t.Errorf("Report() lists Monday promise on Friday:\n%s", got)
	}
}

func TestReportIsRepeatable(t *testing.T) {
	snap := reportFixture()
	first := Report(snap, monday)
	second := Report(snap, monday)
	if first != second {
		t.Errorf("Report() changed between calls:\n%s\n---\n%s", first, second)
	}
	if len(snap.Pending) != 1 || len(snap.Completed) != 2 {
		t.Error("Report() mutated the snapshot")
	}
}
