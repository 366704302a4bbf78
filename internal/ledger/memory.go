package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anbtech/storebot/internal/clock"
)

// Memory is a process-lifetime Ledger guarded by a single mutex.
type Memory struct {
	clock clock.Clock

	mu        sync.Mutex
	completed []SaleRecord
	pending   []SaleRecord
	promised  []SaleRecord
}

// NewMemory returns an empty in-memory ledger. A nil clock means wall time.
func NewMemory(clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.System{}
	}
	return &Memory{clock: clk}
}

func (m *Memory) AddPending(_ context.Context, userID, item string, amount int) (SaleRecord, error) {
	if err := validate(userID, item, amount); err != nil {
		return SaleRecord{}, err
	}
	rec := m.newRecord(userID, item, amount, StatusPending)

	m.mu.Lock()
	m.pending = append(m.pending, rec)
	m.mu.Unlock()
	return rec, nil
}

func (m *Memory) AddPromised(_ context.Context, userID, item string, amount int, day time.Weekday) (SaleRecord, error) {
	if err := validate(userID, item, amount); err != nil {
		return SaleRecord{}, err
	}
	if day < time.Sunday || day > time.Saturday {
		return SaleRecord{}, ErrInvalidDay
	}
	rec := m.newRecord(userID, item, amount, StatusPromised)
	rec.Day = day.String()

	m.mu.Lock()
	m.promised = append(m.promised, rec)
	m.mu.Unlock()
	return rec, nil
}

func (m *Memory) CompletePayment(_ context.Context, userID, details string) (SaleRecord, bool, error) {
	if err := validate(userID, details, 0); err != nil {
		return SaleRecord{}, false, err
	}
	today := m.clock.Now().Format(DateLayout)

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, rec := range m.pending {
		if rec.UserID != userID {
			continue
		}
		m.pending = append(m.pending[:i:i], m.pending[i+1:]...)
		rec.Status = StatusCompleted
		rec.CompletedDate = today
		m.completed = append(m.completed, rec)
		return rec, true, nil
	}

	rec := m.newRecord(userID, details, DefaultAmount, StatusCompleted)
	rec.CompletedDate = today
	m.completed = append(m.completed, rec)
	return rec, false, nil
}

func (m *Memory) Snapshot(_ context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Completed: append([]SaleRecord(nil), m.completed...),
		Pending:   append([]SaleRecord(nil), m.pending...),
		Promised:  append([]SaleRecord(nil), m.promised...),
	}, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) newRecord(userID, item string, amount int, status Status) SaleRecord {
	return SaleRecord{
		ID:        uuid.New().String(),
		UserID:    userID,
		Item:      item,
		Amount:    amount,
		Status:    status,
		CreatedAt: m.clock.Now().UTC(),
	}
}
