package session

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestGetOrCreateStartsZeroed(t *testing.T) {
	st := NewMemoryStore()

	if _, ok := st.Get("+27820000001"); ok {
		t.Fatal("Get() found a session before first contact")
	}

	s := st.GetOrCreate("+27820000001")
	if s.UserID != "+27820000001" {
		t.Errorf("UserID = %q, want %q", s.UserID, "+27820000001")
	}
	if len(s.Transcript) != 0 || s.FollowUpCount != 0 || !s.LastMessageTime.IsZero() ||
		!s.LastPromoTime.IsZero() || s.PendingReminder != nil || s.LastOutboundMessage != "" {
		t.Errorf("new session not zeroed: %+v", s)
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
}

func TestUpdateCreatesOnFirstContact(t *testing.T) {
	st := NewMemoryStore()
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	var seen Session
	got := st.Update("+27820000001", func(s *Session) {
		seen = *s
		s.MarkInbound(now)
	})
	if seen.UserID != "+27820000001" || len(seen.Transcript) != 0 || seen.FollowUpCount != 0 ||
		!seen.LastMessageTime.IsZero() || seen.PendingReminder != nil {
		t.Errorf("fn saw %+v, want a zeroed session", seen)
	}
	if got.UserID != "+27820000001" || !got.LastMessageTime.Equal(now) {
		t.Errorf("Update() = %+v", got)
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
	if again := st.GetOrCreate("+27820000001"); !again.LastMessageTime.Equal(now) {
		t.Errorf("GetOrCreate() after Update = %+v, want the same record", again)
	}
}

func TestTranscriptCappedAtTwenty(t *testing.T) {
	st := NewMemoryStore()
	for i := range 15 {
		st.Update("u", func(s *Session) {
			s.AppendTurn(RoleUser, fmt.Sprintf("q%d", i))
			s.AppendTurn(RoleAssistant, fmt.Sprintf("a%d", i))
		})
	}

	s, _ := st.Get("u")
	if len(s.Transcript) != MaxTranscript {
		t.Fatalf("len(Transcript) = %d, want %d", len(s.Transcript), MaxTranscript)
	}
	if s.Transcript[0].Content != "q5" {
		t.Errorf("oldest kept entry = %q, want %q", s.Transcript[0].Content, "q5")
	}
	if last := s.Transcript[len(s.Transcript)-1]; last.Role != RoleAssistant || last.Content != "a14" {
		t.Errorf("newest entry = %+v, want assistant a14", last)
	}
}

func TestCopiesAreIndependent(t *testing.T) {
	st := NewMemoryStore()
	st.Update("u", func(s *Session) {
		s.AppendTurn(RoleUser, "hello")
		s.PendingReminder = &Reminder{Text: "call back"}
	})

	s, _ := st.Get("u")
	s.Transcript[0].Content = "changed"
	s.PendingReminder.Text = "changed"

	again, _ := st.Get("u")
	if again.Transcript[0].Content != "hello" || again.PendingReminder.Text != "call back" {
		t.Errorf("mutating a copy leaked into the store: %+v", again)
	}
}

func TestMarkInboundResetsFollowUps(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	st := NewMemoryStore()
	st.Update("u", func(s *Session) { s.FollowUpCount = 3 })

	got := st.Update("u", func(s *Session) { s.MarkInbound(now) })
	if got.FollowUpCount != 0 || !got.LastMessageTime.Equal(now) {
		t.Errorf("after MarkInbound: count=%d last=%v", got.FollowUpCount, got.LastMessageTime)
	}
}

func TestScanVisitsEverySession(t *testing.T) {
	st := NewMemoryStore()
	for _, id := range []string{"c", "a", "b"} {
		st.GetOrCreate(id)
	}

	visited := 0
	st.Scan(func(s *Session) {
		visited++
		s.FollowUpCount++
	})
	if visited != 3 {
		t.Errorf("Scan visited %d sessions, want 3", visited)
	}

	snap := st.Snapshot()
	for i, want := range []string{"a", "b", "c"} {
		if snap[i].UserID != want {
			t.Errorf("Snapshot()[%d].UserID = %q, want %q", i, snap[i].UserID, want)
		}
		if snap[i].FollowUpCount != 1 {
			t.Errorf("Snapshot()[%d].FollowUpCount = %d, want 1", i, snap[i].FollowUpCount)
		}
	}
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	st := NewMemoryStore()
	const workers, perWorker = 8, 100

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				st.Update("u", func(s *Session) { s.FollowUpCount++ })
				st.Scan(func(s *Session) {})
			}
		}()
	}
	wg.Wait()

	s, _ := st.Get("u")
	if s.FollowUpCount != workers*perWorker {
		t.Errorf("FollowUpCount = %d, want %d", s.FollowUpCount, workers*perWorker)
	}
}
