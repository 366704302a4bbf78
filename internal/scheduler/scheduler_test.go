package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anbtech/storebot/internal/assistant"
	"github.com/anbtech/storebot/internal/clock"
	"github.com/anbtech/storebot/internal/session"
)

const user = "+27820000001"

var t0 = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

type sent struct {
	to, body string
}

// recordingSender records sends; onSend runs inside Send when set.
type recordingSender struct {
	mu     sync.Mutex
	sent   []sent
	err    error
	onSend func()
}

func (r *recordingSender) Send(_ context.Context, to, body string) error {
	if r.onSend != nil {
		r.onSend()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{to, body})
	return r.err
}

func (r *recordingSender) count(body string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sent {
		if s.body == body {
			n++
		}
	}
	return n
}

func newTestScheduler(t *testing.T) (*Scheduler, *session.MemoryStore, *recordingSender, *clock.Manual) {
	t.Helper()
	st := session.NewMemoryStore()
	snd := &recordingSender{}
	clk := clock.NewManual(t0)
	return New(st, snd, clk, Options{}), st, snd, clk
}

func TestFollowUpsStopAfterThree(t *testing.T) {
	s, st, snd, clk := newTestScheduler(t)
	st.Update(user, func(sess *session.Session) {
		sess.MarkInbound(t0)
		sess.LastPromoTime = t0
	})

	var sentAt []time.Duration
	for h := 1; h <= 60; h++ {
		clk.Set(t0.Add(time.Duration(h) * time.Hour))
		if s.FollowUpTick(context.Background()) > 0 {
			sentAt = append(sentAt, time.Duration(h)*time.Hour)
		}
	}

	want := []time.Duration{12 * time.Hour, 24 * time.Hour, 36 * time.Hour}
	if len(sentAt) != len(want) {
		t.Fatalf("follow-ups sent at %v, want %v", sentAt, want)
	}
	for i := range want {
		if sentAt[i] != want[i] {
			t.Errorf("follow-up %d sent at %v, want %v", i+1, sentAt[i], want[i])
		}
	}
	if n := snd.count(assistant.FollowUpMessage); n != 3 {
		t.Errorf("follow-up messages = %d, want 3", n)
	}

	sess, _ := st.Get(user)
	if sess.FollowUpCount != session.MaxFollowUps {
		t.Errorf("FollowUpCount = %d, want %d", sess.FollowUpCount, session.MaxFollowUps)
	}
}

func TestInboundRestartsFollowUps(t *testing.T) {
	s, st, snd, clk := newTestScheduler(t)
	st.Update(user, func(sess *session.Session) {
		sess.MarkInbound(t0)
		sess.FollowUpCount = session.MaxFollowUps
	})

	clk.Advance(13 * time.Hour)
	s.FollowUpTick(context.Background())
	if n := snd.count(assistant.FollowUpMessage); n != 0 {
		t.Fatalf("follow-ups = %d after the cap, want 0", n)
	}

	st.Update(user, func(sess *session.Session) { sess.MarkInbound(clk.Now()) })
	clk.Advance(12 * time.Hour)
	s.FollowUpTick(context.Background())
	if n := snd.count(assistant.FollowUpMessage); n != 1 {
		t.Errorf("follow-ups = %d after a new inbound message, want 1", n)
	}
}

func TestReminderFiresOnce(t *testing.T) {
	s, st, snd, clk := newTestScheduler(t)
	st.Update(user, func(sess *session.Session) {
		sess.MarkInbound(t0)
		sess.PendingReminder = &session.Reminder{FireAt: t0.Add(2 * time.Hour), Text: "calling back"}
	})
	want := assistant.ReminderMessage("calling back")

	clk.Advance(time.Hour + 59*time.Minute)
	s.FollowUpTick(context.Background())
	if n := snd.count(want); n != 0 {
		t.Fatalf("reminder sent early")
	}

	clk.Advance(time.Minute)
	s.FollowUpTick(context.Background())
	clk.Advance(time.Minute)
	s.FollowUpTick(context.Background())

	if n := snd.count(want); n != 1 {
		t.Errorf("reminders sent = %d, want 1", n)
	}
	sess, _ := st.Get(user)
	if sess.PendingReminder != nil {
		t.Errorf("PendingReminder = %+v, want cleared", sess.PendingReminder)
	}
}

func TestPromoCadence(t *testing.T) {
	s, st, snd, clk := newTestScheduler(t)
	st.Update(user, func(sess *session.Session) { sess.MarkInbound(t0) })

	s.PromoTick(context.Background())
	if n := snd.count(assistant.PromoMessage); n != 1 {
		t.Fatalf("first tick promos = %d, want 1", n)
	}

	clk.Advance(47 * time.Hour)
	s.PromoTick(context.Background())
	if n := snd.count(assistant.PromoMessage); n != 1 {
		t.Fatalf("promos at 47h = %d, want still 1", n)
	}

	clk.Advance(time.Hour)
	s.PromoTick(context.Background())
	if n := snd.count(assistant.PromoMessage); n != 2 {
		t.Errorf("promos at 48h = %d, want 2", n)
	}

	sess, _ := st.Get(user)
	if !sess.LastPromoTime.Equal(clk.Now()) {
		t.Errorf("LastPromoTime = %v, want %v", sess.LastPromoTime, clk.Now())
	}
}

func TestFailedSendIsNotRetried(t *testing.T) {
	s, st, snd, clk := newTestScheduler(t)
	snd.err = errors.New("twilio down")
	st.Update(user, func(sess *session.Session) {
		sess.MarkInbound(t0)
		sess.PendingReminder = &session.Reminder{FireAt: t0, Text: "x"}
	})

	clk.Advance(12 * time.Hour)
	if n := s.FollowUpTick(context.Background()); n != 2 {
		t.Fatalf("attempted = %d, want 2", n)
	}
	if n := s.FollowUpTick(context.Background()); n != 0 {
		t.Errorf("second tick attempted = %d, want 0", n)
	}

	sess, _ := st.Get(user)
	if sess.FollowUpCount != 1 || sess.PendingReminder != nil {
		t.Errorf("state after failed send = %+v, want it advanced", sess)
	}
}

func TestSendHappensOutsideStoreLock(t *testing.T) {
	s, st, snd, clk := newTestScheduler(t)
	st.Update(user, func(sess *session.Session) { sess.MarkInbound(t0) })
	snd.onSend = func() { st.Len() }

	clk.Advance(12 * time.Hour)
	done := make(chan struct{})
	go func() {
		s.FollowUpTick(context.Background())
		s.PromoTick(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick deadlocked: send ran while the store lock was held")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	st := session.NewMemoryStore()
	snd := &recordingSender{}
	st.Update(user, func(sess *session.Session) { sess.MarkInbound(time.Now().Add(-13 * time.Hour)) })

	s := New(st, snd, nil, Options{
		FollowUpInterval: 10 * time.Millisecond,
		PromoInterval:    10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for snd.count(assistant.FollowUpMessage) == 0 || snd.count(assistant.PromoMessage) == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduler did not send a follow-up and a promo")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
