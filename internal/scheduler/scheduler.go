// Package scheduler runs the background loops that message users without
// being prompted: follow-ups after silence, user reminders, and promotions.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anbtech/storebot/internal/assistant"
	"github.com/anbtech/storebot/internal/clock"
	"github.com/anbtech/storebot/internal/messaging"
	"github.com/anbtech/storebot/internal/session"
)

const (
	DefaultFollowUpInterval = time.Minute
	DefaultPromoInterval    = time.Hour

	// FollowUpAfter is how long a user must be silent before a follow-up.
	FollowUpAfter = 12 * time.Hour

	// PromoEvery is the minimum gap between two promos to the same user.
	PromoEvery = 48 * time.Hour
)

type Options struct {
	FollowUpInterval time.Duration
	PromoInterval    time.Duration
	Logger           *slog.Logger
}

// Scheduler decides under the session store lock and sends after releasing
// it. State is updated before sending, so a failed send is not retried.
type Scheduler struct {
	sessions session.Store
	sender   messaging.Sender
	clock    clock.Clock
	followUp time.Duration
	promo    time.Duration
	logger   *slog.Logger
}

// New creates a Scheduler. Intervals <= 0 fall back to the defaults.
func New(sessions session.Store, sender messaging.Sender, clk clock.Clock, opts Options) *Scheduler {
	if clk == nil {
		clk = clock.System{}
	}
	if opts.FollowUpInterval <= 0 {
		opts.FollowUpInterval = DefaultFollowUpInterval
	}
	if opts.PromoInterval <= 0 {
		opts.PromoInterval = DefaultPromoInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sessions: sessions,
		sender:   sender,
		clock:    clk,
		followUp: opts.FollowUpInterval,
		promo:    opts.PromoInterval,
		logger:   logger,
	}
}

// Run drives both loops until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.loop(ctx, s.followUp, s.FollowUpTick)
		return nil
	})
	g.Go(func() error {
		s.loop(ctx, s.promo, s.PromoTick)
		return nil
	})
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, every time.Duration, tick func(context.Context) int) {
	for {
		if ctx.Err() != nil {
			return
		}

		tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(every):
		}
	}
}

type outbound struct {
	to, body, kind string
}

// FollowUpTick sends due follow-ups and reminders. It returns the number of
// messages it attempted to send.
func (s *Scheduler) FollowUpTick(ctx context.Context) int {
	now := s.clock.Now()

	var due []outbound
	s.sessions.Scan(func(sess *session.Session) {
		if sess.FollowUpCount < session.MaxFollowUps && now.Sub(sess.LastMessageTime) >= FollowUpAfter {
			due = append(due, outbound{sess.UserID, assistant.FollowUpMessage, "follow_up"})
			sess.FollowUpCount++
			sess.LastMessageTime = now
		}
		if r := sess.PendingReminder; r != nil && !now.Before(r.FireAt) {
			due = append(due, outbound{sess.UserID, assistant.ReminderMessage(r.Text), "reminder"})
			sess.PendingReminder = nil
		}
	})

	s.deliver(ctx, due)
	return len(due)
}

// PromoTick sends the promo to users who never had one or had it at least
// PromoEvery ago. It returns the number of messages it attempted to send.
func (s *Scheduler) PromoTick(ctx context.Context) int {
	now := s.clock.Now()

	var due []outbound
	s.sessions.Scan(func(sess *session.Session) {
		if sess.LastPromoTime.IsZero() || now.Sub(sess.LastPromoTime) >= PromoEvery {
			due = append(due, outbound{sess.UserID, assistant.PromoMessage, "promo"})
			sess.LastPromoTime = now
		}
	})

	s.deliver(ctx, due)
	return len(due)
}

func (s *Scheduler) deliver(ctx context.Context, due []outbound) {
	for _, m := range due {
		if ctx.Err() != nil {
			return
		}
		if err := s.sender.Send(ctx, m.to, m.body); err != nil {
			s.logger.Error("scheduled send failed", "kind", m.kind, "user_id", m.to, "error", err)
			continue
		}
		s.logger.Info("scheduled message sent", "kind", m.kind, "user_id", m.to)
	}
}
