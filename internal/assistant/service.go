// Package assistant turns an inbound customer message into a reply: it
// classifies the message, runs the matching response strategy, sends the
// reply, and records the exchange in the user's session.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/anbtech/storebot/internal/catalog"
	"github.com/anbtech/storebot/internal/clock"
	"github.com/anbtech/storebot/internal/completion"
	"github.com/anbtech/storebot/internal/intent"
	"github.com/anbtech/storebot/internal/ledger"
	"github.com/anbtech/storebot/internal/messaging"
	"github.com/anbtech/storebot/internal/session"
)

// ErrInvalidInbound is returned when the sender or body is missing.
var ErrInvalidInbound = errors.New("invalid inbound message")

// Inbound is one message received from a customer.
type Inbound struct {
	SenderID string
	Body     string
}

// Reply is what the assistant answered and which strategy produced it.
type Reply struct {
	Text string
	Kind intent.Kind
}

// Fallback produces free-form answers for messages no rule matched.
type Fallback interface {
	Reply(ctx context.Context, history []completion.Message, message string) string
}

type Deps struct {
	Sessions   session.Store
	Ledger     ledger.Ledger
	Catalog    *catalog.Catalog
	Classifier *intent.Classifier
	Fallback   Fallback
	Sender     messaging.Sender
	Clock      clock.Clock
	Logger     *slog.Logger
}

type Service struct {
	sessions   session.Store
	ledger     ledger.Ledger
	catalog    *catalog.Catalog
	classifier *intent.Classifier
	fallback   Fallback
	sender     messaging.Sender
	clock      clock.Clock
	logger     *slog.Logger
}

func New(d Deps) *Service {
	s := &Service{
		sessions:   d.Sessions,
		ledger:     d.Ledger,
		catalog:    d.Catalog,
		classifier: d.Classifier,
		fallback:   d.Fallback,
		sender:     d.Sender,
		clock:      d.Clock,
		logger:     d.Logger,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.classifier == nil {
		s.classifier = intent.NewClassifier("")
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// NormalizeSender strips the WhatsApp channel prefix from a sender address.
func NormalizeSender(id string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(id), "whatsapp:"))
}

// HandleMessage answers one inbound message. The reply is returned even when
// delivering it to the customer fails; delivery errors are only logged.
func (s *Service) HandleMessage(ctx context.Context, in Inbound) (Reply, error) {
	userID := NormalizeSender(in.SenderID)
	if userID == "" {
		return Reply{}, fmt.Errorf("%w: sender is required", ErrInvalidInbound)
	}
	if in.Body == "" {
		return Reply{}, fmt.Errorf("%w: body is required", ErrInvalidInbound)
	}

	ctx, span := otel.Tracer("storebot/assistant").Start(ctx, "assistant.HandleMessage")
	defer span.End()

	s.logger.Info("received message", "user_id", userID, "body", in.Body)

	// Restart the follow-up cycle before doing anything slow so a scheduler
	// tick cannot nudge a user who is mid-conversation. Update creates the
	// session on first contact.
	prior := s.sessions.Update(userID, func(sess *session.Session) {
		sess.MarkInbound(s.clock.Now())
	})

	match := s.classifier.Classify(in.Body)
	span.SetAttributes(attribute.String("intent", match.Kind.String()))

	text := s.respond(ctx, userID, in.Body, match, prior)

	if err := s.sender.Send(ctx, userID, text); err != nil {
		span.SetStatus(codes.Error, "send failed")
		s.logger.Error("sending reply failed", "user_id", userID, "error", err)
	}

	s.recordExchange(userID, in.Body, text)

	return Reply{Text: text, Kind: match.Kind}, nil
}

// recordExchange is the post-dispatch state update.
func (s *Service) recordExchange(userID, body, reply string) {
	now := s.clock.Now()

	reminder, hasReminder := intent.ParseReminder(body)
	about, hasAbout := intent.ReminderText(body)

	s.sessions.Update(userID, func(sess *session.Session) {
		sess.AppendTurn(session.RoleUser, body)
		sess.AppendTurn(session.RoleAssistant, reply)

		// A reminder is only stored when the user said what it is about.
		if hasReminder && hasAbout {
			sess.PendingReminder = &session.Reminder{
				FireAt: now.Add(reminder.Duration()),
				Text:   about,
			}
			s.logger.Info("reminder set", "user_id", userID, "fire_at", sess.PendingReminder.FireAt)
		}

		sess.MarkInbound(now)
		sess.LastOutboundMessage = reply
	})
}
