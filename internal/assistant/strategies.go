package assistant

import (
	"context"

	"github.com/anbtech/storebot/internal/completion"
	"github.com/anbtech/storebot/internal/intent"
	"github.com/anbtech/storebot/internal/ledger"
	"github.com/anbtech/storebot/internal/session"
)

func (s *Service) respond(ctx context.Context, userID, body string, m intent.Match, prior session.Session) string {
	switch m.Kind {
	case intent.KindAdmin:
		return s.salesReport(ctx)
	case intent.KindPaymentConfirmation:
		return s.confirmPayment(ctx, userID, m.OrderDetails)
	case intent.KindPurchaseQuote:
		return s.quote(ctx, userID, m.Purchase)
	case intent.KindReminder:
		return reminderConfirmation(m.Reminder)
	case intent.KindPurchaseIntent:
		return s.purchaseIntent(ctx, userID, body)
	case intent.KindAdReply:
		return AdResponse
	case intent.KindPriceList:
		return PriceList
	case intent.KindRecommendations:
		return Recommendations
	case intent.KindInstallmentPlan:
		return InstallmentPlan
	case intent.KindPictureLink:
		return PictureLink
	default:
		return s.fallback.Reply(ctx, history(prior.Transcript), body)
	}
}

// SalesReport renders the admin report for the current ledger state.
func (s *Service) SalesReport(ctx context.Context) (string, error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return ledger.Report(snap, s.clock.Now()), nil
}

func (s *Service) salesReport(ctx context.Context) string {
	report, err := s.SalesReport(ctx)
	if err != nil {
		s.logger.Error("building sales report failed", "error", err)
		return ReportUnavailable
	}
	return report
}

func (s *Service) confirmPayment(ctx context.Context, userID, details string) string {
	if details == "" {
		return PaymentNeedsDetails
	}
	rec, resolved, err := s.ledger.CompletePayment(ctx, userID, details)
	if err != nil {
		s.logger.Error("recording payment failed", "user_id", userID, "error", err)
	} else {
		s.logger.Info("payment recorded", "user_id", userID, "item", rec.Item, "resolved_pending", resolved)
	}
	return PaymentReceived
}

func (s *Service) quote(ctx context.Context, userID string, p intent.PurchaseRequest) string {
	price, err := s.catalog.Price(p.Model, p.Color, p.StorageGB)
	if err != nil {
		s.logger.Info("purchase request not available", "user_id", userID, "reason", err)
		return unavailableReply(p)
	}

	if _, err := s.ledger.AddPending(ctx, userID, p.Item(), price); err != nil {
		s.logger.Error("recording pending sale failed", "user_id", userID, "error", err)
	}

	model := p.Model
	if e, ok := s.catalog.Lookup(p.Model); ok {
		model = e.Model
	}
	return quoteReply(p, model, price)
}

func (s *Service) purchaseIntent(ctx context.Context, userID, body string) string {
	if _, err := s.ledger.AddPending(ctx, userID, intent.PendingItem(body), ledger.DefaultAmount); err != nil {
		s.logger.Error("recording pending sale failed", "user_id", userID, "error", err)
	}
	return OrderFlow
}

func history(turns []session.Turn) []completion.Message {
	msgs := make([]completion.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, completion.Message{Role: string(t.Role), Content: t.Content})
	}
	return msgs
}
