package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/anbtech/storebot/internal/ledger"
	"github.com/anbtech/storebot/internal/session"
)

// PromiseRequest records a payment a customer promised for a weekday.
type PromiseRequest struct {
	UserID string `json:"user_id"`
	Item   string `json:"item"`
	Amount *int   `json:"amount,omitempty"` // nil: ledger.DefaultAmount
	Day    string `json:"day"`
}

// SessionSummary is the admin view of a session; the transcript is reduced to
// its length.
type SessionSummary struct {
	UserID          string     `json:"user_id"`
	LastMessageTime time.Time  `json:"last_message_time"`
	FollowUpCount   int        `json:"follow_up_count"`
	LastPromoTime   *time.Time `json:"last_promo_time,omitempty"`
	ReminderAt      *time.Time `json:"reminder_at,omitempty"`
	Turns           int        `json:"turns"`
	LastOutbound    string     `json:"last_outbound_message,omitempty"`
}

func summarize(sessions []session.Session) []SessionSummary {
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		sum := SessionSummary{
			UserID:          s.UserID,
			LastMessageTime: s.LastMessageTime,
			FollowUpCount:   s.FollowUpCount,
			Turns:           len(s.Transcript),
			LastOutbound:    s.LastOutboundMessage,
		}
		if !s.LastPromoTime.IsZero() {
			t := s.LastPromoTime
			sum.LastPromoTime = &t
		}
		if s.PendingReminder != nil {
			t := s.PendingReminder.FireAt
			sum.ReminderAt = &t
		}
		out = append(out, sum)
	}
	return out
}

func handleReport(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := d.Assistant.SalesReport(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "building report: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"report": report})
	}
}

func handleLedger(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := d.Ledger.Snapshot(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "reading ledger: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handlePromise(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req PromiseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		rec, err := recordPromise(r.Context(), d.Ledger, req)
		if err != nil {
			if errors.Is(err, ledger.ErrInvalidDay) || errors.Is(err, ledger.ErrInvalidRecord) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
			httpError(w, http.StatusInternalServerError, "server_error", "recording promise: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func recordPromise(ctx context.Context, l ledger.Ledger, req PromiseRequest) (ledger.SaleRecord, error) {
	day, err := ledger.ParseWeekday(req.Day)
	if err != nil {
		return ledger.SaleRecord{}, err
	}
	amount := ledger.DefaultAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	return l.AddPromised(ctx, req.UserID, req.Item, amount, day)
}

func handleSessions(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, summarize(d.Sessions.Snapshot()))
	}
}
