package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/anbtech/storebot/internal/assistant"
)

type webhookResponse struct {
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

type webhookJSON struct {
	SenderID string `json:"sender_id"`
	Body     string `json:"body"`
}

// handleWebhook accepts Twilio's form-encoded callback (From, Body) or a JSON
// body with sender_id and body.
func handleWebhook(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		in, ok := decodeInbound(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "Invalid request"})
			return
		}

		reply, err := d.Assistant.HandleMessage(r.Context(), in)
		if err != nil {
			if errors.Is(err, assistant.ErrInvalidInbound) {
				writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Message: "Invalid request"})
				return
			}
			d.Logger.Error("handling webhook failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, webhookResponse{Status: "error", Message: "Internal error"})
			return
		}

		writeJSON(w, http.StatusOK, webhookResponse{Status: "success", Response: reply.Text})
	}
}

func decodeInbound(r *http.Request) (assistant.Inbound, bool) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body webhookJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return assistant.Inbound{}, false
		}
		return assistant.Inbound{SenderID: body.SenderID, Body: body.Body}, true
	}

	if err := r.ParseForm(); err != nil {
		return assistant.Inbound{}, false
	}
	return assistant.Inbound{SenderID: r.PostForm.Get("From"), Body: r.PostForm.Get("Body")}, true
}
