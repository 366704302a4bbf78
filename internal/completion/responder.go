package completion

import (
	"context"
	"log/slog"
	"time"
)

// Apology is sent whenever the completion provider cannot produce an answer.
const Apology = "Sorry, I couldn’t process your request right now. How can I assist you otherwise?"

const defaultReplyTimeout = 30 * time.Second

// Completer is the interface for chat completion.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Persona     string        // defaults to Persona
	Timeout     time.Duration // defaults to 30s
	MaxHistory  int           // defaults to DefaultHistoryMessages
	Logger      *slog.Logger
}

// Responder produces free-form replies. It never fails: provider errors are
// logged and turned into Apology.
type Responder struct {
	client Completer
	opts   Options
	logger *slog.Logger
}

func NewResponder(client Completer, opts Options) *Responder {
	if opts.Persona == "" {
		opts.Persona = Persona
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultReplyTimeout
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultHistoryMessages
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{client: client, opts: opts, logger: logger}
}

// Reply answers message given the prior conversation history.
func (r *Responder) Reply(ctx context.Context, history []Message, message string) string {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	req := ChatRequest{
		Model:       r.opts.Model,
		Messages:    BuildMessages(r.opts.Persona, history, message, r.opts.MaxHistory),
		Temperature: r.opts.Temperature,
		MaxTokens:   r.opts.MaxTokens,
	}

	text, err := r.client.Complete(ctx, req)
	if err != nil {
		r.logger.Warn("completion failed, sending apology", "error", err)
		return Apology
	}
	return text
}
